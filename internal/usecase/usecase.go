package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/forPelevin/clipscan/internal/domain/detect"
	"github.com/forPelevin/clipscan/internal/domain/timecode"
	"github.com/forPelevin/clipscan/internal/domain/windows"
	"github.com/forPelevin/clipscan/internal/ports"
	"github.com/forPelevin/clipscan/internal/types"
)

// Scan mode labels surfaced to clients.
const (
	ScanModeFull    = "Full video"
	ScanModeNoAudio = "N/A"
)

// ValidationError marks a failure the client caused: bad extension, malformed
// timestamp, out-of-range clip bounds. Never retried, mapped to a 4xx.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

var allowedExtensions = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".avi": {}, ".mkv": {},
	".webm": {}, ".m4v": {}, ".wmv": {}, ".flv": {},
}

// AllowedExtensions returns the supported upload container formats, sorted.
func AllowedExtensions() []string {
	out := make([]string, 0, len(allowedExtensions))
	for ext := range allowedExtensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func checkExtension(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return validationf("Invalid file type. Allowed: %s", strings.Join(AllowedExtensions(), ", "))
	}
	return nil
}

type Deps struct {
	Media      ports.MediaTool
	Recognizer ports.Recognizer
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

type ScanInput struct {
	VideoPath string
	Filename  string

	// WorkDir is the request-scoped scratch dir for the extracted audio
	// track and per-window samples. The caller owns its lifetime.
	WorkDir string

	// MaxDuration limits analysis to the first N seconds when > 0 and
	// smaller than the real duration; the result is marked partial.
	MaxDuration float64

	Windows windows.Config
}

// Scan probes the upload, extracts its audio, recognizes every analysis
// window and aggregates the hits into per-track detections. Window-level
// failures land in the result's error list; only probe and audio extraction
// failures abort the scan.
func (u Usecase) Scan(ctx context.Context, in ScanInput) (types.ScanResult, error) {
	if err := checkExtension(in.Filename); err != nil {
		return types.ScanResult{}, err
	}

	duration, err := u.d.Media.ProbeDuration(ctx, in.VideoPath)
	if err != nil {
		return types.ScanResult{}, fmt.Errorf("probe duration: %w", err)
	}

	res := types.ScanResult{
		Filename:      in.Filename,
		VideoDuration: duration,
	}

	audioPath := filepath.Join(in.WorkDir, "audio.mp3")
	if err := u.d.Media.ExtractAudio(ctx, in.VideoPath, audioPath); err != nil {
		if errors.Is(err, ports.ErrNoAudioTrack) {
			res.ScanMode = ScanModeNoAudio
			res.Errors = []string{"Video has no audio track"}
			return res, nil
		}
		return types.ScanResult{}, fmt.Errorf("extract audio: %w", err)
	}

	analyzeDuration := duration
	res.ScanMode = ScanModeFull
	if in.MaxDuration > 0 && in.MaxDuration < duration {
		analyzeDuration = in.MaxDuration
		res.ScanMode = "First " + timecode.Format(in.MaxDuration)
	}

	plan, err := windows.Plan(analyzeDuration, in.Windows)
	if err != nil {
		return types.ScanResult{}, err
	}
	res.WindowCount = len(plan)

	var hits []detect.Hit
	for i, w := range plan {
		samplePath := filepath.Join(in.WorkDir, fmt.Sprintf("chunk_%d.mp3", i))

		if err := u.d.Media.ExtractAudioWindow(ctx, audioPath, w.Start, w.Length, samplePath); err != nil {
			res.Errors = append(res.Errors, windowError(i, w, err))
			continue
		}

		match, err := u.d.Recognizer.Recognize(ctx, samplePath)
		os.Remove(samplePath) // best-effort, the workdir is removed anyway
		if err != nil {
			res.Errors = append(res.Errors, windowError(i, w, err))
			if errors.Is(err, ports.ErrRecognizerNotConfigured) {
				// A missing credential fails every window identically;
				// report it once and stop calling the service.
				break
			}
			continue
		}
		if match != nil {
			hits = append(hits, detect.Hit{Window: w, Match: *match})
		}
	}

	res.Detections = detect.Aggregate(hits, duration, in.Windows.MergeGap)
	return res, nil
}

func windowError(i int, w types.Window, err error) string {
	return fmt.Sprintf("Chunk %d (%s): %v", i, timecode.Format(w.Start), err)
}

type ClipInput struct {
	VideoPath string
	Filename  string
	Start     string // MM:SS or HH:MM:SS
	End       string
	OutPath   string
}

// Clip validates the requested range against the probed duration and writes
// the [start, end) segment with audio dropped. It returns the derived
// attachment filename for the artifact at in.OutPath.
func (u Usecase) Clip(ctx context.Context, in ClipInput) (string, error) {
	if err := checkExtension(in.Filename); err != nil {
		return "", err
	}
	if strings.TrimSpace(in.Start) == "" || strings.TrimSpace(in.End) == "" {
		return "", validationf("Start and end timestamps are required")
	}

	start, err := timecode.Parse(in.Start)
	if err != nil {
		return "", &ValidationError{Msg: err.Error()}
	}
	end, err := timecode.Parse(in.End)
	if err != nil {
		return "", &ValidationError{Msg: err.Error()}
	}

	if start >= end {
		return "", validationf("Start time must be before end time")
	}
	if start < 0 {
		return "", validationf("Start time cannot be negative")
	}

	duration, err := u.d.Media.ProbeDuration(ctx, in.VideoPath)
	if err != nil {
		return "", fmt.Errorf("probe duration: %w", err)
	}
	if end > duration {
		return "", validationf("End time (%s) exceeds video duration (%s)",
			strings.TrimSpace(in.End), timecode.Format(duration))
	}

	if err := u.d.Media.ExtractSegmentNoAudio(ctx, in.VideoPath, start, end, in.OutPath); err != nil {
		return "", fmt.Errorf("clip segment: %w", err)
	}

	return clipFilename(in.Filename, in.Start, in.End), nil
}

// clipFilename derives the attachment name; colons become hyphens so the
// name stays filesystem-safe.
func clipFilename(original, start, end string) string {
	base := strings.TrimSuffix(original, filepath.Ext(original))
	safe := func(ts string) string {
		return strings.ReplaceAll(strings.TrimSpace(ts), ":", "-")
	}
	return fmt.Sprintf("%s_clip_%s_to_%s_noaudio.mp4", base, safe(start), safe(end))
}
