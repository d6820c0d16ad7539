package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/clipscan/internal/ports"
)

// Per-invocation deadlines. Whole-file operations get the long budget,
// single-window slices the short one. Exceeding a deadline fails the call;
// nothing here retries.
const (
	extractTimeout = 300 * time.Second
	windowTimeout  = 60 * time.Second
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (a *Adapter) ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "quiet",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}

	var out struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	sec, err := strconv.ParseFloat(strings.TrimSpace(out.Format.Duration), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", out.Format.Duration, err)
	}
	return sec, nil
}

func (a *Adapter) ExtractAudio(ctx context.Context, videoPath, audioPath string) error {
	has, err := a.hasAudioStream(ctx, videoPath)
	if err != nil {
		return err
	}
	if !has {
		return ports.ErrNoAudioTrack
	}

	ctx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", videoPath,
		"-vn",
		"-acodec", "libmp3lame",
		"-ar", "44100",
		"-ac", "1",
		"-b:a", "128k",
		audioPath,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) ExtractAudioWindow(ctx context.Context, audioPath string, start, length float64, outPath string) error {
	ctx, cancel := context.WithTimeout(ctx, windowTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", audioPath,
		"-ss", fmtSeconds(start),
		"-t", fmtSeconds(length),
		"-acodec", "libmp3lame",
		"-ar", "44100",
		"-ac", "1",
		"-b:a", "128k",
		outPath,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg extract window: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) ExtractSegmentNoAudio(ctx context.Context, videoPath string, start, end float64, outPath string) error {
	ctx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-ss", fmtSeconds(start),
		"-i", videoPath,
		"-t", fmtSeconds(end-start),
		"-c:v", "copy",
		"-an",
		"-movflags", "+faststart",
		"-avoid_negative_ts", "make_zero",
		outPath,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg clip segment: %w\n%s", err, string(b))
	}
	return nil
}

// hasAudioStream asks ffprobe for audio stream indexes; an empty answer means
// the container carries no audio at all.
func (a *Adapter) hasAudioStream(ctx context.Context, path string) (bool, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "quiet",
		"-select_streams", "a",
		"-show_entries", "stream=index",
		"-of", "csv=p=0",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return false, fmt.Errorf("ffprobe streams: %w\n%s", err, string(b))
	}
	return len(bytes.TrimSpace(b)) > 0, nil
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
