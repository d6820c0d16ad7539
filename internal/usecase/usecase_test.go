package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/forPelevin/clipscan/internal/domain/windows"
	"github.com/forPelevin/clipscan/internal/ports"
	"github.com/forPelevin/clipscan/internal/types"
)

type fakeMedia struct {
	duration float64
	noAudio  bool

	probeErr  error
	windowErr map[int]error // window index -> extraction failure

	windowCalls  int
	segmentCalls []float64 // start, end pairs
}

func (f *fakeMedia) ProbeDuration(_ context.Context, _ string) (float64, error) {
	if f.probeErr != nil {
		return 0, f.probeErr
	}
	return f.duration, nil
}

func (f *fakeMedia) ExtractAudio(_ context.Context, _, _ string) error {
	if f.noAudio {
		return ports.ErrNoAudioTrack
	}
	return nil
}

func (f *fakeMedia) ExtractAudioWindow(_ context.Context, _ string, _, _ float64, _ string) error {
	idx := f.windowCalls
	f.windowCalls++
	if err, ok := f.windowErr[idx]; ok {
		return err
	}
	return nil
}

func (f *fakeMedia) ExtractSegmentNoAudio(_ context.Context, _ string, start, end float64, _ string) error {
	f.segmentCalls = append(f.segmentCalls, start, end)
	return nil
}

// fakeRecognizer maps window index to an outcome; unmapped windows are
// no-matches.
type fakeRecognizer struct {
	matches map[int]*types.Match
	errs    map[int]error
	calls   int
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ string) (*types.Match, error) {
	idx := f.calls
	f.calls++
	if err, ok := f.errs[idx]; ok {
		return nil, err
	}
	return f.matches[idx], nil
}

func match(title string) *types.Match {
	return &types.Match{
		Title:       title,
		Artists:     []string{"Artist"},
		Album:       types.Unknown,
		ReleaseDate: types.Unknown,
		Label:       types.Unknown,
	}
}

func scanInput(t *testing.T, max float64) ScanInput {
	t.Helper()
	return ScanInput{
		VideoPath:   "in.mp4",
		Filename:    "in.mp4",
		WorkDir:     t.TempDir(),
		MaxDuration: max,
		Windows:     windows.DefaultConfig(),
	}
}

func TestScan_FullVideo(t *testing.T) {
	t.Parallel()

	media := &fakeMedia{duration: 30}
	rec := &fakeRecognizer{matches: map[int]*types.Match{
		0: match("Song A"),
		1: match("Song A"),
	}}
	uc := New(Deps{Media: media, Recognizer: rec})

	res, err := uc.Scan(context.Background(), scanInput(t, 0))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.ScanMode != ScanModeFull {
		t.Fatalf("expected full scan mode, got %q", res.ScanMode)
	}
	// total=30, chunk=12, overlap=4 -> 4 windows
	if res.WindowCount != 4 {
		t.Fatalf("expected 4 windows, got %d", res.WindowCount)
	}
	if len(res.Detections) != 1 {
		t.Fatalf("expected 1 detection, got %+v", res.Detections)
	}
	d := res.Detections[0]
	if len(d.Ranges) != 1 || d.Ranges[0] != (types.Range{Start: 0, End: 20}) {
		t.Fatalf("unexpected ranges: %+v", d.Ranges)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
}

func TestScan_NoAudioTrack(t *testing.T) {
	t.Parallel()

	media := &fakeMedia{duration: 42, noAudio: true}
	rec := &fakeRecognizer{}
	uc := New(Deps{Media: media, Recognizer: rec})

	res, err := uc.Scan(context.Background(), scanInput(t, 0))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.ScanMode != ScanModeNoAudio {
		t.Fatalf("expected N/A scan mode, got %q", res.ScanMode)
	}
	if res.WindowCount != 0 || len(res.Detections) != 0 {
		t.Fatalf("expected empty result shape, got %+v", res)
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "no audio track") {
		t.Fatalf("expected one no-audio error, got %v", res.Errors)
	}
	if rec.calls != 0 {
		t.Fatalf("recognizer must not be called without audio")
	}
}

func TestScan_MaxDurationMarksPartial(t *testing.T) {
	t.Parallel()

	media := &fakeMedia{duration: 600}
	uc := New(Deps{Media: media, Recognizer: &fakeRecognizer{}})

	res, err := uc.Scan(context.Background(), scanInput(t, 60))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.ScanMode != "First 01:00" {
		t.Fatalf("unexpected scan mode: %q", res.ScanMode)
	}
	// 60s at stride 8 -> starts 0..56, 8 windows
	if res.WindowCount != 8 {
		t.Fatalf("expected 8 windows, got %d", res.WindowCount)
	}
	if res.VideoDuration != 600 {
		t.Fatalf("result must keep the true duration, got %v", res.VideoDuration)
	}
}

func TestScan_MaxDurationBeyondVideoIsFull(t *testing.T) {
	t.Parallel()

	media := &fakeMedia{duration: 30}
	uc := New(Deps{Media: media, Recognizer: &fakeRecognizer{}})

	res, err := uc.Scan(context.Background(), scanInput(t, 300))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if res.ScanMode != ScanModeFull {
		t.Fatalf("expected full scan mode, got %q", res.ScanMode)
	}
}

func TestScan_WindowFailureDoesNotAbort(t *testing.T) {
	t.Parallel()

	media := &fakeMedia{duration: 30}
	rec := &fakeRecognizer{
		errs:    map[int]error{1: fmt.Errorf("audd timeout after 30s")},
		matches: map[int]*types.Match{2: match("Song B")},
	}
	uc := New(Deps{Media: media, Recognizer: rec})

	res, err := uc.Scan(context.Background(), scanInput(t, 0))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected exactly one error entry, got %v", res.Errors)
	}
	// Window 1 starts at 8s; the entry is tagged with index and start time.
	if !strings.Contains(res.Errors[0], "Chunk 1 (00:08)") {
		t.Fatalf("error entry missing window tag: %q", res.Errors[0])
	}
	if len(res.Detections) != 1 || res.Detections[0].Match.Title != "Song B" {
		t.Fatalf("later windows must still contribute detections: %+v", res.Detections)
	}
}

func TestScan_SampleExtractionFailureIsWindowLevel(t *testing.T) {
	t.Parallel()

	media := &fakeMedia{duration: 30, windowErr: map[int]error{0: errors.New("ffmpeg exploded")}}
	rec := &fakeRecognizer{}
	uc := New(Deps{Media: media, Recognizer: rec})

	res, err := uc.Scan(context.Background(), scanInput(t, 0))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "Chunk 0 (00:00)") {
		t.Fatalf("expected window-tagged extraction error, got %v", res.Errors)
	}
	// The failed window is skipped before recognition.
	if rec.calls != res.WindowCount-1 {
		t.Fatalf("expected %d recognizer calls, got %d", res.WindowCount-1, rec.calls)
	}
}

func TestScan_MissingCredentialShortCircuits(t *testing.T) {
	t.Parallel()

	media := &fakeMedia{duration: 100}
	rec := &fakeRecognizer{errs: map[int]error{0: ports.ErrRecognizerNotConfigured}}
	uc := New(Deps{Media: media, Recognizer: rec})

	res, err := uc.Scan(context.Background(), scanInput(t, 0))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if rec.calls != 1 {
		t.Fatalf("expected a single recognizer call, got %d", rec.calls)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected one error entry, got %v", res.Errors)
	}
}

func TestScan_BadExtension(t *testing.T) {
	t.Parallel()

	uc := New(Deps{Media: &fakeMedia{duration: 30}, Recognizer: &fakeRecognizer{}})
	in := scanInput(t, 0)
	in.Filename = "document.pdf"

	_, err := uc.Scan(context.Background(), in)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.Contains(verr.Msg, ".mp4") {
		t.Fatalf("error should list allowed formats: %q", verr.Msg)
	}
}

func TestClip_Success(t *testing.T) {
	t.Parallel()

	media := &fakeMedia{duration: 300}
	uc := New(Deps{Media: media, Recognizer: &fakeRecognizer{}})

	name, err := uc.Clip(context.Background(), ClipInput{
		VideoPath: "in.mp4",
		Filename:  "My Video.mp4",
		Start:     "00:10",
		End:       "01:30",
		OutPath:   "out.mp4",
	})
	if err != nil {
		t.Fatalf("clip: %v", err)
	}
	if name != "My Video_clip_00-10_to_01-30_noaudio.mp4" {
		t.Fatalf("unexpected derived filename: %q", name)
	}
	if len(media.segmentCalls) != 2 || media.segmentCalls[0] != 10 || media.segmentCalls[1] != 90 {
		t.Fatalf("unexpected segment call: %v", media.segmentCalls)
	}
}

func TestClip_Validation(t *testing.T) {
	t.Parallel()

	uc := New(Deps{Media: &fakeMedia{duration: 60}, Recognizer: &fakeRecognizer{}})

	cases := []struct {
		name      string
		in        ClipInput
		wantInMsg string
	}{
		{
			name:      "start after end",
			in:        ClipInput{Filename: "a.mp4", Start: "00:10", End: "00:05"},
			wantInMsg: "Start time must be before end time",
		},
		{
			name:      "start equals end",
			in:        ClipInput{Filename: "a.mp4", Start: "00:10", End: "00:10"},
			wantInMsg: "Start time must be before end time",
		},
		{
			name:      "negative start",
			in:        ClipInput{Filename: "a.mp4", Start: "-1:00", End: "00:30"},
			wantInMsg: "Start time cannot be negative",
		},
		{
			name:      "end beyond duration",
			in:        ClipInput{Filename: "a.mp4", Start: "00:10", End: "05:00"},
			wantInMsg: "End time (05:00) exceeds video duration (01:00)",
		},
		{
			name:      "malformed timestamp",
			in:        ClipInput{Filename: "a.mp4", Start: "ten", End: "00:30"},
			wantInMsg: "invalid timestamp format",
		},
		{
			name:      "missing timestamps",
			in:        ClipInput{Filename: "a.mp4"},
			wantInMsg: "required",
		},
		{
			name:      "bad extension",
			in:        ClipInput{Filename: "a.txt", Start: "00:00", End: "00:10"},
			wantInMsg: "Invalid file type",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Clip(context.Background(), tc.in)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if !strings.Contains(verr.Msg, tc.wantInMsg) {
				t.Fatalf("message %q does not contain %q", verr.Msg, tc.wantInMsg)
			}
		})
	}
}
