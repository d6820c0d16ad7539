package ports

import (
	"context"
	"errors"

	"github.com/forPelevin/clipscan/internal/types"
)

// ErrNoAudioTrack reports a source with no audio stream. It is a distinct
// outcome, not a tool failure: scanning such a video yields an empty result,
// not an HTTP error.
var ErrNoAudioTrack = errors.New("no audio track")

// ErrRecognizerNotConfigured reports a missing recognition credential.
// The scan loop records it once and stops calling the service.
var ErrRecognizerNotConfigured = errors.New("recognition service is not configured")

// MediaTool is the external media capability (ffmpeg/ffprobe in production).
type MediaTool interface {
	// ProbeDuration returns the stream duration in seconds.
	ProbeDuration(ctx context.Context, path string) (float64, error)

	// ExtractAudio writes the source's audio track to audioPath, returning
	// ErrNoAudioTrack when the source has none.
	ExtractAudio(ctx context.Context, videoPath, audioPath string) error

	// ExtractAudioWindow writes the [start, start+length) slice of an audio
	// file to outPath.
	ExtractAudioWindow(ctx context.Context, audioPath string, start, length float64, outPath string) error

	// ExtractSegmentNoAudio writes the [start, end) slice of a video to
	// outPath with the video stream copied bit-for-bit and audio dropped.
	ExtractSegmentNoAudio(ctx context.Context, videoPath string, start, end float64, outPath string) error
}

// Recognizer identifies music in a short audio sample. A nil match with a
// nil error means the service recognized nothing; errors cover transport and
// service-level failures and never abort a scan on their own.
type Recognizer interface {
	Recognize(ctx context.Context, samplePath string) (*types.Match, error)
}
