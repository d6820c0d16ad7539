package timecode

import (
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidFormat is returned by Parse for text that is not MM:SS or HH:MM:SS.
var ErrInvalidFormat = fmt.Errorf("invalid timestamp format")

// Format renders seconds as zero-padded MM:SS, or HH:MM:SS once the value
// reaches an hour. The sub-second fraction is truncated.
func Format(seconds float64) string {
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// Parse converts MM:SS or HH:MM:SS text to seconds. The seconds part may
// carry a fraction. Parse does not reject negative components; callers that
// require non-negative times check the returned value.
func Parse(text string) (float64, error) {
	parts := strings.Split(strings.TrimSpace(text), ":")

	switch len(parts) {
	case 2:
		minutes, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, text)
		}
		seconds, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, text)
		}
		return float64(minutes)*60 + seconds, nil
	case 3:
		hours, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, text)
		}
		minutes, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, text)
		}
		seconds, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, text)
		}
		return float64(hours)*3600 + float64(minutes)*60 + seconds, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, text)
	}
}
