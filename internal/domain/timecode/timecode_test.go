package timecode

import (
	"errors"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := map[float64]string{
		0:      "00:00",
		5:      "00:05",
		65:     "01:05",
		59.99:  "00:59",
		3599:   "59:59",
		3600:   "01:00:00",
		3661:   "01:01:01",
		7325.7: "02:02:05",
		359999: "99:59:59",
	}
	for in, want := range tests {
		if got := Format(in); got != want {
			t.Fatalf("Format(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"00:00", 0},
		{"01:05", 65},
		{"02:30.5", 150.5},
		{"01:01:01", 3661},
		{"  10:00  ", 600},
		{"99:59:59", 359999},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, in := range []string{"", "90", "1:2:3:4", "abc", "1m30s", "aa:bb", "1:bb:3", ":"} {
		if _, err := Parse(in); !errors.Is(err, ErrInvalidFormat) {
			t.Fatalf("Parse(%q): expected ErrInvalidFormat, got %v", in, err)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for s := 0; s <= 359999; s++ {
		got, err := Parse(Format(float64(s)))
		if err != nil {
			t.Fatalf("round trip %d: %v", s, err)
		}
		if got != float64(s) {
			t.Fatalf("round trip %d: got %v", s, got)
		}
	}
}
