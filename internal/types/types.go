package types

import "strings"

// Window is a single analysis window over the audio track. Windows overlap:
// consecutive starts advance by chunk length minus overlap.
type Window struct {
	Start  float64 // seconds from the beginning of the stream
	Length float64 // seconds, > 0
}

func (w Window) End() float64 { return w.Start + w.Length }

// Unknown is the fallback for identity fields the recognition service omits.
const Unknown = "Unknown"

// Match is a normalized recognition result for one audio sample.
// All fields are always present; missing service data becomes Unknown.
type Match struct {
	Title       string
	Artists     []string
	Album       string
	ReleaseDate string
	Label       string
}

// TrackKey groups detections that belong to the same underlying track.
type TrackKey string

// Key derives the grouping identity from title and the ordered artist list.
// Two matches with the same key are the same track even when album or label
// differ between windows.
func (m Match) Key() TrackKey {
	return TrackKey(m.Title + "|" + strings.Join(m.Artists, "|"))
}

// Range is a consolidated span of seconds where one track was detected.
type Range struct {
	Start float64
	End   float64
}

// Detection is everything a scan learned about one track: the identity from
// the first window that matched it, every window start that hit it, and the
// merged time ranges.
type Detection struct {
	Match      Match
	Timestamps []float64
	Ranges     []Range
}

// ScanResult is the outcome of scanning one video. Built once per request,
// never persisted.
type ScanResult struct {
	Filename      string
	VideoDuration float64
	ScanMode      string
	WindowCount   int
	Detections    []Detection
	Errors        []string
}
