package server

import (
	"github.com/forPelevin/clipscan/internal/domain/timecode"
	"github.com/forPelevin/clipscan/internal/types"
)

// ScanResponse is the wire shape of a finished scan.
type ScanResponse struct {
	Filename               string    `json:"filename"`
	VideoDuration          float64   `json:"video_duration"`
	VideoDurationFormatted string    `json:"video_duration_formatted"`
	ScanMode               string    `json:"scan_mode"`
	AnalysisChunks         int       `json:"analysis_chunks"`
	Songs                  []SongDTO `json:"songs"`
	Errors                 []string  `json:"errors"`
}

type SongDTO struct {
	Title       string     `json:"title"`
	Artists     []string   `json:"artists"`
	Album       string     `json:"album"`
	ReleaseDate string     `json:"release_date"`
	Label       string     `json:"label"`
	Confidence  int        `json:"confidence"`
	Timestamps  []float64  `json:"timestamps"`
	TimeRanges  []RangeDTO `json:"time_ranges"`
}

type RangeDTO struct {
	Start        string  `json:"start"`
	End          string  `json:"end"`
	StartSeconds float64 `json:"start_seconds"`
	EndSeconds   float64 `json:"end_seconds"`
}

// NewScanResponse converts a scan result to its wire shape. The recognition
// service exposes no graded confidence in the subset consumed, so every
// reported song carries 100.
func NewScanResponse(res types.ScanResult) ScanResponse {
	songs := make([]SongDTO, 0, len(res.Detections))
	for _, d := range res.Detections {
		ranges := make([]RangeDTO, 0, len(d.Ranges))
		for _, r := range d.Ranges {
			ranges = append(ranges, RangeDTO{
				Start:        timecode.Format(r.Start),
				End:          timecode.Format(r.End),
				StartSeconds: r.Start,
				EndSeconds:   r.End,
			})
		}
		timestamps := d.Timestamps
		if timestamps == nil {
			timestamps = []float64{}
		}
		songs = append(songs, SongDTO{
			Title:       d.Match.Title,
			Artists:     d.Match.Artists,
			Album:       d.Match.Album,
			ReleaseDate: d.Match.ReleaseDate,
			Label:       d.Match.Label,
			Confidence:  100,
			Timestamps:  timestamps,
			TimeRanges:  ranges,
		})
	}

	errs := res.Errors
	if errs == nil {
		errs = []string{}
	}

	return ScanResponse{
		Filename:               res.Filename,
		VideoDuration:          res.VideoDuration,
		VideoDurationFormatted: timecode.Format(res.VideoDuration),
		ScanMode:               res.ScanMode,
		AnalysisChunks:         res.WindowCount,
		Songs:                  songs,
		Errors:                 errs,
	}
}
