// Package pipeline wires the production adapters into the scan and clip
// use cases.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/forPelevin/clipscan/internal/ports"
	"github.com/forPelevin/clipscan/internal/ports/adapters/audd"
	"github.com/forPelevin/clipscan/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/clipscan/internal/types"
	"github.com/forPelevin/clipscan/internal/usecase"
)

type Pipeline struct {
	cfg Config
	uc  usecase.Usecase
	log *slog.Logger
}

func New(cfg Config, log *slog.Logger) *Pipeline {
	media := ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath)
	rec := audd.New(cfg.AudDToken, cfg.AudDBaseURL)

	return &Pipeline{
		cfg: cfg,
		uc:  usecase.New(usecase.Deps{Media: media, Recognizer: rec}),
		log: log,
	}
}

// Configured reports whether a recognition credential is present.
func (p *Pipeline) Configured() bool { return p.cfg.AudDToken != "" }

// Scan runs the detection pipeline against a local video file inside a
// fresh workspace that is removed before returning.
func (p *Pipeline) Scan(ctx context.Context, videoPath, filename string, maxDuration float64) (types.ScanResult, error) {
	ws, err := NewWorkspace(p.cfg.WorkRoot)
	if err != nil {
		return types.ScanResult{}, err
	}
	defer ws.Close()

	p.log.Info("scan started", "file", filename, "max_duration", maxDuration)
	res, err := p.uc.Scan(ctx, usecase.ScanInput{
		VideoPath:   videoPath,
		Filename:    filename,
		WorkDir:     ws.Dir(),
		MaxDuration: maxDuration,
		Windows:     p.cfg.Windows,
	})
	if err != nil {
		p.log.Error("scan failed", "file", filename, "error", err)
		return types.ScanResult{}, err
	}
	p.log.Info("scan finished",
		"file", filename,
		"windows", res.WindowCount,
		"detections", len(res.Detections),
		"window_errors", len(res.Errors),
	)
	return res, nil
}

// Clip writes the requested segment of a local video to outPath with audio
// removed and returns the derived attachment filename.
func (p *Pipeline) Clip(ctx context.Context, videoPath, filename, start, end, outPath string) (string, error) {
	p.log.Info("clip started", "file", filename, "start", start, "end", end)
	name, err := p.uc.Clip(ctx, usecase.ClipInput{
		VideoPath: videoPath,
		Filename:  filename,
		Start:     start,
		End:       end,
		OutPath:   outPath,
	})
	if err != nil {
		p.log.Error("clip failed", "file", filename, "error", err)
		return "", err
	}
	p.log.Info("clip finished", "file", filename, "output", name)
	return name, nil
}

// ensure adapters implement ports
var _ ports.MediaTool = (*ffmpeg.Adapter)(nil)
var _ ports.Recognizer = (*audd.Adapter)(nil)
