// Package server exposes the scan and clip pipelines over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/forPelevin/clipscan/internal/pipeline"
	"github.com/forPelevin/clipscan/internal/types"
)

// Service is what the handlers need from the pipeline.
type Service interface {
	Scan(ctx context.Context, videoPath, filename string, maxDuration float64) (types.ScanResult, error)
	Clip(ctx context.Context, videoPath, filename, start, end, outPath string) (string, error)
	Configured() bool
}

var _ Service = (*pipeline.Pipeline)(nil)

type Server struct {
	svc Service
	cfg pipeline.Config
	log *slog.Logger
}

func New(svc Service, cfg pipeline.Config, log *slog.Logger) *Server {
	return &Server{svc: svc, cfg: cfg, log: log}
}

// Handler builds the routed handler with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/api/scan", s.handleScan)
	mux.HandleFunc("/api/clip", s.handleClip)
	mux.HandleFunc("/api/config", s.handleConfig)

	var h http.Handler = mux
	h = s.loggingMiddleware(h)
	h = corsMiddleware(s.cfg.AllowedOrigins)(h)
	return h
}

// ListenAndServe blocks until ctx is canceled, then drains in-flight
// requests. Scans hold a connection for the whole window loop, so there is
// deliberately no write timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.Info("listening", "addr", s.cfg.ListenAddr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
