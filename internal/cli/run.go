package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/clipscan/internal/logging"
	"github.com/forPelevin/clipscan/internal/pipeline"
	"github.com/forPelevin/clipscan/internal/server"
)

func loadConfig(cmd *cobra.Command) (pipeline.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := pipeline.Load(path)
	if err != nil {
		return pipeline.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return pipeline.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, closer := logging.New(cfg.Logging)
	if closer != nil {
		defer closer.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(cfg, log)
	if !p.Configured() {
		log.Warn("AUDD_API_TOKEN is not set, scans will report recognition as unavailable")
	}
	return server.New(p, cfg, log).ListenAndServe(ctx)
}

func runScan(cmd *cobra.Command, input string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.AudDToken == "" {
		return errors.New("AUDD_API_TOKEN is required (set it in .env)")
	}
	maxDuration, _ := cmd.Flags().GetFloat64("max-duration")

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}

	log, closer := logging.New(cfg.Logging)
	if closer != nil {
		defer closer.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Hour)
	defer cancel()

	res, err := pipeline.New(cfg, log).Scan(ctx, absIn, filepath.Base(absIn), maxDuration)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(server.NewScanResponse(res))
}

func runClip(cmd *cobra.Command, input, start, end string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	outDir, _ := cmd.Flags().GetString("out")

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	log, closer := logging.New(cfg.Logging)
	if closer != nil {
		defer closer.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	ws, err := pipeline.NewWorkspace(cfg.WorkRoot)
	if err != nil {
		return err
	}
	defer ws.Close()

	tmpOut := ws.Path("output.mp4")
	name, err := pipeline.New(cfg, log).Clip(ctx, absIn, filepath.Base(absIn), start, end, tmpOut)
	if err != nil {
		return err
	}

	dst := filepath.Join(outDir, name)
	if err := moveFile(tmpOut, dst); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), dst)
	return nil
}

// moveFile renames when possible and falls back to a copy when the
// workspace and the destination live on different filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
