package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWorkspace_Lifecycle(t *testing.T) {
	root := t.TempDir()
	ws, err := NewWorkspace(root)
	if err != nil {
		t.Fatalf("new workspace: %v", err)
	}
	if filepath.Dir(ws.Dir()) != root {
		t.Fatalf("workspace not under root: %s", ws.Dir())
	}
	if !strings.HasPrefix(filepath.Base(ws.Dir()), "clipscan-") {
		t.Fatalf("unexpected workspace name: %s", ws.Dir())
	}

	p := ws.Path("audio.mp3")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatalf("write in workspace: %v", err)
	}

	ws.Close()
	if _, err := os.Stat(ws.Dir()); !os.IsNotExist(err) {
		t.Fatalf("workspace not removed, stat err=%v", err)
	}
}

func TestWorkspace_UniquePerRequest(t *testing.T) {
	root := t.TempDir()
	a, err := NewWorkspace(root)
	if err != nil {
		t.Fatalf("new workspace: %v", err)
	}
	defer a.Close()
	b, err := NewWorkspace(root)
	if err != nil {
		t.Fatalf("new workspace: %v", err)
	}
	defer b.Close()
	if a.Dir() == b.Dir() {
		t.Fatalf("workspaces must not collide: %s", a.Dir())
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}

	bad := Default()
	bad.Windows.Overlap = bad.Windows.ChunkDuration
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error when overlap swallows the chunk")
	}

	bad = Default()
	bad.AudDBaseURL = "https://evil.example"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for unknown AudD host")
	}

	bad = Default()
	bad.MaxUploadBytes = 0
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for zero upload limit")
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clipscan.toml")
	body := `
listen_addr = ":9999"
max_upload_bytes = 1048576

[windows]
chunk_duration = 10.0
overlap = 2.0
merge_gap = 20.0

[logging]
level = "debug"
format = "json"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("AUDD_API_TOKEN", "tok-123")
	t.Setenv("CLIPSCAN_ADDR", "")
	t.Setenv("AUDD_BASE_URL", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":9999" {
		t.Fatalf("unexpected listen addr: %q", cfg.ListenAddr)
	}
	if cfg.MaxUploadBytes != 1048576 {
		t.Fatalf("unexpected upload limit: %d", cfg.MaxUploadBytes)
	}
	if cfg.Windows.ChunkDuration != 10 || cfg.Windows.Overlap != 2 || cfg.Windows.MergeGap != 20 {
		t.Fatalf("window config not applied: %+v", cfg.Windows)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("logging config not applied: %+v", cfg.Logging)
	}
	if cfg.AudDToken != "tok-123" {
		t.Fatalf("env token not applied: %q", cfg.AudDToken)
	}
}

func TestLoad_MissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}
