package pipeline

import (
	"errors"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/forPelevin/clipscan/internal/domain/windows"
	"github.com/forPelevin/clipscan/internal/logging"
	"github.com/forPelevin/clipscan/internal/ports/adapters/audd"
)

type Config struct {
	ListenAddr     string   `koanf:"listen_addr"`
	AllowedOrigins []string `koanf:"allowed_origins"`
	MaxUploadBytes int64    `koanf:"max_upload_bytes"`

	FFmpegPath  string `koanf:"ffmpeg_path"`
	FFprobePath string `koanf:"ffprobe_path"`

	// AudDToken comes from the environment only; keeping it out of config
	// files keeps the credential out of version control.
	AudDToken        string   `koanf:"-"`
	AudDBaseURL      string   `koanf:"audd_base_url"`
	AudDAllowedHosts []string `koanf:"audd_allowed_hosts"`

	// WorkRoot is where per-request workspaces are created. Empty means the
	// system temp dir.
	WorkRoot string `koanf:"work_root"`

	Windows windows.Config `koanf:"windows"`
	Logging logging.Config `koanf:"logging"`
}

func Default() Config {
	return Config{
		ListenAddr:     ":8080",
		AllowedOrigins: []string{"*"},
		MaxUploadBytes: 100 << 20,
		Windows:        windows.DefaultConfig(),
		Logging:        logging.Config{Level: "info", Format: "text"},
	}
}

// Load builds the config from defaults, an optional TOML file, and
// environment overrides, in that order of precedence (env wins).
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		k := koanf.New(".")
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
		if err := k.Unmarshal("", &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.AudDToken = os.Getenv("AUDD_API_TOKEN")
	if v := os.Getenv("AUDD_BASE_URL"); v != "" {
		cfg.AudDBaseURL = v
	}
	if v := os.Getenv("CLIPSCAN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("listen address is empty")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be > 0")
	}
	if err := c.Windows.Validate(); err != nil {
		return err
	}
	return audd.ValidateBaseURL(c.AudDBaseURL, c.AudDAllowedHosts)
}
