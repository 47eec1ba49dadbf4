package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/skillsync-backend/internal/platform/envutil"
	"github.com/yungbote/skillsync-backend/internal/platform/logger"
)

// Config is loaded from an optional YAML file, then overridden by environment
// variables. Secrets only come from the environment.
type Config struct {
	ServiceName    string        `yaml:"service_name"`
	Environment    string        `yaml:"environment"`
	Version        string        `yaml:"version"`
	ListenAddr     string        `yaml:"listen_addr"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	SnapshotPath   string        `yaml:"snapshot_path"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	Supabase SupabaseConfig `yaml:"supabase"`
	Gemini   GeminiConfig   `yaml:"gemini"`
}

type SupabaseConfig struct {
	URL         string `yaml:"url"`
	AnonKey     string `yaml:"-"`
	AccessToken string `yaml:"-"`
}

type GeminiConfig struct {
	APIKey  string `yaml:"-"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		ServiceName:    "skillsync",
		Environment:    "development",
		Version:        "dev",
		ListenAddr:     ":8080",
		SnapshotPath:   "skillsync_snapshot.db",
		RequestTimeout: 15 * time.Second,
	}

	if path := envutil.String("CONFIG_PATH", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
		log.Info("loaded config file", "path", path)
	}

	cfg.ServiceName = envutil.String("SERVICE_NAME", cfg.ServiceName)
	cfg.Environment = envutil.String("ENVIRONMENT", cfg.Environment)
	cfg.Version = envutil.String("SERVICE_VERSION", cfg.Version)
	cfg.ListenAddr = envutil.String("LISTEN_ADDR", cfg.ListenAddr)
	cfg.SnapshotPath = envutil.String("SNAPSHOT_PATH", cfg.SnapshotPath)
	cfg.RequestTimeout = envutil.Duration("REQUEST_TIMEOUT", cfg.RequestTimeout)

	cfg.Supabase.URL = envutil.String("SUPABASE_URL", cfg.Supabase.URL)
	cfg.Supabase.AnonKey = envutil.String("SUPABASE_ANON_KEY", "")
	cfg.Supabase.AccessToken = envutil.String("SUPABASE_ACCESS_TOKEN", "")

	cfg.Gemini.APIKey = envutil.String("GEMINI_API_KEY", "")
	cfg.Gemini.BaseURL = envutil.String("GEMINI_BASE_URL", cfg.Gemini.BaseURL)
	cfg.Gemini.Model = envutil.String("GEMINI_MODEL", cfg.Gemini.Model)

	if cfg.Supabase.URL == "" {
		return cfg, fmt.Errorf("SUPABASE_URL is required")
	}
	if cfg.Supabase.AnonKey == "" {
		return cfg, fmt.Errorf("SUPABASE_ANON_KEY is required")
	}
	if cfg.Gemini.APIKey == "" {
		return cfg, fmt.Errorf("GEMINI_API_KEY is required")
	}
	return cfg, nil
}
