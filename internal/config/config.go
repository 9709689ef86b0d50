package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/exp/constraints"
	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration. Sources are applied in order:
// defaults, an optional YAML file, then environment variables.
type Config struct {
	// BeatSage connection
	BeatSageURL    string `yaml:"beatsage_url"`
	BeatSageCookie string `yaml:"beatsage_cookie"`

	// Generation options sent with every track
	Difficulties string `yaml:"difficulties"`
	Modes        string `yaml:"modes"`
	Events       string `yaml:"events"`
	Environment  string `yaml:"environment"`
	ModelTag     string `yaml:"model_tag"`

	// Batch behavior. YAML durations are strings like "3s"; a bare number
	// is nanoseconds.
	OutputDir    string        `yaml:"output_dir"` // empty: next to the input audio
	PollInterval time.Duration `yaml:"poll_interval"`
	PollAttempts int           `yaml:"poll_attempts"`
	Workers      int           `yaml:"workers"` // concurrent document rewrites

	// Preview server
	Port int           `yaml:"port"`
	Tick time.Duration `yaml:"tick"` // "20ms"
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		BeatSageURL:  "https://beatsage.com",
		Difficulties: "Hard,Expert,ExpertPlus,Normal",
		Modes:        "Standard,90Degree,NoArrows,OneSaber",
		Events:       "DotBlocks,Obstacles,Bombs",
		Environment:  "DefaultEnvironment",
		ModelTag:     "v2",
		PollInterval: 3 * time.Second,
		PollAttempts: 60, // 3 minutes at the default interval
		Workers:      4,
		Port:         8080,
		Tick:         20 * time.Millisecond,
	}
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	cfg := Defaults()
	applyEnv(&cfg)
	return cfg
}

// LoadFile reads a YAML config file, then applies environment overrides.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.BeatSageURL = envStr("BEATSAGE_URL", cfg.BeatSageURL)
	cfg.BeatSageCookie = envStr("BEATSAGE_COOKIE", cfg.BeatSageCookie)

	cfg.Difficulties = envStr("BEATLIGHT_DIFFICULTIES", cfg.Difficulties)
	cfg.Modes = envStr("BEATLIGHT_MODES", cfg.Modes)
	cfg.Events = envStr("BEATLIGHT_EVENTS", cfg.Events)
	cfg.Environment = envStr("BEATLIGHT_ENVIRONMENT", cfg.Environment)
	cfg.ModelTag = envStr("BEATLIGHT_MODEL_TAG", cfg.ModelTag)

	cfg.OutputDir = envStr("BEATLIGHT_OUTPUT_DIR", cfg.OutputDir)
	cfg.PollInterval = envDuration("BEATLIGHT_POLL_INTERVAL", time.Second, cfg.PollInterval)
	cfg.PollAttempts = clamp(envInt("BEATLIGHT_POLL_ATTEMPTS", cfg.PollAttempts), 1, 1000)
	cfg.Workers = clamp(envInt("BEATLIGHT_WORKERS", cfg.Workers), 1, 64)

	cfg.Port = envInt("BEATLIGHT_PORT", cfg.Port)
	cfg.Tick = envDuration("BEATLIGHT_TICK_MS", time.Millisecond, cfg.Tick)

	cfg.PollInterval = clamp(cfg.PollInterval, time.Second, time.Hour)
	cfg.Tick = clamp(cfg.Tick, 5*time.Millisecond, time.Second)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// envDuration reads an integer count of unit.
func envDuration(key string, unit, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * unit
		}
	}
	return fallback
}

func clamp[T constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
