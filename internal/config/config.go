// SPDX-License-Identifier: MIT

// Package config loads service configuration with the precedence
// ENV > file > defaults. The resulting Config is read-only after Load.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all service settings.
type Config struct {
	Listen   string `yaml:"listen"`
	DataDir  string `yaml:"data_dir"`
	LogLevel string `yaml:"log_level"`

	// Remote store credentials (required).
	StoreCloudName string `yaml:"store_cloud_name"`
	StoreAPIKey    string `yaml:"store_api_key"`
	StoreAPISecret string `yaml:"store_api_secret"`
	// StoreUploadURL overrides the default upload endpoint (tests, proxies).
	StoreUploadURL string `yaml:"store_upload_url"`

	MaxVideoSizeMB int `yaml:"max_video_size_mb"`

	// CookiesFile is optional persisted credential material; its absence
	// only disables the authenticated extraction strategy.
	CookiesFile string `yaml:"cookies_file"`

	FFmpegBin  string `yaml:"ffmpeg_bin"`
	FFprobeBin string `yaml:"ffprobe_bin"`
	YTDLPBin   string `yaml:"ytdlp_bin"`

	EncodeTimeoutS int `yaml:"encode_timeout_s"`
	ProbeTimeoutS  int `yaml:"probe_timeout_s"`

	// RedisAddr enables the result cache when non-empty.
	RedisAddr string `yaml:"redis_addr"`

	// ProcessRatePerMin limits /process requests per client IP.
	ProcessRatePerMin int `yaml:"process_rate_per_min"`
}

// Defaults returns the baseline configuration before file and env overlays.
func Defaults() Config {
	return Config{
		Listen:            ":8080",
		DataDir:           "/var/lib/clipforge",
		LogLevel:          "info",
		MaxVideoSizeMB:    500,
		FFmpegBin:         "ffmpeg",
		FFprobeBin:        "ffprobe",
		YTDLPBin:          "yt-dlp",
		EncodeTimeoutS:    1800,
		ProbeTimeoutS:     30,
		ProcessRatePerMin: 6,
	}
}

// Load builds the effective configuration. path may be empty, in which
// case ${CLIPFORGE_DATA}/config.yaml is used when it exists.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path == "" {
		if dataDir := os.Getenv("CLIPFORGE_DATA"); dataDir != "" {
			auto := filepath.Join(dataDir, "config.yaml")
			if _, err := os.Stat(auto); err == nil {
				path = auto
			}
		}
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	envString("CLIPFORGE_LISTEN", &cfg.Listen)
	envString("CLIPFORGE_DATA", &cfg.DataDir)
	envString("CLIPFORGE_LOG_LEVEL", &cfg.LogLevel)
	envString("CLIPFORGE_STORE_CLOUD_NAME", &cfg.StoreCloudName)
	envString("CLIPFORGE_STORE_API_KEY", &cfg.StoreAPIKey)
	envString("CLIPFORGE_STORE_API_SECRET", &cfg.StoreAPISecret)
	envString("CLIPFORGE_STORE_UPLOAD_URL", &cfg.StoreUploadURL)
	envInt("CLIPFORGE_MAX_VIDEO_SIZE_MB", &cfg.MaxVideoSizeMB)
	envString("CLIPFORGE_COOKIES_FILE", &cfg.CookiesFile)
	envString("CLIPFORGE_FFMPEG", &cfg.FFmpegBin)
	envString("CLIPFORGE_FFPROBE", &cfg.FFprobeBin)
	envString("CLIPFORGE_YTDLP", &cfg.YTDLPBin)
	envInt("CLIPFORGE_ENCODE_TIMEOUT_S", &cfg.EncodeTimeoutS)
	envInt("CLIPFORGE_PROBE_TIMEOUT_S", &cfg.ProbeTimeoutS)
	envString("CLIPFORGE_REDIS_ADDR", &cfg.RedisAddr)
	envInt("CLIPFORGE_PROCESS_RATE_PER_MIN", &cfg.ProcessRatePerMin)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v, ok := os.LookupEnv(key); ok {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			*dst = n
		}
	}
}

// Validate checks invariants that must hold for the service to start.
func (c Config) Validate() error {
	var missing []string
	if c.StoreCloudName == "" {
		missing = append(missing, "CLIPFORGE_STORE_CLOUD_NAME")
	}
	if c.StoreAPIKey == "" {
		missing = append(missing, "CLIPFORGE_STORE_API_KEY")
	}
	if c.StoreAPISecret == "" {
		missing = append(missing, "CLIPFORGE_STORE_API_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v", missing)
	}
	if c.MaxVideoSizeMB <= 0 {
		return fmt.Errorf("max_video_size_mb must be positive, got %d", c.MaxVideoSizeMB)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.EncodeTimeoutS <= 0 || c.ProbeTimeoutS <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

// EncodeTimeout returns the encoder wall-clock ceiling.
func (c Config) EncodeTimeout() time.Duration {
	return time.Duration(c.EncodeTimeoutS) * time.Second
}

// ProbeTimeout returns the stream-probe deadline.
func (c Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutS) * time.Second
}

// MaxVideoBytes returns the publish size ceiling in bytes.
func (c Config) MaxVideoBytes() int64 {
	return int64(c.MaxVideoSizeMB) * 1024 * 1024
}
