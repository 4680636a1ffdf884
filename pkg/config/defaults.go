package config

import (
	"strings"
	"time"

	"github.com/lanhub/lanhub/internal/bytesize"
	"github.com/lanhub/lanhub/internal/perms"
)

// Default ports and limits.
const (
	DefaultPort         = 9831
	DefaultMetricsAddr  = "127.0.0.1:9832"
	DefaultAdminAddr    = "127.0.0.1:9833"
	DefaultAcceptWindow = 3 * time.Second
)

// GetDefaultConfig returns a fully defaulted configuration, suitable as
// the starting point for `lanhubd init`.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Name:        "lanhub",
			BindAddress: "0.0.0.0",
			Port:        DefaultPort,
		},
		Share:       ShareConfig{Path: "./public"},
		Users:       UsersConfig{File: "./users.csv"},
		Permissions: perms.DefaultFlags(),
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills any unset fields with defaults. Zero values are
// replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Name == "" {
		cfg.Server.Name = "lanhub"
	}
	if cfg.Server.BindAddress == "" {
		cfg.Server.BindAddress = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}

	if cfg.Transfer.MaxSize == 0 {
		cfg.Transfer.MaxSize = 2 * bytesize.GiB
	}
	if cfg.Transfer.AcceptWindow == 0 {
		cfg.Transfer.AcceptWindow = DefaultAcceptWindow
	}

	applyLoggingDefaults(&cfg.Logging)

	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = DefaultMetricsAddr
	}
	if cfg.Admin.Listen == "" {
		cfg.Admin.Listen = DefaultAdminAddr
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}
