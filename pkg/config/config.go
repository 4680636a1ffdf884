// Package config loads and validates the lanhub server configuration.
//
// Sources, in order of precedence:
//  1. Environment variables (LANHUB_*)
//  2. Configuration file (YAML)
//  3. Default values
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/lanhub/lanhub/internal/bytesize"
	"github.com/lanhub/lanhub/internal/perms"
)

// Config is the complete lanhub server configuration.
type Config struct {
	// Server identifies the hub and its control listener.
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Discovery controls the UDP discovery responder.
	Discovery DiscoveryConfig `mapstructure:"discovery" yaml:"discovery"`

	// Share is the shared directory served to clients.
	Share ShareConfig `mapstructure:"share" yaml:"share"`

	// Users points at the user-list file.
	Users UsersConfig `mapstructure:"users" yaml:"users"`

	// Permissions are the initial global permission flags. They remain
	// mutable at runtime through the admin API.
	Permissions perms.Flags `mapstructure:"permissions" yaml:"permissions"`

	// Transfer bounds the file-transfer side channels.
	Transfer TransferConfig `mapstructure:"transfer" yaml:"transfer"`

	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Admin configures the local administration HTTP API.
	Admin AdminConfig `mapstructure:"admin" yaml:"admin"`
}

// ServerConfig identifies the hub on the LAN.
type ServerConfig struct {
	// Name is the display name advertised in discovery replies.
	// Alphanumerics and '-' only.
	Name string `mapstructure:"name" validate:"required" yaml:"name"`

	// BindAddress is the IP to bind the control listener to. Empty or
	// "0.0.0.0" binds all interfaces.
	BindAddress string `mapstructure:"bind_address" yaml:"bind_address"`

	// Port is the TCP control port.
	Port int `mapstructure:"port" validate:"required,min=1,max=65535" yaml:"port"`
}

// DiscoveryConfig controls the UDP discovery responder.
type DiscoveryConfig struct {
	// Enabled turns the responder on.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// AdvertiseIP is the IPv4 address put into discovery replies. Required
	// when discovery is enabled, because the server cannot reliably guess
	// which interface clients can reach.
	AdvertiseIP string `mapstructure:"advertise_ip" validate:"omitempty,ipv4" yaml:"advertise_ip"`
}

// ShareConfig locates the shared directory.
type ShareConfig struct {
	// Path must exist and be a directory.
	Path string `mapstructure:"path" validate:"required" yaml:"path"`
}

// UsersConfig locates the user-list file.
type UsersConfig struct {
	// File is a comma-separated list, one user per line, header skipped:
	// id, password, msgDown, msgUp, fileDown, fileUp
	File string `mapstructure:"file" validate:"required" yaml:"file"`
}

// TransferConfig bounds file transfers.
type TransferConfig struct {
	// MaxSize caps a single declared upload. Zero disables the cap.
	MaxSize bytesize.ByteSize `mapstructure:"max_size" yaml:"max_size"`

	// AcceptWindow is how long a transfer endpoint waits for the peer.
	AcceptWindow time.Duration `mapstructure:"accept_window" validate:"omitempty,gt=0" yaml:"accept_window"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level: DEBUG, INFO, WARN, ERROR.
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format is "text" or "json".
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output is "stdout", "stderr", or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// MetricsConfig configures the Prometheus metrics HTTP endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Listen is the host:port for /metrics.
	Listen string `mapstructure:"listen" validate:"omitempty,hostname_port" yaml:"listen"`
}

// AdminConfig configures the administration HTTP API. It defaults to
// loopback only; the API carries no authentication of its own.
type AdminConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Listen is the host:port for the admin API.
	Listen string `mapstructure:"listen" validate:"omitempty,hostname_port" yaml:"listen"`
}

// Load reads configuration from path (empty means defaults only), applies
// environment overrides, fills defaults, and validates.
func Load(path string) (*Config, error) {
	v := viper.New()
	setupViper(v, path)

	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHooks())); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Save writes cfg to path as YAML, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	// 0600: the users file path and layout are nobody else's business.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, path string) {
	// LANHUB_SERVER_PORT=9000 overrides server.port, and so on.
	v.SetEnvPrefix("LANHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Viper only consults the environment for keys it knows about, so every
	// key gets a zero default here; real defaults are applied after
	// unmarshaling by ApplyDefaults.
	for key, zero := range map[string]any{
		"server.name":                          "",
		"server.bind_address":                  "",
		"server.port":                          0,
		"discovery.enabled":                    false,
		"discovery.advertise_ip":               "",
		"share.path":                           "",
		"users.file":                           "",
		"permissions.all_user_get_message":     false,
		"permissions.all_user_put_message":     false,
		"permissions.distribute_message":       false,
		"permissions.all_user_get_filelist":    false,
		"permissions.all_user_download_file":   false,
		"permissions.all_user_upload_file":     false,
		"transfer.max_size":                    "",
		"transfer.accept_window":               "",
		"logging.level":                        "",
		"logging.format":                       "",
		"logging.output":                       "",
		"metrics.enabled":                      false,
		"metrics.listen":                       "",
		"admin.enabled":                        false,
		"admin.listen":                         "",
	} {
		v.SetDefault(key, zero)
	}

	if path != "" {
		v.SetConfigFile(path)
	}
}

func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	)
}
