package config

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var serverNameRe = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// Validate checks the configuration beyond what struct tags express.
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return err
	}

	// The server name rides inside the discovery reply format, so it is
	// restricted to alphanumerics and '-'.
	if !serverNameRe.MatchString(cfg.Server.Name) {
		return fmt.Errorf("server.name %q: only alphanumerics and '-' allowed", cfg.Server.Name)
	}

	if cfg.Discovery.Enabled && cfg.Discovery.AdvertiseIP == "" {
		return fmt.Errorf("discovery.advertise_ip is required when discovery is enabled")
	}
	return nil
}
