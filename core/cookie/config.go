package cookie

import (
	"net/http"
	"strings"
)

// Config provides environment-based configuration for the cookie manager.
// Secrets are comma-separated to support key rotation.
type Config struct {
	Secrets  string `env:"COOKIE_SECRETS,required"`
	Domain   string `env:"COOKIE_DOMAIN" envDefault:""`
	Secure   bool   `env:"COOKIE_SECURE" envDefault:"true"`
	SameSite int    `env:"COOKIE_SAME_SITE" envDefault:"2"` // http.SameSiteLaxMode
}

// NewFromConfig creates a Manager from environment configuration.
func NewFromConfig(cfg Config, opts ...Option) (*Manager, error) {
	var secrets []string
	for _, s := range strings.Split(cfg.Secrets, ",") {
		if s = strings.TrimSpace(s); s != "" {
			secrets = append(secrets, s)
		}
	}

	configOpts := []Option{
		WithSecure(cfg.Secure),
		WithHTTPOnly(true),
	}
	if cfg.Domain != "" {
		configOpts = append(configOpts, WithDomain(cfg.Domain))
	}
	if cfg.SameSite > 0 {
		configOpts = append(configOpts, WithSameSite(http.SameSite(cfg.SameSite)))
	}
	configOpts = append(configOpts, opts...)

	return New(secrets, configOpts...)
}
