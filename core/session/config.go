package session

import "time"

// Config holds session settings sourced from the environment.
// The one-hour default TTL matches the session cookie lifetime the
// application has always used.
type Config struct {
	TTL             time.Duration `env:"SESSION_TTL" envDefault:"1h"`
	TouchInterval   time.Duration `env:"SESSION_TOUCH_INTERVAL" envDefault:"5m"`
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"15m"`
	CookieName      string        `env:"SESSION_COOKIE_NAME" envDefault:"__session"`
}

// NewManagerFromConfig creates a Manager from environment configuration.
func NewManagerFromConfig[Data any](cfg Config, store Store[Data]) *Manager[Data] {
	return NewManager(store, cfg.TTL, cfg.TouchInterval)
}
