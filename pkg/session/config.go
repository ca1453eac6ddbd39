package session

import (
	"errors"
	"time"
)

// Store backends
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

var (
	// ErrInvalidStore is returned when the store backend is unknown
	ErrInvalidStore = errors.New("session store must be memory or redis")
	// ErrInvalidTTL is returned when the session TTL is not positive
	ErrInvalidTTL = errors.New("session TTL must be positive")
)

// Config configures filter sessions
type Config struct {
	Store string        `yaml:"store" default:"memory" validate:"oneof=memory redis"`
	TTL   time.Duration `yaml:"ttl" default:"2h"`
}

// Validate validates the session configuration
func (c *Config) Validate() error {
	if c.Store != StoreMemory && c.Store != StoreRedis {
		return ErrInvalidStore
	}

	if c.TTL <= 0 {
		return ErrInvalidTTL
	}

	return nil
}
