// Package server provides server configuration and management
package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/api"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/prisons"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/redis"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/session"
)

// Define static errors
var (
	ErrRedisConfigRequired = errors.New("redis configuration is required for the redis session store")
)

// Config holds server configuration
type Config struct {
	// Logging is the logging level to use.
	Logging string `yaml:"logging" default:"info" validate:"oneof=panic fatal warn info debug trace"`
	// MetricsAddr is the address to listen on for metrics.
	MetricsAddr string `yaml:"metricsAddr" default:":9090"`
	// HealthCheckAddr is the address to listen on for healthcheck.
	HealthCheckAddr *string `yaml:"healthCheckAddr"`
	// PProfAddr is the address to listen on for pprof.
	PProfAddr *string `yaml:"pprofAddr"`
	// ShutdownTimeout is the timeout for shutting down the server.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" default:"10s"`

	// Redis is optional. When set it caches the prison list and may hold sessions.
	Redis *redis.Config `yaml:"redis"`

	API      api.Config     `yaml:"api"`
	Prisons  prisons.Config `yaml:"prisons"`
	Sessions session.Config `yaml:"sessions"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Redis != nil {
		if err := c.Redis.Validate(); err != nil {
			return fmt.Errorf("invalid redis configuration: %w", err)
		}
	}

	if c.Sessions.Store == session.StoreRedis && c.Redis == nil {
		return ErrRedisConfigRequired
	}

	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("invalid api configuration: %w", err)
	}

	if err := c.Prisons.Validate(); err != nil {
		return fmt.Errorf("invalid prisons configuration: %w", err)
	}

	if err := c.Sessions.Validate(); err != nil {
		return fmt.Errorf("invalid sessions configuration: %w", err)
	}

	return nil
}
