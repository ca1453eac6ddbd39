package prisons

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	// ErrSourceRequired is returned when neither a file nor an API URL is configured
	ErrSourceRequired = errors.New("prisons file or apiUrl is required")
	// ErrAmbiguousSource is returned when both a file and an API URL are configured
	ErrAmbiguousSource = errors.New("only one of prisons file or apiUrl may be set")
	// ErrInvalidCacheTTL is returned when the cache TTL is not positive
	ErrInvalidCacheTTL = errors.New("prisons cache TTL must be positive")
	// ErrWatchWithoutFile is returned when watchFile is set without a file source
	ErrWatchWithoutFile = errors.New("prisons watchFile requires a file source")
)

// Config configures where the prison list comes from and how it is refreshed
type Config struct {
	File       string        `yaml:"file"`
	APIURL     string        `yaml:"apiUrl"`
	APIToken   string        `yaml:"apiToken"`
	APITimeout time.Duration `yaml:"apiTimeout" default:"30s"`

	CacheTTL time.Duration `yaml:"cacheTtl" default:"15m"`
	// RefreshSchedule is a cron expression; empty disables periodic refresh
	RefreshSchedule string `yaml:"refreshSchedule" default:"@every 15m"`
	// WatchFile reloads the list whenever File changes on disk
	WatchFile     bool          `yaml:"watchFile" default:"false"`
	WatchDebounce time.Duration `yaml:"watchDebounce" default:"500ms"`

	Options `yaml:",inline"`
}

// Validate validates the prisons configuration
func (c *Config) Validate() error {
	if c.File == "" && c.APIURL == "" {
		return ErrSourceRequired
	}

	if c.File != "" && c.APIURL != "" {
		return ErrAmbiguousSource
	}

	if c.WatchFile && c.File == "" {
		return ErrWatchWithoutFile
	}

	if c.CacheTTL <= 0 {
		return ErrInvalidCacheTTL
	}

	if c.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
			return fmt.Errorf("invalid refresh schedule %q: %w", c.RefreshSchedule, err)
		}
	}

	return nil
}

// NewSource builds the configured Source
func (c *Config) NewSource() Source {
	if c.File != "" {
		return NewFileSource(c.File)
	}

	return NewAPISource(c.APIURL, c.APIToken, c.APITimeout)
}
