package prisons

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/observability"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

var (
	// ErrCatalogNotLoaded is returned when the prison list has not been loaded yet
	ErrCatalogNotLoaded = errors.New("prison list not loaded")
)

// Catalog holds the current prison list and refreshes it from the cache or source
type Catalog struct {
	log      logrus.FieldLogger
	source   Source
	cache    *Cache
	opts     Options
	schedule string

	mu        sync.RWMutex
	list      *List
	updatedAt time.Time

	cron *cron.Cron
}

// NewCatalog creates a catalog. cache may be nil, in which case every refresh
// reads the source.
func NewCatalog(log logrus.FieldLogger, source Source, cache *Cache, opts Options, schedule string) *Catalog {
	return &Catalog{
		log:      log.WithField("component", "prisons.catalog"),
		source:   source,
		cache:    cache,
		opts:     opts,
		schedule: schedule,
	}
}

// Start loads the list and starts the periodic refresh
func (c *Catalog) Start(ctx context.Context) error {
	if err := c.Refresh(ctx); err != nil {
		return err
	}

	if c.schedule == "" {
		return nil
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(c.schedule, func() {
		refreshCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if err := c.Refresh(refreshCtx); err != nil {
			c.log.WithError(err).Warn("Failed to refresh prison list, keeping previous list")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule prison list refresh: %w", err)
	}

	scheduler.Start()

	c.mu.Lock()
	c.cron = scheduler
	c.mu.Unlock()

	c.log.WithField("schedule", c.schedule).Info("Scheduled prison list refresh")

	return nil
}

// Stop stops the periodic refresh. It is safe to call more than once.
func (c *Catalog) Stop() {
	c.mu.Lock()
	scheduler := c.cron
	c.cron = nil
	c.mu.Unlock()

	if scheduler == nil {
		return
	}

	<-scheduler.Stop().Done()
}

// Scheduled reports whether the periodic refresh is running
func (c *Catalog) Scheduled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.cron != nil
}

// Refresh reloads the list, preferring the cache
func (c *Catalog) Refresh(ctx context.Context) error {
	start := time.Now()

	prisons, origin, err := c.load(ctx)
	if err != nil {
		observability.RecordCatalogRefresh("error", time.Since(start).Seconds())
		return err
	}

	list := NewList(prisons, c.opts)

	c.mu.Lock()
	c.list = list
	c.updatedAt = time.Now()
	c.mu.Unlock()

	observability.RecordCatalogRefresh("success", time.Since(start).Seconds())
	observability.PrisonsLoaded.Set(float64(len(list.PrisonChoices())))

	c.log.WithFields(logrus.Fields{
		"origin":  origin,
		"prisons": len(prisons),
		"offered": len(list.PrisonChoices()),
	}).Info("Loaded prison list")

	return nil
}

// Reload drops the cached list and reads the source
func (c *Catalog) Reload(ctx context.Context) error {
	if c.cache != nil {
		if err := c.cache.Invalidate(ctx); err != nil {
			c.log.WithError(err).Warn("Failed to invalidate prison list cache")
		}
	}

	return c.Refresh(ctx)
}

func (c *Catalog) load(ctx context.Context) ([]Prison, string, error) {
	if c.cache != nil {
		cached, err := c.cache.Get(ctx)
		switch {
		case err != nil:
			observability.RecordError("prisons.cache", "read")
			c.log.WithError(err).Warn("Failed to read prison list cache")
		case cached != nil:
			observability.RecordPrisonCache("hit")
			return cached.Prisons, "cache", nil
		default:
			observability.RecordPrisonCache("miss")
		}
	}

	prisons, err := c.source.Fetch(ctx)
	if err != nil {
		observability.RecordError("prisons.source", c.source.Name())
		return nil, "", fmt.Errorf("failed to fetch prisons from %s source: %w", c.source.Name(), err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, CachedList{
			Prisons:   prisons,
			Source:    c.source.Name(),
			UpdatedAt: time.Now(),
		}); err != nil {
			observability.RecordError("prisons.cache", "write")
			c.log.WithError(err).Warn("Failed to write prison list cache")
		}
	}

	return prisons, c.source.Name(), nil
}

// List returns the current list
func (c *Catalog) List() (*List, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.list == nil {
		return nil, ErrCatalogNotLoaded
	}

	return c.list, nil
}

// UpdatedAt returns when the list was last loaded
func (c *Catalog) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.updatedAt
}
