package health

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/visualright/filterlab/internal/cache"
	"github.com/visualright/filterlab/internal/catalog"
	"github.com/visualright/filterlab/internal/logger"
	"github.com/visualright/filterlab/internal/storage"
)

const checkInterval = 10 * time.Second
const checkTimeout = 8 * time.Second

// Key that is never written, so a healthy cache misses on it
const cacheProbeKey = "healthcheck"

// Checker is a periodic health checker, only the backends that are set are checked
type Checker struct {
	Ctx     context.Context
	Storage storage.Provider
	ImageID string // Source image to fetch from storage, only needed for checking storage health
	Catalog catalog.Provider
	Cache   cache.Provider
	Log     *logger.Logger

	status Status
	mutex  sync.RWMutex
}

// Status contains the healthcheck status
type Status struct {
	Healthy bool   `json:"healthy"`
	Cache   string `json:"cache,omitempty"`
	Catalog string `json:"catalog,omitempty"`
	Storage string `json:"storage,omitempty"`
}

const (
	healthy   = "healthy"
	unhealthy = "unhealthy"
	unknown   = "unknown"
)

// Run runs a check right away, then keeps checking in the background until the context is cancelled
func (c *Checker) Run() {
	ticker := time.NewTicker(checkInterval)
	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.runCheck()
			case <-c.Ctx.Done():
				return
			}
		}
	}()

	c.runCheck()
}

// Status returns the status of the last health check
func (c *Checker) Status() Status {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.status
}

func (c *Checker) runCheck() {
	ctx, cancel := context.WithTimeout(c.Ctx, checkTimeout)
	defer cancel()

	channel := make(chan Status, 1)
	go c.check(ctx, channel)

	select {
	case <-ctx.Done():
		c.setStatus(c.initialStatus(false))
		c.Log.Errorw("healthcheck timed out")
	case status, ok := <-channel:
		if !ok {
			return
		}

		c.setStatus(status)
		if !status.Healthy {
			c.Log.Errorw("healthcheck error",
				"status", status,
			)
		}
	}
}

func (c *Checker) setStatus(status Status) {
	c.mutex.Lock()
	c.status = status
	c.mutex.Unlock()
}

func (c *Checker) initialStatus(healthy bool) Status {
	status := Status{
		Healthy: healthy,
	}

	if c.Catalog != nil {
		status.Catalog = unknown
	}

	if c.Cache != nil {
		status.Cache = unknown
	}

	if c.Storage != nil {
		status.Storage = unknown
	}

	return status
}

func (c *Checker) check(ctx context.Context, channel chan Status) {
	defer close(channel)

	status := c.initialStatus(true)
	checks := []struct {
		enabled bool
		result  *string
		probe   func() error
	}{
		{c.Catalog != nil, &status.Catalog, func() error {
			_, err := c.Catalog.GetRandom(ctx)
			return err
		}},
		{c.Cache != nil, &status.Cache, func() error {
			if _, err := c.Cache.Get(ctx, cacheProbeKey); !errors.Is(err, cache.ErrNotFound) {
				return errors.New("cache probe did not miss")
			}

			return nil
		}},
		{c.Storage != nil, &status.Storage, func() error {
			_, err := c.Storage.Get(ctx, c.ImageID)
			return err
		}},
	}

	for _, check := range checks {
		if ctx.Err() != nil {
			return
		}

		if !check.enabled {
			continue
		}

		if err := check.probe(); err != nil {
			status.Healthy = false
			*check.result = unhealthy
		} else {
			*check.result = healthy
		}
	}

	channel <- status
}
