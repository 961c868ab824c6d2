package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/ikkim/geonseol-backend/pkg/logger"
)

// Chain is an ordered list of backends. Reads return the first backend that
// holds a usable value; writes go to every available backend independently.
type Chain struct {
	mu       sync.RWMutex
	backends []Backend
	active   []Backend
	probed   bool
}

// NewChain keeps the given order as read priority.
func NewChain(backends ...Backend) *Chain {
	list := make([]Backend, 0, len(backends))
	for _, b := range backends {
		if b != nil {
			list = append(list, b)
		}
	}
	return &Chain{backends: list}
}

// Probe runs capability detection once and records the available backends.
// Until Probe is called every configured backend is treated as available.
func (c *Chain) Probe(ctx context.Context) []string {
	var names []string
	active := make([]Backend, 0, len(c.backends))
	for _, b := range c.backends {
		if b.Available(ctx) {
			active = append(active, b)
			names = append(names, b.Name())
			continue
		}
		logger.Warn("Storage backend unavailable, skipping", map[string]interface{}{
			"backend": b.Name(),
		})
	}

	c.mu.Lock()
	c.active = active
	c.probed = true
	c.mu.Unlock()

	logger.Info("Storage backends probed", map[string]interface{}{
		"available":  names,
		"configured": len(c.backends),
	})
	return names
}

// Backends returns the backends currently in use, in priority order.
func (c *Chain) Backends() []Backend {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.probed {
		return append([]Backend(nil), c.backends...)
	}
	return append([]Backend(nil), c.active...)
}

// Load walks the chain in order. decode is called with each value found;
// a decode error falls through to the next backend, and a decode that
// returns ErrNotFound is treated as an absent value. Load returns the name
// of the backend whose value was accepted, or ErrNotFound.
func (c *Chain) Load(ctx context.Context, key string, decode func([]byte) error) (string, error) {
	for _, b := range c.Backends() {
		raw, err := b.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			logger.Warn("Storage read failed, trying next backend", map[string]interface{}{
				"backend": b.Name(),
				"key":     key,
				"error":   err.Error(),
			})
			continue
		}

		if err := decode(raw); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			rerr := &ReadError{Backend: b.Name(), Key: key, Err: err}
			logger.Warn("Stored value unreadable, trying next backend", map[string]interface{}{
				"backend": b.Name(),
				"key":     key,
				"error":   rerr.Error(),
			})
			continue
		}
		return b.Name(), nil
	}
	return "", ErrNotFound
}

// Store writes value to every backend. Each write is attempted even if an
// earlier one failed; failures are logged and joined into the result.
func (c *Chain) Store(ctx context.Context, key string, value []byte) error {
	var errs []error
	for _, b := range c.Backends() {
		if err := b.Set(ctx, key, value); err != nil {
			werr := &WriteError{Backend: b.Name(), Key: key, Err: err}
			logger.Error("Storage write failed", werr, map[string]interface{}{
				"backend": b.Name(),
				"key":     key,
			})
			errs = append(errs, werr)
		}
	}
	return errors.Join(errs...)
}

// Remove deletes key from every backend.
func (c *Chain) Remove(ctx context.Context, key string) error {
	var errs []error
	for _, b := range c.Backends() {
		if err := b.Delete(ctx, key); err != nil {
			errs = append(errs, &WriteError{Backend: b.Name(), Key: key, Err: err})
		}
	}
	return errors.Join(errs...)
}

// Chain is itself a Backend so that flag stores and tools can use it directly.

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Available(ctx context.Context) bool {
	return len(c.Backends()) > 0
}

func (c *Chain) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	_, err := c.Load(ctx, key, func(raw []byte) error {
		out = raw
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Chain) Set(ctx context.Context, key string, value []byte) error {
	return c.Store(ctx, key, value)
}

func (c *Chain) Delete(ctx context.Context, key string) error {
	return c.Remove(ctx, key)
}
