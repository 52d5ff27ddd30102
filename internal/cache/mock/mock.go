package mock

import (
	"context"
	"errors"
	"strings"

	"github.com/visualright/filterlab/internal/cache"
)

// Keys with scripted behaviour, every other key is a hit returning Data
const (
	MissPrefix  = "miss"           // Keys with this prefix are never cached
	KeySetError = "miss-set-error" // Misses and fails to be stored
	KeyError    = "error"          // The cache itself fails
)

// Data is returned for cache hits
var Data = []byte("cached")

// Errors
var (
	ErrUnavailable = errors.New("cache unavailable")
	ErrSet         = errors.New("cache write failed")
)

// Provider is a mock cache
type Provider struct{}

// Get returns Data unless the key is scripted to miss or fail
func (p *Provider) Get(ctx context.Context, key string) (data []byte, err error) {
	switch {
	case key == KeyError:
		return nil, ErrUnavailable
	case strings.HasPrefix(key, MissPrefix):
		return nil, cache.ErrNotFound
	default:
		return Data, nil
	}
}

// Set fails for KeySetError
func (p *Provider) Set(ctx context.Context, key string, data []byte) (err error) {
	if key == KeySetError {
		return ErrSet
	}

	return nil
}

// Shutdown shuts down the cache
func (p *Provider) Shutdown() {}
