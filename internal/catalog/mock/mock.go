package mock

import (
	"context"
	"fmt"

	"github.com/visualright/filterlab/internal/catalog"
)

// Provider implements a catalog where every call fails
type Provider struct {
}

// Get returns an error
func (p *Provider) Get(ctx context.Context, id string) (*catalog.Image, error) {
	return nil, fmt.Errorf("get error")
}

// GetRandom returns an error
func (p *Provider) GetRandom(ctx context.Context) (*catalog.Image, error) {
	return nil, fmt.Errorf("random error")
}

// GetRandomWithSeed returns an error
func (p *Provider) GetRandomWithSeed(ctx context.Context, seed uint64) (*catalog.Image, error) {
	return nil, fmt.Errorf("random error")
}

// ListAll returns an error
func (p *Provider) ListAll(ctx context.Context) ([]catalog.Image, error) {
	return nil, fmt.Errorf("list error")
}

// List returns an error
func (p *Provider) List(ctx context.Context, offset, limit int) ([]catalog.Image, error) {
	return nil, fmt.Errorf("list error")
}

// Shutdown does nothing
func (p *Provider) Shutdown() {}
