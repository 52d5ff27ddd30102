package file

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/visualright/filterlab/internal/catalog"
)

// Provider implements a catalog backed by a JSON manifest file
type Provider struct {
	images []catalog.Image
	index  map[string]int
	random *rand.Rand
	mu     sync.Mutex
}

// New loads the manifest at path
func New(path string) (*Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var images []catalog.Image
	if err := json.Unmarshal(data, &images); err != nil {
		return nil, fmt.Errorf("error parsing catalog manifest: %w", err)
	}

	index := make(map[string]int, len(images))
	for i, image := range images {
		if image.ID == "" {
			return nil, fmt.Errorf("catalog entry %d has no id", i)
		}

		if _, exists := index[image.ID]; exists {
			return nil, fmt.Errorf("duplicate catalog id %q", image.ID)
		}

		index[image.ID] = i
	}

	return &Provider{
		images: images,
		index:  index,
		random: rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Get returns the metadata for an image id
func (p *Provider) Get(ctx context.Context, id string) (*catalog.Image, error) {
	i, ok := p.index[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}

	image := p.images[i]
	return &image, nil
}

// GetRandom returns a random image
func (p *Provider) GetRandom(ctx context.Context) (*catalog.Image, error) {
	if len(p.images) == 0 {
		return nil, catalog.ErrEmpty
	}

	p.mu.Lock()
	i := p.random.Intn(len(p.images))
	p.mu.Unlock()

	image := p.images[i]
	return &image, nil
}

// GetRandomWithSeed returns an image picked by the seed, the same seed always yields the same image
func (p *Provider) GetRandomWithSeed(ctx context.Context, seed uint64) (*catalog.Image, error) {
	if len(p.images) == 0 {
		return nil, catalog.ErrEmpty
	}

	image := p.images[seed%uint64(len(p.images))]
	return &image, nil
}

// ListAll returns a list of all the images
func (p *Provider) ListAll(ctx context.Context) ([]catalog.Image, error) {
	return append([]catalog.Image(nil), p.images...), nil
}

// List returns a list of all the images with an offset/limit
func (p *Provider) List(ctx context.Context, offset, limit int) ([]catalog.Image, error) {
	images := len(p.images)
	if offset < 0 {
		offset = 0
	}

	if offset > images {
		offset = images
	}

	end := offset + limit
	if end > images {
		end = images
	}

	return append([]catalog.Image(nil), p.images[offset:end]...), nil
}

// Shutdown shuts down the catalog
func (p *Provider) Shutdown() {}
