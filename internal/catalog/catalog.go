// Package catalog describes the demo source images that filters can be applied to
package catalog

import (
	"context"
	"errors"
)

// Image contains metadata about a source image
type Image struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}

// Provider is an interface for listing and retrieving source images
type Provider interface {
	Get(ctx context.Context, id string) (*Image, error)
	GetRandom(ctx context.Context) (*Image, error)
	GetRandomWithSeed(ctx context.Context, seed uint64) (*Image, error)
	ListAll(ctx context.Context) ([]Image, error)
	List(ctx context.Context, offset, limit int) ([]Image, error)
	Shutdown()
}

// Errors
var (
	ErrNotFound = errors.New("Image does not exist")
	ErrEmpty    = errors.New("catalog is empty")
)
