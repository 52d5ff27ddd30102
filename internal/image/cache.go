package image

import (
	"context"

	"github.com/visualright/filterlab/internal/cache"
	"github.com/visualright/filterlab/internal/storage"
	"github.com/visualright/filterlab/internal/tracing"
)

// Cache is a source image cache
type Cache = cache.Auto

// NewCache instantiates a new cache that loads missing source images from storage
func NewCache(tracer *tracing.Tracer, cacheProvider cache.Provider, storageProvider storage.Provider) *Cache {
	return &Cache{
		Tracer:   tracer,
		Provider: cacheProvider,
		Loader: func(ctx context.Context, key string) (data []byte, err error) {
			ctx, span := tracer.Start(ctx, "image.Cache.Loader")
			defer span.End()

			return storageProvider.Get(ctx, key)
		},
	}
}
