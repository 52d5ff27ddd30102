package image

import (
	"context"

	"github.com/visualright/filterlab/internal/filter"
	"github.com/visualright/filterlab/internal/raster"
)

// Processor is an image processor
type Processor interface {
	// ProcessImage loads a source image, runs the task's chain and returns the encoded result
	ProcessImage(ctx context.Context, task *Task) (processedImage []byte, err error)
	// ProcessUpload runs a chain on caller supplied image data
	ProcessUpload(ctx context.Context, data []byte, chain filter.Chain, format raster.Format) (processedImage []byte, err error)
}
