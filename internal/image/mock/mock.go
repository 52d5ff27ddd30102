package mock

import (
	"context"
	"fmt"

	"github.com/visualright/filterlab/internal/filter"
	"github.com/visualright/filterlab/internal/image"
	"github.com/visualright/filterlab/internal/raster"
)

// Processor implements a mock image processor that always fails
type Processor struct{}

// ProcessImage returns an error
func (p *Processor) ProcessImage(ctx context.Context, task *image.Task) (processedImage []byte, err error) {
	return nil, fmt.Errorf("processing error")
}

// ProcessUpload returns an error
func (p *Processor) ProcessUpload(ctx context.Context, data []byte, chain filter.Chain, format raster.Format) (processedImage []byte, err error) {
	return nil, fmt.Errorf("processing error")
}
