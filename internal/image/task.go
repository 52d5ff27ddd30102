package image

import (
	"fmt"
	"strconv"

	"github.com/twmb/murmur3"
	"github.com/visualright/filterlab/internal/filter"
	"github.com/visualright/filterlab/internal/kernel"
	"github.com/visualright/filterlab/internal/raster"
)

// Task is an image processing task
type Task struct {
	ImageID      string
	Chain        filter.Chain
	OutputFormat raster.Format
	UserComment  string
}

// NewTask creates a new image processing task
func NewTask(imageID string, userComment string, format raster.Format) *Task {
	return &Task{
		ImageID:      imageID,
		UserComment:  userComment,
		OutputFormat: format,
	}
}

// Convolve appends a convolution with the given kernel to the chain
func (t *Task) Convolve(k kernel.Kernel) *Task {
	t.Chain = append(t.Chain, filter.ConvolveStep{Kernel: k})
	return t
}

// Adjust appends a per-pixel adjustment to the chain
func (t *Task) Adjust(a filter.Adjustment) *Task {
	t.Chain = append(t.Chain, filter.AdjustStep{Adjustment: a})
	return t
}

// Filter appends every step of a chain
func (t *Task) Filter(chain filter.Chain) *Task {
	t.Chain = append(t.Chain, chain...)
	return t
}

// Format sets the output format
func (t *Task) Format(f raster.Format) *Task {
	t.OutputFormat = f
	return t
}

func (t *Task) String() string {
	return fmt.Sprintf("%s[%s]%s#%s", t.ImageID, t.Chain, t.OutputFormat.Extension(), t.UserComment)
}

// Key returns a stable cache key for the processed result
func (t *Task) Key() string {
	h1, h2 := murmur3.Sum128([]byte(t.String()))
	return strconv.FormatUint(h1, 36) + strconv.FormatUint(h2, 36)
}
