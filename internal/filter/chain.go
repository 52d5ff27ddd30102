package filter

import (
	"fmt"
	"image"
	"strings"

	"github.com/visualright/filterlab/internal/kernel"
	"github.com/visualright/filterlab/internal/raster"
)

// Step is a single filter in a chain
type Step interface {
	Apply(src *image.NRGBA) (*image.NRGBA, error)
	String() string
}

// ConvolveStep convolves the image with a kernel
type ConvolveStep struct {
	Kernel kernel.Kernel
}

// Apply runs the convolution
func (s ConvolveStep) Apply(src *image.NRGBA) (*image.NRGBA, error) {
	return Convolve(src, s.Kernel)
}

func (s ConvolveStep) String() string {
	return fmt.Sprintf("convolve(%s)", s.Kernel)
}

// AdjustStep applies a per-pixel adjustment
type AdjustStep struct {
	Adjustment Adjustment
}

// Apply runs the adjustment
func (s AdjustStep) Apply(src *image.NRGBA) (*image.NRGBA, error) {
	return Adjust(src, s.Adjustment)
}

func (s AdjustStep) String() string {
	return s.Adjustment.String()
}

// Chain is an ordered list of steps, each consuming the output of the previous one
type Chain []Step

// Apply runs every step in order, the source raster is left untouched
func (c Chain) Apply(src *image.NRGBA) (*image.NRGBA, error) {
	if err := raster.Check(src); err != nil {
		return nil, err
	}

	if len(c) == 0 {
		return raster.Clone(src), nil
	}

	img := src
	for i, step := range c {
		out, err := step.Apply(img)
		if err != nil {
			return nil, fmt.Errorf("step %d %s: %w", i, step, err)
		}

		img = out
	}

	return img, nil
}

// Validate checks every step without running it
func (c Chain) Validate() error {
	for i, step := range c {
		var err error
		switch s := step.(type) {
		case ConvolveStep:
			err = s.Kernel.Validate()
		case AdjustStep:
			err = s.Adjustment.Validate()
		}

		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}

	return nil
}

func (c Chain) String() string {
	parts := make([]string, len(c))
	for i, step := range c {
		parts[i] = step.String()
	}

	return strings.Join(parts, "|")
}

// Deterministic reports whether applying the chain twice yields the same output
// Unseeded noise is the only source of randomness
func (c Chain) Deterministic() bool {
	for _, step := range c {
		if s, ok := step.(AdjustStep); ok && s.Adjustment.Noise > 0 && s.Adjustment.Seed == 0 {
			return false
		}
	}

	return true
}
