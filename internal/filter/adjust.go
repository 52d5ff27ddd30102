package filter

import (
	"fmt"
	"image"
	"math"

	"github.com/valyala/fastrand"
	"github.com/visualright/filterlab/internal/raster"
)

// Bounds for adjustment values
const (
	MaxBrightness = 255
	MaxContrast   = 10
	MaxNoise      = 255
)

// Adjustment is a per-pixel brightness, contrast, noise and grayscale transform
//
// Each color channel becomes clamp(((v-128)*Contrast)+128+Brightness+n, 0, 255) where n is a
// uniform offset in [-Noise, Noise] shared by the channels of a pixel. When Grayscale is set the
// channels are then replaced by their mean.
type Adjustment struct {
	Brightness float64
	Contrast   float64
	Noise      int
	Seed       uint32 // Noise seed, zero picks a random seed
	Grayscale  bool
}

// Neutral is the adjustment that leaves the image unchanged
var Neutral = Adjustment{Contrast: 1}

// Validate checks that the adjustment values are within bounds
func (a Adjustment) Validate() error {
	if math.IsNaN(a.Brightness) || a.Brightness < -MaxBrightness || a.Brightness > MaxBrightness {
		return fmt.Errorf("brightness must be between %d and %d", -MaxBrightness, MaxBrightness)
	}

	if math.IsNaN(a.Contrast) || a.Contrast < 0 || a.Contrast > MaxContrast {
		return fmt.Errorf("contrast must be between 0 and %d", MaxContrast)
	}

	if a.Noise < 0 || a.Noise > MaxNoise {
		return fmt.Errorf("noise must be between 0 and %d", MaxNoise)
	}

	return nil
}

// IsNeutral reports whether applying the adjustment would be a no-op
func (a Adjustment) IsNeutral() bool {
	return a.Brightness == 0 && a.Contrast == 1 && a.Noise == 0 && !a.Grayscale
}

func (a Adjustment) String() string {
	s := fmt.Sprintf("adjust(brightness=%g,contrast=%g", a.Brightness, a.Contrast)
	if a.Noise > 0 {
		s += fmt.Sprintf(",noise=%d,seed=%d", a.Noise, a.Seed)
	}

	if a.Grayscale {
		s += ",grayscale"
	}

	return s + ")"
}

// Adjust applies the adjustment to every pixel of src and returns a new raster
func Adjust(src *image.NRGBA, a Adjustment) (*image.NRGBA, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	if err := raster.Check(src); err != nil {
		return nil, err
	}

	dst := raster.Clone(src)

	var rng fastrand.RNG
	if a.Noise > 0 && a.Seed != 0 {
		rng.Seed(a.Seed)
	}

	for i := 0; i < len(dst.Pix); i += 4 {
		var offset float64
		if a.Noise > 0 {
			offset = float64(int(rng.Uint32n(uint32(2*a.Noise+1))) - a.Noise)
		}

		r := saturate(((float64(dst.Pix[i])-128)*a.Contrast)+128+a.Brightness+offset)
		g := saturate(((float64(dst.Pix[i+1])-128)*a.Contrast)+128+a.Brightness+offset)
		b := saturate(((float64(dst.Pix[i+2])-128)*a.Contrast)+128+a.Brightness+offset)

		if a.Grayscale {
			avg := saturate((float64(r) + float64(g) + float64(b)) / 3)
			r, g, b = avg, avg, avg
		}

		dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2] = r, g, b
	}

	return dst, nil
}
