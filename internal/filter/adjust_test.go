package filter_test

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/visualright/filterlab/internal/filter"
	"github.com/visualright/filterlab/internal/kernel"
	"github.com/visualright/filterlab/internal/raster"
)

func pixel(c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, c)
	return img
}

func TestAdjust(t *testing.T) {
	tests := []struct {
		Name       string
		Input      color.NRGBA
		Adjustment filter.Adjustment
		Expected   color.NRGBA
	}{
		{"neutral", color.NRGBA{12, 200, 99, 7}, filter.Neutral, color.NRGBA{12, 200, 99, 7}},
		{"brightness", color.NRGBA{100, 200, 250, 255}, filter.Adjustment{Brightness: 10, Contrast: 1}, color.NRGBA{110, 210, 255, 255}},
		{"darken", color.NRGBA{5, 100, 255, 255}, filter.Adjustment{Brightness: -10, Contrast: 1}, color.NRGBA{0, 90, 245, 255}},
		{"contrast", color.NRGBA{100, 128, 200, 255}, filter.Adjustment{Contrast: 2}, color.NRGBA{72, 128, 255, 255}},
		{"flatten", color.NRGBA{0, 77, 255, 9}, filter.Adjustment{Contrast: 0}, color.NRGBA{128, 128, 128, 9}},
		// Contrast scales around mid-grey before brightness is added
		{"contrast then brightness", color.NRGBA{100, 0, 0, 255}, filter.Adjustment{Brightness: 20, Contrast: 0.5}, color.NRGBA{134, 84, 84, 255}},
		{"grayscale", color.NRGBA{10, 20, 31, 42}, filter.Adjustment{Contrast: 1, Grayscale: true}, color.NRGBA{20, 20, 20, 42}},
		// Grayscale averages the already clamped channels
		{"grayscale after clamp", color.NRGBA{250, 250, 100, 255}, filter.Adjustment{Brightness: 20, Contrast: 1, Grayscale: true}, color.NRGBA{210, 210, 210, 255}},
	}

	for _, test := range tests {
		out, err := filter.Adjust(pixel(test.Input), test.Adjustment)
		if err != nil {
			t.Errorf("%s: %s", test.Name, err)
			continue
		}

		if got := out.NRGBAAt(0, 0); got != test.Expected {
			t.Errorf("%s: got %v, want %v", test.Name, got, test.Expected)
		}
	}
}

func TestAdjustNoise(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3] = 128, 128, 128, 200
	}

	adjustment := filter.Adjustment{Contrast: 1, Noise: 5, Seed: 42}

	first, err := filter.Adjust(src, adjustment)
	if err != nil {
		t.Fatal(err)
	}

	second, err := filter.Adjust(src, adjustment)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(first.Pix, second.Pix); diff != "" {
		t.Errorf("seeded noise is not deterministic (-first +second):\n%s", diff)
	}

	changed := false
	for i := 0; i < len(first.Pix); i += 4 {
		r, g, b, a := first.Pix[i], first.Pix[i+1], first.Pix[i+2], first.Pix[i+3]
		if r < 123 || r > 133 {
			t.Fatalf("noise out of range: %d", r)
		}

		if r != g || g != b {
			t.Fatalf("noise should be shared across channels: %d %d %d", r, g, b)
		}

		if a != 200 {
			t.Fatalf("alpha changed: %d", a)
		}

		if r != 128 {
			changed = true
		}
	}

	if !changed {
		t.Error("noise had no effect")
	}
}

func TestAdjustValidation(t *testing.T) {
	src := pixel(color.NRGBA{1, 2, 3, 4})

	for name, adjustment := range map[string]filter.Adjustment{
		"brightness": {Brightness: 300, Contrast: 1},
		"contrast":   {Contrast: -1},
		"noise":      {Contrast: 1, Noise: 256},
	} {
		if _, err := filter.Adjust(src, adjustment); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}

	if _, err := filter.Adjust(nil, filter.Neutral); !errors.Is(err, raster.ErrImageNotLoaded) {
		t.Errorf("wrong error %v", err)
	}

	if !filter.Neutral.IsNeutral() {
		t.Error("neutral adjustment is not neutral")
	}
}

func TestChain(t *testing.T) {
	src := randomImage(10, 10, 11)
	sharpen := preset(t, kernel.Sharpen)
	blur := preset(t, kernel.Blur)

	t.Run("applies steps in order", func(t *testing.T) {
		chain := filter.Chain{
			filter.ConvolveStep{Kernel: blur},
			filter.ConvolveStep{Kernel: sharpen},
			filter.AdjustStep{Adjustment: filter.Adjustment{Contrast: 1, Grayscale: true}},
		}

		got, err := chain.Apply(src)
		if err != nil {
			t.Fatal(err)
		}

		blurred, _ := filter.Convolve(src, blur)
		sharpened, _ := filter.Convolve(blurred, sharpen)
		want, _ := filter.Adjust(sharpened, filter.Adjustment{Contrast: 1, Grayscale: true})

		if diff := cmp.Diff(want.Pix, got.Pix); diff != "" {
			t.Errorf("chain output differs (-want +got):\n%s", diff)
		}
	})

	t.Run("empty chain copies", func(t *testing.T) {
		got, err := filter.Chain{}.Apply(src)
		if err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff(src.Pix, got.Pix); diff != "" {
			t.Errorf("empty chain changed pixels (-want +got):\n%s", diff)
		}

		got.Pix[0]++
		if got.Pix[0] == src.Pix[0] {
			t.Error("empty chain returned the source raster")
		}
	})

	t.Run("wraps step errors", func(t *testing.T) {
		chain := filter.Chain{
			filter.ConvolveStep{Kernel: blur},
			filter.ConvolveStep{Kernel: kernel.Kernel{{1, 1}, {1, 1}}},
		}

		_, err := chain.Apply(src)
		var kernelErr *kernel.InvalidKernelError
		if !errors.As(err, &kernelErr) {
			t.Fatalf("wrong error %v", err)
		}

		if !strings.HasPrefix(err.Error(), "step 1 ") {
			t.Errorf("error doesn't name the step: %s", err)
		}

		if chain.Validate() == nil {
			t.Error("validate accepted an even kernel")
		}
	})

	t.Run("describes steps", func(t *testing.T) {
		chain := filter.Chain{
			filter.ConvolveStep{Kernel: sharpen},
			filter.AdjustStep{Adjustment: filter.Adjustment{Brightness: 5, Contrast: 1.5, Grayscale: true}},
		}

		want := "convolve(0,-1,0;-1,5,-1;0,-1,0)|adjust(brightness=5,contrast=1.5,grayscale)"
		if got := chain.String(); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})
	t.Run("unseeded noise is not deterministic", func(t *testing.T) {
		seeded := filter.Chain{filter.AdjustStep{Adjustment: filter.Adjustment{Contrast: 1, Noise: 10, Seed: 3}}}
		unseeded := filter.Chain{filter.ConvolveStep{Kernel: blur}, filter.AdjustStep{Adjustment: filter.Adjustment{Contrast: 1, Noise: 10}}}

		if !seeded.Deterministic() || unseeded.Deterministic() || !(filter.Chain{}).Deterministic() {
			t.Error("wrong determinism")
		}
	})
}
