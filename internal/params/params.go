package params

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/visualright/filterlab/internal/filter"
	"github.com/visualright/filterlab/internal/kernel"
	"github.com/visualright/filterlab/internal/raster"
)

// Request limits
const (
	MaxKernels    = 8
	MaxKernelSize = 15
)

// Errors
var (
	ErrInvalidFileExtension = errors.New("Invalid file extension")
	ErrInvalidQuery         = errors.New("Invalid query, separators inside values must be percent-encoded")
	ErrTooManyKernels       = fmt.Errorf("Too many kernels, at most %d are allowed", MaxKernels)
	ErrKernelTooLarge       = fmt.Errorf("Kernel too large, at most %dx%d is allowed", MaxKernelSize, MaxKernelSize)
)

// Params contains the filter parameters for a request
type Params struct {
	Kernels    []kernel.Kernel
	Adjustment filter.Adjustment
	Format     raster.Format
}

// GetParams parses and validates the file extension path parameter and the filter query parameters
func GetParams(r *http.Request, registry *kernel.Registry) (*Params, error) {
	format, err := raster.FormatFromExtension(mux.Vars(r)["extension"])
	if err != nil {
		return nil, ErrInvalidFileExtension
	}

	query, err := url.ParseQuery(r.URL.RawQuery)
	if err != nil {
		return nil, ErrInvalidQuery
	}

	kernels, err := getKernels(query, registry)
	if err != nil {
		return nil, err
	}

	adjustment, err := getAdjustment(query)
	if err != nil {
		return nil, err
	}

	return &Params{
		Kernels:    kernels,
		Adjustment: adjustment,
		Format:     format,
	}, nil
}

// getKernels resolves every kernel query parameter, in order
func getKernels(query url.Values, registry *kernel.Registry) ([]kernel.Kernel, error) {
	values := query["kernel"]
	if len(values) > MaxKernels {
		return nil, ErrTooManyKernels
	}

	kernels := make([]kernel.Kernel, 0, len(values))
	for _, value := range values {
		k, err := registry.Resolve(value)
		if err != nil {
			return nil, fmt.Errorf("Invalid kernel: %w", err)
		}

		if k.Size() > MaxKernelSize {
			return nil, ErrKernelTooLarge
		}

		kernels = append(kernels, k)
	}

	return kernels, nil
}

// getAdjustment parses the brightness, contrast, noise, seed and grayscale query parameters
func getAdjustment(query url.Values) (adjustment filter.Adjustment, err error) {
	adjustment = filter.Neutral

	if adjustment.Brightness, err = floatParam(query, "brightness", 0); err != nil {
		return
	}

	if adjustment.Contrast, err = floatParam(query, "contrast", 1); err != nil {
		return
	}

	if val := query.Get("noise"); val != "" {
		if adjustment.Noise, err = strconv.Atoi(val); err != nil {
			return adjustment, invalidParam("noise")
		}
	}

	if val := query.Get("seed"); val != "" {
		seed, err := strconv.ParseUint(val, 10, 32)
		if err != nil {
			return adjustment, invalidParam("seed")
		}

		adjustment.Seed = uint32(seed)
	}

	// A bare ?grayscale enables it
	if _, ok := query["grayscale"]; ok {
		adjustment.Grayscale = true

		if val := query.Get("grayscale"); val != "" {
			if adjustment.Grayscale, err = strconv.ParseBool(val); err != nil {
				return adjustment, invalidParam("grayscale")
			}
		}
	}

	if err = adjustment.Validate(); err != nil {
		return adjustment, fmt.Errorf("Invalid adjustment: %w", err)
	}

	return adjustment, nil
}

func floatParam(query url.Values, name string, fallback float64) (float64, error) {
	val := query.Get(name)
	if val == "" {
		return fallback, nil
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback, invalidParam(name)
	}

	return f, nil
}

func invalidParam(name string) error {
	return fmt.Errorf("Invalid %s", name)
}

// Chain returns the filter chain described by the parameters
// Convolutions run in order, followed by the adjustment when it isn't a no-op
func (p *Params) Chain() filter.Chain {
	chain := make(filter.Chain, 0, len(p.Kernels)+1)
	for _, k := range p.Kernels {
		chain = append(chain, filter.ConvolveStep{Kernel: k})
	}

	if !p.Adjustment.IsNeutral() {
		chain = append(chain, filter.AdjustStep{Adjustment: p.Adjustment})
	}

	return chain
}

// Query returns the canonical query parameters for the filters
// Kernels are written as matrix literals so that the receiver doesn't need to know custom presets
func (p *Params) Query() url.Values {
	query := url.Values{}

	for _, k := range p.Kernels {
		query.Add("kernel", k.String())
	}

	a := p.Adjustment
	if a.Brightness != 0 {
		query.Set("brightness", strconv.FormatFloat(a.Brightness, 'g', -1, 64))
	}

	if a.Contrast != 1 {
		query.Set("contrast", strconv.FormatFloat(a.Contrast, 'g', -1, 64))
	}

	if a.Noise > 0 {
		query.Set("noise", strconv.Itoa(a.Noise))

		if a.Seed != 0 {
			query.Set("seed", strconv.FormatUint(uint64(a.Seed), 10))
		}
	}

	if a.Grayscale {
		query.Set("grayscale", "")
	}

	return query
}
