// Package filter implements kernel convolution and per-pixel adjustments on RGBA rasters
package filter

import (
	"image"
	"math"
	"runtime"

	"github.com/visualright/filterlab/internal/kernel"
	"github.com/visualright/filterlab/internal/raster"
	"golang.org/x/sync/errgroup"
)

// Minimum number of rows handed to a single goroutine
const minRowsPerWorker = 16

// Convolve applies the kernel to every pixel of src and returns a new raster of the same size
// Neighbours outside the image are read from the nearest edge pixel, the alpha channel is copied unchanged
func Convolve(src *image.NRGBA, k kernel.Kernel) (*image.NRGBA, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}

	if err := raster.Check(src); err != nil {
		return nil, err
	}

	src = rebase(src)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))

	var g errgroup.Group
	for _, rows := range split(h) {
		rows := rows
		g.Go(func() error {
			convolveRows(dst, src, k, rows[0], rows[1])
			return nil
		})
	}

	return dst, g.Wait()
}

func convolveRows(dst, src *image.NRGBA, k kernel.Kernel, fromY, toY int) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	radius := k.Radius()

	for y := fromY; y < toY; y++ {
		for x := 0; x < w; x++ {
			var r, g, b float64
			for ky := -radius; ky <= radius; ky++ {
				row := src.Pix[clampInt(y+ky, 0, h-1)*src.Stride:]
				weights := k[ky+radius]

				for kx := -radius; kx <= radius; kx++ {
					weight := weights[kx+radius]
					i := clampInt(x+kx, 0, w-1) * 4
					r += weight * float64(row[i])
					g += weight * float64(row[i+1])
					b += weight * float64(row[i+2])
				}
			}

			i := y*dst.Stride + x*4
			dst.Pix[i] = saturate(r)
			dst.Pix[i+1] = saturate(g)
			dst.Pix[i+2] = saturate(b)
			dst.Pix[i+3] = src.Pix[y*src.Stride+x*4+3]
		}
	}
}

// split divides h rows into contiguous [from, to) ranges, one per worker
func split(h int) [][2]int {
	workers := runtime.GOMAXPROCS(0)
	if limit := (h + minRowsPerWorker - 1) / minRowsPerWorker; workers > limit {
		workers = limit
	}

	if workers < 1 {
		workers = 1
	}

	chunk := (h + workers - 1) / workers
	ranges := make([][2]int, 0, workers)
	for from := 0; from < h; from += chunk {
		to := from + chunk
		if to > h {
			to = h
		}

		ranges = append(ranges, [2]int{from, to})
	}

	return ranges
}

// rebase returns src unchanged if it starts at 0,0 with a tight stride, otherwise a rebased copy
func rebase(src *image.NRGBA) *image.NRGBA {
	if src.Rect.Min == (image.Point{}) && src.Stride == src.Rect.Dx()*4 {
		return src
	}

	return raster.Clone(src)
}

// saturate rounds half to even and clamps into the 8-bit range
func saturate(v float64) uint8 {
	v = math.RoundToEven(v)
	if v <= 0 || math.IsNaN(v) {
		return 0
	}

	if v >= 255 {
		return 255
	}

	return uint8(v)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
