// Package raster converts between decoded images and the 8-bit RGBA rasters the filters operate on
package raster

import (
	"errors"
	"image"

	"golang.org/x/image/draw"
)

// Errors
var (
	ErrImageNotLoaded = errors.New("image not loaded")
)

// FromImage returns the image as a non-premultiplied RGBA raster with its origin at 0,0
// The source is never modified, a *image.NRGBA input is copied
func FromImage(src image.Image) (*image.NRGBA, error) {
	if src == nil {
		return nil, ErrImageNotLoaded
	}

	bounds := src.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, ErrImageNotLoaded
	}

	// Going through draw would round-trip NRGBA pixels via premultiplied alpha and lose color under low alpha
	if nrgba, ok := src.(*image.NRGBA); ok {
		return Clone(nrgba), nil
	}

	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Copy(dst, image.Point{}, src, bounds, draw.Src, nil)

	return dst, nil
}

// Check returns ErrImageNotLoaded for rasters without pixels
func Check(img *image.NRGBA) error {
	if img == nil || img.Rect.Dx() <= 0 || img.Rect.Dy() <= 0 || len(img.Pix) == 0 {
		return ErrImageNotLoaded
	}

	return nil
}

// Clone returns a copy of the raster rebased to 0,0
func Clone(img *image.NRGBA) *image.NRGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		srcOffset := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		copy(out.Pix[y*out.Stride:y*out.Stride+w*4], img.Pix[srcOffset:srcOffset+w*4])
	}

	return out
}
