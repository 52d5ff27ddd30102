package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	// Register decoders
	_ "image/gif"

	_ "golang.org/x/image/webp"
)

// Format is an image encoding
type Format int

const (
	// PNG represents the PNG format
	PNG Format = iota
	// JPEG represents the JPEG format
	JPEG
	// BMP represents the BMP format
	BMP
	// TIFF represents the TIFF format
	TIFF
)

const jpegQuality = 90

// Errors
var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// FormatFromExtension returns the output format for a file extension such as ".png"
// An empty extension maps to PNG
func FormatFromExtension(extension string) (Format, error) {
	switch strings.ToLower(extension) {
	case "", ".png":
		return PNG, nil
	case ".jpg", ".jpeg":
		return JPEG, nil
	case ".bmp":
		return BMP, nil
	case ".tif", ".tiff":
		return TIFF, nil
	default:
		return PNG, ErrUnsupportedFormat
	}
}

// Extension returns the canonical file extension for the format
func (f Format) Extension() string {
	switch f {
	case JPEG:
		return ".jpg"
	case BMP:
		return ".bmp"
	case TIFF:
		return ".tiff"
	default:
		return ".png"
	}
}

// ContentType returns the MIME type for the format
func (f Format) ContentType() string {
	switch f {
	case JPEG:
		return "image/jpeg"
	case BMP:
		return "image/bmp"
	case TIFF:
		return "image/tiff"
	default:
		return "image/png"
	}
}

func (f Format) String() string {
	return strings.TrimPrefix(f.Extension(), ".")
}

// Decode decodes a JPEG, PNG, GIF, WebP, BMP or TIFF image into a raster
func Decode(r io.Reader) (*image.NRGBA, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrImageNotLoaded, err)
	}

	return FromImage(img)
}

// DecodeConfig reads only the header of an encoded image, returning its dimensions without allocating pixels
func DecodeConfig(data []byte) (image.Config, error) {
	config, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, fmt.Errorf("%w: %s", ErrImageNotLoaded, err)
	}

	return config, nil
}

// DecodeBytes decodes an image from a byte buffer
func DecodeBytes(data []byte) (*image.NRGBA, error) {
	return Decode(bytes.NewReader(data))
}

// Encode writes the raster in the given format
func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case PNG:
		return png.Encode(w, img)
	case JPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	case BMP:
		return bmp.Encode(w, img)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return ErrUnsupportedFormat
	}
}

// EncodeBytes encodes the raster into a byte buffer
func EncodeBytes(img image.Image, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, format); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
