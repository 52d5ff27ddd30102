package image

import "errors"

// Errors
var (
	ErrTooLarge = errors.New("Image is too large to process")
)
