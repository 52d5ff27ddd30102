package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider is an interface for retrieving source images
type Provider interface {
	Get(ctx context.Context, id string) ([]byte, error)
}

// Errors
var (
	ErrNotFound  = errors.New("Image does not exist")
	ErrInvalidID = errors.New("Invalid image id")
)

// Extension is the file extension source images are stored with
const Extension = ".png"

// Key returns the object name for an image id
func Key(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return "", ErrInvalidID
	}

	return fmt.Sprintf("%s%s", id, Extension), nil
}
