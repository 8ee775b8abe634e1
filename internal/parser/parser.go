package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/smeta/internal/estimate"
)

// Parser converts a raw estimate export into an Estimate.
type Parser interface {
	Parse(r io.Reader, filename string) (*estimate.Estimate, error)
}

// ErrUnsupportedExtension is returned by ForFile for files no parser handles.
var ErrUnsupportedExtension = errors.New("unsupported file extension")

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".xml": true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xml":
		return &XMLParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExtension, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}
