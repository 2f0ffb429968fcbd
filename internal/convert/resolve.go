// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/cr2-converter/pkg/types"
)

// ResolveConfig fills defaults, validates format and quality, and makes
// Source and Destination absolute. The destination itself is checked
// separately by CheckDestination.
func ResolveConfig(cfg types.ConversionConfig) (types.ConversionConfig, error) {
	if cfg.Format == "" {
		cfg.Format = types.DefaultFormat
	}
	if _, err := types.ParseOutputFormat(string(cfg.Format)); err != nil {
		return cfg, err
	}
	if cfg.JPEGQuality == 0 {
		cfg.JPEGQuality = types.DefaultJPEGQuality
	}
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		return cfg, fmt.Errorf("%w: got %d", ErrInvalidQuality, cfg.JPEGQuality)
	}
	if cfg.Destination == "" {
		cfg.Destination = "."
	}

	src, err := filepath.Abs(cfg.Source)
	if err != nil {
		return cfg, fmt.Errorf("resolving source %s: %w", cfg.Source, err)
	}
	dst, err := filepath.Abs(cfg.Destination)
	if err != nil {
		return cfg, fmt.Errorf("resolving destination %s: %w", cfg.Destination, err)
	}
	cfg.Source, cfg.Destination = src, dst
	return cfg, nil
}

// CheckDestination returns ErrDestinationNotDirectory unless the resolved
// destination is an existing directory. Nothing is converted when it fails.
func CheckDestination(cfg types.ConversionConfig) error {
	if !isDir(cfg.Destination) {
		return fmt.Errorf("%w: %s", ErrDestinationNotDirectory, cfg.Destination)
	}
	return nil
}

// WriteHeader prints the resolved source and destination. Verbose runs show
// it before the destination is checked.
func WriteHeader(w io.Writer, cfg types.ConversionConfig) {
	fmt.Fprintf(w, "\nSource: %s\nDestination: %s\n\n", cfg.Source, cfg.Destination)
}

// isDir reports whether path exists and is a directory, following symlinks.
func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
