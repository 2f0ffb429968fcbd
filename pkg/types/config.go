// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// OutputFormat selects the encoding written for each converted image.
type OutputFormat string

const (
	FormatJPEG OutputFormat = "jpeg"
	FormatJPG  OutputFormat = "jpg"
	FormatPNG  OutputFormat = "png"
	FormatTIFF OutputFormat = "tiff"
	FormatBMP  OutputFormat = "bmp"
)

// DefaultFormat is used when no format is given on the command line.
const DefaultFormat = FormatJPG

// DefaultJPEGQuality matches the quality most image libraries pick when
// none is requested.
const DefaultJPEGQuality = 75

// SupportedFormats lists the accepted output formats in help-text order.
var SupportedFormats = []OutputFormat{FormatJPEG, FormatJPG, FormatPNG, FormatTIFF, FormatBMP}

// ParseOutputFormat validates s against SupportedFormats. Matching is
// case-sensitive.
func ParseOutputFormat(s string) (OutputFormat, error) {
	for _, f := range SupportedFormats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("invalid format %q: choose from %s", s, FormatList())
}

// FormatList returns the supported formats joined for display.
func FormatList() string {
	names := make([]string, len(SupportedFormats))
	for i, f := range SupportedFormats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// ConversionConfig holds the settings for one run of the converter. It is
// built once from flags, environment and config file, then passed by value.
type ConversionConfig struct {
	// Source is the CR2 file, or the directory to scan in batch mode.
	Source string `json:"source" yaml:"source"`

	// Destination is the directory that receives converted images. It must
	// already exist.
	Destination string `json:"destination" yaml:"destination"`

	// Format selects the output encoding.
	Format OutputFormat `json:"format" yaml:"format"`

	// Batch converts every .CR2 file directly inside Source.
	Batch bool `json:"batch" yaml:"batch"`

	// Verbose prints extra progress information.
	Verbose bool `json:"verbose" yaml:"verbose"`

	// DryRun validates and discovers inputs without writing any output.
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	// JPEGQuality is the encoder quality (1-100) for jpeg/jpg output.
	JPEGQuality int `json:"jpeg_quality" yaml:"jpeg_quality"`

	// Progress shows a progress bar while a batch runs.
	Progress bool `json:"progress" yaml:"progress"`

	// CatalogPath is the SQLite database that records conversions.
	// Empty disables the catalog.
	CatalogPath string `json:"catalog_path,omitempty" yaml:"catalog_path,omitempty"`
}
