// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package paths builds input and output file paths for a conversion run and
// splits raw filenames into stem and extension.
package paths

import (
	"path/filepath"
	"strings"

	"github.com/pdiddy/cr2-converter/pkg/types"
)

// Builder joins filenames onto the run's source and destination directories.
type Builder struct {
	SourceDir      string
	DestinationDir string
	Format         types.OutputFormat
}

// NewBuilder returns a Builder for cfg. In single mode the source is a file,
// so its directory is used as SourceDir.
func NewBuilder(cfg types.ConversionConfig) Builder {
	src := cfg.Source
	if !cfg.Batch {
		src = filepath.Dir(src)
	}
	return Builder{
		SourceDir:      src,
		DestinationDir: cfg.Destination,
		Format:         cfg.Format,
	}
}

// SourcePath returns the path of filename inside the source directory.
func (b Builder) SourcePath(filename string) string {
	return filepath.Join(b.SourceDir, filename)
}

// OutputPath returns the destination path for stem with the output format
// appended as extension.
func (b Builder) OutputPath(stem string) string {
	return filepath.Join(b.DestinationDir, stem+"."+string(b.Format))
}

// Basename returns the last element of path.
func Basename(path string) string {
	return filepath.Base(path)
}

// SplitName returns the first and last "."-separated segments of name.
// Middle segments are dropped: "my.photo.CR2" yields ("my", "CR2"). A name
// without a dot yields the whole name for both.
func SplitName(name string) (stem, ext string) {
	parts := strings.Split(name, ".")
	return parts[0], parts[len(parts)-1]
}

// IsRawName reports whether name has at least one dot and ends in exactly
// ".CR2". Lowercase ".cr2" does not match.
func IsRawName(name string) bool {
	parts := strings.Split(name, ".")
	return len(parts) > 1 && parts[len(parts)-1] == types.RawExtension
}
