// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package raw

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/pdiddy/cr2-converter/pkg/types"
)

// ReadMetadataFile opens path and reads its metadata with ReadMetadata.
func ReadMetadataFile(path string) (types.ImageMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.ImageMetadata{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return ReadMetadata(f)
}

// ReadMetadata returns the camera make, model and capture time from the
// EXIF tags of a CR2, plus the dimensions of the embedded image. Missing
// EXIF fields leave the corresponding metadata zero; only an unreadable
// container is an error.
func ReadMetadata(r io.Reader) (types.ImageMetadata, error) {
	var meta types.ImageMetadata

	data, err := io.ReadAll(r)
	if err != nil {
		return meta, fmt.Errorf("reading CR2 data: %w", err)
	}
	cfg, err := DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return meta, err
	}
	meta.Width, meta.Height = cfg.Width, cfg.Height

	x, _ := exif.Decode(bytes.NewReader(data))
	if x == nil {
		// No usable EXIF block; dimensions are still valid.
		return meta, nil
	}
	meta.Make = exifString(x, exif.Make)
	meta.Model = exifString(x, exif.Model)
	if ts, err := x.DateTime(); err == nil {
		meta.CapturedAt = ts
	}
	return meta, nil
}

func exifString(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimRight(strings.TrimSpace(s), "\x00")
}
