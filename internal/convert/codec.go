// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"

	"github.com/pdiddy/cr2-converter/internal/raw"
	"github.com/pdiddy/cr2-converter/pkg/types"
)

// Codec opens raw images and writes encoded output. The driver depends only
// on this interface; ImagingCodec is the production implementation.
type Codec interface {
	// Open decodes the raw file at path.
	Open(path string) (image.Image, error)

	// Save encodes img in format and writes it to path.
	Save(img image.Image, path string, format types.OutputFormat) error

	// Metadata reads camera details from the raw file at path.
	Metadata(path string) (types.ImageMetadata, error)
}

// ImagingCodec decodes CR2 files with the raw package and encodes output
// with disintegration/imaging.
type ImagingCodec struct {
	jpegQuality int
}

// NewImagingCodec returns a codec that writes JPEG output at jpegQuality.
func NewImagingCodec(jpegQuality int) *ImagingCodec {
	if jpegQuality <= 0 {
		jpegQuality = types.DefaultJPEGQuality
	}
	return &ImagingCodec{jpegQuality: jpegQuality}
}

// Open decodes the CR2 at path.
func (c *ImagingCodec) Open(path string) (image.Image, error) {
	return raw.DecodeFile(path)
}

// Metadata reads EXIF details from the CR2 at path.
func (c *ImagingCodec) Metadata(path string) (types.ImageMetadata, error) {
	return raw.ReadMetadataFile(path)
}

// Save writes img to path. A partially written file is removed when
// encoding fails.
func (c *ImagingCodec) Save(img image.Image, path string, format types.OutputFormat) error {
	f, err := imaging.FormatFromExtension(string(format))
	if err != nil {
		return fmt.Errorf("unsupported output format %q: %w", format, err)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := imaging.Encode(out, img, f, imaging.JPEGQuality(c.jpegQuality)); err != nil {
		out.Close()
		os.Remove(path)
		return fmt.Errorf("encoding %s: %w", format, err)
	}
	return out.Close()
}

// ToRGB copies img into an opaque NRGBA image. Alpha is discarded, not
// composited, so color channels keep their stored values.
func ToRGB(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}
