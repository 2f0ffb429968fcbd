// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package raw opens Canon CR2 files. A CR2 is a TIFF container whose first
// IFD carries a full-size JPEG rendering of the sensor data; Decode returns
// that image. Sensor-level demosaicing is not performed.
package raw

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"sort"

	"github.com/rwcarlsen/goexif/tiff"
)

// TIFF tag IDs used to locate embedded JPEG streams.
const (
	tagCompression     uint16 = 0x0103
	tagStripOffsets    uint16 = 0x0111
	tagStripByteCounts uint16 = 0x0117
	tagJPEGOffset      uint16 = 0x0201
	tagJPEGLength      uint16 = 0x0202
	tagCR2Slice        uint16 = 0xC640

	compressionOldJPEG = 6
)

// cr2HeaderLen covers the TIFF header plus the "CR" magic and version bytes.
const cr2HeaderLen = 12

var (
	// ErrNotCR2 is returned when the input does not carry a CR2 signature.
	ErrNotCR2 = errors.New("not a Canon CR2 file")

	// ErrNoPreview is returned when no embedded JPEG stream is found.
	ErrNoPreview = errors.New("no embedded image found in CR2")
)

// jpegStream locates one embedded JPEG inside the file.
type jpegStream struct {
	offset int64
	length int64
}

// DecodeFile opens path and decodes it with Decode.
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	img, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

// Decode reads a CR2 file from r and returns its largest decodable
// embedded image.
func Decode(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading CR2 data: %w", err)
	}
	s, _, err := previewStream(data)
	if err != nil {
		return nil, err
	}
	img, err := jpeg.Decode(bytes.NewReader(s.bytes(data)))
	if err != nil {
		return nil, fmt.Errorf("decoding embedded JPEG: %w", err)
	}
	return img, nil
}

// DecodeConfig returns the dimensions and color model of the image Decode
// would return, without decoding pixel data.
func DecodeConfig(r io.Reader) (image.Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return image.Config{}, fmt.Errorf("reading CR2 data: %w", err)
	}
	_, cfg, err := previewStream(data)
	return cfg, err
}

// IsCR2 reports whether data starts with a CR2 signature: a TIFF header in
// either byte order followed by "CR" and major version 2.
func IsCR2(data []byte) bool {
	if len(data) < cr2HeaderLen {
		return false
	}
	hdr := string(data[:4])
	if hdr != "II*\x00" && hdr != "MM\x00*" {
		return false
	}
	return data[8] == 'C' && data[9] == 'R' && data[10] == 2
}

// previewStream returns the largest embedded stream whose JPEG header the
// standard decoder accepts. The lossless sensor data in a CR2's last IFD is
// larger than the preview but cannot be decoded, so it is passed over.
func previewStream(data []byte) (jpegStream, image.Config, error) {
	if !IsCR2(data) {
		return jpegStream{}, image.Config{}, ErrNotCR2
	}
	t, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return jpegStream{}, image.Config{}, fmt.Errorf("parsing CR2 directories: %w", err)
	}

	var streams []jpegStream
	for _, d := range t.Dirs {
		for _, s := range dirStreams(d) {
			if s.offset < 0 || s.length <= 0 || s.offset+s.length > int64(len(data)) {
				continue
			}
			streams = append(streams, s)
		}
	}
	if len(streams) == 0 {
		return jpegStream{}, image.Config{}, ErrNoPreview
	}
	sort.SliceStable(streams, func(i, j int) bool { return streams[i].length > streams[j].length })

	var firstErr error
	for _, s := range streams {
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(s.bytes(data)))
		if err == nil {
			return s, cfg, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return jpegStream{}, image.Config{}, fmt.Errorf("%w: decoding embedded JPEG header: %v", ErrNoPreview, firstErr)
}

func (s jpegStream) bytes(data []byte) []byte {
	return data[s.offset : s.offset+s.length]
}

// dirStreams returns the JPEG streams referenced by one IFD: a single strip
// under old-style JPEG compression, and a JPEGInterchangeFormat pair.
func dirStreams(d *tiff.Dir) []jpegStream {
	tags := make(map[uint16]*tiff.Tag, len(d.Tags))
	for _, tag := range d.Tags {
		tags[tag.Id] = tag
	}

	// Sensor data is stored in slices; its directory holds no preview.
	if _, ok := tags[tagCR2Slice]; ok {
		return nil
	}

	var streams []jpegStream
	if comp, ok := tagInt(tags, tagCompression); ok && comp == compressionOldJPEG {
		off, okOff := tagInt(tags, tagStripOffsets)
		n, okLen := tagInt(tags, tagStripByteCounts)
		if okOff && okLen {
			streams = append(streams, jpegStream{offset: off, length: n})
		}
	}
	off, okOff := tagInt(tags, tagJPEGOffset)
	n, okLen := tagInt(tags, tagJPEGLength)
	if okOff && okLen {
		streams = append(streams, jpegStream{offset: off, length: n})
	}
	return streams
}

func tagInt(tags map[uint16]*tiff.Tag, id uint16) (int64, bool) {
	tag, ok := tags[id]
	if !ok || tag.Count == 0 {
		return 0, false
	}
	v, err := tag.Int64(0)
	if err != nil {
		return 0, false
	}
	return v, true
}
