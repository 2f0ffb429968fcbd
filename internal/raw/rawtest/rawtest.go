// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rawtest builds small synthetic CR2 files for tests. The files carry
// a real TIFF/CR2 header, an IFD0 with an old-style JPEG strip, optional
// Make/Model/DateTime tags, an optional IFD1 thumbnail and an optional
// directory of undecodable lossless sensor data.
package rawtest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

const (
	typeASCII = 2
	typeShort = 3
	typeLong  = 4

	headerLen = 16
)

// Options describes the synthetic file.
type Options struct {
	// Width and Height size the full image; zero means 16x12.
	Width, Height int

	Make     string
	Model    string
	DateTime string // EXIF layout, e.g. "2024:05:01 10:30:00"

	// Thumbnail adds an IFD1 with a 4x3 JPEGInterchangeFormat stream.
	Thumbnail bool

	// RawIFD adds a final IFD whose old-style JPEG strip is a lossless
	// (SOF3) stream several times larger than the full image, as camera
	// sensor data is stored.
	RawIFD bool

	// RawSlices tags the RawIFD directory with the CR2 slice layout.
	RawSlices bool
}

// Fill is the color of every pixel of the full image.
var Fill = color.RGBA{R: 200, G: 40, B: 40, A: 255}

type entry struct {
	id     uint16
	typ    uint16
	count  uint32
	inline [4]byte
	blob   int // 1-based index into blobs; the value is the blob's offset
}

// Build returns the bytes of a CR2 file described by opts.
func Build(opts Options) ([]byte, error) {
	w, h := opts.Width, opts.Height
	if w == 0 || h == 0 {
		w, h = 16, 12
	}
	full, err := encodeJPEG(w, h)
	if err != nil {
		return nil, err
	}

	var blobs [][]byte
	addBlob := func(b []byte) int {
		blobs = append(blobs, b)
		return len(blobs)
	}
	ascii := func(id uint16, s string) entry {
		b := append([]byte(s), 0)
		e := entry{id: id, typ: typeASCII, count: uint32(len(b))}
		if len(b) <= 4 {
			copy(e.inline[:], b)
		} else {
			e.blob = addBlob(b)
		}
		return e
	}

	var ifd0 []entry
	if opts.Make != "" {
		ifd0 = append(ifd0, ascii(0x010F, opts.Make))
	}
	if opts.Model != "" {
		ifd0 = append(ifd0, ascii(0x0110, opts.Model))
	}
	if opts.DateTime != "" {
		ifd0 = append(ifd0, ascii(0x0132, opts.DateTime))
	}
	ifd0 = append(ifd0,
		short(0x0103, 6),
		entry{id: 0x0111, typ: typeLong, count: 1, blob: addBlob(full)},
		long(0x0117, uint32(len(full))),
	)
	ifds := [][]entry{ifd0}

	if opts.Thumbnail {
		thumb, err := encodeJPEG(4, 3)
		if err != nil {
			return nil, err
		}
		ifds = append(ifds, []entry{
			{id: 0x0201, typ: typeLong, count: 1, blob: addBlob(thumb)},
			long(0x0202, uint32(len(thumb))),
		})
	}

	if opts.RawIFD {
		sensor := losslessStream(w, h, 4*len(full))
		d := []entry{
			short(0x0103, 6),
			{id: 0x0111, typ: typeLong, count: 1, blob: addBlob(sensor)},
			long(0x0117, uint32(len(sensor))),
		}
		if opts.RawSlices {
			slices := make([]byte, 6)
			binary.LittleEndian.PutUint16(slices[0:], 1)
			binary.LittleEndian.PutUint16(slices[2:], uint16(w))
			binary.LittleEndian.PutUint16(slices[4:], uint16(w))
			d = append(d, entry{id: 0xC640, typ: typeShort, count: 3, blob: addBlob(slices)})
		}
		ifds = append(ifds, d)
	}

	pos := headerLen
	ifdOff := make([]int, len(ifds))
	for i, d := range ifds {
		sort.Slice(d, func(a, b int) bool { return d[a].id < d[b].id })
		ifdOff[i] = pos
		pos += 2 + 12*len(d) + 4
	}
	blobOff := make([]int, len(blobs))
	for i, b := range blobs {
		if pos%2 == 1 {
			pos++
		}
		blobOff[i] = pos
		pos += len(b)
	}

	le := binary.LittleEndian
	buf := make([]byte, pos)
	copy(buf, "II")
	le.PutUint16(buf[2:], 42)
	le.PutUint32(buf[4:], uint32(ifdOff[0]))
	buf[8], buf[9], buf[10], buf[11] = 'C', 'R', 2, 0

	for i, d := range ifds {
		p := ifdOff[i]
		le.PutUint16(buf[p:], uint16(len(d)))
		p += 2
		for _, e := range d {
			le.PutUint16(buf[p:], e.id)
			le.PutUint16(buf[p+2:], e.typ)
			le.PutUint32(buf[p+4:], e.count)
			if e.blob > 0 {
				le.PutUint32(buf[p+8:], uint32(blobOff[e.blob-1]))
			} else {
				copy(buf[p+8:p+12], e.inline[:])
			}
			p += 12
		}
		next := 0
		if i+1 < len(ifds) {
			next = ifdOff[i+1]
		}
		le.PutUint32(buf[p:], uint32(next))
	}
	for i, b := range blobs {
		copy(buf[blobOff[i]:], b)
	}
	return buf, nil
}

// Write builds a CR2 file named name inside dir and returns its path.
func Write(t testing.TB, dir, name string, opts Options) string {
	t.Helper()
	data, err := Build(opts)
	if err != nil {
		t.Fatalf("building CR2 fixture: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing CR2 fixture: %v", err)
	}
	return path
}

func short(id uint16, v uint16) entry {
	e := entry{id: id, typ: typeShort, count: 1}
	binary.LittleEndian.PutUint16(e.inline[:], v)
	return e
}

func long(id uint16, v uint32) entry {
	e := entry{id: id, typ: typeLong, count: 1}
	binary.LittleEndian.PutUint32(e.inline[:], v)
	return e
}

// losslessStream returns n bytes that open like a lossless JPEG: SOI, then a
// SOF3 frame header for a w x h three-component image, zero padding and EOI.
func losslessStream(w, h, n int) []byte {
	b := make([]byte, n)
	hdr := []byte{
		0xFF, 0xD8,
		0xFF, 0xC3, 0x00, 0x11, 14,
		byte(h >> 8), byte(h), byte(w >> 8), byte(w), 3,
		1, 0x11, 0, 2, 0x11, 0, 3, 0x11, 0,
	}
	copy(b, hdr)
	b[n-2], b[n-1] = 0xFF, 0xD9
	return b
}

func encodeJPEG(w, h int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, Fill)
		}
	}
	var b bytes.Buffer
	if err := jpeg.Encode(&b, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
