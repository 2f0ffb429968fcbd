// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for cr2-converter: the run
// configuration, discovered inputs, image metadata and catalog records.
package types

import "time"

// RawExtension is the exact, case-sensitive extension of Canon raw files.
const RawExtension = "CR2"

// ConversionStatus records what happened to a single input.
type ConversionStatus string

const (
	ConversionDone    ConversionStatus = "converted"
	ConversionPlanned ConversionStatus = "planned"
	ConversionFailed  ConversionStatus = "failed"
)

// Candidate is a raw file selected for conversion.
type Candidate struct {
	// Path is the absolute path of the raw file.
	Path string `json:"path" yaml:"path"`

	// Stem is the output base name, without any extension.
	Stem string `json:"stem" yaml:"stem"`
}

// ImageMetadata holds camera and image details read from a raw file.
// Fields the file does not carry are left zero.
type ImageMetadata struct {
	Make       string    `json:"make,omitempty" yaml:"make,omitempty"`
	Model      string    `json:"model,omitempty" yaml:"model,omitempty"`
	CapturedAt time.Time `json:"captured_at,omitempty" yaml:"captured_at,omitempty"`
	Width      int       `json:"width" yaml:"width"`
	Height     int       `json:"height" yaml:"height"`
}

// ConversionRecord is one completed conversion as stored in the catalog.
type ConversionRecord struct {
	// ID is the catalog row identifier; zero until stored.
	ID int64 `json:"id" yaml:"id"`

	Source      string        `json:"source" yaml:"source"`
	Output      string        `json:"output" yaml:"output"`
	Format      OutputFormat  `json:"format" yaml:"format"`
	Metadata    ImageMetadata `json:"metadata" yaml:"metadata"`
	ConvertedAt time.Time     `json:"converted_at" yaml:"converted_at"`
}
