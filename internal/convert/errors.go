// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import "errors"

// Validation errors. Callers match them with errors.Is; the returned errors
// wrap them with the offending path.
var (
	ErrDestinationNotDirectory = errors.New("destination must be a directory")
	ErrSourceIsDirectory       = errors.New("source file is a directory, did you forget to pass the flag for batch mode? (-b)")
	ErrNotRawFile              = errors.New("source file must be a CR2 RAW image with a .CR2 extension")
	ErrSourceNotDirectory      = errors.New("source file must be a directory when using batch process mode")
	ErrInvalidQuality          = errors.New("jpeg quality must be between 1 and 100")
)

// saveFailureHint is printed before a save error is returned.
const saveFailureHint = "Failed to save the converted image. Do you have write permissions for the destination directory?"

// noCandidatesMessage is printed when a batch directory holds no .CR2 files.
const noCandidatesMessage = "No Image files with a .CR2 extension were found in the provided source directory. Exiting.."
