// Package validation enforces the upload limits applied before documents
// reach the pipeline.
package validation

import (
	"errors"
	"fmt"

	"github.com/Lllllllleong/docpipeline/internal/extractor"
)

const (
	// DefaultMaxFileBytes is the largest accepted upload (50MB).
	DefaultMaxFileBytes = 50 << 20

	// DefaultMaxBatchFiles is the number of files accepted per request.
	DefaultMaxBatchFiles = 5
)

var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrFileTooLarge    = errors.New("file exceeds maximum size")
	ErrUnsupportedType = errors.New("file type is not supported")
	ErrTooManyFiles    = errors.New("too many files")
	ErrNoFiles         = errors.New("no files provided")
)

// Limits bounds what a single request may carry.
type Limits struct {
	MaxFileBytes  int64
	MaxBatchFiles int
	// Supported reports whether a canonical media type can be processed.
	// Nil accepts the types the extractor registers by default.
	Supported func(mediaType string) bool
}

// DefaultLimits returns the limits used when nothing is configured.
func DefaultLimits() Limits {
	return Limits{MaxFileBytes: DefaultMaxFileBytes, MaxBatchFiles: DefaultMaxBatchFiles}
}

var defaultTypes = map[string]bool{
	extractor.MediaTypePDF:      true,
	extractor.MediaTypeDOCX:     true,
	extractor.MediaTypeText:     true,
	extractor.MediaTypeMarkdown: true,
	extractor.MediaTypeCSV:      true,
}

// ValidateUpload checks one file. mediaType should already be resolved with
// extractor.ResolveMediaType.
func ValidateUpload(name, mediaType string, size int64, limits Limits) error {
	if size <= 0 {
		return fmt.Errorf("%w: %s", ErrEmptyFile, name)
	}
	if limits.MaxFileBytes > 0 && size > limits.MaxFileBytes {
		return fmt.Errorf("%w: %s is %d bytes (max %d)", ErrFileTooLarge, name, size, limits.MaxFileBytes)
	}
	mt := extractor.CanonicalMediaType(mediaType)
	if mt == extractor.MediaTypeLegacyWord {
		return fmt.Errorf("%w: %s is a legacy .doc file, save it as .docx", ErrUnsupportedType, name)
	}
	supported := limits.Supported
	if supported == nil {
		supported = func(mt string) bool { return defaultTypes[mt] }
	}
	if !supported(mt) {
		return fmt.Errorf("%w: %s (%s)", ErrUnsupportedType, name, mediaType)
	}
	return nil
}

// ValidateBatch checks the number of files in one request.
func ValidateBatch(count int, limits Limits) error {
	if count == 0 {
		return ErrNoFiles
	}
	if limits.MaxBatchFiles > 0 && count > limits.MaxBatchFiles {
		return fmt.Errorf("%w: %d files (max %d)", ErrTooManyFiles, count, limits.MaxBatchFiles)
	}
	return nil
}

// Code returns the failure code reported for a rejected file.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrEmptyFile):
		return "EMPTY_FILE"
	case errors.Is(err, ErrFileTooLarge):
		return "FILE_TOO_LARGE"
	case errors.Is(err, ErrUnsupportedType):
		return "UNSUPPORTED_FORMAT"
	case errors.Is(err, ErrTooManyFiles):
		return "TOO_MANY_FILES"
	case errors.Is(err, ErrNoFiles):
		return "NO_FILES"
	default:
		return "INVALID_UPLOAD"
	}
}
