package extractor

import (
	"mime"
	"path/filepath"
	"strings"
)

const (
	MediaTypePDF        = "application/pdf"
	MediaTypeDOCX       = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MediaTypeText       = "text/plain"
	MediaTypeMarkdown   = "text/markdown"
	MediaTypeCSV        = "text/csv"
	MediaTypeLegacyWord = "application/msword"
	MediaTypeOctet      = "application/octet-stream"
)

var extensionTypes = map[string]string{
	".pdf":      MediaTypePDF,
	".docx":     MediaTypeDOCX,
	".doc":      MediaTypeLegacyWord,
	".txt":      MediaTypeText,
	".text":     MediaTypeText,
	".md":       MediaTypeMarkdown,
	".markdown": MediaTypeMarkdown,
	".csv":      MediaTypeCSV,
}

// CanonicalMediaType lower-cases a media type and strips its parameters.
func CanonicalMediaType(mediaType string) string {
	mediaType = strings.TrimSpace(mediaType)
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		return parsed
	}
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// MediaTypeFromName guesses a media type from a file name's extension for
// sources that do not declare one.
func MediaTypeFromName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if mt, ok := extensionTypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return CanonicalMediaType(mt)
	}
	return MediaTypeOctet
}

// ResolveMediaType prefers a declared type and falls back to the file name
// when the declared one is missing or generic.
func ResolveMediaType(declared, name string) string {
	mt := CanonicalMediaType(declared)
	if mt == "" || mt == MediaTypeOctet {
		return MediaTypeFromName(name)
	}
	return mt
}
