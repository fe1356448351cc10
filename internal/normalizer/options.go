package normalizer

import "fmt"

// Options selects which normalization steps run.
type Options struct {
	// PreserveOriginalStructure is accepted for compatibility and currently
	// has no effect.
	PreserveOriginalStructure bool `yaml:"preserveOriginalStructure" json:"preserveOriginalStructure"`
	AddFieldMarkers           bool `yaml:"addFieldMarkers" json:"addFieldMarkers"`
	AddHeaderMarkers          bool `yaml:"addHeaderMarkers" json:"addHeaderMarkers"`
	NormalizeWhitespace       bool `yaml:"normalizeWhitespace" json:"normalizeWhitespace"`
}

// DefaultOptions enables every restructuring step.
func DefaultOptions() Options {
	return Options{
		AddFieldMarkers:     true,
		AddHeaderMarkers:    true,
		NormalizeWhitespace: true,
	}
}

// Variant picks the policy layered on top of the generic normalization.
type Variant string

const (
	VariantGeneric  Variant = "generic"
	VariantDocument Variant = "document"
	VariantForm     Variant = "form"
)

// ParseVariant validates a variant name; the empty string means generic.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(s); v {
	case "":
		return VariantGeneric, nil
	case VariantGeneric, VariantDocument, VariantForm:
		return v, nil
	default:
		return "", fmt.Errorf("unknown normalization variant %q", s)
	}
}
