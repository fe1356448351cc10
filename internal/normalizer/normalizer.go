// Package normalizer restructures extracted text for language-model input.
//
// Normalization is a total, deterministic function: whitespace is collapsed
// and structure is re-imposed with heuristic line breaks before field labels
// and all-caps headers. Original paragraph breaks are not preserved.
package normalizer

import (
	"regexp"
	"strings"

	"github.com/Lllllllleong/docpipeline/internal/models"
)

var (
	// \s is ASCII-only in RE2, so Unicode separators are listed explicitly.
	whitespaceRun = regexp.MustCompile(`[\s\v\p{Z}\x{85}\x{FEFF}]+`)
	excessNewline = regexp.MustCompile(`\n{3,}`)
)

// Normalizer applies the normalization steps. It holds only compiled rules
// and is safe for concurrent use.
type Normalizer struct {
	heuristics Heuristics
	sections   *sectionRules
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithHeuristics swaps the field and header detection strategy.
func WithHeuristics(h Heuristics) Option {
	return func(n *Normalizer) {
		if h != nil {
			n.heuristics = h
		}
	}
}

// WithSectionKeywords replaces the document variant's section vocabulary.
func WithSectionKeywords(keywords []string) Option {
	return func(n *Normalizer) {
		n.sections = newSectionRules(keywords)
	}
}

// New creates a Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		heuristics: UnicodeHeuristics{},
		sections:   newSectionRules(DefaultSectionKeywords),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize runs, in order and as enabled: whitespace collapsing, field
// markers, header markers, newline capping and trimming.
func (n *Normalizer) Normalize(raw string, opts Options) string {
	text := raw
	if opts.NormalizeWhitespace {
		text = whitespaceRun.ReplaceAllString(text, " ")
	}
	if opts.AddFieldMarkers {
		text = n.heuristics.MarkFields(text)
	}
	if opts.AddHeaderMarkers {
		text = n.heuristics.MarkHeaders(text)
	}
	return finish(text)
}

// NormalizeDocument additionally breaks before known section headings and
// numbered or lettered list items.
func (n *Normalizer) NormalizeDocument(raw string, opts Options) string {
	text := n.Normalize(raw, opts)
	text = n.sections.apply(text)
	text = listMarkerPattern.ReplaceAllString(text, "\n$1 ")
	return finish(text)
}

// NormalizeForm additionally puts checkbox items on their own lines and
// rewrites blank signature, date and name fields to a placeholder.
func (n *Normalizer) NormalizeForm(raw string, opts Options) string {
	text := n.Normalize(raw, opts)
	text = checkboxPattern.ReplaceAllString(text, "\n$1 ")
	text = blankFieldPattern.ReplaceAllString(text, "\n$1: "+blankFieldPlaceholder)
	return finish(text)
}

// Apply normalizes raw with the given variant and computes statistics.
func (n *Normalizer) Apply(raw string, opts Options, variant Variant) models.NormalizationResult {
	var text string
	switch variant {
	case VariantDocument:
		text = n.NormalizeDocument(raw, opts)
	case VariantForm:
		text = n.NormalizeForm(raw, opts)
	default:
		text = n.Normalize(raw, opts)
	}
	return models.NormalizationResult{
		Text:  text,
		Stats: Stats(raw, text),
	}
}

func finish(text string) string {
	text = excessNewline.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
