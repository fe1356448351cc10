package normalizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeGeneric(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", "  \t\n \r\n", ""},
		{"field label at start", "HELLO WORLD:\nvalue one   value two", "HELLO WORLD: value one value two"},
		{"field labels inline", "Applicant details PROJECT NAME: Rivers BUDGET: 100", "Applicant details\nPROJECT NAME: Rivers\nBUDGET: 100"},
		{"header run", "intro text GRANT APPLICATION FORM more text", "intro text\n\nGRANT APPLICATION FORM more text"},
		{"two caps words are not a header", "see THE END now", "see THE END now"},
		{"accented capitals", "résumé ÉTUDE DÉTAILLÉE FINALE suite", "résumé\n\nÉTUDE DÉTAILLÉE FINALE suite"},
		{"non-breaking spaces", "a\u00a0\u00a0b\u2003c", "a b c"},
		{"vertical tab", "a\vb", "a b"},
		{"line and paragraph separators", "a\u2028b\u2029c", "a b c"},
		{"next line", "a\u0085b", "a b"},
		{"byte order mark", "\ufeffa \ufeffb", "a b"},
		{"paragraphs are flattened", "first para\n\n\n\nsecond para", "first para second para"},
	}
	n := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.raw, DefaultOptions()))
		})
	}
}

func TestNormalizeCleanInputOnlyTrims(t *testing.T) {
	n := New()
	clean := "already clean text with nothing to mark"

	assert.Equal(t, clean, n.Normalize("  "+clean+"\n", DefaultOptions()))
	assert.Equal(t, clean, n.Normalize(n.Normalize(clean, DefaultOptions()), DefaultOptions()))
}

func TestNormalizeStepsAreToggled(t *testing.T) {
	n := New()
	raw := "  NAME OF APPLICANT:  x  "

	assert.Equal(t, "NAME OF APPLICANT:  x", n.Normalize(raw, Options{}))
	assert.Equal(t, "NAME OF APPLICANT: x", n.Normalize(raw, Options{NormalizeWhitespace: true}))

	withPreserve := DefaultOptions()
	withPreserve.PreserveOriginalStructure = true
	assert.Equal(t, n.Normalize(raw, DefaultOptions()), n.Normalize(raw, withPreserve))
}

func TestNormalizeNeverPanics(t *testing.T) {
	inputs := []string{
		"\x00\xff\xfe",
		":::::",
		strings.Repeat("ABC ", 500),
		strings.Repeat("\n", 100),
		"☐☑☒ ___ ... 1.)",
		"Ü:Ü:Ü:",
	}
	n := New()
	for _, in := range inputs {
		for _, v := range []Variant{VariantGeneric, VariantDocument, VariantForm} {
			assert.NotPanics(t, func() { n.Apply(in, DefaultOptions(), v) })
		}
	}
}

func TestNormalizeDocument(t *testing.T) {
	raw := "Intro text summary: this is it METHODOLOGY we do 1. first 2. second"

	got := New().NormalizeDocument(raw, DefaultOptions())

	assert.Equal(t, "Intro text\n\nsummary: this is it\n\nMETHODOLOGY we do\n1. first\n2. second", got)
}

func TestNormalizeDocumentLongestKeywordWins(t *testing.T) {
	got := New().NormalizeDocument("cover page EXECUTIVE SUMMARY of work", Options{})

	assert.Equal(t, "cover page\n\nEXECUTIVE SUMMARY of work", got)
}

func TestNormalizeDocumentCustomKeywords(t *testing.T) {
	n := New(WithSectionKeywords([]string{"scope", " "}))

	assert.Equal(t, "intro\n\nSCOPE rest", n.NormalizeDocument("intro SCOPE rest", Options{}))
	assert.Equal(t, "a summary: b", n.NormalizeDocument("a summary: b", Options{}))
}

func TestNormalizeForm(t *testing.T) {
	raw := "Applicant ☐ Yes ☑ No Signature: ____ Date ..... end"

	got := New().NormalizeForm(raw, DefaultOptions())

	assert.Equal(t, "Applicant\n☐ Yes\n☑ No\nSignature: __________\nDate: __________ end", got)
}

type upperOnly struct{}

func (upperOnly) MarkFields(text string) string  { return strings.ToUpper(text) }
func (upperOnly) MarkHeaders(text string) string { return text }

func TestWithHeuristics(t *testing.T) {
	n := New(WithHeuristics(upperOnly{}))

	assert.Equal(t, "SHOUT", n.Normalize("shout", DefaultOptions()))
	assert.Equal(t, "quiet", New(WithHeuristics(nil)).Normalize("quiet", DefaultOptions()))
}

func TestApply(t *testing.T) {
	res := New().Apply("HELLO WORLD:\nvalue one   value two", DefaultOptions(), VariantGeneric)

	assert.Equal(t, "HELLO WORLD: value one value two", res.Text)
	assert.Equal(t, 6, res.Stats.OriginalWordCount)
	assert.Equal(t, 6, res.Stats.ProcessedWordCount)
	assert.Equal(t, 2, res.Stats.OriginalLineCount)
	assert.Equal(t, 1, res.Stats.ProcessedLineCount)
	assert.InDelta(t, 0.5, res.Stats.StructureImprovement, 1e-9)
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("")
	require.NoError(t, err)
	assert.Equal(t, VariantGeneric, v)

	v, err = ParseVariant("form")
	require.NoError(t, err)
	assert.Equal(t, VariantForm, v)

	_, err = ParseVariant("poem")
	assert.Error(t, err)
}
