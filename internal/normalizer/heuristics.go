package normalizer

import (
	"regexp"
	"sort"
	"strings"
)

// Heuristics detects structure in flattened text. Implementations must be
// safe for concurrent use and must never panic.
type Heuristics interface {
	// MarkFields puts labels such as "PROJECT NAME:" on their own line.
	MarkFields(text string) string
	// MarkHeaders puts a blank line before header-like runs of capitals.
	MarkHeaders(text string) string
}

var (
	// An uppercase letter, two or more uppercase letters or blanks, then a colon.
	fieldLabelPattern = regexp.MustCompile(`[ \t]*(\p{Lu}[\p{Lu} \t]{2,}:)`)
	// Three or more consecutive all-caps words of at least three letters.
	headerRunPattern = regexp.MustCompile(`[ \t]*(\p{Lu}{3,}(?:[ \t]+\p{Lu}{3,}){2,})`)
)

// UnicodeHeuristics treats any Unicode uppercase letter, accented ones
// included, as a capital.
type UnicodeHeuristics struct{}

func (UnicodeHeuristics) MarkFields(text string) string {
	return fieldLabelPattern.ReplaceAllString(text, "\n$1")
}

func (UnicodeHeuristics) MarkHeaders(text string) string {
	return headerRunPattern.ReplaceAllString(text, "\n\n$1")
}

// DefaultSectionKeywords is the section vocabulary of the document variant.
var DefaultSectionKeywords = []string{
	"abstract", "summary", "executive summary", "introduction", "background",
	"objectives", "objective", "aims", "methodology", "methods", "approach",
	"work plan", "timeline", "evaluation", "results", "expected results",
	"impact", "dissemination", "budget", "sustainability", "conclusions",
	"conclusion", "references",
}

// sectionRules breaks before known section headings.
type sectionRules struct {
	// keyword followed by a colon, any case
	labelled *regexp.Regexp
	// keyword written in capitals
	shouted *regexp.Regexp
}

func newSectionRules(keywords []string) *sectionRules {
	if len(keywords) == 0 {
		keywords = DefaultSectionKeywords
	}
	lower := make([]string, 0, len(keywords))
	upper := make([]string, 0, len(keywords))
	for _, k := range longestFirst(keywords) {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		lower = append(lower, keywordPattern(k))
		upper = append(upper, keywordPattern(strings.ToUpper(k)))
	}
	if len(lower) == 0 {
		return newSectionRules(DefaultSectionKeywords)
	}
	return &sectionRules{
		labelled: regexp.MustCompile(`[ \t]*\b((?i:` + strings.Join(lower, "|") + `)[ \t]*:)`),
		shouted:  regexp.MustCompile(`[ \t]*\b((?:` + strings.Join(upper, "|") + `)\b)`),
	}
}

func (r *sectionRules) apply(text string) string {
	text = r.labelled.ReplaceAllString(text, "\n\n$1")
	return r.shouted.ReplaceAllString(text, "\n\n$1")
}

// longestFirst orders alternatives so "executive summary" wins over "summary".
func longestFirst(words []string) []string {
	out := append([]string(nil), words...)
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

// keywordPattern quotes a keyword and lets its words be separated by any blank run.
func keywordPattern(keyword string) string {
	return strings.Join(strings.Fields(regexp.QuoteMeta(keyword)), `[ \t]+`)
}

var (
	// "1." "12)" "a." "B)" preceded by whitespace and followed by a blank.
	listMarkerPattern = regexp.MustCompile(`[ \t]+(\d{1,2}[.)]|[A-Za-z][.)])[ \t]+`)
	checkboxPattern   = regexp.MustCompile(`[ \t]*([☐□☑☒✓✔✗✘■])[ \t]*`)
	blankFieldPattern = regexp.MustCompile(`(?i)[ \t]*\b(signature|date|name)[ \t]*:?[ \t]*(?:_{3,}|\.{3,})`)
)

const blankFieldPlaceholder = "__________"
