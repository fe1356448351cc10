package normalizer

import (
	"strings"
	"unicode/utf8"

	"github.com/Lllllllleong/docpipeline/internal/models"
)

// Stats compares the original and processed text. Ratios with a zero
// denominator are reported as 0.
func Stats(original, processed string) models.NormalizationStats {
	s := models.NormalizationStats{
		OriginalWordCount:  WordCount(original),
		ProcessedWordCount: WordCount(processed),
		OriginalLineCount:  lineCount(original),
		ProcessedLineCount: lineCount(processed),
	}
	if n := utf8.RuneCountInString(original); n > 0 {
		s.CompressionRatio = float64(utf8.RuneCountInString(processed)) / float64(n)
	}
	if s.OriginalLineCount > 0 {
		s.StructureImprovement = float64(s.ProcessedLineCount) / float64(s.OriginalLineCount)
	}
	return s
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// lineCount counts lines holding at least one non-blank character.
func lineCount(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
