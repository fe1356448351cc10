package extractor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/Lllllllleong/docpipeline/internal/apperr"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const (
	pdfPageProgressStart = 10
	pdfPageProgressSpan  = 80
)

const corruptPDFMessage = "Could not read the PDF. The file may be damaged or password protected; please verify its integrity and try again."

var disablePDFConfigDir sync.Once

// PDFExtractor extracts text page by page.
type PDFExtractor struct {
	logger *slog.Logger
}

// NewPDFExtractor creates a PDF adapter.
func NewPDFExtractor(logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	// pdfcpu would otherwise create a configuration directory under the user's home.
	disablePDFConfigDir.Do(api.DisableConfigDir)
	return &PDFExtractor{logger: logger}
}

// Extract walks pages 1..N in order, joining each page's text items with a
// space and the pages with a blank line. Parser failures are reported as
// ErrCorruptDocument; the cause is only logged.
func (x *PDFExtractor) Extract(_ context.Context, data []byte, onProgress ProgressFunc) (Output, error) {
	onProgress(5, "Opening PDF")

	declaredPages, err := preflightPDF(data)
	if err != nil {
		x.logger.Error("PDF pre-flight validation failed", "error", err)
		return Output{}, apperr.New(apperr.ErrCorruptDocument, corruptPDFMessage, err)
	}

	pages, err := readPDFPages(data, onProgress)
	if err != nil {
		x.logger.Error("PDF text extraction failed", "error", err)
		return Output{}, apperr.New(apperr.ErrCorruptDocument, corruptPDFMessage, err)
	}
	if declaredPages != len(pages) {
		x.logger.Debug("Page count mismatch between parsers", "pdfcpu", declaredPages, "reader", len(pages))
	}

	return Output{
		Text:      strings.TrimSpace(strings.Join(pages, "\n\n")),
		PageCount: len(pages),
	}, nil
}

func preflightPDF(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.PageCount(bytes.NewReader(data), conf)
}

func readPDFPages(data []byte, onProgress ProgressFunc) (pages []string, err error) {
	// The reader panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	total := reader.NumPage()
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		text := ""
		if !page.V.IsNull() {
			text = strings.Join(textItems(page.Content().Text), " ")
		}
		pages = append(pages, text)
		onProgress(pageProgress(i, total), fmt.Sprintf("Extracting page %d of %d", i, total))
	}
	return pages, nil
}

// pageProgress maps page i of total into [10,90].
func pageProgress(i, total int) int {
	if total <= 0 {
		return pdfPageProgressStart + pdfPageProgressSpan
	}
	return pdfPageProgressStart + int(math.Round(float64(i)/float64(total)*pdfPageProgressSpan))
}

// textItems groups positioned glyphs into runs. A run ends at a space glyph,
// a baseline change or a horizontal gap wider than a fraction of the font size.
func textItems(glyphs []pdf.Text) []string {
	var items []string
	var current strings.Builder
	var prev *pdf.Text

	flush := func() {
		if current.Len() > 0 {
			items = append(items, current.String())
			current.Reset()
		}
	}

	for i := range glyphs {
		g := &glyphs[i]
		if strings.TrimSpace(g.S) == "" {
			flush()
			prev = nil
			continue
		}
		if prev != nil && startsNewItem(prev, g) {
			flush()
		}
		current.WriteString(g.S)
		prev = g
	}
	flush()
	return items
}

func startsNewItem(prev, next *pdf.Text) bool {
	size := prev.FontSize
	if size <= 0 {
		size = 1
	}
	if math.Abs(next.Y-prev.Y) > size*0.5 {
		return true
	}
	gap := next.X - (prev.X + prev.W)
	return gap > math.Max(size*0.2, 1) || gap < -size
}
