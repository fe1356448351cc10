package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/Lllllllleong/docpipeline/internal/apperr"
)

const (
	docxMainPart     = "word/document.xml"
	wordprocessingNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

// DefaultMaxDOCXPartBytes bounds the decompressed size of word/document.xml.
const DefaultMaxDOCXPartBytes = 256 << 20

var errPartTooLarge = errors.New("document part exceeds size limit")

const corruptDOCXMessage = "Could not read the Word document. Please verify the file is a valid .docx and try again."

// skippedElements are Word elements whose content cannot be represented as text.
var skippedElements = map[string]string{
	"drawing":  "embedded drawing",
	"pict":     "embedded picture",
	"object":   "embedded object",
	"altChunk": "alternative content chunk",
}

// DOCXExtractor extracts the raw text of an Office Open XML document.
type DOCXExtractor struct {
	logger       *slog.Logger
	maxPartBytes int64
}

// NewDOCXExtractor creates a DOCX adapter.
func NewDOCXExtractor(logger *slog.Logger) *DOCXExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DOCXExtractor{logger: logger, maxPartBytes: DefaultMaxDOCXPartBytes}
}

// Extract loads the archive from memory and returns the body text with
// paragraphs separated by blank lines. Content that cannot be rendered as
// text is reported as warnings.
func (x *DOCXExtractor) Extract(_ context.Context, data []byte, onProgress ProgressFunc) (Output, error) {
	onProgress(20, "Reading Word document")

	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		x.logger.Error("Failed to open DOCX archive", "error", err)
		return Output{}, apperr.New(apperr.ErrCorruptDocument, corruptDOCXMessage, err)
	}

	var part *zip.File
	for _, f := range archive.File {
		if f.Name == docxMainPart {
			part = f
			break
		}
	}
	if part == nil {
		err := fmt.Errorf("archive has no %s", docxMainPart)
		x.logger.Error("DOCX main part missing", "error", err)
		return Output{}, apperr.New(apperr.ErrCorruptDocument, corruptDOCXMessage, err)
	}

	if part.UncompressedSize64 > uint64(x.maxPartBytes) {
		err := fmt.Errorf("%w: %s declares %d bytes (max %d)", errPartTooLarge, docxMainPart, part.UncompressedSize64, x.maxPartBytes)
		x.logger.Error("DOCX main part too large", "error", err)
		return Output{}, apperr.New(apperr.ErrCorruptDocument, corruptDOCXMessage, err)
	}

	onProgress(60, "Extracting text from Word document")

	rc, err := part.Open()
	if err != nil {
		x.logger.Error("Failed to open DOCX main part", "error", err)
		return Output{}, apperr.New(apperr.ErrCorruptDocument, corruptDOCXMessage, err)
	}
	defer rc.Close()

	text, warnings, err := rawText(&cappedReader{r: rc, remaining: x.maxPartBytes})
	if err != nil {
		x.logger.Error("Failed to parse DOCX body", "error", err)
		return Output{}, apperr.New(apperr.ErrCorruptDocument, corruptDOCXMessage, err)
	}
	for _, w := range warnings {
		x.logger.Warn("DOCX extraction warning", "warning", w)
	}

	return Output{Text: strings.TrimSpace(text), Warnings: warnings}, nil
}

// cappedReader fails with errPartTooLarge once more than remaining bytes
// have been read. Zip headers can understate the inflated size.
type cappedReader struct {
	r         io.Reader
	remaining int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.remaining < 0 {
		return 0, errPartTooLarge
	}
	if int64(len(p)) > c.remaining+1 {
		p = p[:c.remaining+1]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		return n, errPartTooLarge
	}
	return n, err
}

// rawText streams document.xml and renders runs, tabs, breaks and paragraphs.
func rawText(r io.Reader) (string, []string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	skipped := make(map[string]int)
	inText := 0

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("decode document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordprocessingNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText++
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			default:
				if label, ok := skippedElements[t.Name.Local]; ok {
					skipped[label]++
				}
			}
		case xml.EndElement:
			if t.Name.Space != wordprocessingNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				if inText > 0 {
					inText--
				}
			case "p":
				sb.WriteString("\n\n")
			}
		case xml.CharData:
			if inText > 0 {
				sb.Write(t)
			}
		}
	}

	return sb.String(), skippedWarnings(skipped), nil
}

func skippedWarnings(skipped map[string]int) []string {
	if len(skipped) == 0 {
		return nil
	}
	warnings := make([]string, 0, len(skipped))
	for label, n := range skipped {
		warnings = append(warnings, fmt.Sprintf("skipped %d %s(s) without extractable text", n, label))
	}
	sort.Strings(warnings)
	return warnings
}
