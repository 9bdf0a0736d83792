package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/domain/repositories"
	"github.com/shiksha-ai/server/internal/apperr"
)

const (
	pdfMargin     = 20.0
	pdfFooter     = 15.0
	unicodeFamily = "unicode"
	coreFamily    = "Helvetica"
)

// coreSubstitutes spells out symbols the core fonts lack.
var coreSubstitutes = strings.NewReplacer("→", "->", "•", "-")

// PDFConfig holds configuration for the PDF renderer
// Optional fields:
// - FontPath: a TTF font with Devanagari and Gurmukhi glyphs. Without it
// the core Helvetica font is used and documents with text outside
// Windows-1252 are rejected.
type PDFConfig struct {
	FontPath string
}

// PDFRenderer writes A4 PDFs with a page-number footer.
type PDFRenderer struct {
	font   []byte
	logger *zap.Logger
}

var _ repositories.DocumentRenderer = (*PDFRenderer)(nil)

// NewPDFRenderer loads the optional UTF-8 font once at startup.
func NewPDFRenderer(config PDFConfig, logger *zap.Logger) (*PDFRenderer, error) {
	r := &PDFRenderer{logger: logger}
	if config.FontPath == "" {
		logger.Info("No export font configured, using core PDF font")
		return r, nil
	}
	font, err := os.ReadFile(config.FontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read export font: %w", err)
	}
	r.font = font
	logger.Info("Loaded export font", zap.String("path", config.FontPath))
	return r, nil
}

func (r *PDFRenderer) Format() entities.ExportFormat { return entities.FormatPDF }
func (r *PDFRenderer) ContentType() string           { return "application/pdf" }

func (r *PDFRenderer) Render(ctx context.Context, doc entities.Document) ([]byte, error) {
	if r.font == nil {
		if bad, ok := firstUnencodable(doc); ok {
			r.logger.Warn("PDF export needs a UTF-8 font",
				zap.String("language", doc.Language),
				zap.String("rune", string(bad)))
			return nil, apperr.E(apperr.UnsupportedFormat,
				"PDF export of this language is not available on this server. Use docx, txt or html instead")
		}
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfFooter+5)
	pdf.AliasNbPages("")

	family := coreFamily
	cp1252 := pdf.UnicodeTranslatorFromDescriptor("")
	tr := func(s string) string { return cp1252(coreSubstitutes.Replace(s)) }
	if r.font != nil {
		family = unicodeFamily
		for _, style := range []string{"", "B", "I"} {
			pdf.AddUTF8FontFromBytes(unicodeFamily, style, r.font)
		}
		tr = func(s string) string { return s }
	}
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("shiksha", true)

	size := fontSize(doc)
	lineHeight := size * 0.5

	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfFooter)
		pdf.SetFont(family, "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, fmt.Sprintf("%d / {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	if doc.Title != "" {
		pdf.SetFont(family, "B", size+6)
		pdf.SetTextColor(0, 0, 0)
		pdf.MultiCell(0, (size+6)*0.5, tr(doc.Title), "", "L", false)
		pdf.Ln(lineHeight)
	}

	for _, s := range visibleSections(doc) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.Heading != "" {
			pdf.SetFont(family, "B", size+2)
			pdf.SetTextColor(0, 0, 0)
			pdf.MultiCell(0, (size+2)*0.5, tr(s.Heading), "", "L", false)
		}

		style, red, green, blue := sectionStyle(s.Type)
		pdf.SetFont(family, style, size)
		pdf.SetTextColor(red, green, blue)

		switch s.Type {
		case entities.SectionList, entities.SectionChanges:
			for _, item := range s.Items {
				pdf.MultiCell(0, lineHeight, tr("- "+item), "", "L", false)
			}
		case entities.SectionMetadata:
			for _, f := range s.Fields {
				pdf.MultiCell(0, lineHeight, tr(f.Key+": "+f.Value), "", "L", false)
			}
		default:
			for _, line := range lines(s.Content) {
				pdf.MultiCell(0, lineHeight, tr(line), "", "L", false)
			}
		}
		pdf.Ln(lineHeight)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// sectionStyle returns the font style and text colour for a section type.
func sectionStyle(t entities.SectionType) (string, int, int, int) {
	switch t {
	case entities.SectionOriginal:
		return "", 128, 128, 128
	case entities.SectionCorrected:
		return "B", 0, 0, 0
	case entities.SectionMetadata:
		return "I", 64, 64, 64
	default:
		return "", 0, 0, 0
	}
}

// firstUnencodable returns the first rune of the visible document that the
// core PDF fonts cannot show.
func firstUnencodable(doc entities.Document) (rune, bool) {
	texts := []string{doc.Title}
	for _, s := range visibleSections(doc) {
		texts = append(texts, s.Heading, s.Content)
		texts = append(texts, s.Items...)
		for _, f := range s.Fields {
			texts = append(texts, f.Key, f.Value)
		}
	}
	for _, text := range texts {
		for _, r := range coreSubstitutes.Replace(text) {
			if _, ok := charmap.Windows1252.EncodeRune(r); !ok {
				return r, true
			}
		}
	}
	return 0, false
}
