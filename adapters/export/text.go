package export

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/domain/repositories"
)

// TextRenderer writes plain UTF-8 text.
type TextRenderer struct{}

var _ repositories.DocumentRenderer = TextRenderer{}

func (TextRenderer) Format() entities.ExportFormat { return entities.FormatTXT }
func (TextRenderer) ContentType() string           { return "text/plain; charset=utf-8" }

func (TextRenderer) Render(ctx context.Context, doc entities.Document) ([]byte, error) {
	var b strings.Builder
	if doc.Title != "" {
		b.WriteString(doc.Title)
		b.WriteString("\n")
		b.WriteString(strings.Repeat("=", utf8.RuneCountInString(doc.Title)))
		b.WriteString("\n\n")
	}

	for _, s := range visibleSections(doc) {
		if s.Heading != "" {
			b.WriteString(s.Heading)
			b.WriteString("\n")
			b.WriteString(strings.Repeat("-", utf8.RuneCountInString(s.Heading)))
			b.WriteString("\n")
		}
		switch s.Type {
		case entities.SectionList, entities.SectionChanges:
			for _, item := range s.Items {
				b.WriteString("- ")
				b.WriteString(item)
				b.WriteString("\n")
			}
		case entities.SectionMetadata:
			for _, f := range s.Fields {
				b.WriteString(f.Key)
				b.WriteString(": ")
				b.WriteString(f.Value)
				b.WriteString("\n")
			}
		default:
			b.WriteString(strings.TrimRight(s.Content, "\n"))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return []byte(strings.TrimRight(b.String(), "\n") + "\n"), nil
}
