package export

import (
	"context"
	"fmt"
	"os"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/domain/repositories"
)

// DOCXRenderer writes Word documents from the default godocx template.
type DOCXRenderer struct{}

var _ repositories.DocumentRenderer = DOCXRenderer{}

func (DOCXRenderer) Format() entities.ExportFormat { return entities.FormatDOCX }
func (DOCXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

func (DOCXRenderer) Render(ctx context.Context, doc entities.Document) ([]byte, error) {
	document, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("failed to create docx: %w", err)
	}
	size := uint(fontSize(doc))

	if doc.Title != "" {
		if _, err := document.AddHeading(doc.Title, 0); err != nil {
			return nil, fmt.Errorf("failed to add title: %w", err)
		}
	}
	for _, s := range visibleSections(doc) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.Heading != "" {
			if _, err := document.AddHeading(s.Heading, 1); err != nil {
				return nil, fmt.Errorf("failed to add heading: %w", err)
			}
		}

		switch s.Type {
		case entities.SectionList, entities.SectionChanges:
			for _, item := range s.Items {
				p := document.AddParagraph("")
				p.Style("List Bullet")
				styleRun(p.AddText(item), s.Type, size)
			}
		case entities.SectionMetadata:
			for _, f := range s.Fields {
				styleRun(document.AddParagraph("").AddText(f.Key+": "+f.Value), s.Type, size)
			}
		default:
			for _, line := range lines(s.Content) {
				styleRun(document.AddParagraph("").AddText(line), s.Type, size)
			}
		}
	}

	return saveDocument(document)
}

// styleRun applies the section type's emphasis to a run.
func styleRun(r *docx.Run, t entities.SectionType, size uint) {
	r.Size(uint64(size))
	switch t {
	case entities.SectionOriginal:
		r.Color("808080")
	case entities.SectionCorrected:
		r.Bold(true)
	case entities.SectionMetadata:
		r.Italic(true)
	}
}

// saveDocument packages the document through a temporary file, since
// godocx saves by path.
func saveDocument(document *docx.RootDoc) ([]byte, error) {
	f, err := os.CreateTemp("", "export-*.docx")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	name := f.Name()
	f.Close()
	defer os.Remove(name)

	if err := document.SaveTo(name); err != nil {
		return nil, fmt.Errorf("failed to write docx: %w", err)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read docx: %w", err)
	}
	return data, nil
}
