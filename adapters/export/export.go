// Package export renders documents into downloadable files.
package export

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/domain/repositories"
	"github.com/shiksha-ai/server/internal/apperr"
)

// Registry looks up renderers by format.
type Registry struct {
	renderers map[entities.ExportFormat]repositories.DocumentRenderer
	now       func() time.Time
}

var _ repositories.DocumentExporter = (*Registry)(nil)

// NewRegistry registers renderers by their own format. Later entries win.
func NewRegistry(renderers ...repositories.DocumentRenderer) *Registry {
	r := &Registry{
		renderers: make(map[entities.ExportFormat]repositories.DocumentRenderer, len(renderers)),
		now:       time.Now,
	}
	for _, renderer := range renderers {
		r.renderers[renderer.Format()] = renderer
	}
	return r
}

// Renderer returns the renderer for format.
func (r *Registry) Renderer(format entities.ExportFormat) (repositories.DocumentRenderer, error) {
	renderer, ok := r.renderers[format]
	if !ok {
		return nil, apperr.E(apperr.UnsupportedFormat, "Unsupported export format '%s'", format)
	}
	return renderer, nil
}

// Export renders doc and names the result after its title.
func (r *Registry) Export(ctx context.Context, doc entities.Document, format entities.ExportFormat) (*entities.ExportArtifact, error) {
	renderer, err := r.Renderer(format)
	if err != nil {
		return nil, err
	}
	data, err := renderer.Render(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", format, err)
	}
	return &entities.ExportArtifact{
		Filename:    Filename(doc.Title, string(format), r.now()),
		ContentType: renderer.ContentType(),
		Size:        len(data),
		Data:        data,
	}, nil
}

// Filename builds "<slug>_<YYYYMMDD-HHMMSS>_<6 hex>.<ext>".
func Filename(title, ext string, at time.Time) string {
	suffix := make([]byte, 3)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("%s_%s_%s.%s", Slug(title), at.Format("20060102-150405"), hex.EncodeToString(suffix), ext)
}

const maxSlugLength = 50

// Slug keeps ASCII letters and digits, joining runs of anything else with a
// single dash. Titles with no ASCII letters or digits become "document".
func Slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
		default:
			dash = true
		}
		if b.Len() >= maxSlugLength {
			break
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = strings.Trim(slug[:maxSlugLength], "-")
	}
	if slug == "" {
		return "document"
	}
	return slug
}

// lines splits section content into paragraphs, keeping blank lines out.
func lines(s string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// visibleSections drops metadata sections when metadata is turned off.
func visibleSections(doc entities.Document) []entities.Section {
	out := make([]entities.Section, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		if s.Type == entities.SectionMetadata && !doc.Formatting.IncludeMetadata {
			continue
		}
		out = append(out, s)
	}
	return out
}

func fontSize(doc entities.Document) float64 {
	if doc.Formatting.FontSize <= 0 {
		return entities.DefaultFormatting.FontSize
	}
	return doc.Formatting.FontSize
}
