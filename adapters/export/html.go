package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/domain/repositories"
)

var htmlTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: "Noto Sans", "Noto Sans Devanagari", "Noto Sans Gurmukhi", sans-serif; font-size: {{.FontSize}}pt; max-width: 50em; margin: 2em auto; line-height: 1.5; }
.original { color: #808080; }
.corrected { font-weight: bold; }
.metadata { font-style: italic; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Sections}}<section class="{{.Class}}">
{{if .Heading}}<h2>{{.Heading}}</h2>
{{end}}{{if .Items}}<ul>
{{range .Items}}<li>{{.}}</li>
{{end}}</ul>
{{else if .Fields}}<dl>
{{range .Fields}}<dt>{{.Key}}</dt><dd>{{.Value}}</dd>
{{end}}</dl>
{{else if .HTML}}{{.HTML}}{{else}}{{range .Paragraphs}}<p>{{.}}</p>
{{end}}{{end}}</section>
{{end}}</body>
</html>
`))

type htmlSection struct {
	Heading    string
	Class      string
	Items      []string
	Fields     []entities.KeyValue
	Paragraphs []string
	HTML       template.HTML
}

type htmlDocument struct {
	Title    string
	Lang     string
	FontSize float64
	Sections []htmlSection
}

// HTMLRenderer writes a standalone HTML page. Sections flagged as markdown
// are converted with goldmark; everything else is escaped.
type HTMLRenderer struct {
	md goldmark.Markdown
}

var _ repositories.DocumentRenderer = (*HTMLRenderer)(nil)

// NewHTMLRenderer creates an HTML renderer with a default goldmark parser.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{md: goldmark.New()}
}

func (r *HTMLRenderer) Format() entities.ExportFormat { return entities.FormatHTML }
func (r *HTMLRenderer) ContentType() string           { return "text/html; charset=utf-8" }

func (r *HTMLRenderer) Render(ctx context.Context, doc entities.Document) ([]byte, error) {
	view := htmlDocument{
		Title:    doc.Title,
		Lang:     doc.Language,
		FontSize: fontSize(doc),
	}
	for _, s := range visibleSections(doc) {
		hs := htmlSection{Heading: s.Heading, Class: string(s.Type)}
		switch s.Type {
		case entities.SectionList, entities.SectionChanges:
			hs.Items = s.Items
		case entities.SectionMetadata:
			hs.Fields = s.Fields
		default:
			if s.Markdown || doc.Formatting.Markdown {
				var buf bytes.Buffer
				// goldmark escapes raw HTML unless the unsafe renderer option is set.
				if err := r.md.Convert([]byte(s.Content), &buf); err != nil {
					return nil, fmt.Errorf("failed to convert markdown: %w", err)
				}
				hs.HTML = template.HTML(buf.String())
			} else {
				hs.Paragraphs = lines(s.Content)
			}
		}
		view.Sections = append(view.Sections, hs)
	}

	var out bytes.Buffer
	if err := htmlTemplate.Execute(&out, view); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return out.Bytes(), nil
}
