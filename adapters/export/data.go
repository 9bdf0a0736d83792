package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/domain/repositories"
)

// JSONRenderer writes the document structure and its rows as indented JSON.
type JSONRenderer struct{}

var _ repositories.DocumentRenderer = JSONRenderer{}

func (JSONRenderer) Format() entities.ExportFormat { return entities.FormatJSON }
func (JSONRenderer) ContentType() string           { return "application/json" }

func (JSONRenderer) Render(ctx context.Context, doc entities.Document) ([]byte, error) {
	payload := struct {
		Title    string             `json:"title"`
		Language string             `json:"language"`
		Sections []entities.Section `json:"sections"`
		Rows     [][]string         `json:"rows,omitempty"`
	}{
		Title:    doc.Title,
		Language: doc.Language,
		Sections: visibleSections(doc),
		Rows:     doc.Rows,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return data, nil
}

// CSVRenderer writes doc.Rows, or one row per section line when there are
// no rows.
type CSVRenderer struct{}

var _ repositories.DocumentRenderer = CSVRenderer{}

func (CSVRenderer) Format() entities.ExportFormat { return entities.FormatCSV }
func (CSVRenderer) ContentType() string           { return "text/csv; charset=utf-8" }

func (CSVRenderer) Render(ctx context.Context, doc entities.Document) ([]byte, error) {
	rows := doc.Rows
	if len(rows) == 0 {
		rows = [][]string{{"section", "content"}}
		for _, s := range visibleSections(doc) {
			switch s.Type {
			case entities.SectionList, entities.SectionChanges:
				for _, item := range s.Items {
					rows = append(rows, []string{s.Heading, item})
				}
			case entities.SectionMetadata:
				for _, f := range s.Fields {
					rows = append(rows, []string{s.Heading, f.Key + ": " + f.Value})
				}
			default:
				rows = append(rows, []string{s.Heading, strings.TrimSpace(s.Content)})
			}
		}
	}

	var buf bytes.Buffer
	// BOM so spreadsheet apps detect UTF-8 for Devanagari and Gurmukhi.
	buf.WriteString("\ufeff")
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}
