package entities

// ExportFormat is an output document format.
type ExportFormat string

const (
	FormatPDF  ExportFormat = "pdf"
	FormatDOCX ExportFormat = "docx"
	FormatTXT  ExportFormat = "txt"
	FormatHTML ExportFormat = "html"
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
)

// SectionType selects how a document section is styled.
type SectionType string

const (
	SectionPlain     SectionType = "plain"
	SectionList      SectionType = "list"
	SectionMetadata  SectionType = "metadata"
	SectionOriginal  SectionType = "original"
	SectionCorrected SectionType = "corrected"
	SectionChanges   SectionType = "changes"
)

// Section is one block of a document. List and changes sections use Items;
// metadata sections use Fields; the rest use Content.
type Section struct {
	Heading  string      `json:"heading,omitempty"`
	Type     SectionType `json:"type"`
	Content  string      `json:"content,omitempty"`
	Items    []string    `json:"items,omitempty"`
	Fields   []KeyValue  `json:"fields,omitempty"`
	Markdown bool        `json:"-"`
}

// KeyValue is an ordered metadata entry.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Document is renderer-neutral content. Sections are rendered in order.
type Document struct {
	Title      string     `json:"title"`
	Language   string     `json:"language"`
	Sections   []Section  `json:"sections"`
	Formatting Formatting `json:"-"`
	// Rows is tabular data for formats that prefer it (csv, json).
	Rows [][]string `json:"-"`
}
