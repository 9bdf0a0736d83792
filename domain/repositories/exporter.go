package repositories

import (
	"context"

	"github.com/shiksha-ai/server/domain/entities"
)

// DocumentRenderer turns a Document into bytes of one format.
type DocumentRenderer interface {
	Format() entities.ExportFormat
	ContentType() string
	Render(ctx context.Context, doc entities.Document) ([]byte, error)
}

// DocumentExporter renders a document in a named format and packages it as
// a downloadable artifact.
type DocumentExporter interface {
	Export(ctx context.Context, doc entities.Document, format entities.ExportFormat) (*entities.ExportArtifact, error)
}
