package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/internal/apperr"
	"github.com/shiksha-ai/server/internal/validation"
)

// readUpload loads a multipart file into memory, reading at most limit+1
// bytes so the validator can reject oversized files without buffering them.
// A missing file yields a nil asset.
func readUpload(c echo.Context, field string, limit int64) (*entities.Asset, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, apperr.Wrap(err, apperr.ValidationFailure, "Invalid multipart form")
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	return &entities.Asset{
		Data:     data,
		MimeType: uploadMimeType(header.Header.Get(echo.HeaderContentType), data),
		Size:     header.Size,
		Filename: header.Filename,
	}, nil
}

// uploadMimeType trusts the declared type and sniffs the content only when
// the client sent none or a generic one.
func uploadMimeType(declared string, data []byte) string {
	switch validation.NormalizeMimeType(declared) {
	case "", "application/octet-stream":
		if len(data) == 0 {
			return declared
		}
		return mimetype.Detect(data).String()
	default:
		return declared
	}
}
