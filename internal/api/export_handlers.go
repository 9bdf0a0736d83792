package api

import (
	"github.com/labstack/echo/v4"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/internal/apperr"
	"github.com/shiksha-ai/server/internal/validation"
)

func (h *Handlers) exportText(c echo.Context) error {
	var req ExportTextRequest
	if err := bind(c, &req); err != nil {
		return h.respond.Fail(c, err)
	}
	in, err := validation.ExportText(req.Text, req.Title, req.Language, c.Param("format"), req.Formatting)
	if err != nil {
		return h.respond.Fail(c, err)
	}

	artifact, err := h.svc.Export.ExportText(c.Request().Context(), currentUser(c), in)
	if err != nil {
		return h.respond.Fail(c, err)
	}
	return sendArtifact(c, artifact)
}

func (h *Handlers) exportGrammar(c echo.Context) error {
	var req GrammarExportRequest
	if err := bind(c, &req); err != nil {
		return h.respond.Fail(c, err)
	}
	in, err := validation.GrammarExport(req.OriginalText, req.CorrectedText, req.Changes, req.Suggestions,
		req.Title, req.Language, req.Format)
	if err != nil {
		return h.respond.Fail(c, err)
	}

	artifact, err := h.svc.Export.ExportGrammar(c.Request().Context(), currentUser(c), in)
	if err != nil {
		return h.respond.Fail(c, err)
	}
	return sendArtifact(c, artifact)
}

func (h *Handlers) exportSession(c echo.Context) error {
	id, err := validation.SessionID(c.Param("sessionId"))
	if err != nil {
		return h.respond.Fail(c, err)
	}
	var req RecordExportRequest
	if err := bind(c, &req); err != nil {
		return h.respond.Fail(c, err)
	}
	format, err := validation.RecordExportFormat(req.Format)
	if err != nil {
		return h.respond.Fail(c, err)
	}

	artifact, err := h.svc.Export.ExportSession(c.Request().Context(), currentUser(c), id, format)
	if err != nil {
		return h.respond.Fail(c, err)
	}
	return sendArtifact(c, artifact)
}

func (h *Handlers) exportHistory(c echo.Context) error {
	var req RecordExportRequest
	if err := bind(c, &req); err != nil {
		return h.respond.Fail(c, err)
	}
	format, err := validation.RecordExportFormat(req.Format)
	if err != nil {
		return h.respond.Fail(c, err)
	}

	artifact, err := h.svc.Export.ExportHistory(c.Request().Context(), currentUser(c), format)
	if err != nil {
		return h.respond.Fail(c, err)
	}
	return sendArtifact(c, artifact)
}

func (h *Handlers) exportBulk(c echo.Context) error {
	return h.respond.Fail(c, apperr.E(apperr.Unimplemented, "Bulk export is not implemented yet"))
}

func sendArtifact(c echo.Context, a *entities.ExportArtifact) error {
	return attachment(c, a.Filename, a.ContentType, a.Data)
}
