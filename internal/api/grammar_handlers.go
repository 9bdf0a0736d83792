package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shiksha-ai/server/internal/validation"
)

func (h *Handlers) checkGrammar(c echo.Context) error {
	var req GrammarRequest
	if err := bind(c, &req); err != nil {
		return h.respond.Fail(c, err)
	}
	in, err := validation.Grammar(req.Text, req.Language, req.CheckType)
	if err != nil {
		return h.respond.Fail(c, err)
	}

	result, err := h.svc.Grammar.Check(c.Request().Context(), currentUser(c), in)
	if err != nil {
		return h.respond.Fail(c, err)
	}
	return h.respond.Success(c, http.StatusOK, "Grammar checked successfully", result)
}

func (h *Handlers) checkGrammarBatch(c echo.Context) error {
	var req BatchGrammarRequest
	if err := bind(c, &req); err != nil {
		return h.respond.Fail(c, err)
	}
	in, err := validation.BatchGrammar(req.Texts, req.Language, req.CheckType)
	if err != nil {
		return h.respond.Fail(c, err)
	}

	result, err := h.svc.Grammar.CheckBatch(c.Request().Context(), currentUser(c), in)
	if err != nil {
		return h.respond.Fail(c, err)
	}
	return h.respond.Success(c, http.StatusOK, "Batch grammar check completed", result)
}
