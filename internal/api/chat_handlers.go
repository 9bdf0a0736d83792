package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shiksha-ai/server/internal/language"
	"github.com/shiksha-ai/server/internal/validation"
	"github.com/shiksha-ai/server/internal/websocket"
)

func (h *Handlers) sendChatMessage(c echo.Context) error {
	var req ChatRequest
	if err := bind(c, &req); err != nil {
		return h.respond.Fail(c, err)
	}
	in, err := validation.Chat(req.Message, req.SessionID, req.Language, req.MessageType, req.Subject)
	if err != nil {
		return h.respond.Fail(c, err)
	}

	result, err := h.svc.Chat.SendMessage(c.Request().Context(), currentUser(c), in)
	if err != nil {
		return h.respond.Fail(c, err)
	}
	return h.respond.Success(c, http.StatusOK, "Message processed successfully", result)
}

func (h *Handlers) startChatSession(c echo.Context) error {
	var req SessionRequest
	if err := bind(c, &req); err != nil {
		return h.respond.Fail(c, err)
	}
	in, err := validation.Session(req.Language, req.SessionType, req.UserLevel)
	if err != nil {
		return h.respond.Fail(c, err)
	}

	info, err := h.svc.Chat.StartSession(c.Request().Context(), currentUser(c), in)
	if err != nil {
		return h.respond.Fail(c, err)
	}
	return h.respond.Success(c, http.StatusCreated, "Chat session started", info)
}

func (h *Handlers) chatHistory(c echo.Context) error {
	id, err := validation.SessionID(c.Param("sessionId"))
	if err != nil {
		return h.respond.Fail(c, err)
	}
	history, err := h.svc.Chat.History(c.Request().Context(), currentUser(c), id)
	if err != nil {
		return h.respond.Fail(c, err)
	}
	return h.respond.Success(c, http.StatusOK, "Chat history retrieved", history)
}

func (h *Handlers) continueChatSession(c echo.Context) error {
	id, err := validation.SessionID(c.Param("sessionId"))
	if err != nil {
		return h.respond.Fail(c, err)
	}
	info, err := h.svc.Chat.Continue(c.Request().Context(), currentUser(c), id)
	if err != nil {
		return h.respond.Fail(c, err)
	}
	return h.respond.Success(c, http.StatusOK, "Chat session continued", info)
}

func (h *Handlers) clearChatSession(c echo.Context) error {
	id, err := validation.SessionID(c.Param("sessionId"))
	if err != nil {
		return h.respond.Fail(c, err)
	}
	info, err := h.svc.Chat.Clear(c.Request().Context(), currentUser(c), id)
	if err != nil {
		return h.respond.Fail(c, err)
	}
	return h.respond.Success(c, http.StatusOK, "Chat session cleared", info)
}

func (h *Handlers) deleteChatSession(c echo.Context) error {
	id, err := validation.SessionID(c.Param("sessionId"))
	if err != nil {
		return h.respond.Fail(c, err)
	}
	if err := h.svc.Chat.Delete(c.Request().Context(), currentUser(c), id); err != nil {
		return h.respond.Fail(c, err)
	}
	return h.respond.Success(c, http.StatusOK, "Chat session deleted", map[string]string{"sessionId": id})
}

// chatStream upgrades to a websocket. A requested session must belong to
// the caller; failures are reported as envelopes before the upgrade.
func (h *Handlers) chatStream(c echo.Context) error {
	lang, err := language.ResolveOrDefault(c.QueryParam("language"))
	if err != nil {
		return h.respond.Fail(c, err)
	}

	userID := currentUser(c)
	sessionID := c.QueryParam("sessionId")
	if sessionID != "" {
		if sessionID, err = validation.SessionID(sessionID); err != nil {
			return h.respond.Fail(c, err)
		}
		history, err := h.svc.Chat.History(c.Request().Context(), userID, sessionID)
		if err != nil {
			return h.respond.Fail(c, err)
		}
		if l, err := language.Resolve(history.Language); err == nil {
			lang = l
		}
	}

	return websocket.Connect(h.svc.Hub, c, userID, sessionID, lang)
}
