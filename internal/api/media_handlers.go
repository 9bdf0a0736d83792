package api

import (
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"

	"github.com/shiksha-ai/server/internal/validation"
)

func (h *Handlers) extractText(c echo.Context) error {
	image, err := readUpload(c, "image", validation.MaxImageBytes)
	if err != nil {
		return h.respond.Fail(c, err)
	}
	in, err := validation.OCR(image, c.FormValue("language"))
	if err != nil {
		return h.respond.Fail(c, err)
	}

	result, err := h.svc.OCR.Extract(c.Request().Context(), currentUser(c), in)
	if err != nil {
		return h.respond.Fail(c, err)
	}
	return h.respond.Success(c, http.StatusOK, "Text extracted successfully", result)
}

func (h *Handlers) transcribe(c echo.Context) error {
	audio, err := readUpload(c, "audio", validation.MaxAudioBytes)
	if err != nil {
		return h.respond.Fail(c, err)
	}
	in, err := validation.Speech(audio, c.FormValue("language"))
	if err != nil {
		return h.respond.Fail(c, err)
	}

	result, err := h.svc.Speech.Transcribe(c.Request().Context(), currentUser(c), in)
	if err != nil {
		return h.respond.Fail(c, err)
	}
	return h.respond.Success(c, http.StatusOK, "Speech converted to text successfully", result)
}

func (h *Handlers) analyzePronunciation(c echo.Context) error {
	audio, err := readUpload(c, "audio", validation.MaxPronunciationSize)
	if err != nil {
		return h.respond.Fail(c, err)
	}
	in, err := validation.Pronunciation(audio,
		c.FormValue("language"),
		c.FormValue("targetText"),
		c.FormValue("evaluationType"),
		c.FormValue("difficulty"))
	if err != nil {
		return h.respond.Fail(c, err)
	}

	result, err := h.svc.Speech.EvaluatePronunciation(c.Request().Context(), currentUser(c), in)
	if err != nil {
		return h.respond.Fail(c, err)
	}
	return h.respond.Success(c, http.StatusOK, "Pronunciation analyzed successfully", result)
}

func (h *Handlers) synthesize(c echo.Context) error {
	var req SynthesisRequest
	if err := bind(c, &req); err != nil {
		return h.respond.Fail(c, err)
	}
	in, err := validation.Synthesis(req.Text, req.Language)
	if err != nil {
		return h.respond.Fail(c, err)
	}

	audio, err := h.svc.Speech.Synthesize(c.Request().Context(), currentUser(c), in)
	if err != nil {
		return h.respond.Fail(c, err)
	}
	return attachment(c, "speech"+audioExtension(audio.ContentType), audio.ContentType, audio.Audio)
}

func audioExtension(contentType string) string {
	if m := mimetype.Lookup(validation.NormalizeMimeType(contentType)); m != nil {
		return m.Extension()
	}
	return ""
}
