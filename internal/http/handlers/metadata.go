package handlers

import (
	"fmt"
	"net/http"
	"time"

	"contentstudio/internal/domain"
	"contentstudio/internal/providers/metadata"
)

type metadataRequest struct {
	Image    string            `json:"image"`
	MimeType string            `json:"mime_type,omitempty"`
	Model    string            `json:"model,omitempty"`
	Settings metadata.Settings `json:"settings"`
}

// Metadata tags one stock image with a title, keywords and a description.
func (a *App) Metadata(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	var req metadataRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, err)
		return
	}
	if req.Image == "" {
		a.fail(w, fmt.Errorf("%w: image is required", domain.ErrInvalidInput))
		return
	}
	raw, mime, err := decodeInlineImage(req.Image, req.MimeType)
	if err != nil {
		a.fail(w, err)
		return
	}

	result, err := a.Tagger.Generate(r.Context(), raw, mime, req.Model, req.Settings)
	a.record(r, "metadata", started, err)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, result)
}
