package handlers

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"contentstudio/internal/domain"
	"contentstudio/internal/providers/promptgen"
)

type promptsRequest struct {
	Concept     string `json:"concept"`
	Image       string `json:"image,omitempty"`
	Style       string `json:"style"`
	AspectRatio string `json:"aspect_ratio"`
	Duration    string `json:"duration"`
}

// Prompts generates the matched image/video prompt pair from a concept or a
// reference image.
func (a *App) Prompts(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	var req promptsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, err)
		return
	}
	params := promptgen.Params{
		Concept:     req.Concept,
		Style:       req.Style,
		AspectRatio: req.AspectRatio,
		Duration:    req.Duration,
	}
	if req.Image != "" {
		raw, mime, err := decodeInlineImage(req.Image, "image/png")
		if err != nil {
			a.fail(w, err)
			return
		}
		params.Image = raw
		params.ImageMime = mime
	}

	pair, err := a.PromptGen.Generate(r.Context(), params)
	a.record(r, "prompts", started, err)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, pair)
}

type renderImageRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"`
}

type renderImageResponse struct {
	Image    string `json:"image"`
	MimeType string `json:"mime_type"`
}

// PromptsImage renders the preview image for a generated image prompt. The
// result doubles as the seed frame for video generation.
func (a *App) PromptsImage(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	var req renderImageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, err)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		a.fail(w, fmt.Errorf("%w: prompt is required", domain.ErrInvalidInput))
		return
	}

	raw, mime, err := a.PromptGen.RenderImage(r.Context(), req.Prompt, req.AspectRatio)
	a.record(r, "prompts_image", started, err)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, renderImageResponse{
		Image:    base64.StdEncoding.EncodeToString(raw),
		MimeType: mime,
	})
}
