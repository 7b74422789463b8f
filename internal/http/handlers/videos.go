package handlers

import (
	"fmt"
	"net/http"
	"time"

	"contentstudio/internal/domain"
)

type submitVideoRequest struct {
	Prompt   string `json:"prompt"`
	Image    string `json:"image"`
	MimeType string `json:"mime_type,omitempty"`
}

// SubmitVideo starts a video generation job from a prompt and a seed image.
// A job already in flight is cancelled and superseded.
func (a *App) SubmitVideo(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	var req submitVideoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, err)
		return
	}
	if req.Image == "" {
		a.fail(w, fmt.Errorf("%w: a seed image is required", domain.ErrInvalidInput))
		return
	}
	raw, mime, err := decodeInlineImage(req.Image, req.MimeType)
	if err != nil {
		a.fail(w, err)
		return
	}

	id, err := a.Poller.Submit(r.Context(), req.Prompt, raw, mime)
	a.record(r, "video_submit", started, err)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusAccepted, map[string]string{"id": id})
}

// VideoStatus reports the current job snapshot.
func (a *App) VideoStatus(w http.ResponseWriter, r *http.Request) {
	snap, ok := a.Poller.Snapshot()
	if !ok {
		a.fail(w, fmt.Errorf("%w: no video job submitted", domain.ErrNotFound))
		return
	}
	a.json(w, http.StatusOK, snap)
}

// CancelVideo stops the in-flight job, if any. Cancelling an already
// terminal job is a no-op.
func (a *App) CancelVideo(w http.ResponseWriter, r *http.Request) {
	a.Poller.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

// VideoArtifact serves the fetched video bytes of the completed job.
func (a *App) VideoArtifact(w http.ResponseWriter, r *http.Request) {
	payload, err := a.Poller.Artifact()
	if err != nil {
		a.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Length", fmt.Sprint(len(payload)))
	_, _ = w.Write(payload)
}
