package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"contentstudio/internal/domain"
)

type explainRequest struct {
	Code string `json:"code"`
}

// Explain streams the code explanation back as server-sent events, one
// `data:` event per model chunk, closed by a `[DONE]` marker.
func (a *App) Explain(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	var req explainRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, err)
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		a.fail(w, fmt.Errorf("%w: code is required", domain.ErrInvalidInput))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		a.error(w, http.StatusInternalServerError, "internal", "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	err := a.Explainer.ExplainStream(r.Context(), req.Code, func(chunk string) {
		for _, line := range strings.Split(chunk, "\n") {
			fmt.Fprintf(w, "data: %s\n", line)
		}
		fmt.Fprint(w, "\n")
		flusher.Flush()
	})
	if err != nil {
		// Headers went out already, signal the failure in-band.
		fmt.Fprintf(w, "event: error\ndata: %s\n\n", err.Error())
		flusher.Flush()
		a.record(r, "explain", started, err)
		return
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
	a.record(r, "explain", started, nil)
}
