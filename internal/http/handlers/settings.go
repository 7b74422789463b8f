package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"contentstudio/internal/domain"
	"contentstudio/internal/usage"
)

type apiKeyRequest struct {
	APIKey string `json:"api_key"`
}

// SetAPIKey stores the Google AI key used by every provider call.
func (a *App) SetAPIKey(w http.ResponseWriter, r *http.Request) {
	var req apiKeyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, err)
		return
	}
	if strings.TrimSpace(req.APIKey) == "" {
		a.fail(w, fmt.Errorf("%w: api_key is required", domain.ErrInvalidInput))
		return
	}
	if err := a.Credentials.SetAPIKey(r.Context(), req.APIKey); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"configured": true})
}

// APIKeyStatus reports whether a key is configured, without revealing it.
func (a *App) APIKeyStatus(w http.ResponseWriter, r *http.Request) {
	key, err := a.Credentials.APIKey(r.Context())
	if err != nil && !errors.Is(err, domain.ErrCredentialMissing) {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"configured": key != ""})
}

// ClearAPIKey removes the stored key.
func (a *App) ClearAPIKey(w http.ResponseWriter, r *http.Request) {
	if err := a.Credentials.ClearAPIKey(r.Context()); err != nil {
		a.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats returns per-tool usage counts for the trailing day. Without a
// database the list is empty.
func (a *App) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.Usage.Last24h(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	if stats == nil {
		stats = []usage.ToolStats{}
	}
	a.json(w, http.StatusOK, map[string]any{"tools": stats})
}
