package handlers

import (
	"net/http"
	"time"

	"contentstudio/internal/providers/social"
)

// Social writes one ready-to-paste social media post.
func (a *App) Social(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	var params social.Params
	if err := decodeJSON(w, r, &params); err != nil {
		a.fail(w, err)
		return
	}

	post, err := a.SocialWriter.Write(r.Context(), params)
	a.record(r, "social", started, err)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{"post": post})
}
