package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"contentstudio/internal/domain"
	"contentstudio/internal/infra"
	"contentstudio/internal/middleware"
	"contentstudio/internal/infra/credentials"
	"contentstudio/internal/providers/explain"
	"contentstudio/internal/providers/metadata"
	"contentstudio/internal/providers/promptgen"
	"contentstudio/internal/providers/shellcmd"
	"contentstudio/internal/providers/social"
	"contentstudio/internal/usage"
	"contentstudio/internal/videojob"
	"contentstudio/internal/viral"
)

// App bundles the handler dependencies.
type App struct {
	Logger      infra.Logger
	Credentials credentials.Store
	Usage       *usage.Recorder

	Explainer    *explain.Explainer
	PromptGen    *promptgen.Generator
	Tagger       *metadata.Generator
	SocialWriter *social.Writer
	ShellGen     *shellcmd.Generator

	Pipelines *viral.Manager
	Poller    *videojob.Poller

	DefaultCountry string
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]string{"error": errCode, "message": message})
}

func (a *App) record(r *http.Request, tool string, started time.Time, err error) {
	a.Usage.Record(r.Context(), middleware.RequestIDFromContext(r.Context()), tool, err == nil, time.Since(started), nil)
}

// fail maps a domain error to its HTTP representation. Provider-side
// failures become 502s so clients can tell their own mistakes apart from
// upstream trouble.
func (a *App) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidSelection):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrCredentialMissing):
		a.error(w, http.StatusBadRequest, "api_key_missing", "Google AI API key is not configured. Set it via the settings endpoint.")
	case errors.Is(err, domain.ErrPrecondition):
		a.error(w, http.StatusConflict, "precondition", err.Error())
	case errors.Is(err, domain.ErrPipelineBusy):
		a.error(w, http.StatusConflict, "busy", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrMalformedResponse), errors.Is(err, domain.ErrTransport), errors.Is(err, domain.ErrJobFailed):
		a.error(w, http.StatusBadGateway, "provider_failure", err.Error())
	default:
		a.Logger.Error().Err(err).Msg("handlers: unexpected error")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
