package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"contentstudio/internal/http/handlers"
	"contentstudio/internal/infra"
	"contentstudio/internal/infra/geoip"
	"contentstudio/internal/middleware"
)

// NewRouter wires the HTTP surface. The geoip resolver is optional; without
// it the country middleware falls back to the X-Country header alone.
func NewRouter(app *handlers.App, cfg *infra.Config, resolver geoip.CountryResolver) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logger(app.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))
	r.Use(middleware.Country(resolver))

	r.Get("/v1/healthz", app.Health)

	r.Post("/v1/explain", app.Explain)

	r.Route("/v1/prompts", func(r chi.Router) {
		r.Post("/", app.Prompts)
		r.Post("/image", app.PromptsImage)
	})

	r.Post("/v1/metadata", app.Metadata)
	r.Post("/v1/social", app.Social)
	r.Post("/v1/shellcmd", app.ShellCmd)

	r.Route("/v1/videos", func(r chi.Router) {
		r.Post("/", app.SubmitVideo)
		r.Get("/current", app.VideoStatus)
		r.Delete("/current", app.CancelVideo)
		r.Get("/current/artifact", app.VideoArtifact)
	})

	r.Route("/v1/viral", func(r chi.Router) {
		r.Post("/", app.CreatePipeline)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", app.GetPipeline)
			r.Delete("/", app.DeletePipeline)
			r.Post("/titles", app.PipelineTitles)
			r.Post("/select", app.PipelineSelect)
			r.Post("/narrative", app.PipelineNarrative)
			r.Post("/assets", app.PipelineAssets)
			r.Post("/thumbnail", app.PipelineThumbnail)
			r.Post("/reset", app.PipelineReset)
		})
	})

	r.Route("/v1/settings/api-key", func(r chi.Router) {
		r.Put("/", app.SetAPIKey)
		r.Get("/", app.APIKeyStatus)
		r.Delete("/", app.ClearAPIKey)
	})

	r.Get("/v1/stats", app.Stats)

	return r
}
