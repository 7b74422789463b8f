package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"contentstudio/internal/domain"
	"contentstudio/internal/middleware"
	"contentstudio/internal/viral"
)

// CreatePipeline opens a new viral video wizard session.
func (a *App) CreatePipeline(w http.ResponseWriter, r *http.Request) {
	p := a.Pipelines.Create()
	a.json(w, http.StatusCreated, p.Snapshot())
}

// GetPipeline returns the session's current snapshot.
func (a *App) GetPipeline(w http.ResponseWriter, r *http.Request) {
	p, err := a.pipeline(r)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, p.Snapshot())
}

// DeletePipeline drops the session.
func (a *App) DeletePipeline(w http.ResponseWriter, r *http.Request) {
	a.Pipelines.Delete(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// PipelineTitles runs the title ideation stage. The country defaults from
// the resolved client location when the request omits it.
func (a *App) PipelineTitles(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	p, err := a.pipeline(r)
	if err != nil {
		a.fail(w, err)
		return
	}
	var params domain.TitleParams
	if err := decodeJSON(w, r, &params); err != nil {
		a.fail(w, err)
		return
	}
	if params.Country == "" {
		if c := middleware.CountryFromContext(r.Context()); c != "" {
			params.Country = c
		} else {
			params.Country = a.DefaultCountry
		}
	}

	titles, err := p.GenerateTitles(r.Context(), params)
	a.record(r, "viral_titles", started, err)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, titles)
}

type selectTitleRequest struct {
	Title string `json:"title"`
}

// PipelineSelect picks one of the generated titles.
func (a *App) PipelineSelect(w http.ResponseWriter, r *http.Request) {
	p, err := a.pipeline(r)
	if err != nil {
		a.fail(w, err)
		return
	}
	var req selectTitleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, err)
		return
	}
	if err := p.SelectTitle(req.Title); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, p.Snapshot())
}

// PipelineNarrative runs the narrative stage for the selected title.
func (a *App) PipelineNarrative(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	p, err := a.pipeline(r)
	if err != nil {
		a.fail(w, err)
		return
	}
	narrative, err := p.GenerateNarrative(r.Context())
	a.record(r, "viral_narrative", started, err)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, narrative)
}

// PipelineAssets runs the production asset stage over the stored narrative.
func (a *App) PipelineAssets(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	p, err := a.pipeline(r)
	if err != nil {
		a.fail(w, err)
		return
	}
	assets, err := p.GenerateProductionAssets(r.Context())
	a.record(r, "viral_assets", started, err)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, assets)
}

// PipelineThumbnail designs the thumbnail for the selected title.
func (a *App) PipelineThumbnail(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	p, err := a.pipeline(r)
	if err != nil {
		a.fail(w, err)
		return
	}
	design, err := p.GenerateThumbnailDesign(r.Context())
	a.record(r, "viral_thumbnail", started, err)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, design)
}

// PipelineReset clears all stage outputs and returns to title ideation.
func (a *App) PipelineReset(w http.ResponseWriter, r *http.Request) {
	p, err := a.pipeline(r)
	if err != nil {
		a.fail(w, err)
		return
	}
	p.Reset()
	a.json(w, http.StatusOK, p.Snapshot())
}

func (a *App) pipeline(r *http.Request) (*viral.Pipeline, error) {
	return a.Pipelines.Get(chi.URLParam(r, "id"))
}
