package viral

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"contentstudio/internal/domain"
)

// Stage enumerates the wizard's forward-only progression.
type Stage string

const (
	StageAwaitingTitles    Stage = "awaiting_titles"
	StageAwaitingSelection Stage = "awaiting_selection"
	StageAwaitingNarrative Stage = "awaiting_narrative"
	StageAwaitingAssets    Stage = "awaiting_assets"
	StageAwaitingThumbnail Stage = "awaiting_thumbnail"
	StageComplete          Stage = "complete"
)

// Pipeline sequences the four dependent generation stages of the viral video
// wizard. Stage N is only invokable once stage N-1's required output exists,
// results are overwritten whole on re-invocation, and going backward is only
// possible through Reset.
//
// Stage calls are serialized: a second call while one is in flight is
// rejected with domain.ErrPipelineBusy rather than queued, so concurrent
// invocations can never interleave their writes.
type Pipeline struct {
	id        string
	runner    StageRunner
	createdAt time.Time

	// calls serializes stage invocations; mu guards the state fields so
	// snapshots stay consistent while a provider call is in flight.
	calls sync.Mutex
	mu    sync.RWMutex

	stage         Stage
	params        domain.TitleParams
	titleSet      *domain.TitleSet
	selectedTitle string
	narrative     *domain.Narrative
	assets        []domain.ProductionAsset
	thumbnail     *domain.ThumbnailDesign
}

// NewPipeline creates a fresh pipeline in AwaitingTitles.
func NewPipeline(runner StageRunner) *Pipeline {
	return &Pipeline{
		id:        uuid.NewString(),
		runner:    runner,
		createdAt: time.Now(),
		stage:     StageAwaitingTitles,
	}
}

// ID returns the pipeline's identifier.
func (p *Pipeline) ID() string {
	return p.id
}

func (p *Pipeline) acquire() error {
	if !p.calls.TryLock() {
		return domain.ErrPipelineBusy
	}
	return nil
}

// GenerateTitles runs the title ideation stage. It overwrites any previous
// title set and invalidates nothing else; the stage advances only as far as
// AwaitingSelection, never past the user's explicit title choice.
func (p *Pipeline) GenerateTitles(ctx context.Context, params domain.TitleParams) (*domain.TitleSet, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := p.acquire(); err != nil {
		return nil, err
	}
	defer p.calls.Unlock()

	set, err := p.runner.Titles(ctx, params)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.params = params
	p.titleSet = set
	if p.stage == StageAwaitingTitles {
		p.stage = StageAwaitingSelection
	}
	p.mu.Unlock()
	return set, nil
}

// SelectTitle records the user's choice and advances to AwaitingNarrative.
// The title must be a member of the most recent title set.
func (p *Pipeline) SelectTitle(title string) error {
	if err := p.acquire(); err != nil {
		return err
	}
	defer p.calls.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.titleSet == nil {
		return fmt.Errorf("%w: generate titles first", domain.ErrPrecondition)
	}
	if !p.titleSet.Contains(title) {
		return domain.ErrInvalidSelection
	}
	p.selectedTitle = title
	p.stage = StageAwaitingNarrative
	return nil
}

// GenerateNarrative runs the narrative stage for the selected title.
func (p *Pipeline) GenerateNarrative(ctx context.Context) (*domain.Narrative, error) {
	if err := p.acquire(); err != nil {
		return nil, err
	}
	defer p.calls.Unlock()

	p.mu.RLock()
	title := p.selectedTitle
	duration := p.params.Duration
	country := p.params.Country
	p.mu.RUnlock()
	if title == "" {
		return nil, fmt.Errorf("%w: select a title first", domain.ErrPrecondition)
	}

	narrative, err := p.runner.Narrative(ctx, title, duration, country)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.narrative = narrative
	if p.stage == StageAwaitingNarrative {
		p.stage = StageAwaitingAssets
	}
	p.mu.Unlock()
	return narrative, nil
}

// GenerateProductionAssets runs the asset stage against the stored narrative.
func (p *Pipeline) GenerateProductionAssets(ctx context.Context) ([]domain.ProductionAsset, error) {
	if err := p.acquire(); err != nil {
		return nil, err
	}
	defer p.calls.Unlock()

	p.mu.RLock()
	narrative := p.narrative
	title := p.selectedTitle
	country := p.params.Country
	p.mu.RUnlock()
	if narrative == nil {
		return nil, fmt.Errorf("%w: generate a narrative first", domain.ErrPrecondition)
	}

	assets, err := p.runner.ProductionAssets(ctx, *narrative, title, country)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.assets = assets
	if p.stage == StageAwaitingAssets {
		p.stage = StageAwaitingThumbnail
	}
	p.mu.Unlock()
	return assets, nil
}

// GenerateThumbnailDesign runs the thumbnail stage. It depends only on the
// selected title, not on the narrative or assets.
func (p *Pipeline) GenerateThumbnailDesign(ctx context.Context) (*domain.ThumbnailDesign, error) {
	if err := p.acquire(); err != nil {
		return nil, err
	}
	defer p.calls.Unlock()

	p.mu.RLock()
	title := p.selectedTitle
	country := p.params.Country
	p.mu.RUnlock()
	if title == "" {
		return nil, fmt.Errorf("%w: select a title first", domain.ErrPrecondition)
	}

	design, err := p.runner.Thumbnail(ctx, title, country)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.thumbnail = design
	if p.stage == StageAwaitingThumbnail {
		p.stage = StageComplete
	}
	p.mu.Unlock()
	return design, nil
}

// Reset returns the pipeline to AwaitingTitles, clearing every stored result
// in one atomic operation. Unlike stage calls it waits for an in-flight call
// to finish rather than failing busy.
func (p *Pipeline) Reset() {
	p.calls.Lock()
	defer p.calls.Unlock()

	p.mu.Lock()
	p.stage = StageAwaitingTitles
	p.params = domain.TitleParams{}
	p.titleSet = nil
	p.selectedTitle = ""
	p.narrative = nil
	p.assets = nil
	p.thumbnail = nil
	p.mu.Unlock()
}

// Snapshot is a consistent copy of the pipeline for the presentation layer.
type Snapshot struct {
	ID            string                   `json:"id"`
	Stage         Stage                    `json:"stage"`
	Params        domain.TitleParams       `json:"params"`
	TitleSet      *domain.TitleSet         `json:"title_set,omitempty"`
	SelectedTitle string                   `json:"selected_title,omitempty"`
	Narrative     *domain.Narrative        `json:"narrative,omitempty"`
	Assets        []domain.ProductionAsset `json:"production_assets,omitempty"`
	Thumbnail     *domain.ThumbnailDesign  `json:"thumbnail_design,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
}

// Snapshot returns the current pipeline view.
func (p *Pipeline) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Snapshot{
		ID:            p.id,
		Stage:         p.stage,
		Params:        p.params,
		TitleSet:      p.titleSet,
		SelectedTitle: p.selectedTitle,
		Narrative:     p.narrative,
		Assets:        p.assets,
		Thumbnail:     p.thumbnail,
		CreatedAt:     p.createdAt,
	}
}

// Manager owns the live pipelines, one per wizard session.
type Manager struct {
	runner StageRunner

	mu        sync.RWMutex
	pipelines map[string]*Pipeline
}

func NewManager(runner StageRunner) *Manager {
	return &Manager{
		runner:    runner,
		pipelines: make(map[string]*Pipeline),
	}
}

// Create starts a new pipeline and registers it.
func (m *Manager) Create() *Pipeline {
	p := NewPipeline(m.runner)
	m.mu.Lock()
	m.pipelines[p.ID()] = p
	m.mu.Unlock()
	return p
}

// Get returns the pipeline by id.
func (m *Manager) Get(id string) (*Pipeline, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pipelines[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// Delete removes the pipeline by id.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.pipelines, id)
	m.mu.Unlock()
}
