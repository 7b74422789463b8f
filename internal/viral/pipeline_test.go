package viral

import (
	"context"
	"errors"
	"sync"
	"testing"

	"contentstudio/internal/domain"
)

type fakeRunner struct {
	titles    func(context.Context, domain.TitleParams) (*domain.TitleSet, error)
	narrative func(context.Context, string, int, string) (*domain.Narrative, error)
	assets    func(context.Context, domain.Narrative, string, string) ([]domain.ProductionAsset, error)
	thumbnail func(context.Context, string, string) (*domain.ThumbnailDesign, error)
}

func (f fakeRunner) Titles(ctx context.Context, params domain.TitleParams) (*domain.TitleSet, error) {
	if f.titles != nil {
		return f.titles(ctx, params)
	}
	return nil, errors.New("titles not implemented")
}

func (f fakeRunner) Narrative(ctx context.Context, title string, durationSeconds int, country string) (*domain.Narrative, error) {
	if f.narrative != nil {
		return f.narrative(ctx, title, durationSeconds, country)
	}
	return nil, errors.New("narrative not implemented")
}

func (f fakeRunner) ProductionAssets(ctx context.Context, narrative domain.Narrative, title, country string) ([]domain.ProductionAsset, error) {
	if f.assets != nil {
		return f.assets(ctx, narrative, title, country)
	}
	return nil, errors.New("assets not implemented")
}

func (f fakeRunner) Thumbnail(ctx context.Context, title, country string) (*domain.ThumbnailDesign, error) {
	if f.thumbnail != nil {
		return f.thumbnail(ctx, title, country)
	}
	return nil, errors.New("thumbnail not implemented")
}

func validParams() domain.TitleParams {
	return domain.TitleParams{
		Count:    10,
		Duration: 60,
		Country:  "Indonesia",
		Category: "Horror",
		Niche:    "urban legends",
	}
}

func titleSet(titles ...string) *domain.TitleSet {
	set := &domain.TitleSet{Titles: titles}
	for i, title := range titles {
		set.Analysis = append(set.Analysis, domain.TitleAnalysis{Rank: i + 1, Title: title})
	}
	return set
}

func TestPipelineHappyPath(t *testing.T) {
	narrative := domain.Narrative{
		Hook:      "A knock at 3am.",
		Conflict1: "The door is already open.",
		Conflict2: "The hallway lights die.",
		Twist:     "The knocking comes from inside.",
		Conflict3: "Every mirror shows a second figure.",
		Closing:   "The door closes by itself.",
	}
	runner := fakeRunner{
		titles: func(ctx context.Context, params domain.TitleParams) (*domain.TitleSet, error) {
			if params.Count != 10 || params.Duration != 60 {
				t.Fatalf("params = %+v, want count=10 duration=60", params)
			}
			return titleSet("Title A", "Title B"), nil
		},
		narrative: func(ctx context.Context, title string, durationSeconds int, country string) (*domain.Narrative, error) {
			if title != "Title B" {
				t.Fatalf("narrative title = %q, want %q", title, "Title B")
			}
			if country != "Indonesia" {
				t.Fatalf("narrative country = %q, want %q", country, "Indonesia")
			}
			return &narrative, nil
		},
		assets: func(ctx context.Context, n domain.Narrative, title, country string) ([]domain.ProductionAsset, error) {
			segments := n.Segments()
			assets := make([]domain.ProductionAsset, len(segments))
			for i, seg := range segments {
				assets[i] = domain.ProductionAsset{
					SegmentName:    seg.Name,
					NarratorScript: seg.Script,
					Timestamp:      "00:00-00:10",
					ImagePrompt:    "image prompt",
					VideoPrompt:    "video prompt",
				}
			}
			return assets, nil
		},
		thumbnail: func(ctx context.Context, title, country string) (*domain.ThumbnailDesign, error) {
			return &domain.ThumbnailDesign{}, nil
		},
	}

	p := NewPipeline(runner)
	ctx := context.Background()

	if got := p.Snapshot().Stage; got != StageAwaitingTitles {
		t.Fatalf("initial stage = %q, want %q", got, StageAwaitingTitles)
	}

	if _, err := p.GenerateTitles(ctx, validParams()); err != nil {
		t.Fatalf("GenerateTitles returned error: %v", err)
	}
	if got := p.Snapshot().Stage; got != StageAwaitingSelection {
		t.Fatalf("stage after titles = %q, want %q", got, StageAwaitingSelection)
	}

	if err := p.SelectTitle("Title B"); err != nil {
		t.Fatalf("SelectTitle returned error: %v", err)
	}

	if _, err := p.GenerateNarrative(ctx); err != nil {
		t.Fatalf("GenerateNarrative returned error: %v", err)
	}

	assets, err := p.GenerateProductionAssets(ctx)
	if err != nil {
		t.Fatalf("GenerateProductionAssets returned error: %v", err)
	}
	segments := narrative.Segments()
	if len(assets) != len(segments) {
		t.Fatalf("len(assets) = %d, want %d", len(assets), len(segments))
	}
	for i, asset := range assets {
		if asset.NarratorScript != segments[i].Script {
			t.Fatalf("asset %d narrator script = %q, want stored segment %q", i, asset.NarratorScript, segments[i].Script)
		}
		if asset.SegmentName != segments[i].Name {
			t.Fatalf("asset %d segment name = %q, want %q", i, asset.SegmentName, segments[i].Name)
		}
	}

	if _, err := p.GenerateThumbnailDesign(ctx); err != nil {
		t.Fatalf("GenerateThumbnailDesign returned error: %v", err)
	}
	if got := p.Snapshot().Stage; got != StageComplete {
		t.Fatalf("final stage = %q, want %q", got, StageComplete)
	}
}

func TestPipelineTitleParamsValidation(t *testing.T) {
	p := NewPipeline(fakeRunner{})
	cases := []struct {
		name   string
		mutate func(*domain.TitleParams)
	}{
		{"count", func(p *domain.TitleParams) { p.Count = 15 }},
		{"duration", func(p *domain.TitleParams) { p.Duration = 45 }},
		{"country", func(p *domain.TitleParams) { p.Country = " " }},
		{"category", func(p *domain.TitleParams) { p.Category = "" }},
		{"niche", func(p *domain.TitleParams) { p.Niche = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := validParams()
			tc.mutate(&params)
			if _, err := p.GenerateTitles(context.Background(), params); !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("GenerateTitles error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestPipelinePreconditions(t *testing.T) {
	p := NewPipeline(fakeRunner{})
	ctx := context.Background()

	if err := p.SelectTitle("anything"); !errors.Is(err, domain.ErrPrecondition) {
		t.Fatalf("SelectTitle error = %v, want ErrPrecondition", err)
	}
	if _, err := p.GenerateNarrative(ctx); !errors.Is(err, domain.ErrPrecondition) {
		t.Fatalf("GenerateNarrative error = %v, want ErrPrecondition", err)
	}
	if _, err := p.GenerateProductionAssets(ctx); !errors.Is(err, domain.ErrPrecondition) {
		t.Fatalf("GenerateProductionAssets error = %v, want ErrPrecondition", err)
	}
	if _, err := p.GenerateThumbnailDesign(ctx); !errors.Is(err, domain.ErrPrecondition) {
		t.Fatalf("GenerateThumbnailDesign error = %v, want ErrPrecondition", err)
	}

	// A failed precondition must leave the pipeline untouched.
	snap := p.Snapshot()
	if snap.Stage != StageAwaitingTitles || snap.TitleSet != nil || snap.SelectedTitle != "" {
		t.Fatalf("snapshot mutated by failed preconditions: %+v", snap)
	}
}

func TestPipelineRejectsUnknownSelection(t *testing.T) {
	runner := fakeRunner{
		titles: func(ctx context.Context, params domain.TitleParams) (*domain.TitleSet, error) {
			return titleSet("Known"), nil
		},
	}
	p := NewPipeline(runner)
	if _, err := p.GenerateTitles(context.Background(), validParams()); err != nil {
		t.Fatalf("GenerateTitles returned error: %v", err)
	}
	if err := p.SelectTitle("Unknown"); !errors.Is(err, domain.ErrInvalidSelection) {
		t.Fatalf("SelectTitle error = %v, want ErrInvalidSelection", err)
	}
	if got := p.Snapshot().SelectedTitle; got != "" {
		t.Fatalf("selected title = %q after rejected selection, want empty", got)
	}
}

func TestPipelineStageFailureKeepsState(t *testing.T) {
	fail := errors.New("provider down")
	calls := 0
	runner := fakeRunner{
		titles: func(ctx context.Context, params domain.TitleParams) (*domain.TitleSet, error) {
			calls++
			if calls > 1 {
				return nil, fail
			}
			return titleSet("Keeper"), nil
		},
	}
	p := NewPipeline(runner)
	ctx := context.Background()

	if _, err := p.GenerateTitles(ctx, validParams()); err != nil {
		t.Fatalf("GenerateTitles returned error: %v", err)
	}
	if _, err := p.GenerateTitles(ctx, validParams()); !errors.Is(err, fail) {
		t.Fatalf("GenerateTitles error = %v, want %v", err, fail)
	}

	snap := p.Snapshot()
	if snap.TitleSet == nil || len(snap.TitleSet.Titles) != 1 || snap.TitleSet.Titles[0] != "Keeper" {
		t.Fatalf("title set lost after failed regeneration: %+v", snap.TitleSet)
	}
	if snap.Stage != StageAwaitingSelection {
		t.Fatalf("stage = %q after failed regeneration, want %q", snap.Stage, StageAwaitingSelection)
	}
}

func TestPipelineBusyRejectsConcurrentCall(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	runner := fakeRunner{
		titles: func(ctx context.Context, params domain.TitleParams) (*domain.TitleSet, error) {
			close(started)
			<-release
			return titleSet("Slow"), nil
		},
	}
	p := NewPipeline(runner)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := p.GenerateTitles(context.Background(), validParams()); err != nil {
			t.Errorf("GenerateTitles returned error: %v", err)
		}
	}()

	<-started
	if err := p.SelectTitle("Slow"); !errors.Is(err, domain.ErrPipelineBusy) {
		t.Fatalf("SelectTitle during in-flight stage: error = %v, want ErrPipelineBusy", err)
	}
	if _, err := p.GenerateNarrative(context.Background()); !errors.Is(err, domain.ErrPipelineBusy) {
		t.Fatalf("GenerateNarrative during in-flight stage: error = %v, want ErrPipelineBusy", err)
	}

	close(release)
	wg.Wait()
}

func TestPipelineResetClearsEverything(t *testing.T) {
	runner := fakeRunner{
		titles: func(ctx context.Context, params domain.TitleParams) (*domain.TitleSet, error) {
			return titleSet("Only"), nil
		},
		narrative: func(ctx context.Context, title string, durationSeconds int, country string) (*domain.Narrative, error) {
			return &domain.Narrative{Hook: "h"}, nil
		},
	}
	p := NewPipeline(runner)
	ctx := context.Background()

	if _, err := p.GenerateTitles(ctx, validParams()); err != nil {
		t.Fatalf("GenerateTitles returned error: %v", err)
	}
	if err := p.SelectTitle("Only"); err != nil {
		t.Fatalf("SelectTitle returned error: %v", err)
	}
	if _, err := p.GenerateNarrative(ctx); err != nil {
		t.Fatalf("GenerateNarrative returned error: %v", err)
	}

	p.Reset()
	snap := p.Snapshot()
	if snap.Stage != StageAwaitingTitles {
		t.Fatalf("stage after reset = %q, want %q", snap.Stage, StageAwaitingTitles)
	}
	if snap.TitleSet != nil || snap.SelectedTitle != "" || snap.Narrative != nil || snap.Assets != nil || snap.Thumbnail != nil {
		t.Fatalf("reset left state behind: %+v", snap)
	}

	// Reset is idempotent.
	p.Reset()
	if got := p.Snapshot().Stage; got != StageAwaitingTitles {
		t.Fatalf("stage after second reset = %q, want %q", got, StageAwaitingTitles)
	}
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(fakeRunner{})
	p := m.Create()

	got, err := m.Get(p.ID())
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got != p {
		t.Fatalf("Get returned a different pipeline")
	}

	m.Delete(p.ID())
	if _, err := m.Get(p.ID()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get after delete: error = %v, want ErrNotFound", err)
	}
}
