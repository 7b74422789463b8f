package videojob

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"contentstudio/internal/domain"
	"contentstudio/internal/infra"
)

// JobClient is the upstream surface the poller drives: submit once, poll
// until done, fetch the artifact.
type JobClient interface {
	StartVideoJob(ctx context.Context, prompt string, seedImage []byte, mimeType string) (string, error)
	CheckVideoJob(ctx context.Context, operationName string) (domain.JobStatus, error)
	FetchArtifact(ctx context.Context, uri string) ([]byte, error)
}

// statusMessages rotate while a job is pending. They are cosmetic feedback
// only and never influence state transitions.
var statusMessages = [...]string{
	"Warming up the video engine...",
	"Conceptualizing the motion...",
	"Compositing scenes, this can take a few minutes...",
	"Applying digital cinematography...",
	"Adding special effects and filters...",
	"Rendering the final frames...",
	"Finalizing render, almost there!",
}

const fetchingMessage = "Video generated! Downloading..."

// Options configures a Poller.
type Options struct {
	Client JobClient
	// Interval is the fixed delay between status checks. It defaults to ten
	// seconds; keep it multi-second to respect upstream rate limits.
	Interval time.Duration
	Clock    Clock
	Logger   *infra.Logger
}

// Poller drives the fire-and-poll-and-fetch lifecycle for at most one
// long-running video job. Checks are strictly sequential: the next tick is
// armed only after the previous check resolves, so two status requests for
// the same job can never be in flight together. Submitting a new job cancels
// the previous poll loop; no cancellation signal is sent upstream.
type Poller struct {
	client   JobClient
	interval time.Duration
	clock    Clock
	logger   *infra.Logger

	mu     sync.Mutex
	job    *job
	cancel context.CancelFunc
	done   chan struct{}
}

type job struct {
	id          string
	operation   string
	state       domain.JobState
	messageIdx  int
	resultURI   string
	errDetail   string
	checks      int
	payload     []byte
	submittedAt time.Time
	updatedAt   time.Time
}

// NewPoller constructs a Poller with the given options.
func NewPoller(opts Options) (*Poller, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("job client is required")
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	clock := opts.Clock
	if clock == nil {
		clock = NewRealClock()
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Poller{
		client:   opts.Client,
		interval: interval,
		clock:    clock,
		logger:   logger,
	}, nil
}

// Submit starts a new video job, discarding and cancelling any previous one.
// Both the prompt and the seed image are required.
func (p *Poller) Submit(ctx context.Context, prompt string, seedImage []byte, mimeType string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: prompt is required", domain.ErrInvalidInput)
	}
	if len(seedImage) == 0 {
		return "", fmt.Errorf("%w: seed image is required", domain.ErrInvalidInput)
	}

	operation, err := p.client.StartVideoJob(ctx, prompt, seedImage, mimeType)
	if err != nil {
		return "", err
	}

	j := &job{
		id:          uuid.NewString(),
		operation:   operation,
		state:       domain.JobStateSubmitted,
		submittedAt: time.Now(),
		updatedAt:   time.Now(),
	}

	pollCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.job = j
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	p.logger.Info().Str("job_id", j.id).Msg("videojob: submitted")
	go p.run(pollCtx, j, done)
	return j.id, nil
}

// run is the poll loop. It owns all transitions for its job; a superseding
// Submit cancels ctx, which the loop honors before every tick and before the
// artifact fetch.
func (p *Poller) run(ctx context.Context, j *job, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			p.fail(j, "cancelled", nil)
			return
		case <-p.clock.After(p.interval):
		}

		status, err := p.client.CheckVideoJob(ctx, j.operation)
		if err != nil {
			p.fail(j, "status check failed", err)
			return
		}

		p.mu.Lock()
		j.checks++
		j.updatedAt = time.Now()
		if !status.Done {
			j.state = domain.JobStatePolling
			j.messageIdx = (j.messageIdx + 1) % len(statusMessages)
			p.mu.Unlock()
			continue
		}
		if status.ResultURI == "" {
			p.mu.Unlock()
			detail := status.ErrorDetail
			if detail == "" {
				detail = "no result uri in final response"
			}
			p.fail(j, detail, domain.ErrJobFailed)
			return
		}
		j.state = domain.JobStateFetching
		j.resultURI = status.ResultURI
		p.mu.Unlock()

		if ctx.Err() != nil {
			p.fail(j, "cancelled", nil)
			return
		}

		payload, err := p.client.FetchArtifact(ctx, status.ResultURI)
		if err != nil {
			p.fail(j, "artifact fetch failed", err)
			return
		}

		p.mu.Lock()
		j.state = domain.JobStateCompleted
		j.payload = payload
		j.updatedAt = time.Now()
		p.mu.Unlock()
		p.logger.Info().Str("job_id", j.id).Int("bytes", len(payload)).Msg("videojob: completed")
		return
	}
}

func (p *Poller) fail(j *job, detail string, cause error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if j.state.Terminal() {
		return
	}
	j.state = domain.JobStateFailed
	if cause != nil {
		j.errDetail = fmt.Sprintf("%s: %v", detail, cause)
	} else {
		j.errDetail = detail
	}
	j.updatedAt = time.Now()
	p.logger.Warn().Str("job_id", j.id).Str("detail", j.errDetail).Msg("videojob: failed")
}

// Cancel stops the current poll loop, if any. The job is marked failed; the
// upstream operation keeps running regardless, matching the original
// behavior of simply abandoning it.
func (p *Poller) Cancel() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Snapshot returns an immutable view of the current job. ok is false when
// nothing has been submitted yet.
func (p *Poller) Snapshot() (domain.JobSnapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	j := p.job
	if j == nil {
		return domain.JobSnapshot{}, false
	}
	snap := domain.JobSnapshot{
		ID:          j.id,
		State:       j.state,
		ResultURI:   j.resultURI,
		Error:       j.errDetail,
		Checks:      j.checks,
		SubmittedAt: j.submittedAt,
		UpdatedAt:   j.updatedAt,
	}
	switch j.state {
	case domain.JobStateSubmitted, domain.JobStatePolling:
		snap.StatusMessage = statusMessages[j.messageIdx]
	case domain.JobStateFetching:
		snap.StatusMessage = fetchingMessage
	}
	return snap, true
}

// Artifact returns the fetched payload of the completed job.
func (p *Poller) Artifact() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.job == nil {
		return nil, domain.ErrNotFound
	}
	if p.job.state != domain.JobStateCompleted {
		return nil, fmt.Errorf("%w: job is %s", domain.ErrPrecondition, p.job.state)
	}
	return p.job.payload, nil
}
