package videojob

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"contentstudio/internal/domain"
)

type fakeJobClient struct {
	start func(context.Context, string, []byte, string) (string, error)
	check func(context.Context, string) (domain.JobStatus, error)
	fetch func(context.Context, string) ([]byte, error)
}

func (f *fakeJobClient) StartVideoJob(ctx context.Context, prompt string, seedImage []byte, mimeType string) (string, error) {
	if f.start != nil {
		return f.start(ctx, prompt, seedImage, mimeType)
	}
	return "operations/op-1", nil
}

func (f *fakeJobClient) CheckVideoJob(ctx context.Context, operation string) (domain.JobStatus, error) {
	if f.check != nil {
		return f.check(ctx, operation)
	}
	return domain.JobStatus{}, errors.New("check not implemented")
}

func (f *fakeJobClient) FetchArtifact(ctx context.Context, uri string) ([]byte, error) {
	if f.fetch != nil {
		return f.fetch(ctx, uri)
	}
	return nil, errors.New("fetch not implemented")
}

// fakeClock hands the poll loop a shared tick channel so tests control
// exactly when the next status check fires.
type fakeClock struct {
	ch chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{ch: make(chan time.Time)}
}

func (f *fakeClock) After(time.Duration) <-chan time.Time {
	return f.ch
}

// readyClock fires immediately so poll loops free-run.
type readyClock struct{}

func (readyClock) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func (f *fakeClock) tick(t *testing.T) {
	t.Helper()
	select {
	case f.ch <- time.Now():
	case <-time.After(2 * time.Second):
		t.Fatalf("poll loop never armed the next tick")
	}
}

func newTestPoller(t *testing.T, client JobClient, clock Clock) *Poller {
	t.Helper()
	p, err := NewPoller(Options{Client: client, Interval: time.Second, Clock: clock})
	if err != nil {
		t.Fatalf("NewPoller returned error: %v", err)
	}
	return p
}

func waitState(t *testing.T, p *Poller, want domain.JobState) domain.JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if snap, ok := p.Snapshot(); ok && snap.State == want {
			return snap
		}
		time.Sleep(time.Millisecond)
	}
	snap, _ := p.Snapshot()
	t.Fatalf("job state = %q, want %q", snap.State, want)
	return domain.JobSnapshot{}
}

func TestPollerSubmitValidation(t *testing.T) {
	p := newTestPoller(t, &fakeJobClient{}, newFakeClock())
	if _, err := p.Submit(context.Background(), "  ", []byte("img"), "image/png"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("Submit with blank prompt: error = %v, want ErrInvalidInput", err)
	}
	if _, err := p.Submit(context.Background(), "a cat surfing", nil, "image/png"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("Submit without seed image: error = %v, want ErrInvalidInput", err)
	}
	if _, ok := p.Snapshot(); ok {
		t.Fatalf("rejected submit still registered a job")
	}
}

func TestPollerCompletesAfterPolling(t *testing.T) {
	clock := newFakeClock()
	var checks atomic.Int32
	var doneReturned atomic.Bool
	client := &fakeJobClient{
		check: func(ctx context.Context, operation string) (domain.JobStatus, error) {
			if operation != "operations/op-1" {
				t.Errorf("check operation = %q, want %q", operation, "operations/op-1")
			}
			n := checks.Add(1)
			if n < 3 {
				return domain.JobStatus{Done: false}, nil
			}
			doneReturned.Store(true)
			return domain.JobStatus{Done: true, ResultURI: "https://example.test/video"}, nil
		},
		fetch: func(ctx context.Context, uri string) ([]byte, error) {
			if !doneReturned.Load() {
				t.Errorf("artifact fetched before the job reported done")
			}
			if uri != "https://example.test/video" {
				t.Errorf("fetch uri = %q, want result uri", uri)
			}
			return []byte("mp4-bytes"), nil
		},
	}
	p := newTestPoller(t, client, clock)

	if _, err := p.Submit(context.Background(), "a cat surfing", []byte("img"), "image/png"); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if snap, _ := p.Snapshot(); snap.State != domain.JobStateSubmitted {
		t.Fatalf("state after submit = %q, want %q", snap.State, domain.JobStateSubmitted)
	}

	clock.tick(t)
	clock.tick(t)
	waitState(t, p, domain.JobStatePolling)
	clock.tick(t)
	snap := waitState(t, p, domain.JobStateCompleted)

	if got := checks.Load(); got != 3 {
		t.Fatalf("checks = %d, want 3", got)
	}
	if snap.Checks != 3 {
		t.Fatalf("snapshot checks = %d, want 3", snap.Checks)
	}
	if snap.ResultURI != "https://example.test/video" {
		t.Fatalf("snapshot result uri = %q", snap.ResultURI)
	}

	payload, err := p.Artifact()
	if err != nil {
		t.Fatalf("Artifact returned error: %v", err)
	}
	if string(payload) != "mp4-bytes" {
		t.Fatalf("payload = %q, want %q", payload, "mp4-bytes")
	}
}

func TestPollerRotatesStatusMessages(t *testing.T) {
	clock := newFakeClock()
	client := &fakeJobClient{
		check: func(ctx context.Context, operation string) (domain.JobStatus, error) {
			return domain.JobStatus{Done: false}, nil
		},
	}
	p := newTestPoller(t, client, clock)
	if _, err := p.Submit(context.Background(), "prompt", []byte("img"), "image/png"); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	first, _ := p.Snapshot()
	if first.StatusMessage == "" {
		t.Fatalf("submitted job has no status message")
	}

	clock.tick(t)
	snap := waitState(t, p, domain.JobStatePolling)
	if snap.StatusMessage == "" || snap.StatusMessage == first.StatusMessage {
		t.Fatalf("status message did not rotate: %q -> %q", first.StatusMessage, snap.StatusMessage)
	}
}

func TestPollerDoneWithoutURIFails(t *testing.T) {
	clock := newFakeClock()
	client := &fakeJobClient{
		check: func(ctx context.Context, operation string) (domain.JobStatus, error) {
			return domain.JobStatus{Done: true, ErrorDetail: "quota exhausted"}, nil
		},
		fetch: func(ctx context.Context, uri string) ([]byte, error) {
			t.Errorf("fetch called for a job that produced no artifact")
			return nil, nil
		},
	}
	p := newTestPoller(t, client, clock)
	if _, err := p.Submit(context.Background(), "prompt", []byte("img"), "image/png"); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	clock.tick(t)
	snap := waitState(t, p, domain.JobStateFailed)
	if snap.Error == "" {
		t.Fatalf("failed job carries no error detail")
	}
	if _, err := p.Artifact(); !errors.Is(err, domain.ErrPrecondition) {
		t.Fatalf("Artifact on failed job: error = %v, want ErrPrecondition", err)
	}
}

func TestPollerCheckFailureIsTerminal(t *testing.T) {
	clock := newFakeClock()
	boom := errors.New("boom")
	client := &fakeJobClient{
		check: func(ctx context.Context, operation string) (domain.JobStatus, error) {
			return domain.JobStatus{}, boom
		},
	}
	p := newTestPoller(t, client, clock)
	if _, err := p.Submit(context.Background(), "prompt", []byte("img"), "image/png"); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	clock.tick(t)
	waitState(t, p, domain.JobStateFailed)
}

func TestPollerCancelStopsLoop(t *testing.T) {
	clock := newFakeClock()
	client := &fakeJobClient{
		check: func(ctx context.Context, operation string) (domain.JobStatus, error) {
			t.Errorf("check called after cancellation")
			return domain.JobStatus{}, nil
		},
	}
	p := newTestPoller(t, client, clock)
	if _, err := p.Submit(context.Background(), "prompt", []byte("img"), "image/png"); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	p.Cancel()
	snap := waitState(t, p, domain.JobStateFailed)
	if snap.Error != "cancelled" {
		t.Fatalf("error detail = %q, want %q", snap.Error, "cancelled")
	}

	// Cancelling again is a no-op.
	p.Cancel()
}

func TestPollerSubmitSupersedesPreviousJob(t *testing.T) {
	ops := 0
	client := &fakeJobClient{
		start: func(ctx context.Context, prompt string, seedImage []byte, mimeType string) (string, error) {
			ops++
			if ops == 1 {
				return "operations/op-1", nil
			}
			return "operations/op-2", nil
		},
		check: func(ctx context.Context, operation string) (domain.JobStatus, error) {
			// The superseded loop may still get a tick in before it
			// observes its cancellation; never complete it.
			if operation != "operations/op-2" {
				return domain.JobStatus{Done: false}, nil
			}
			return domain.JobStatus{Done: true, ResultURI: "u"}, nil
		},
		fetch: func(ctx context.Context, uri string) ([]byte, error) {
			return []byte("ok"), nil
		},
	}
	p := newTestPoller(t, client, readyClock{})

	first, err := p.Submit(context.Background(), "first", []byte("img"), "image/png")
	if err != nil {
		t.Fatalf("first Submit returned error: %v", err)
	}
	second, err := p.Submit(context.Background(), "second", []byte("img"), "image/png")
	if err != nil {
		t.Fatalf("second Submit returned error: %v", err)
	}
	if first == second {
		t.Fatalf("superseding submit reused the job id")
	}

	snap, ok := p.Snapshot()
	if !ok || snap.ID != second {
		t.Fatalf("snapshot id = %q, want %q", snap.ID, second)
	}

	final := waitState(t, p, domain.JobStateCompleted)
	if final.ID != second {
		t.Fatalf("completed job id = %q, want %q", final.ID, second)
	}
}

func TestPollerArtifactBeforeSubmit(t *testing.T) {
	p := newTestPoller(t, &fakeJobClient{}, newFakeClock())
	if _, err := p.Artifact(); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Artifact error = %v, want ErrNotFound", err)
	}
}
