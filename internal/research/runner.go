package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/openresearch/research-agent/internal/api"
	"github.com/openresearch/research-agent/internal/models"
	"github.com/openresearch/research-agent/internal/monitoring"
)

// complexityDurations drives both the estimate returned at start time
// and the simulated work duration. Values are seconds.
var complexityDurations = map[string]int{
	models.ComplexitySimple:  10,
	models.ComplexityMedium:  30,
	models.ComplexityComplex: 60,
}

const defaultDurationSeconds = 30

// EstimateSeconds returns the estimated processing time for a
// complexity level. Unknown levels fall back to the medium default.
func EstimateSeconds(complexity string) int {
	if secs, ok := complexityDurations[complexity]; ok {
		return secs
	}
	return defaultDurationSeconds
}

// Result is what a pipeline produces for a completed session.
type Result struct {
	Summary    string
	Sources    []models.SessionSource
	Confidence float64
}

// Pipeline performs the research work for one session. The session is a
// snapshot; result fields are written back by the runner, never by the
// pipeline itself. A production pipeline replaces the placeholder while
// the runner keeps the transition timing contract.
type Pipeline func(ctx context.Context, sess models.Session) (*Result, error)

// SessionStore is the store surface the runner needs. The in-memory
// implementation lives in internal/store; a durable backend would
// satisfy the same interface.
type SessionStore interface {
	Create(ctx context.Context, sess *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Mutate(ctx context.Context, id string, fn func(*models.Session) error) error
	List(ctx context.Context, offset, limit int) ([]*models.Session, error)
	Delete(ctx context.Context, id string) error
}

// Runner executes one background job per research session on a fixed
// pool of workers. Dispatch happens strictly after the session is in
// the store, so no reader can observe a session the runner will never
// pick up. Failures are recorded on the session record and never
// propagate to any caller.
type Runner struct {
	sessions SessionStore
	log      *slog.Logger
	metrics  *monitoring.Metrics

	pipeline Pipeline
	estimate func(complexity string) time.Duration

	queue chan string
	wg    sync.WaitGroup
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithPipeline swaps the placeholder pipeline for a real one.
func WithPipeline(p Pipeline) RunnerOption {
	return func(r *Runner) { r.pipeline = p }
}

// WithEstimate overrides the complexity→duration lookup. Tests use it
// to shrink the simulated delay to milliseconds.
func WithEstimate(fn func(complexity string) time.Duration) RunnerOption {
	return func(r *Runner) { r.estimate = fn }
}

func NewRunner(sessions SessionStore, log *slog.Logger, metrics *monitoring.Metrics, workers, queueSize int, opts ...RunnerOption) *Runner {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	r := &Runner{
		sessions: sessions,
		log:      log,
		metrics:  metrics,
		queue:    make(chan string, queueSize),
		estimate: func(complexity string) time.Duration {
			return time.Duration(EstimateSeconds(complexity)) * time.Second
		},
	}
	r.pipeline = r.placeholder
	for _, opt := range opts {
		opt(r)
	}
	r.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go r.worker()
	}
	return r
}

// Dispatch enqueues the background job for a freshly created session.
// Call it exactly once per session, after the store insert and before
// Stop. Dispatch never blocks the caller: when the queue is full the
// job runs on its own goroutine instead of waiting for a worker.
func (r *Runner) Dispatch(id string) {
	select {
	case r.queue <- id:
	default:
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.execute(id)
		}()
	}
}

// Stop drains the queue and waits for in-flight jobs to finish.
func (r *Runner) Stop() {
	close(r.queue)
	r.wg.Wait()
}

func (r *Runner) worker() {
	defer r.wg.Done()
	for id := range r.queue {
		r.execute(id)
	}
}

func (r *Runner) execute(id string) {
	ctx := context.Background()

	// Enter processing the moment work begins, not at enqueue time.
	var snapshot models.Session
	err := r.sessions.Mutate(ctx, id, func(s *models.Session) error {
		if terr := s.TransitionTo(models.StatusProcessing); terr != nil {
			return terr
		}
		snapshot = *s.Clone()
		return nil
	})
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			// Session deleted between dispatch and pickup.
			r.log.Warn("research session vanished before processing", "session_id", id)
			return
		}
		panic(fmt.Sprintf("research runner: %v", err))
	}

	start := time.Now()
	result, perr := r.pipeline(ctx, snapshot)
	elapsed := time.Since(start).Seconds()

	if perr != nil {
		r.fail(ctx, id, snapshot.Complexity, perr)
		return
	}

	err = r.sessions.Mutate(ctx, id, func(s *models.Session) error {
		if terr := s.TransitionTo(models.StatusCompleted); terr != nil {
			return terr
		}
		s.Summary = result.Summary
		s.Sources = result.Sources
		s.Confidence = &result.Confidence
		s.ProcessingTime = &elapsed
		return nil
	})
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			// Deleted mid-flight; the write-back is discarded, not retried.
			r.log.Warn("research session deleted mid-flight, dropping result", "session_id", id)
			return
		}
		panic(fmt.Sprintf("research runner: %v", err))
	}

	r.metrics.ResearchQueries.WithLabelValues(string(models.StatusCompleted), snapshot.Complexity).Inc()
	r.log.Info("research completed", "session_id", id, "processing_time", elapsed)
}

func (r *Runner) fail(ctx context.Context, id, complexity string, cause error) {
	err := r.sessions.Mutate(ctx, id, func(s *models.Session) error {
		if terr := s.TransitionTo(models.StatusFailed); terr != nil {
			return terr
		}
		s.Error = cause.Error()
		return nil
	})
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			r.log.Warn("research session deleted mid-flight, dropping failure", "session_id", id)
			return
		}
		panic(fmt.Sprintf("research runner: %v", err))
	}
	r.metrics.ResearchQueries.WithLabelValues(string(models.StatusFailed), complexity).Inc()
	r.log.Error("research failed", "session_id", id, "error", cause)
}

// placeholder simulates a multi-source search and synthesis pipeline:
// it waits the complexity-derived duration and produces two fixed
// example sources with a fixed confidence score.
func (r *Runner) placeholder(ctx context.Context, sess models.Session) (*Result, error) {
	time.Sleep(r.estimate(sess.Complexity))
	return &Result{
		Summary: fmt.Sprintf("Research completed for query: %s", sess.Query),
		Sources: []models.SessionSource{
			{Title: "Example Source 1", URL: "https://example.com/source1", Type: "web", RelevanceScore: 0.95},
			{Title: "Example Source 2", URL: "https://example.com/source2", Type: "academic", RelevanceScore: 0.87},
		},
		Confidence: 0.91,
	}, nil
}
