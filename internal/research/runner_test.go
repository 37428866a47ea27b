package research

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openresearch/research-agent/internal/api"
	"github.com/openresearch/research-agent/internal/models"
	"github.com/openresearch/research-agent/internal/monitoring"
	"github.com/openresearch/research-agent/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *monitoring.Metrics {
	return monitoring.NewMetrics(prometheus.NewRegistry())
}

func fastEstimate(d time.Duration) RunnerOption {
	return WithEstimate(func(string) time.Duration { return d })
}

func startSession(t *testing.T, st *store.SessionStore, id string) {
	t.Helper()
	req := &models.StartRequest{Query: "climate change"}
	require.NoError(t, req.Validate())
	require.NoError(t, st.Create(context.Background(), models.NewSession(id, req)))
}

func TestEstimateSeconds(t *testing.T) {
	tests := []struct {
		complexity string
		want       int
	}{
		{"simple", 10},
		{"medium", 30},
		{"complex", 60},
		{"unknown", 30},
		{"", 30},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EstimateSeconds(tt.complexity), "complexity %q", tt.complexity)
	}
}

func TestRunnerLifecycle(t *testing.T) {
	ctx := context.Background()
	st := store.NewSessionStore()
	metrics := testMetrics()
	r := NewRunner(st, testLogger(), metrics, 2, 16, fastEstimate(50*time.Millisecond))
	defer r.Stop()

	startSession(t, st, "s1")
	r.Dispatch("s1")

	// The session must pass through processing before any terminal state.
	sawProcessing := false
	require.Eventually(t, func() bool {
		sess, err := st.Get(ctx, "s1")
		if err != nil {
			return false
		}
		if sess.Status == models.StatusProcessing {
			sawProcessing = true
		}
		return sess.Status.Terminal()
	}, 2*time.Second, 2*time.Millisecond)
	assert.True(t, sawProcessing, "terminal state observed without processing first")

	sess, err := st.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, sess.Status)
	assert.Equal(t, "Research completed for query: climate change", sess.Summary)
	require.Len(t, sess.Sources, 2)
	assert.Equal(t, "Example Source 1", sess.Sources[0].Title)
	require.NotNil(t, sess.Confidence)
	assert.GreaterOrEqual(t, *sess.Confidence, 0.0)
	assert.LessOrEqual(t, *sess.Confidence, 1.0)
	require.NotNil(t, sess.ProcessingTime)
	assert.Greater(t, *sess.ProcessingTime, 0.0)
	assert.Empty(t, sess.Error)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ResearchQueries.WithLabelValues("completed", "medium")))
}

func TestRunnerPipelineFailure(t *testing.T) {
	ctx := context.Background()
	st := store.NewSessionStore()
	metrics := testMetrics()
	boom := errors.New("search backend unreachable")
	r := NewRunner(st, testLogger(), metrics, 1, 4,
		WithPipeline(func(context.Context, models.Session) (*Result, error) { return nil, boom }),
	)

	startSession(t, st, "s1")
	r.Dispatch("s1")
	r.Stop()

	sess, err := st.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, sess.Status)
	assert.Equal(t, "search backend unreachable", sess.Error)
	assert.Empty(t, sess.Sources)
	assert.Nil(t, sess.Confidence)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ResearchQueries.WithLabelValues("failed", "medium")))
}

func TestRunnerSessionDeletedMidFlight(t *testing.T) {
	ctx := context.Background()
	st := store.NewSessionStore()
	r := NewRunner(st, testLogger(), testMetrics(), 1, 4, fastEstimate(100*time.Millisecond))

	startSession(t, st, "s1")
	r.Dispatch("s1")

	require.Eventually(t, func() bool {
		sess, err := st.Get(ctx, "s1")
		return err == nil && sess.Status == models.StatusProcessing
	}, 2*time.Second, 2*time.Millisecond)

	require.NoError(t, st.Delete(ctx, "s1"))

	// The write-back must be swallowed; Stop returning at all proves the
	// runner did not panic or block on the failed lookup.
	r.Stop()
	_, err := st.Get(ctx, "s1")
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestRunnerSessionDeletedBeforePickup(t *testing.T) {
	ctx := context.Background()
	st := store.NewSessionStore()
	r := NewRunner(st, testLogger(), testMetrics(), 1, 4, fastEstimate(time.Millisecond))

	startSession(t, st, "s1")
	require.NoError(t, st.Delete(ctx, "s1"))
	r.Dispatch("s1")
	r.Stop()

	_, err := st.Get(ctx, "s1")
	assert.ErrorIs(t, err, api.ErrNotFound)
}

func TestDispatchDoesNotBlockWhenQueueFull(t *testing.T) {
	ctx := context.Background()
	st := store.NewSessionStore()
	release := make(chan struct{})
	r := NewRunner(st, testLogger(), testMetrics(), 1, 1,
		WithPipeline(func(context.Context, models.Session) (*Result, error) {
			<-release
			return &Result{Summary: "done", Confidence: 0.5}, nil
		}),
	)

	ids := []string{"a", "b", "c", "d"}
	for _, id := range ids {
		startSession(t, st, id)
	}

	// The single worker parks on the first job and the buffer holds one
	// more; the remaining dispatches must still return immediately.
	dispatched := make(chan struct{})
	go func() {
		for _, id := range ids {
			r.Dispatch(id)
		}
		close(dispatched)
	}()
	select {
	case <-dispatched:
	case <-time.After(2 * time.Second):
		t.Fatal("Dispatch blocked on a full queue")
	}

	close(release)
	r.Stop()
	for _, id := range ids {
		sess, err := st.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, sess.Status, "session %s", id)
	}
}

func TestRunnerManySessionsInterleave(t *testing.T) {
	ctx := context.Background()
	st := store.NewSessionStore()
	r := NewRunner(st, testLogger(), testMetrics(), 4, 32, fastEstimate(10*time.Millisecond))

	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for _, id := range ids {
		startSession(t, st, id)
		r.Dispatch(id)
	}
	r.Stop()

	for _, id := range ids {
		sess, err := st.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, sess.Status, "session %s", id)
	}
}
