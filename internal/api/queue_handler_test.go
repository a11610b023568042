package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellisdata/trellis/internal/api"
	"github.com/trellisdata/trellis/internal/domain"
	"github.com/trellisdata/trellis/internal/mocks"
	"github.com/trellisdata/trellis/internal/store"
	"github.com/trellisdata/trellis/internal/worker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockRunner implements the WorkerRunner interface used by TriggerRun.
type mockRunner struct {
	RunFn func(ctx context.Context, opts worker.Options) (worker.Stats, error)

	Opts []worker.Options
}

func (m *mockRunner) Run(ctx context.Context, opts worker.Options) (worker.Stats, error) {
	m.Opts = append(m.Opts, opts)
	if m.RunFn != nil {
		return m.RunFn(ctx, opts)
	}
	return worker.Stats{}, nil
}

type queueFixture struct {
	handler   *api.QueueHandler
	runner    *mockRunner
	txRunner  *mocks.MockTxRunner
	instances *mocks.MockInstanceStore
	progress  *mocks.MockProgressStore
	errorLog  *mocks.MockErrorLogStore
}

func newQueueFixture() *queueFixture {
	f := &queueFixture{
		runner:    &mockRunner{},
		txRunner:  &mocks.MockTxRunner{},
		instances: &mocks.MockInstanceStore{},
		progress:  &mocks.MockProgressStore{},
		errorLog:  &mocks.MockErrorLogStore{},
	}
	f.handler = api.NewQueueHandler(
		f.runner, f.txRunner, f.instances, f.progress, f.errorLog, testLogger())
	return f
}

func TestGetProgress(t *testing.T) {
	t.Parallel()

	t.Run("aggregates counts and total", func(t *testing.T) {
		t.Parallel()
		f := newQueueFixture()
		f.progress.Counts = store.StatusCounts{
			domain.InstanceStatusPending: 10,
			domain.InstanceStatusDone:    5,
			domain.InstanceStatusFailed:  2,
		}

		req := httptest.NewRequest(http.MethodGet, "/api/progress", nil)
		rec := httptest.NewRecorder()
		f.handler.GetProgress(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp api.ProgressResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(10), resp.Counts["pending"])
		assert.Equal(t, int64(5), resp.Counts["done"])
		assert.Equal(t, int64(17), resp.Total)
	})

	t.Run("rejects malformed region filter", func(t *testing.T) {
		t.Parallel()
		f := newQueueFixture()
		req := httptest.NewRequest(http.MethodGet, "/api/progress?region_id=abc", nil)
		rec := httptest.NewRecorder()
		f.handler.GetProgress(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("reports store failure", func(t *testing.T) {
		t.Parallel()
		f := newQueueFixture()
		f.progress.DefaultError = errors.New("connection lost")

		req := httptest.NewRequest(http.MethodGet, "/api/progress", nil)
		rec := httptest.NewRecorder()
		f.handler.GetProgress(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestListErrors(t *testing.T) {
	t.Parallel()

	t.Run("returns recent entries", func(t *testing.T) {
		t.Parallel()
		f := newQueueFixture()
		f.errorLog.Entries = []domain.ErrorEntry{
			{
				ID:         2,
				Key:        domain.InstanceKey{OccupationID: 1, RegionID: 2, TaskID: "t"},
				Message:    "newest",
				OccurredAt: time.Now(),
			},
			{
				ID:      1,
				Key:     domain.InstanceKey{OccupationID: 1, RegionID: 2, TaskID: "t"},
				Message: "older",
			},
		}

		req := httptest.NewRequest(http.MethodGet, "/api/errors", nil)
		rec := httptest.NewRecorder()
		f.handler.ListErrors(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp api.ErrorsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Errors, 2)
		assert.Equal(t, "newest", resp.Errors[0].Message)
	})

	t.Run("rejects out-of-range limit", func(t *testing.T) {
		t.Parallel()
		f := newQueueFixture()
		for _, limit := range []string{"0", "-5", "1001", "abc"} {
			req := httptest.NewRequest(http.MethodGet, "/api/errors?limit="+limit, nil)
			rec := httptest.NewRecorder()
			f.handler.ListErrors(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", limit)
		}
	})
}

func TestTriggerRun(t *testing.T) {
	t.Parallel()

	t.Run("runs bounded and reports stats", func(t *testing.T) {
		t.Parallel()
		f := newQueueFixture()
		f.runner.RunFn = func(ctx context.Context, opts worker.Options) (worker.Stats, error) {
			return worker.Stats{Claimed: 4, Done: 2, Failed: 1, Stranded: 1}, nil
		}

		body := bytes.NewBufferString(`{"max_items": 4}`)
		req := httptest.NewRequest(http.MethodPost, "/api/run", body)
		rec := httptest.NewRecorder()
		f.handler.TriggerRun(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp api.RunResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 4, resp.Claimed)
		assert.Equal(t, 2, resp.Done)
		assert.Equal(t, 1, resp.Failed)
		assert.Equal(t, 1, resp.Stranded,
			"instances stuck running are reported apart from committed failures")

		require.Len(t, f.runner.Opts, 1)
		assert.Equal(t, 4, f.runner.Opts[0].MaxItems)
		assert.Nil(t, f.runner.Opts[0].RegionID)
	})

	t.Run("passes region filter through", func(t *testing.T) {
		t.Parallel()
		f := newQueueFixture()

		body := bytes.NewBufferString(`{"max_items": 10, "region_id": 7}`)
		req := httptest.NewRequest(http.MethodPost, "/api/run", body)
		rec := httptest.NewRecorder()
		f.handler.TriggerRun(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, f.runner.Opts, 1)
		require.NotNil(t, f.runner.Opts[0].RegionID)
		assert.Equal(t, int64(7), *f.runner.Opts[0].RegionID)
	})

	t.Run("rejects unbounded run request", func(t *testing.T) {
		t.Parallel()
		f := newQueueFixture()

		body := bytes.NewBufferString(`{"max_items": 0}`)
		req := httptest.NewRequest(http.MethodPost, "/api/run", body)
		rec := httptest.NewRecorder()
		f.handler.TriggerRun(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, f.runner.Opts)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		t.Parallel()
		f := newQueueFixture()

		body := bytes.NewBufferString(`{"max_items": 5, "bogus": true}`)
		req := httptest.NewRequest(http.MethodPost, "/api/run", body)
		rec := httptest.NewRecorder()
		f.handler.TriggerRun(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestResetInstances(t *testing.T) {
	t.Parallel()

	t.Run("resets both ledgers in one transaction", func(t *testing.T) {
		t.Parallel()
		f := newQueueFixture()
		f.instances.ResetCount = 4

		var instanceStatuses, progressStatuses []domain.InstanceStatus
		f.instances.ResetToPendingFn = func(ctx context.Context, statuses []domain.InstanceStatus, filter store.ClaimFilter) (int64, error) {
			instanceStatuses = statuses
			return 4, nil
		}
		f.progress.ResetToPendingFn = func(ctx context.Context, statuses []domain.InstanceStatus, filter store.ClaimFilter) (int64, error) {
			progressStatuses = statuses
			return 4, nil
		}

		body := bytes.NewBufferString(`{"statuses": ["failed", "running"]}`)
		req := httptest.NewRequest(http.MethodPost, "/api/reset", body)
		rec := httptest.NewRecorder()
		f.handler.ResetInstances(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp api.ResetResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(4), resp.Reset)
		assert.Equal(t, 1, f.txRunner.Calls)
		assert.Equal(t, instanceStatuses, progressStatuses,
			"both ledgers reset the same statuses")
	})

	t.Run("rejects done as a reset source", func(t *testing.T) {
		t.Parallel()
		f := newQueueFixture()

		body := bytes.NewBufferString(`{"statuses": ["done"]}`)
		req := httptest.NewRequest(http.MethodPost, "/api/reset", body)
		rec := httptest.NewRecorder()
		f.handler.ResetInstances(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, 0, f.txRunner.Calls)
	})

	t.Run("rejects empty statuses", func(t *testing.T) {
		t.Parallel()
		f := newQueueFixture()

		body := bytes.NewBufferString(`{"statuses": []}`)
		req := httptest.NewRequest(http.MethodPost, "/api/reset", body)
		rec := httptest.NewRecorder()
		f.handler.ResetInstances(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rolls back on progress reset failure", func(t *testing.T) {
		t.Parallel()
		f := newQueueFixture()
		f.progress.ResetToPendingFn = func(ctx context.Context, statuses []domain.InstanceStatus, filter store.ClaimFilter) (int64, error) {
			return 0, errors.New("progress write failed")
		}

		body := bytes.NewBufferString(`{"statuses": ["failed"]}`)
		req := httptest.NewRequest(http.MethodPost, "/api/reset", body)
		rec := httptest.NewRecorder()
		f.handler.ResetInstances(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
