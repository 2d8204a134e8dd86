package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queuectl/queuectl/internal/api/dto"
	"github.com/queuectl/queuectl/internal/api/handler"
	"github.com/queuectl/queuectl/internal/migrate"
	"github.com/queuectl/queuectl/internal/queue"
	"github.com/queuectl/queuectl/internal/queue/domain"
	"github.com/queuectl/queuectl/internal/queue/settings"
	"github.com/queuectl/queuectl/internal/queue/storage"
)

func newTestRouter(t *testing.T) (*gin.Engine, *queue.Queue) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "queue.db")
	db, err := sqlx.Connect("sqlite3", "file:"+path+"?_journal_mode=WAL&_busy_timeout=5000")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migrate.Run(db.DB, "sqlite3"))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	q := queue.New(storage.NewStore(db, logger), settings.NewStore(db), logger)

	r := SetupRouter(&handler.Dependencies{Logger: logger, Queue: q})
	return r, q
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestCreateJobEndpoint(t *testing.T) {
	t.Run("creates a job", func(t *testing.T) {
		r, _ := newTestRouter(t)

		w := doJSON(t, r, http.MethodPost, "/api/v1/jobs", dto.SubmitJobRequest{
			ID:      "demo1",
			Command: "echo Hello",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var got dto.JobDTO
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "demo1", got.ID)
		assert.Equal(t, "echo Hello", got.Command)
		assert.Equal(t, "pending", got.State)
		assert.Equal(t, 3, got.MaxRetries)
	})

	t.Run("missing command", func(t *testing.T) {
		r, _ := newTestRouter(t)

		w := doJSON(t, r, http.MethodPost, "/api/v1/jobs", map[string]string{"id": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("duplicate id", func(t *testing.T) {
		r, _ := newTestRouter(t)

		body := dto.SubmitJobRequest{ID: "dup", Command: "echo a"}
		w := doJSON(t, r, http.MethodPost, "/api/v1/jobs", body)
		require.Equal(t, http.StatusCreated, w.Code)

		w = doJSON(t, r, http.MethodPost, "/api/v1/jobs", body)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestGetJobEndpoint(t *testing.T) {
	r, q := newTestRouter(t)
	ctx := context.Background()

	_, err := q.Submit(ctx, queue.SubmitRequest{ID: "demo1", Command: "echo hi"})
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/jobs/demo1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var got dto.JobDTO
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "demo1", got.ID)
	})

	t.Run("not found", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/jobs/missing", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListJobsEndpoint(t *testing.T) {
	r, q := newTestRouter(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		_, err := q.Submit(ctx, queue.SubmitRequest{ID: id, Command: "echo " + id})
		require.NoError(t, err)
	}

	t.Run("all jobs", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/jobs", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var got dto.ListJobsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Len(t, got.Jobs, 2)
	})

	t.Run("state filter", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/jobs?state=completed", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var got dto.ListJobsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Empty(t, got.Jobs)
	})

	t.Run("invalid state", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/v1/jobs?state=sleeping", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRequeueJobEndpoint(t *testing.T) {
	r, q := newTestRouter(t)
	ctx := context.Background()
	now := time.Now().UTC()

	maxRetries := 0
	_, err := q.Submit(ctx, queue.SubmitRequest{ID: "doomed", Command: "false", MaxRetries: &maxRetries})
	require.NoError(t, err)

	claimed, err := q.Store().ClaimNextJob(ctx, now)
	require.NoError(t, err)
	_, err = q.ScheduleFailure(ctx, claimed, "exit status 1", now)
	require.NoError(t, err)

	t.Run("requeues a dead job", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/v1/jobs/doomed/requeue", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var got dto.JobDTO
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "pending", got.State)
		assert.Equal(t, 0, got.Attempts)
		assert.Empty(t, got.LastError)
	})

	t.Run("non-dead job conflicts", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/v1/jobs/doomed/requeue", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("missing job", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/v1/jobs/missing/requeue", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestStatusEndpoint(t *testing.T) {
	r, q := newTestRouter(t)
	ctx := context.Background()

	_, err := q.Submit(ctx, queue.SubmitRequest{ID: "a", Command: "echo hi"})
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodGet, "/api/v1/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got dto.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Jobs[domain.StatePending.String()])
	assert.Equal(t, 0, got.ActiveWorkers)
}
