package taskclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/taskboard/pkg/observability"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New("localhost:3000")
	assert.Error(t, err)

	_, err = New("ftp://example.test")
	assert.Error(t, err)
}

func TestClient_List(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/tasks", r.URL.Path)
		writeJSON(w, http.StatusOK, []Task{
			{ID: 1, Title: "a"},
			{ID: 2, Title: "b", Completed: true},
		})
	})

	tasks, err := c.List(context.Background())

	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "a", tasks[0].Title)
	assert.True(t, tasks[1].Completed)
}

func TestClient_Create(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in NewTask
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		writeJSON(w, http.StatusCreated, Task{ID: 7, Title: in.Title, Description: in.Description, Deadline: in.Deadline})
	})

	created, err := c.Create(context.Background(), NewTask{Title: "t", Description: "d", Deadline: "2024-05-01"})

	require.NoError(t, err)
	assert.Equal(t, Task{ID: 7, Title: "t", Description: "d", Deadline: "2024-05-01"}, *created)
}

func TestClient_SetCompleted(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/tasks/7", r.URL.Path)
		var body map[string]bool
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusOK, Task{ID: 7, Completed: body["completed"]})
	})

	updated, err := c.SetCompleted(context.Background(), 7, true)

	require.NoError(t, err)
	assert.True(t, updated.Completed)
}

func TestClient_Delete(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/tasks/7", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, c.Delete(context.Background(), 7))
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		target  error
	}{
		{name: "not found", status: http.StatusNotFound, message: "Task not found", target: ErrNotFound},
		{name: "invalid input", status: http.StatusBadRequest, message: "invalid title: is required", target: ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, map[string]string{"error": http.StatusText(tt.status), "message": tt.message})
			})

			err := c.Delete(context.Background(), 1)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.Message)
		})
	}

	t.Run("server error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Error reading tasks"})
		})

		_, err := c.List(context.Background())

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "Error reading tasks", apiErr.Message)
		assert.NotErrorIs(t, err, ErrNotFound)
		assert.NotErrorIs(t, err, ErrInvalidInput)
	})
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, WithBreakerSettings(BreakerSettings{MaxFailures: 2, Timeout: time.Minute}))

	for range 2 {
		_, err := c.List(context.Background())
		require.Error(t, err)
	}
	assert.Equal(t, "open", c.BreakerState())

	_, err := c.List(context.Background())
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, WithBreakerSettings(BreakerSettings{MaxFailures: 1, Timeout: time.Minute}))

	for range 3 {
		err := c.Delete(context.Background(), 1)
		require.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, "closed", c.BreakerState())
}

func TestClient_PropagatesCorrelationIDAndCountsRequests(t *testing.T) {
	metrics := observability.NewInMemoryMetrics()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "corr-9", r.Header.Get(observability.HeaderCorrelationID))
		writeJSON(w, http.StatusOK, []Task{})
	}, WithMetrics(metrics))

	ctx := observability.WithCorrelationID(context.Background(), "corr-9")
	tasks, err := c.List(ctx)

	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricClientRequests,
		observability.T("method", http.MethodGet),
		observability.T(observability.StatusKey, "200"),
	))
}
