package client

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-profiles/pkg/activity"
)

func TestSchedulerTasks(t *testing.T) {
	var added map[string]any
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "8HJ3hnaxErdJJ62H", r.URL.Query().Get("token"))
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "/scheduler/42-testbucket-testapp", r.URL.Path)
			writeJSON(t, w, http.StatusOK, []any{
				map[string]any{"id": "t1", "endpoint": "http://hook", "method": "POST", "delay": 1000},
			})
		case http.MethodPost:
			added = readJSON(t, r)
			w.WriteHeader(http.StatusCreated)
		case http.MethodDelete:
			assert.Equal(t, "/scheduler/42-testbucket-testapp/t1", r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		}
	})

	tasks, err := h.client.Tasks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Task{{ID: "t1", Endpoint: "http://hook", Method: "POST", Delay: 1000}}, tasks)

	require.NoError(t, h.client.AddTask(context.Background(), Task{Endpoint: "http://hook", Method: "GET", Timestamp: fixtureTS}))
	assert.Equal(t, map[string]any{"endpoint": "http://hook", "method": "GET", "timestamp": float64(fixtureTS)}, added)

	require.NoError(t, h.client.DeleteTask(context.Background(), "t1"))
	assert.Equal(t, []string{activity.VerbTaskAdded, activity.VerbTaskDeleted}, h.capture.Verbs())
}

func TestSchedulerValidation(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	err := h.client.AddTask(context.Background(), Task{Endpoint: "http://hook", Method: "GET"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorIs(t, h.client.DeleteTask(context.Background(), ""), ErrInvalidArgument)
	assert.EqualValues(t, 0, h.requests.Load())

	cfg := testConfig("http://api.example.com")
	cfg.SchedulerAPIHost = ""
	c, err := New(cfg)
	require.NoError(t, err)
	_, err = c.Tasks(context.Background())
	assert.ErrorIs(t, err, ErrSchedulerDisabled)
}
