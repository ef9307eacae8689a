package client

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-profiles/pkg/activity"
)

func TestAppSettingsAreCached(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/companies/42/buckets/testbucket/apps/testapp/custom", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]any{"custom": map[string]any{"theme": "dark"}})
	})

	for i := 0; i < 3; i++ {
		settings, err := h.client.AppSettings(context.Background())
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"theme": "dark"}, settings)
		settings["theme"] = "mutated"
	}
	assert.EqualValues(t, 1, h.requests.Load())

	h.client.SetCacheAllowed(false)
	assert.False(t, h.client.IsCacheAllowed())
	_, err := h.client.AppSettings(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, h.requests.Load())
}

func TestAppSettingsMissingCustom(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"other": true})
	})
	_, err := h.client.AppSettings(context.Background())
	require.ErrorIs(t, err, ErrSettingsNotFound)
	assert.Contains(t, err.Error(), "custom settings not found")
}

func TestSetAppSettingsUpdatesCache(t *testing.T) {
	var method string
	var body map[string]any
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		body = readJSON(t, r)
		writeJSON(t, w, http.StatusOK, map[string]any{"custom": body})
	})

	require.NoError(t, h.client.SetAppSettings(context.Background(), map[string]any{"limit": 3}))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, map[string]any{"limit": float64(3)}, body)

	settings, err := h.client.AppSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"limit": 3}, settings, "served from cache")
	assert.EqualValues(t, 1, h.requests.Load())
	assert.Equal(t, []string{activity.VerbSettingsUpdated}, h.capture.Verbs())

	assert.ErrorIs(t, h.client.SetAppSettings(context.Background(), nil), ErrInvalidArgument)
}
