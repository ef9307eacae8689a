package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotNestsAttributes(t *testing.T) {
	snap := Snapshot(fixtureProfile())

	assert.Equal(t, "pid", snap["id"])
	assert.Equal(t, map[string]any{
		"app1": map[string]any{"sec1": map[string]any{"foo": "bar", "test": float64(1)}},
		"app2": map[string]any{"sec2": map[string]any{"plan": "pro"}},
	}, snap["attributes"])

	sessions, ok := snap["sessions"].([]any)
	require.True(t, ok)
	require.Len(t, sessions, 1)
	session := sessions[0].(map[string]any)
	assert.Equal(t, "sid1", session["id"])
	assert.Equal(t, float64(fixtureTS), session["createdAt"])
	assert.Len(t, session["events"], 2)
}

func TestSnapshotOfNilProfile(t *testing.T) {
	snap := Snapshot(nil)
	assert.Equal(t, "", snap["id"])
	assert.Empty(t, snap["attributes"])
	assert.Empty(t, snap["sessions"])
}
