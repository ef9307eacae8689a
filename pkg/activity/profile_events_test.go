package activity

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseInput() ProfileEventInput {
	return ProfileEventInput{
		TenantID:   "42",
		Bucket:     "testbucket",
		CollectApp: "web",
		ProfileID:  " pid ",
		Metadata:   map[string]any{"request_id": "r1"},
		OccurredAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestBuildProfileSavedEvent(t *testing.T) {
	input := baseInput()
	event := BuildProfileSavedEvent(input, 2, 1)

	assert.Equal(t, VerbProfileSaved, event.Verb)
	assert.Equal(t, ObjectProfile, event.ObjectType)
	assert.Equal(t, "pid", event.ObjectID)
	assert.Equal(t, "testbucket", event.Bucket)
	assert.Equal(t, map[string]any{"request_id": "r1", "sessions": 2, "attribute_groups": 1}, event.Metadata)
	assert.Len(t, input.Metadata, 1, "input metadata untouched")
}

func TestBuildProfilesMergedEvent(t *testing.T) {
	event := BuildProfilesMergedEvent(baseInput(), " pid2 ")
	assert.Equal(t, VerbProfilesMerged, event.Verb)
	assert.Equal(t, []string{"pid2"}, event.Metadata["merged_profiles"])
}

func TestBuildSettingsUpdatedEventKeepsSortedKeys(t *testing.T) {
	event := BuildSettingsUpdatedEvent(baseInput(), map[string]any{"b": 1, "a": "x"})
	assert.Equal(t, ObjectSettings, event.ObjectType)
	assert.Equal(t, "web", event.ObjectID)
	assert.Equal(t, []string{"a", "b"}, event.Metadata["keys"])
}

func TestBuildTaskEvent(t *testing.T) {
	event := BuildTaskEvent(VerbTaskDeleted, baseInput(), "task-1")
	assert.Equal(t, ObjectTask, event.ObjectType)
	assert.Equal(t, "task-1", event.ObjectID)
	assert.Equal(t, VerbTaskDeleted, event.Verb)
}

func TestLogHookWritesStructuredEntry(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetOutput(&bytes.Buffer{})
	emitter := NewEmitter(Hooks{LogHook(logger)}, Config{Enabled: true})

	require.NoError(t, emitter.Emit(context.Background(), BuildProfileDeletedEvent(baseInput())))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, VerbProfileDeleted, entry.Data["verb"])
	assert.Equal(t, "pid", entry.Data["object_id"])
	assert.Equal(t, DefaultChannel, entry.Data["channel"])
	assert.Equal(t, "r1", entry.Data["meta_request_id"])
}
