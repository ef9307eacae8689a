package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEvent() map[string]any {
	return map[string]any{
		"id":           "ev1",
		"definitionId": "def1",
		"data":         map[string]any{"spider": "man"},
		"createdAt":    1442476047267,
	}
}

func validSession() map[string]any {
	return map[string]any{
		"id":         "sid1",
		"collectApp": "app1",
		"section":    "sec1",
		"data":       map[string]any{},
		"events":     []any{validEvent()},
		"createdAt":  1442476047267,
		"modifiedAt": 1442476047267,
	}
}

func TestValidatorAcceptsEvent(t *testing.T) {
	v := Default()
	assert.True(t, v.IsEventValid(validEvent()))
	assert.NoError(t, v.ValidateEvent(validEvent()))
}

func TestValidatorRejectsEventWithoutDefinition(t *testing.T) {
	event := validEvent()
	delete(event, "definitionId")

	err := Default().ValidateEvent(event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema: event")
	assert.Contains(t, err.Error(), "definitionId")
}

func TestValidatorRejectsEmptyIdentifiers(t *testing.T) {
	event := validEvent()
	event["id"] = ""
	assert.False(t, Default().IsEventValid(event))
}

func TestValidatorRejectsDataArray(t *testing.T) {
	event := validEvent()
	event["data"] = []any{}
	assert.False(t, Default().IsEventValid(event))
}

func TestValidatorChecksNestedEvents(t *testing.T) {
	v := Default()
	assert.True(t, v.IsSessionValid(validSession()))

	session := validSession()
	broken := validEvent()
	broken["createdAt"] = "yesterday"
	session["events"] = []any{broken}
	assert.False(t, v.IsSessionValid(session))
}

func TestValidatorProfile(t *testing.T) {
	v := Default()
	profile := map[string]any{
		"id": "pid",
		"attributes": []any{
			map[string]any{"collectApp": "app1", "section": "sec1", "data": map[string]any{"foo": "bar"}},
		},
		"sessions": []any{validSession()},
	}
	assert.True(t, v.IsProfileValid(profile))

	profile["attributes"] = []any{map[string]any{"collectApp": "", "section": "sec1", "data": map[string]any{}}}
	assert.False(t, v.IsProfileValid(profile))
	assert.Error(t, v.ValidateAttributeGroup(map[string]any{"section": "s"}))
}

func TestValidatorAcceptsTypedValues(t *testing.T) {
	type eventShape struct {
		ID           string         `json:"id"`
		DefinitionID string         `json:"definitionId"`
		Data         map[string]any `json:"data"`
		CreatedAt    int64          `json:"createdAt"`
	}
	ok := Default().IsEventValid(eventShape{ID: "a", DefinitionID: "b", Data: map[string]any{}, CreatedAt: 1})
	assert.True(t, ok)
}

func TestValidatorReportsEncodingFailures(t *testing.T) {
	err := Default().ValidateEvent(map[string]any{"bad": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot encode value")
}
