package profiles

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(id string) *Session {
	return NewSession(SessionRecord{ID: id, CollectApp: "app", Section: "sec", CreatedAt: fixtureTS, ModifiedAt: fixtureTS})
}

func eventRecord(id string, createdAt int64) EventRecord {
	return EventRecord{ID: id, DefinitionID: "def", Data: map[string]any{"k": id}, CreatedAt: createdAt}
}

func TestNewSessionIsDirty(t *testing.T) {
	session := NewSession(SessionRecord{}, fixedClock())

	assert.Len(t, session.ID(), 8)
	assert.Equal(t, fixtureTS, session.CreatedAt())
	assert.Equal(t, fixtureTS, session.ModifiedAt())
	assert.True(t, session.HasChanges())
	assert.False(t, session.IsValid(), "scope missing")
}

func TestSessionIsValid(t *testing.T) {
	session := newTestSession("s1")
	assert.True(t, session.IsValid())

	_, err := session.AddEvent(eventRecord("e1", 1))
	require.NoError(t, err)
	assert.True(t, session.IsValid())

	rejected := NewSession(SessionRecord{ID: "s1", CollectApp: "app", Section: "sec"}, WithValidator(stubValidator{}))
	assert.False(t, rejected.IsValid())
}

func TestSessionAddEventRejectsDuplicates(t *testing.T) {
	session := newTestSession("s1")

	_, err := session.AddEvent(eventRecord("e1", 1))
	require.NoError(t, err)
	_, err = session.AddEvent(eventRecord("e1", 2))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyExists))
	assert.Len(t, session.Events(), 1)
}

func TestSessionAddEventRejectsInvalid(t *testing.T) {
	session := newTestSession("s1")

	_, err := session.AddEvent(EventRecord{ID: "e1", DefinitionID: "def"})
	assert.True(t, errors.Is(err, ErrInvalid))

	_, err = session.AddEvent(nil)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	var missing *Event
	_, err = session.AddEvent(missing)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.Empty(t, session.Events())
}

func TestSessionAddEventAcceptsInstances(t *testing.T) {
	session := newTestSession("s1")
	session.ResetDirty()
	event := NewEvent(eventRecord("e1", 1))

	added, err := session.AddEvent(event)
	require.NoError(t, err)
	assert.Same(t, event, added)
	assert.Same(t, event, session.Event("e1"))
	assert.True(t, session.HasChanges())
}

func TestSessionEventLookups(t *testing.T) {
	session := newTestSession("s1")
	for _, record := range []EventRecord{eventRecord("e1", 30), eventRecord("e2", 10), {ID: "e3", DefinitionID: "other", Data: map[string]any{"k": 1}, CreatedAt: 20}} {
		_, err := session.AddEvent(record)
		require.NoError(t, err)
	}

	assert.Equal(t, "e3", session.LastEvent().ID(), "insertion order")
	assert.Len(t, session.EventsByDefinition("def"), 2)
	assert.Len(t, session.EventsByDefinition("other"), 1)
	assert.Nil(t, session.Event("missing"))

	session.SortEvents()
	ids := []string{}
	for _, event := range session.Events() {
		ids = append(ids, event.ID())
	}
	assert.Equal(t, []string{"e2", "e3", "e1"}, ids)
	assert.Nil(t, newTestSession("empty").LastEvent())
}

func TestSessionMergeOrdersEventsByCreatedAt(t *testing.T) {
	first := newTestSession("s1")
	second := newTestSession("s1")
	_, err := first.AddEvent(eventRecord("late", 10))
	require.NoError(t, err)
	_, err = second.AddEvent(eventRecord("early", 5))
	require.NoError(t, err)

	require.NoError(t, first.Merge(second))

	events := first.Events()
	require.Len(t, events, 2)
	assert.Equal(t, int64(5), events[0].CreatedAt())
	assert.Equal(t, int64(10), events[1].CreatedAt())
}

func TestSessionMerge(t *testing.T) {
	first := NewSession(SessionRecord{ID: "s1", CollectApp: "app", Section: "sec", Data: map[string]any{"a": 1, "b": 1}, CreatedAt: 1, ModifiedAt: 100})
	second := NewSession(SessionRecord{ID: "s1", CollectApp: "app", Section: "sec", Data: map[string]any{"b": 2}, CreatedAt: 2, ModifiedAt: 200})
	_, err := first.AddEvent(eventRecord("shared", 1))
	require.NoError(t, err)
	_, err = second.AddEvent(EventRecord{ID: "shared", DefinitionID: "def", Data: map[string]any{"extra": true}, CreatedAt: 9})
	require.NoError(t, err)
	first.ResetDirty()

	require.NoError(t, first.Merge(second))

	assert.Equal(t, int64(200), first.ModifiedAt())
	assert.Equal(t, int64(1), first.CreatedAt())
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, first.Data())
	shared := first.Event("shared")
	require.NotNil(t, shared)
	assert.Equal(t, map[string]any{"k": "shared", "extra": true}, shared.Data())
	assert.Equal(t, int64(1), shared.CreatedAt())
	assert.True(t, first.HasChanges())

	older := NewSession(SessionRecord{ID: "s1", CollectApp: "app", Section: "sec", ModifiedAt: 50})
	require.NoError(t, first.Merge(older))
	assert.Equal(t, int64(200), first.ModifiedAt(), "older sessions do not move modifiedAt back")
}

func TestSessionMergeCopiesAdoptedEvents(t *testing.T) {
	first := newTestSession("s1")
	second := newTestSession("s1")
	_, err := second.AddEvent(eventRecord("e1", 1))
	require.NoError(t, err)

	require.NoError(t, first.Merge(second))
	second.Event("e1").SetDataValue("k", "changed")

	assert.Equal(t, "e1", first.Event("e1").DataValue("k"))
	assert.NotSame(t, second.Event("e1"), first.Event("e1"))
}

func TestSessionMergeRejectsDifferentIDs(t *testing.T) {
	first := newTestSession("s1")
	second := newTestSession("s2")
	second.SetDataValue("k", "v")
	first.ResetDirty()

	err := first.Merge(second)
	assert.True(t, errors.Is(err, ErrIDMismatch))
	assert.Empty(t, first.Data())
	assert.False(t, first.HasChanges())
	assert.True(t, errors.Is(first.Merge(nil), ErrInvalidArgument))
}

func TestSessionSerializeOnlyChanges(t *testing.T) {
	session := NewSession(SessionRecord{ID: "s1", CollectApp: "app", Section: "sec", Data: map[string]any{"d": 1}, CreatedAt: 1, ModifiedAt: 2})
	_, err := session.AddEvent(eventRecord("e1", 1))
	require.NoError(t, err)
	_, err = session.AddEvent(eventRecord("e2", 2))
	require.NoError(t, err)
	session.ResetDirty()

	session.Event("e2").SetDataValue("k", "updated")
	partial := session.Serialize(true)
	assert.Empty(t, partial.Data, "data did not change")
	require.Len(t, partial.Events, 1)
	assert.Equal(t, "e2", partial.Events[0].ID)

	session.SetDataValue("d", 2)
	partial = session.Serialize(true)
	assert.Equal(t, map[string]any{"d": 2}, partial.Data)

	full := session.Serialize(false)
	assert.Len(t, full.Events, 2)
	raw, err := json.Marshal(NewSession(SessionRecord{ID: "x", CollectApp: "a", Section: "s", CreatedAt: 1, ModifiedAt: 1}).Serialize(true))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"x","section":"s","collectApp":"a","data":{},"events":[],"createdAt":1,"modifiedAt":1}`, string(raw))
}

func TestSessionFieldChangeDoesNotShipData(t *testing.T) {
	session := NewSession(SessionRecord{ID: "s1", CollectApp: "app", Section: "sec", Data: map[string]any{"d": 1}})
	session.ResetDirty()

	session.SetSection("other")

	assert.True(t, session.HasChanges())
	assert.Empty(t, session.Serialize(true).Data)
}

func TestSessionHasChangesFollowsEvents(t *testing.T) {
	session := newTestSession("s1")
	_, err := session.AddEvent(eventRecord("e1", 1))
	require.NoError(t, err)
	session.ResetDirty()
	assert.False(t, session.HasChanges())

	session.Event("e1").SetDefinitionID("changed")
	assert.True(t, session.HasChanges())

	session.ResetDirty()
	session.ResetDirty()
	assert.False(t, session.HasChanges())
}

func TestSessionSetCreatedAtTruncatesTimes(t *testing.T) {
	session := newTestSession("s1")
	date := time.Date(2020, 1, 2, 3, 4, 5, 999_000_000, time.UTC)

	require.NoError(t, session.SetCreatedAt(date))
	assert.Equal(t, date.Unix()*1000, session.CreatedAt())

	err := session.SetCreatedAt([]int{1})
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	require.NoError(t, session.SetModifiedAt(int64(42)))
	assert.Equal(t, int64(42), session.ModifiedAt())
}
