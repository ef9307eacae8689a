package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-profiles/pkg/activity"
	"github.com/goliatone/go-profiles/pkg/activity/usersink"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsProfileEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()

	event := activity.BuildProfilesMergedEvent(activity.ProfileEventInput{
		ActorID:    actorID.String(),
		TenantID:   "42",
		Bucket:     "testbucket",
		CollectApp: "web",
		ProfileID:  "pid",
		Channel:    "profiles",
		OccurredAt: now,
	}, "pid2")

	require.NoError(t, hook.Notify(context.Background(), event))
	require.Len(t, sink.records, 1)
	record := sink.records[0]
	assert.Equal(t, actorID, record.ActorID)
	assert.Equal(t, uuid.Nil, record.TenantID)
	assert.Equal(t, activity.VerbProfilesMerged, record.Verb)
	assert.Equal(t, activity.ObjectProfile, record.ObjectType)
	assert.Equal(t, "pid", record.ObjectID)
	assert.Equal(t, "profiles", record.Channel)
	assert.Equal(t, now, record.OccurredAt)
	assert.Equal(t, "testbucket", record.Data["bucket"])
	assert.Equal(t, "web", record.Data["collect_app"])
	assert.Equal(t, "42", record.Data["group_id"])
	assert.Equal(t, []string{"pid2"}, record.Data["merged_profiles"])
}

func TestHookNotifyKeepsUUIDTenants(t *testing.T) {
	sink := &recordingSink{}
	tenant := uuid.New()
	err := usersink.Hook{Sink: sink}.Notify(context.Background(), activity.Event{
		Verb:       activity.VerbProfileDeleted,
		TenantID:   tenant.String(),
		ObjectType: activity.ObjectProfile,
		ObjectID:   "pid",
	})
	require.NoError(t, err)
	require.Len(t, sink.records, 1)
	assert.Equal(t, tenant, sink.records[0].TenantID)
	assert.NotContains(t, sink.records[0].Data, "group_id")
	assert.False(t, sink.records[0].OccurredAt.IsZero())
}

func TestHookNotifySkipsIncompleteEvents(t *testing.T) {
	sink := &recordingSink{}
	require.NoError(t, usersink.Hook{Sink: sink}.Notify(context.Background(), activity.Event{}))
	assert.Empty(t, sink.records)

	require.NoError(t, usersink.Hook{}.Notify(context.Background(), activity.Event{Verb: "x", ObjectType: "y", ObjectID: "z"}))
}

func TestHookNotifyReturnsSinkErrors(t *testing.T) {
	boom := errors.New("boom")
	sink := &recordingSink{err: boom}
	err := usersink.Hook{Sink: sink}.Notify(context.Background(), activity.BuildProfileDeletedEvent(activity.ProfileEventInput{ProfileID: "pid"}))
	assert.ErrorIs(t, err, boom)
}
