package activity

import (
	"sort"
	"strings"
	"time"
)

// Verbs emitted by the client.
const (
	VerbProfileSaved     = "profile.saved"
	VerbProfileDeleted   = "profile.deleted"
	VerbProfilesMerged   = "profile.merged"
	VerbProfileRefreshed = "profile.refreshed"
	VerbSettingsUpdated  = "settings.updated"
	VerbTaskAdded        = "task.added"
	VerbTaskDeleted      = "task.deleted"
)

// Object types carried by the events above.
const (
	ObjectProfile  = "profile"
	ObjectSettings = "app.settings"
	ObjectTask     = "scheduler.task"
)

// ProfileEventInput holds the fields shared by profile lifecycle events.
type ProfileEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	Bucket     string
	CollectApp string
	ProfileID  string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildProfileSavedEvent records a profile save. changedSessions is the
// number of sessions in the submitted changes payload.
func BuildProfileSavedEvent(input ProfileEventInput, changedSessions, changedAttributeGroups int) Event {
	event := buildProfileEvent(VerbProfileSaved, input)
	event.Metadata = ensureMetadata(event.Metadata)
	event.Metadata["sessions"] = changedSessions
	event.Metadata["attribute_groups"] = changedAttributeGroups
	return event
}

// BuildProfileDeletedEvent records a profile deletion.
func BuildProfileDeletedEvent(input ProfileEventInput) Event {
	return buildProfileEvent(VerbProfileDeleted, input)
}

// BuildProfilesMergedEvent records mergedID being folded into input.ProfileID.
func BuildProfilesMergedEvent(input ProfileEventInput, mergedID string) Event {
	event := buildProfileEvent(VerbProfilesMerged, input)
	event.Metadata = ensureMetadata(event.Metadata)
	event.Metadata["merged_profiles"] = []string{strings.TrimSpace(mergedID)}
	return event
}

// BuildProfileRefreshedEvent records a local profile merged with its remote copy.
func BuildProfileRefreshedEvent(input ProfileEventInput) Event {
	return buildProfileEvent(VerbProfileRefreshed, input)
}

// BuildSettingsUpdatedEvent records new app settings. Only the setting
// names are kept.
func BuildSettingsUpdatedEvent(input ProfileEventInput, settings map[string]any) Event {
	event := buildEvent(VerbSettingsUpdated, ObjectSettings, input.CollectApp, input)
	keys := make([]string, 0, len(settings))
	for key := range settings {
		keys = append(keys, key)
	}
	if len(keys) > 0 {
		event.Metadata = ensureMetadata(event.Metadata)
		sort.Strings(keys)
		event.Metadata["keys"] = keys
	}
	return event
}

// BuildTaskEvent records a scheduler task being added or deleted.
func BuildTaskEvent(verb string, input ProfileEventInput, taskID string) Event {
	return buildEvent(verb, ObjectTask, taskID, input)
}

func buildProfileEvent(verb string, input ProfileEventInput) Event {
	return buildEvent(verb, ObjectProfile, input.ProfileID, input)
}

func buildEvent(verb, objectType, objectID string, input ProfileEventInput) Event {
	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		Bucket:     strings.TrimSpace(input.Bucket),
		CollectApp: strings.TrimSpace(input.CollectApp),
		ObjectType: objectType,
		ObjectID:   strings.TrimSpace(objectID),
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   cloneMap(input.Metadata),
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
