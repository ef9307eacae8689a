package segment

import (
	"encoding/json"

	profiles "github.com/goliatone/go-profiles"
)

// Snapshot flattens profile into the variables rules see:
//
//	id          the profile id
//	attributes  app -> section -> name -> value
//	sessions    serialized sessions, oldest modification first
//
// Values pass through a JSON round trip so numbers are float64 and every
// engine sees the same shapes the Profile Store would send.
func Snapshot(profile *profiles.Profile) map[string]any {
	if profile == nil {
		return map[string]any{
			"id":         "",
			"attributes": map[string]any{},
			"sessions":   []any{},
		}
	}
	record := profile.Serialize(false)

	attributes := map[string]any{}
	for _, group := range record.Attributes {
		app, ok := attributes[group.CollectApp].(map[string]any)
		if !ok {
			app = map[string]any{}
			attributes[group.CollectApp] = app
		}
		section, ok := app[group.Section].(map[string]any)
		if !ok {
			section = map[string]any{}
			app[group.Section] = section
		}
		for name, value := range group.Data {
			section[name] = value
		}
	}

	return map[string]any{
		"id":         record.ID,
		"attributes": normalize(attributes, map[string]any{}),
		"sessions":   normalize(record.Sessions, []any{}),
	}
}

func normalize[T any](value any, empty T) T {
	raw, err := json.Marshal(value)
	if err != nil {
		return empty
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return empty
	}
	return out
}
