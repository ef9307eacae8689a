package segment

import (
	"time"

	profiles "github.com/goliatone/go-profiles"
)

const fixtureTS = int64(1442476047267)

func fixtureNow() time.Time {
	return time.UnixMilli(fixtureTS + 1000)
}

func fixtureProfile() *profiles.Profile {
	return profiles.NewProfile(profiles.ProfileRecord{
		ID: "pid",
		Attributes: []profiles.AttributeGroup{
			{CollectApp: "app1", Section: "sec1", Data: map[string]any{"foo": "bar", "test": 1}},
			{CollectApp: "app2", Section: "sec2", Data: map[string]any{"plan": "pro"}},
		},
		Sessions: []profiles.SessionRecord{
			{
				ID:         "sid1",
				CollectApp: "app1",
				Section:    "sec1",
				Data:       map[string]any{"page": "home"},
				Events: []profiles.EventRecord{
					{ID: "ev1", DefinitionID: "click", Data: map[string]any{"x": 1}, CreatedAt: fixtureTS},
					{ID: "ev2", DefinitionID: "view", Data: map[string]any{}, CreatedAt: fixtureTS},
				},
				CreatedAt:  fixtureTS,
				ModifiedAt: fixtureTS,
			},
		},
	}, profiles.WithClock(fixtureNow))
}
