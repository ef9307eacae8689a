package profiles

import "time"

const fixtureTS int64 = 1442476047267

func fixedClock() Option {
	return WithClock(func() time.Time { return time.UnixMilli(fixtureTS) })
}

// stubValidator accepts or rejects everything.
type stubValidator struct{ ok bool }

func (v stubValidator) IsEventValid(any) bool { return v.ok }

func (v stubValidator) IsSessionValid(any) bool { return v.ok }

func (v stubValidator) IsProfileValid(any) bool { return v.ok }

func fixtureRecord() ProfileRecord {
	return ProfileRecord{
		ID: "pid",
		Attributes: []AttributeGroup{
			{CollectApp: "app1", Section: "sec1", Data: map[string]any{"foo": "bar", "test": 1}},
			{CollectApp: "app2", Section: "sec2", Data: map[string]any{"cat": "dog", "hi": "bye"}},
		},
		Sessions: []SessionRecord{
			{
				ID:         "sid1",
				CollectApp: "app1",
				Section:    "sec1",
				Data:       map[string]any{"data1": "value1"},
				CreatedAt:  fixtureTS,
				ModifiedAt: fixtureTS,
			},
			{
				ID:         "sid2",
				CollectApp: "app2",
				Section:    "sec2",
				Events: []EventRecord{
					{ID: "ev1", DefinitionID: "def1", Data: map[string]any{"spider": "man"}, CreatedAt: fixtureTS},
				},
				CreatedAt:  fixtureTS,
				ModifiedAt: fixtureTS,
			},
			{
				ID:         "sid3",
				CollectApp: "app3",
				Section:    "sec3",
				CreatedAt:  fixtureTS,
				ModifiedAt: fixtureTS,
			},
		},
	}
}

func fixtureProfile() *Profile {
	return NewProfile(fixtureRecord(), fixedClock())
}
