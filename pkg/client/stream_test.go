package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const streamBody = `{
	"profile": {
		"id": "pid",
		"attributes": [],
		"sessions": [{
			"id": "sid", "collectApp": "web", "section": "main",
			"data": {}, "createdAt": 1442476047267, "modifiedAt": 1442476047267,
			"events": [{"id": "ev", "definitionId": "click", "data": {"x": 1}, "createdAt": 1442476047267}]
		}]
	},
	"meta": {"requestMeta": {"ip": "127.0.0.1"}}
}`

func TestParseStreamData(t *testing.T) {
	data, err := ParseStreamData([]byte(streamBody))
	require.NoError(t, err)
	assert.Equal(t, "pid", data.ProfileID())
	assert.Equal(t, "web", data.CollectApp())
	assert.Equal(t, "main", data.Section())
	assert.Equal(t, "ev", data.Event["id"])
	assert.Equal(t, map[string]any{"x": float64(1)}, data.Data)
}

func TestParseStreamDataMissingParts(t *testing.T) {
	cases := map[string]string{
		"wrong stream data":    `not json`,
		"profile not found":    `{}`,
		"profile id not found": `{"profile": {}}`,
		"session not found":    `{"profile": {"id": "p", "sessions": []}}`,
		"collectApp not found": `{"profile": {"id": "p", "sessions": [{"section": "s"}]}}`,
		"section not found":    `{"profile": {"id": "p", "sessions": [{"collectApp": "a"}]}}`,
		"data not set":         `{"profile": {"id": "p", "sessions": [{"collectApp": "a", "section": "s", "events": [{}]}]}}`,
	}
	for want, body := range cases {
		t.Run(want, func(t *testing.T) {
			_, err := ParseStreamData([]byte(body))
			require.ErrorIs(t, err, ErrStreamData)
			assert.Contains(t, err.Error(), want)
		})
	}
}

func TestProfileFromRequest(t *testing.T) {
	profile, err := ProfileFromRequest([]byte(streamBody))
	require.NoError(t, err)
	assert.Equal(t, "pid", profile.ID())
	session := profile.Session("sid")
	require.NotNil(t, session)
	require.NotNil(t, session.Event("ev"))

	_, err = ProfileFromRequest([]byte(`{"meta": {}}`))
	require.ErrorIs(t, err, ErrStreamData)
	assert.Contains(t, err.Error(), "profile not found")
}

func TestMetaFromRequest(t *testing.T) {
	meta, err := MetaFromRequest([]byte(streamBody))
	require.NoError(t, err)
	assert.Contains(t, meta, "requestMeta")

	_, err = MetaFromRequest([]byte(`{"profile": {}}`))
	require.ErrorIs(t, err, ErrStreamData)
	assert.Contains(t, err.Error(), "meta not found")
}
