package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	profiles "github.com/goliatone/go-profiles"
)

const storedProfile = `{"profile":{"id":"pid","attributes":[{"collectApp":"web","section":"user","data":{"name":"Ada","visits":3}}],"sessions":[]}}`

func setupEnv(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	t.Setenv("PROFILES_BUCKET_NAME", "bucket")
	t.Setenv("PROFILES_APP_NAME", "web")
	t.Setenv("PROFILES_APP_KEY", "key")
	t.Setenv("PROFILES_API_URL", server.URL)
	t.Setenv("PROFILES_GROUP_ID", "42")
	t.Setenv("PROFILES_SCHEDULER_API_HOST", server.URL)
	t.Setenv("PROFILES_CACHE_PATH", "")
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func serveProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet || !strings.HasSuffix(r.URL.Path, "/profiles/pid") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	_, _ = w.Write([]byte(storedProfile))
}

func TestRunWithoutCommandPrintsUsage(t *testing.T) {
	_, stderr, err := runCLI(t, "")
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, stderr, "usage: profilectl")
	assert.Contains(t, stderr, "match <id> --expr")
}

func TestRunUnknownCommand(t *testing.T) {
	_, _, err := runCLI(t, "", "frobnicate")
	assert.EqualError(t, err, `unknown command "frobnicate"`)
}

func TestRunReportsConfigErrors(t *testing.T) {
	t.Setenv("PROFILES_BUCKET_NAME", "")
	t.Setenv("PROFILES_APP_NAME", "")
	t.Setenv("PROFILES_APP_KEY", "")
	t.Setenv("PROFILES_API_URL", "")
	t.Setenv("PROFILES_GROUP_ID", "")
	_, _, err := runCLI(t, "", "segments")
	assert.Error(t, err)
}

func TestLoadPrintsProfile(t *testing.T) {
	setupEnv(t, serveProfile)

	stdout, _, err := runCLI(t, "", "load", "pid")
	require.NoError(t, err)
	var record profiles.ProfileRecord
	require.NoError(t, json.Unmarshal([]byte(stdout), &record))
	assert.Equal(t, "pid", record.ID)
	require.Len(t, record.Attributes, 1)
	assert.Equal(t, "Ada", record.Attributes[0].Data["name"])
}

func TestLoadPrintsYAML(t *testing.T) {
	setupEnv(t, serveProfile)

	stdout, _, err := runCLI(t, "", "--output", "yaml", "load", "pid")
	require.NoError(t, err)
	var record map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &record))
	assert.Equal(t, "pid", record["id"])
	assert.Contains(t, stdout, "collectApp: web")

	_, _, err = runCLI(t, "", "-o", "xml", "load", "pid")
	assert.ErrorIs(t, err, errUsage)
}

func TestSaveSendsAttributes(t *testing.T) {
	var posted map[string]any
	setupEnv(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{}`))
		case http.MethodPost:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
			w.WriteHeader(http.StatusCreated)
		}
	})

	_, _, err := runCLI(t, "", "save", "pid", "--attr", "web/user/name=Ada", "-a", "web/user/visits=3")
	require.NoError(t, err)
	require.NotNil(t, posted)
	groups := posted["attributes"].([]any)
	require.Len(t, groups, 1)
	assert.Equal(t, map[string]any{"name": "Ada", "visits": float64(3)}, groups[0].(map[string]any)["data"])
}

func TestSaveRejectsMalformedAttribute(t *testing.T) {
	setupEnv(t, serveProfile)
	_, _, err := runCLI(t, "", "save", "pid", "--attr", "web/name=Ada")
	assert.ErrorIs(t, err, errUsage)
}

func TestMatchEvaluatesLocally(t *testing.T) {
	setupEnv(t, serveProfile)

	stdout, _, err := runCLI(t, "", "match", "pid", "--expr", `attributes.web.user.name == "Ada" && attributes.web.user.visits > 2`)
	require.NoError(t, err)
	assert.Equal(t, "true\n", stdout)

	stdout, _, err = runCLI(t, "", "match", "pid", "--engine", "cel", "--expr", `attributes.web.user.name == "Grace"`)
	require.NoError(t, err)
	assert.Equal(t, "false\n", stdout)
}

func TestMatchUnknownProfile(t *testing.T) {
	setupEnv(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	_, _, err := runCLI(t, "", "match", "nobody", "--expr", "true")
	assert.EqualError(t, err, `profile "nobody" not found`)
}

func TestStreamReadsStdin(t *testing.T) {
	setupEnv(t, serveProfile)

	stdout, _, err := runCLI(t, storedProfile, "stream", "--expr", `id == "pid"`)
	require.NoError(t, err)
	assert.Equal(t, "true\n", stdout)

	_, _, err = runCLI(t, "not json", "stream")
	assert.Error(t, err)
}

func TestEvaluateRequiresOneRule(t *testing.T) {
	setupEnv(t, serveProfile)
	_, _, err := runCLI(t, "", "evaluate", "pid")
	assert.ErrorIs(t, err, errUsage)
	_, _, err = runCLI(t, "", "evaluate", "pid", "--iql", "x", "--segment-id", "y")
	assert.ErrorIs(t, err, errUsage)
}

func TestParseAttribute(t *testing.T) {
	record, err := parseAttribute(`web/user/tags=["a","b"]`)
	require.NoError(t, err)
	assert.Equal(t, profiles.AttributeRecord{
		CollectApp: "web",
		Section:    "user",
		Name:       "tags",
		Value:      []any{"a", "b"},
	}, record)

	record, err = parseAttribute("web/user/name=Ada Lovelace")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", record.Value)

	_, err = parseAttribute("web/user/name")
	assert.ErrorIs(t, err, errUsage)
}
