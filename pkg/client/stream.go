package client

import (
	"encoding/json"
	"errors"
	"fmt"

	profiles "github.com/goliatone/go-profiles"
	"github.com/goliatone/go-profiles/internal/hydrate"
)

// ErrStreamData reports a request body from the Profile Store stream that
// is missing a required part.
var ErrStreamData = errors.New("client: wrong stream data")

// StreamData is the first session and event of a streamed profile.
type StreamData struct {
	Profile map[string]any
	Session map[string]any
	Event   map[string]any
	Data    map[string]any
}

// ProfileID returns the streamed profile id.
func (d StreamData) ProfileID() string {
	id, _ := d.Profile["id"].(string)
	return id
}

// CollectApp returns the collect app of the streamed session.
func (d StreamData) CollectApp() string {
	app, _ := d.Session["collectApp"].(string)
	return app
}

// Section returns the section of the streamed session.
func (d StreamData) Section() string {
	section, _ := d.Session["section"].(string)
	return section
}

// ParseStreamData extracts the profile, its first session, that session's
// first event and the event data from a stream request body.
func ParseStreamData(raw []byte) (StreamData, error) {
	body, err := parseBody(raw)
	if err != nil {
		return StreamData{}, err
	}

	profile, ok := body["profile"].(map[string]any)
	if !ok {
		return StreamData{}, fmt.Errorf("%w: profile not found", ErrStreamData)
	}
	if _, ok := profile["id"]; !ok {
		return StreamData{}, fmt.Errorf("%w: profile id not found", ErrStreamData)
	}
	session, ok := firstObject(profile["sessions"])
	if !ok {
		return StreamData{}, fmt.Errorf("%w: session not found", ErrStreamData)
	}
	if _, ok := session["collectApp"]; !ok {
		return StreamData{}, fmt.Errorf("%w: collectApp not found", ErrStreamData)
	}
	if _, ok := session["section"]; !ok {
		return StreamData{}, fmt.Errorf("%w: section not found", ErrStreamData)
	}
	event, ok := firstObject(session["events"])
	if !ok {
		return StreamData{}, fmt.Errorf("%w: data not set", ErrStreamData)
	}
	data, ok := event["data"].(map[string]any)
	if !ok {
		return StreamData{}, fmt.Errorf("%w: data not set", ErrStreamData)
	}

	return StreamData{
		Profile: profile,
		Session: session,
		Event:   event,
		Data:    data,
	}, nil
}

var streamProfileDecoder = hydrate.NewDecoder[profileEnvelope]()

// ProfileFromRequest builds a profile from a stream request body.
func ProfileFromRequest(raw []byte, opts ...profiles.Option) (*profiles.Profile, error) {
	if _, err := parseBody(raw); err != nil {
		return nil, err
	}
	envelope, err := streamProfileDecoder.DecodeBytes(hydrate.Context{Source: "stream"}, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStreamData, err)
	}
	if envelope.Profile == nil {
		return nil, fmt.Errorf("%w: profile not found", ErrStreamData)
	}
	return profiles.NewProfile(*envelope.Profile, opts...), nil
}

// ProfileFromRequest builds a profile from a stream request body with the
// client's profile options.
func (c *Client) ProfileFromRequest(raw []byte) (*profiles.Profile, error) {
	return ProfileFromRequest(raw, c.profileOpts...)
}

// MetaFromRequest returns the meta object of a stream request body.
func MetaFromRequest(raw []byte) (map[string]any, error) {
	body, err := parseBody(raw)
	if err != nil {
		return nil, err
	}
	meta, ok := body["meta"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: meta not found", ErrStreamData)
	}
	return meta, nil
}

func parseBody(raw []byte) (map[string]any, error) {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil || body == nil {
		return nil, ErrStreamData
	}
	return body, nil
}

func firstObject(value any) (map[string]any, bool) {
	list, ok := value.([]any)
	if !ok || len(list) == 0 {
		return nil, false
	}
	first, ok := list[0].(map[string]any)
	return first, ok
}
