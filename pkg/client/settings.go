package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goliatone/go-profiles/internal/datamap"
	"github.com/goliatone/go-profiles/internal/hydrate"
	"github.com/goliatone/go-profiles/pkg/activity"
)

type settingsEnvelope struct {
	Custom map[string]any `json:"custom"`
}

var settingsDecoder = hydrate.NewDecoder[settingsEnvelope]()

// AppSettings returns the custom settings of the configured app.
func (c *Client) AppSettings(ctx context.Context) (map[string]any, error) {
	key := c.cacheKey("settings")
	if cached, ok := c.cached(key); ok {
		if settings, ok := cached.(map[string]any); ok {
			return datamap.CloneMap(settings), nil
		}
	}

	body, err := c.call(ctx, http.MethodGet, c.appSettingsURL(), nil)
	if err != nil {
		return nil, err
	}
	envelope, err := settingsDecoder.DecodeBytes(hydrate.Context{Source: "app settings"}, body)
	if err != nil {
		return nil, err
	}
	if envelope.Custom == nil {
		return nil, ErrSettingsNotFound
	}
	c.store(key, envelope.Custom)
	return datamap.CloneMap(envelope.Custom), nil
}

// SetAppSettings replaces the custom settings of the configured app.
func (c *Client) SetAppSettings(ctx context.Context, settings map[string]any) error {
	if settings == nil {
		return fmt.Errorf("%w: settings should be a map", ErrInvalidArgument)
	}
	if _, err := c.call(ctx, http.MethodPut, c.appSettingsURL(), settings); err != nil {
		return err
	}
	c.store(c.cacheKey("settings"), datamap.CloneMap(settings))
	c.emit(ctx, activity.BuildSettingsUpdatedEvent(c.eventInput(""), settings))
	return nil
}
