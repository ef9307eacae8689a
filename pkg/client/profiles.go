package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	profiles "github.com/goliatone/go-profiles"
	"github.com/goliatone/go-profiles/internal/hydrate"
	"github.com/goliatone/go-profiles/pkg/activity"
)

type profileEnvelope struct {
	Profile *profiles.ProfileRecord `json:"profile"`
}

type mergeRequest struct {
	ID             string   `json:"id"`
	MergedProfiles []string `json:"mergedProfiles"`
}

var profileDecoder = hydrate.NewDecoder[profileEnvelope]()

// CreateProfile returns an empty local profile. Nothing is sent.
func (c *Client) CreateProfile(id string) *profiles.Profile {
	return profiles.CreateProfile(id, c.profileOpts...)
}

// LoadProfile fetches a profile. A reply without a profile yields nil, nil.
func (c *Client) LoadProfile(ctx context.Context, profileID string) (*profiles.Profile, error) {
	if strings.TrimSpace(profileID) == "" {
		return nil, fmt.Errorf("%w: profile id should be a non-empty string", ErrInvalidArgument)
	}
	body, err := c.call(ctx, http.MethodGet, c.profileURL(profileID), nil)
	if err != nil {
		return nil, err
	}
	return c.decodeProfile(hydrate.Context{Source: "load profile", ProfileID: profileID}, body)
}

// LoadProfiles fetches profiles concurrently. The result order matches ids;
// the first failure cancels the rest.
func (c *Client) LoadProfiles(ctx context.Context, ids []string) ([]*profiles.Profile, error) {
	out := make([]*profiles.Profile, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			profile, err := c.LoadProfile(gctx, id)
			if err != nil {
				return fmt.Errorf("load profile %q: %w", id, err)
			}
			out[i] = profile
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveProfile sends the local changes of profile. On success the profile's
// dirty state is reset; when the reply carries the stored profile a fresh
// instance built from it is returned, otherwise profile itself.
func (c *Client) SaveProfile(ctx context.Context, profile *profiles.Profile) (*profiles.Profile, error) {
	if profile == nil {
		return nil, fmt.Errorf("%w: argument \"profile\" should be a profile", ErrInvalidArgument)
	}
	changes := profile.Serialize(true)
	body, err := c.call(ctx, http.MethodPost, c.profileURL(profile.ID()), changes, http.StatusOK, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	profile.ResetDirty()

	result := profile
	if len(body) > 0 {
		saved, err := c.decodeProfile(hydrate.Context{Source: "save profile", ProfileID: profile.ID()}, body)
		if err != nil {
			return nil, err
		}
		if saved != nil {
			result = saved
		}
	}
	c.emit(ctx, activity.BuildProfileSavedEvent(c.eventInput(profile.ID()), len(changes.Sessions), len(changes.Attributes)))
	return result, nil
}

// DeleteProfile removes a profile. The Profile Store answers 204.
func (c *Client) DeleteProfile(ctx context.Context, profileID string) error {
	if strings.TrimSpace(profileID) == "" {
		return fmt.Errorf("%w: profile id should be a non-empty string", ErrInvalidArgument)
	}
	if _, err := c.call(ctx, http.MethodDelete, c.profileURL(profileID), nil, http.StatusNoContent); err != nil {
		return err
	}
	c.emit(ctx, activity.BuildProfileDeletedEvent(c.eventInput(profileID)))
	return nil
}

// MergeProfiles asks the Profile Store to fold second into first and returns
// the merged profile when the reply carries it.
func (c *Client) MergeProfiles(ctx context.Context, first, second *profiles.Profile) (*profiles.Profile, error) {
	if first == nil {
		return nil, fmt.Errorf("%w: argument \"profile1\" should be a profile", ErrInvalidArgument)
	}
	if second == nil {
		return nil, fmt.Errorf("%w: argument \"profile2\" should be a profile", ErrInvalidArgument)
	}
	payload := mergeRequest{ID: first.ID(), MergedProfiles: []string{second.ID()}}
	body, err := c.call(ctx, http.MethodPost, c.profileURL(first.ID()), payload, http.StatusOK, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	var merged *profiles.Profile
	if len(body) > 0 {
		merged, err = c.decodeProfile(hydrate.Context{Source: "merge profiles", ProfileID: first.ID()}, body)
		if err != nil {
			return nil, err
		}
	}
	c.emit(ctx, activity.BuildProfilesMergedEvent(c.eventInput(first.ID()), second.ID()))
	return merged, nil
}

// RefreshLocalProfile loads the remote copy of profile and merges it in.
// profile is returned for chaining.
func (c *Client) RefreshLocalProfile(ctx context.Context, profile *profiles.Profile) (*profiles.Profile, error) {
	if profile == nil {
		return nil, fmt.Errorf("%w: argument \"profile\" should be a profile", ErrInvalidArgument)
	}
	loaded, err := c.LoadProfile(ctx, profile.ID())
	if err != nil {
		return nil, err
	}
	if loaded != nil {
		if err := profile.Merge(loaded); err != nil {
			return nil, err
		}
	}
	c.emit(ctx, activity.BuildProfileRefreshedEvent(c.eventInput(profile.ID())))
	return profile, nil
}

func (c *Client) decodeProfile(ctx hydrate.Context, body []byte) (*profiles.Profile, error) {
	envelope, err := profileDecoder.DecodeBytes(ctx, body)
	if err != nil {
		return nil, err
	}
	if envelope.Profile == nil {
		return nil, nil
	}
	return profiles.NewProfile(*envelope.Profile, c.profileOpts...), nil
}
