package state

import (
	"context"
	"fmt"

	profiles "github.com/goliatone/go-profiles"
	"github.com/goliatone/go-profiles/pkg/client"
)

// RemoteStore adapts a Profile Store client to Store. The service does not
// expose versions, so Meta carries no ETag.
type RemoteStore struct {
	Client *client.Client
}

func NewRemoteStore(c *client.Client) *RemoteStore {
	return &RemoteStore{Client: c}
}

func (s *RemoteStore) Load(ctx context.Context, id string) (*profiles.Profile, Meta, bool, error) {
	if s.Client == nil {
		return nil, Meta{}, false, fmt.Errorf("state: client is required")
	}
	profile, err := s.Client.LoadProfile(ctx, id)
	if err != nil {
		if client.IsNotFound(err) {
			return nil, Meta{}, false, nil
		}
		return nil, Meta{}, false, err
	}
	if profile == nil {
		return nil, Meta{}, false, nil
	}
	return profile, Meta{}, true, nil
}

func (s *RemoteStore) Save(ctx context.Context, profile *profiles.Profile) (*profiles.Profile, Meta, error) {
	if s.Client == nil {
		return nil, Meta{}, fmt.Errorf("state: client is required")
	}
	saved, err := s.Client.SaveProfile(ctx, profile)
	if err != nil {
		return nil, Meta{}, err
	}
	return saved, Meta{}, nil
}

func (s *RemoteStore) Delete(ctx context.Context, id string) error {
	if s.Client == nil {
		return fmt.Errorf("state: client is required")
	}
	if err := s.Client.DeleteProfile(ctx, id); err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		return err
	}
	return nil
}
