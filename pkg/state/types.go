package state

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	profiles "github.com/goliatone/go-profiles"
)

var ErrNotFound = errors.New("state: profile not found")

var ErrETagMismatch = errors.New("state: etag mismatch")

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	ETag      string            `json:"etag,omitempty"`
	UpdatedAt int64             `json:"updated_at,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// Store loads, saves and deletes one profile by id. Save receives the
// caller's instance and sends only what changed; the returned profile is the
// stored copy.
type Store interface {
	Load(ctx context.Context, id string) (profile *profiles.Profile, meta Meta, ok bool, err error)
	Save(ctx context.Context, profile *profiles.Profile) (*profiles.Profile, Meta, error)
	Delete(ctx context.Context, id string) error
}

// Mutator edits a profile in place.
type Mutator func(*profiles.Profile) error

// MutateOption tunes a single Mutate call.
type MutateOption func(*mutateConfig)

type mutateConfig struct {
	etag string
}

// WithExpectedETag fails the mutation when the stored ETag differs.
func WithExpectedETag(etag string) MutateOption {
	return func(c *mutateConfig) {
		c.etag = etag
	}
}

// Resolver orchestrates load-mutate-save cycles over a Store.
type Resolver struct {
	Store Store
	// Options are used when a profile has to be created.
	Options []profiles.Option
	Logger  logrus.FieldLogger
}

// Mutate loads the profile id, creating it when the store has none, applies
// fn and saves the result. Nothing is saved when fn fails, when the profile
// does not validate or when fn left it unchanged.
func (r Resolver) Mutate(ctx context.Context, id string, fn Mutator, opts ...MutateOption) (*profiles.Profile, Meta, error) {
	if r.Store == nil {
		return nil, Meta{}, fmt.Errorf("state: store is required")
	}
	if strings.TrimSpace(id) == "" {
		return nil, Meta{}, fmt.Errorf("state: profile id is required")
	}
	if fn == nil {
		return nil, Meta{}, fmt.Errorf("state: mutator is required")
	}
	cfg := mutateConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	profile, loadedMeta, ok, err := r.Store.Load(ctx, id)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("state: load profile %q: %w", id, err)
	}
	if !ok || profile == nil {
		profile = profiles.CreateProfile(id, r.Options...)
		loadedMeta = Meta{}
	}

	if cfg.etag != "" && loadedMeta.ETag != "" && cfg.etag != loadedMeta.ETag {
		return nil, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, cfg.etag, loadedMeta.ETag)
	}

	if err := fn(profile); err != nil {
		return nil, loadedMeta, err
	}
	if profile.ID() != id {
		return nil, loadedMeta, fmt.Errorf("%w: mutator changed profile id to %q", profiles.ErrIDMismatch, profile.ID())
	}
	if !profile.IsValid() {
		return nil, loadedMeta, fmt.Errorf("%w: profile %q", profiles.ErrInvalid, id)
	}
	if !profile.HasChanges() {
		r.logger().WithField("profile_id", id).Debug("mutation left profile unchanged")
		return profile, loadedMeta, nil
	}

	saved, savedMeta, err := r.Store.Save(ctx, profile)
	if err != nil {
		return nil, loadedMeta, fmt.Errorf("state: save profile %q: %w", id, err)
	}
	r.logger().WithFields(logrus.Fields{
		"profile_id": id,
		"etag":       savedMeta.ETag,
	}).Debug("profile mutated")
	return saved, savedMeta, nil
}

// Refresh merges the stored copy of profile into it. A profile the store
// does not know is returned untouched.
func (r Resolver) Refresh(ctx context.Context, profile *profiles.Profile) (*profiles.Profile, error) {
	if r.Store == nil {
		return nil, fmt.Errorf("state: store is required")
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: profile is nil", profiles.ErrInvalidArgument)
	}
	stored, _, ok, err := r.Store.Load(ctx, profile.ID())
	if err != nil {
		return nil, fmt.Errorf("state: load profile %q: %w", profile.ID(), err)
	}
	if !ok || stored == nil {
		return profile, nil
	}
	if err := profile.Merge(stored); err != nil {
		return nil, err
	}
	return profile, nil
}

func (r Resolver) logger() logrus.FieldLogger {
	if r.Logger != nil {
		return r.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
