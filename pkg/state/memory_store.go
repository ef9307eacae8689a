package state

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	profiles "github.com/goliatone/go-profiles"
)

// MemoryStore is an in-memory Store intended for tests and examples. Saves
// are merged into the stored snapshot the way the Profile Store merges
// partial updates.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
	opts    []profiles.Option
	now     func() time.Time
}

type memoryRecord struct {
	snapshot profiles.ProfileRecord
	version  int
	meta     Meta
}

// NewMemoryStore returns an empty store. opts are applied to every profile
// the store builds.
func NewMemoryStore(opts ...profiles.Option) *MemoryStore {
	return &MemoryStore{
		records: map[string]memoryRecord{},
		opts:    opts,
		now:     time.Now,
	}
}

// Load returns a fresh, clean profile built from the stored snapshot.
func (s *MemoryStore) Load(_ context.Context, id string) (*profiles.Profile, Meta, bool, error) {
	s.mu.RLock()
	record, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, Meta{}, false, nil
	}
	return s.build(record.snapshot), cloneMeta(record.meta), true, nil
}

// Save merges the changes of profile into the stored snapshot and resets the
// dirty state of profile.
func (s *MemoryStore) Save(_ context.Context, profile *profiles.Profile) (*profiles.Profile, Meta, error) {
	if profile == nil {
		return nil, Meta{}, fmt.Errorf("%w: profile is nil", profiles.ErrInvalidArgument)
	}
	changes := profiles.NewProfile(profile.Serialize(true), s.opts...)

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[profile.ID()]
	stored := profiles.CreateProfile(profile.ID(), s.opts...)
	if ok {
		stored = s.build(record.snapshot)
	}
	if err := stored.Merge(changes); err != nil {
		return nil, Meta{}, err
	}

	record.snapshot = stored.Serialize(false)
	record.version++
	record.meta = Meta{
		ETag:      strconv.Itoa(record.version),
		UpdatedAt: s.now().UnixMilli(),
	}
	s.records[profile.ID()] = record

	profile.ResetDirty()
	return stored.ResetDirty(), cloneMeta(record.meta), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	delete(s.records, id)
	return nil
}

// Len reports the number of stored profiles.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) build(record profiles.ProfileRecord) *profiles.Profile {
	return profiles.NewProfile(record, s.opts...).ResetDirty()
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}
