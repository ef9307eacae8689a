package profiles

import (
	"time"

	"github.com/goliatone/go-profiles/pkg/idgen"
	"github.com/goliatone/go-profiles/pkg/schema"
)

// Validator schema-checks serialized entities. Values handed to it are the
// records returned by Serialize.
type Validator interface {
	IsEventValid(event any) bool
	IsSessionValid(session any) bool
	IsProfileValid(profile any) bool
}

// IDGenerator produces identifiers of the requested length.
type IDGenerator func(length int) (string, error)

// Option configures entity construction. Profiles hand their options down to
// the sessions they build, sessions to their events.
type Option func(*settings)

type settings struct {
	validator Validator
	ids       IDGenerator
	now       func() time.Time
}

// WithValidator replaces the embedded JSON schema validator.
func WithValidator(validator Validator) Option {
	return func(s *settings) {
		if validator != nil {
			s.validator = validator
		}
	}
}

// WithIDGenerator replaces the default identifier generator.
func WithIDGenerator(ids IDGenerator) Option {
	return func(s *settings) {
		if ids != nil {
			s.ids = ids
		}
	}
}

// WithClock sets the clock used for default timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

func applyOptions(opts []Option) settings {
	s := settings{}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}

func (s settings) validatorOrDefault() Validator {
	if s.validator != nil {
		return s.validator
	}
	return schema.Default()
}

// generateID asks the configured generator for an id and falls back to
// idgen when it fails or returns nothing.
func (s settings) generateID(length int) string {
	if s.ids != nil {
		if id, err := s.ids(length); err == nil && id != "" {
			return id
		}
	}
	return idgen.MustGenerate(length)
}

func (s settings) nowMillis() int64 {
	if s.now != nil {
		return s.now().UnixMilli()
	}
	return time.Now().UnixMilli()
}
