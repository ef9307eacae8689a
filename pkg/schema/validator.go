// Package schema validates serialized profile shapes against embedded JSON
// schemas using go-openapi.
package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	oaierrors "github.com/go-openapi/errors"
	"github.com/go-openapi/spec"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/validate"
)

//go:embed schemas/*.json
var documents embed.FS

// Validator checks serialized events, sessions and profiles. It is safe for
// concurrent use.
type Validator struct {
	event     *spec.Schema
	session   *spec.Schema
	attribute *spec.Schema
	profile   *spec.Schema
	formats   strfmt.Registry
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
	defaultErr       error
)

// Default returns the shared validator built from the embedded schemas.
func Default() *Validator {
	defaultOnce.Do(func() {
		defaultValidator, defaultErr = New()
	})
	if defaultErr != nil {
		panic(defaultErr)
	}
	return defaultValidator
}

// New loads the embedded schemas. Session schemas embed the event schema and
// the profile schema embeds both the attribute group and session schemas.
func New() (*Validator, error) {
	event, err := load("event")
	if err != nil {
		return nil, err
	}
	session, err := load("session")
	if err != nil {
		return nil, err
	}
	attribute, err := load("attribute_group")
	if err != nil {
		return nil, err
	}
	profile, err := load("profile")
	if err != nil {
		return nil, err
	}

	session.Properties["events"] = *spec.ArrayProperty(event)
	profile.Properties["attributes"] = *spec.ArrayProperty(attribute)
	profile.Properties["sessions"] = *spec.ArrayProperty(session)

	return &Validator{
		event:     event,
		session:   session,
		attribute: attribute,
		profile:   profile,
		formats:   strfmt.Default,
	}, nil
}

func load(name string) (*spec.Schema, error) {
	raw, err := documents.ReadFile("schemas/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", name, err)
	}
	var s spec.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("schema: parse %s: %w", name, err)
	}
	return &s, nil
}

// ValidateEvent returns the validation error for a serialized event, if any.
func (v *Validator) ValidateEvent(event any) error {
	return v.validate("event", v.event, event)
}

// ValidateSession returns the validation error for a serialized session.
func (v *Validator) ValidateSession(session any) error {
	return v.validate("session", v.session, session)
}

// ValidateAttributeGroup returns the validation error for one attribute group.
func (v *Validator) ValidateAttributeGroup(group any) error {
	return v.validate("attribute group", v.attribute, group)
}

// ValidateProfile returns the validation error for a serialized profile.
func (v *Validator) ValidateProfile(profile any) error {
	return v.validate("profile", v.profile, profile)
}

func (v *Validator) IsEventValid(event any) bool {
	return v.ValidateEvent(event) == nil
}

func (v *Validator) IsSessionValid(session any) bool {
	return v.ValidateSession(session) == nil
}

func (v *Validator) IsProfileValid(profile any) bool {
	return v.ValidateProfile(profile) == nil
}

func (v *Validator) validate(name string, s *spec.Schema, data any) error {
	if v == nil || s == nil {
		return fmt.Errorf("schema: %s validator not loaded", name)
	}
	doc, err := normalize(data)
	if err != nil {
		return fmt.Errorf("schema: %s: %w", name, oaierrors.New(http.StatusUnprocessableEntity, "cannot encode value: %v", err))
	}
	if err := validate.AgainstSchema(s, doc, v.formats); err != nil {
		return fmt.Errorf("schema: %s: %w", name, err)
	}
	return nil
}

// normalize turns typed records into the generic JSON tree the schema
// validator walks.
func normalize(data any) (any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
