// Package segment models Profile Store segments and evaluates rule
// expressions locally against profile snapshots.
package segment

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig reports a segment definition missing a required property.
var ErrInvalidConfig = errors.New("segment: invalid config")

// Segment is a named IQL rule defined in the Profile Store.
type Segment struct {
	ID  string `json:"id"`
	IQL string `json:"iql"`
}

// New returns a segment after checking both properties are set.
func New(id, iql string) (Segment, error) {
	if err := requireNonBlank("id", id); err != nil {
		return Segment{}, err
	}
	if err := requireNonBlank("iql", iql); err != nil {
		return Segment{}, err
	}
	return Segment{ID: id, IQL: iql}, nil
}

// FromRecord builds a segment from a decoded JSON object.
func FromRecord(record map[string]any) (Segment, error) {
	if record == nil {
		return Segment{}, fmt.Errorf("%w: config is empty", ErrInvalidConfig)
	}
	id, err := stringProperty(record, "id")
	if err != nil {
		return Segment{}, err
	}
	iql, err := stringProperty(record, "iql")
	if err != nil {
		return Segment{}, err
	}
	return New(id, iql)
}

// IsValid reports whether both properties are set.
func (s Segment) IsValid() bool {
	return strings.TrimSpace(s.ID) != "" && strings.TrimSpace(s.IQL) != ""
}

func stringProperty(record map[string]any, name string) (string, error) {
	raw, ok := record[name]
	if !ok || raw == nil {
		return "", fmt.Errorf("%w: property %q should be defined", ErrInvalidConfig, name)
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: property %q should be a string", ErrInvalidConfig, name)
	}
	return value, nil
}

func requireNonBlank(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: property %q can not be empty", ErrInvalidConfig, name)
	}
	return nil
}
