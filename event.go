package profiles

import (
	"fmt"

	"github.com/goliatone/go-profiles/internal/datamap"
	"github.com/goliatone/go-profiles/pkg/idgen"
)

// Event is a timestamped data bag scoped to a definition id. Events belong to
// exactly one Session.
type Event struct {
	id           string
	definitionID string
	data         map[string]any
	createdAt    int64
	dirty        dirtyFlag
	settings     settings
}

// NewEvent builds an event from record. A missing id is generated and a zero
// createdAt defaults to now, so new events always start dirty.
func NewEvent(record EventRecord, opts ...Option) *Event {
	return newEvent(record, applyOptions(opts))
}

func newEvent(record EventRecord, s settings) *Event {
	e := &Event{data: map[string]any{}, settings: s}
	id := record.ID
	if id == "" {
		id = s.generateID(idgen.SessionLength)
	}
	e.SetID(id)
	e.SetData(record.Data)
	e.SetDefinitionID(record.DefinitionID)
	createdAt := record.CreatedAt
	if createdAt == 0 {
		createdAt = s.nowMillis()
	}
	e.setCreatedAtMillis(createdAt)
	return e
}

func (e *Event) toEvent(settings) *Event { return e }

func (e *Event) ID() string { return e.id }

func (e *Event) DefinitionID() string { return e.definitionID }

func (e *Event) CreatedAt() int64 { return e.createdAt }

// Data returns a copy of the event data.
func (e *Event) Data() map[string]any { return datamap.CloneMap(e.data) }

// DataValue returns the value stored under name, or nil.
func (e *Event) DataValue(name string) any { return datamap.Clone(e.data[name]) }

func (e *Event) SetID(id string) *Event {
	setIfChanged(&e.id, id, &e.dirty)
	return e
}

func (e *Event) SetDefinitionID(definitionID string) *Event {
	setIfChanged(&e.definitionID, definitionID, &e.dirty)
	return e
}

// SetCreatedAt accepts an epoch-ms number or a time.Time. Times lose their
// sub-second part.
func (e *Event) SetCreatedAt(date any) error {
	ms, err := epochMillis(date)
	if err != nil {
		return err
	}
	e.setCreatedAtMillis(ms)
	return nil
}

func (e *Event) setCreatedAtMillis(ms int64) {
	setIfChanged(&e.createdAt, ms, &e.dirty)
}

// SetData merges data into the event data, overwriting existing keys.
func (e *Event) SetData(data map[string]any) *Event {
	mergeData(e.data, data, &e.dirty)
	return e
}

func (e *Event) SetDataValue(name string, value any) *Event {
	mergeData(e.data, map[string]any{name: value}, &e.dirty)
	return e
}

// IsValid reports whether the event carries an id, a definition id, some data
// and a timestamp, and passes schema validation.
func (e *Event) IsValid() bool {
	if e.id == "" || e.definitionID == "" || len(e.data) == 0 || e.createdAt == 0 {
		return false
	}
	return e.settings.validatorOrDefault().IsEventValid(e.Serialize())
}

// Serialize returns the wire shape of the event.
func (e *Event) Serialize() EventRecord {
	return EventRecord{
		ID:           e.id,
		DefinitionID: e.definitionID,
		Data:         datamap.CloneMap(e.data),
		CreatedAt:    e.createdAt,
	}
}

// Merge copies other's data into e. The receiver keeps its createdAt.
func (e *Event) Merge(other *Event) error {
	if other == nil {
		return fmt.Errorf("%w: event to merge is nil", ErrInvalidArgument)
	}
	if e.id != other.id {
		return fmt.Errorf("%w: event ids differ (%q, %q)", ErrIDMismatch, e.id, other.id)
	}
	datamap.Merge(e.data, other.data)
	e.dirty.mark()
	return nil
}

func (e *Event) HasChanges() bool { return e.dirty.isSet() }

func (e *Event) ResetDirty() *Event {
	e.dirty.reset()
	return e
}

func (e *Event) clone() *Event {
	c := *e
	c.data = datamap.CloneMap(e.data)
	return &c
}
