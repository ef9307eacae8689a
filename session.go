package profiles

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-profiles/internal/datamap"
	"github.com/goliatone/go-profiles/pkg/idgen"
)

// Session is an ordered set of events scoped to a (collectApp, section) pair.
// Session level data changes are tracked apart from other field changes so
// partial serialization only ships data that actually changed.
type Session struct {
	id         string
	collectApp string
	section    string
	data       map[string]any
	events     []*Event
	createdAt  int64
	modifiedAt int64
	dirty      dirtyFlag
	dataDirty  dirtyFlag
	settings   settings
}

// NewSession builds a session from record. Events are constructed without
// validation.
func NewSession(record SessionRecord, opts ...Option) *Session {
	return newSession(record, applyOptions(opts))
}

func newSession(record SessionRecord, s settings) *Session {
	session := &Session{data: map[string]any{}, settings: s}
	id := record.ID
	if id == "" {
		id = s.generateID(idgen.SessionLength)
	}
	session.SetID(id)
	session.SetCollectApp(record.CollectApp)
	session.SetSection(record.Section)
	session.SetData(record.Data)

	createdAt := record.CreatedAt
	if createdAt == 0 {
		createdAt = s.nowMillis()
	}
	setIfChanged(&session.createdAt, createdAt, &session.dirty)

	modifiedAt := record.ModifiedAt
	if modifiedAt == 0 {
		modifiedAt = s.nowMillis()
	}
	session.modifiedAt = modifiedAt

	if len(record.Events) > 0 {
		session.events = make([]*Event, 0, len(record.Events))
		for _, eventRecord := range record.Events {
			session.events = append(session.events, newEvent(eventRecord, s))
		}
	}
	return session
}

func (s *Session) toSession(settings) *Session { return s }

func (s *Session) ID() string { return s.id }

func (s *Session) CollectApp() string { return s.collectApp }

func (s *Session) Section() string { return s.section }

func (s *Session) CreatedAt() int64 { return s.createdAt }

func (s *Session) ModifiedAt() int64 { return s.modifiedAt }

// Data returns a copy of the session data.
func (s *Session) Data() map[string]any { return datamap.CloneMap(s.data) }

func (s *Session) DataValue(name string) any { return datamap.Clone(s.data[name]) }

func (s *Session) SetID(id string) *Session {
	setIfChanged(&s.id, id, &s.dirty)
	return s
}

func (s *Session) SetCollectApp(collectApp string) *Session {
	setIfChanged(&s.collectApp, collectApp, &s.dirty)
	return s
}

func (s *Session) SetSection(section string) *Session {
	setIfChanged(&s.section, section, &s.dirty)
	return s
}

// SetCreatedAt accepts an epoch-ms number or a time.Time. Times lose their
// sub-second part.
func (s *Session) SetCreatedAt(date any) error {
	ms, err := epochMillis(date)
	if err != nil {
		return err
	}
	setIfChanged(&s.createdAt, ms, &s.dirty)
	return nil
}

// SetModifiedAt accepts the same inputs as SetCreatedAt.
func (s *Session) SetModifiedAt(date any) error {
	ms, err := epochMillis(date)
	if err != nil {
		return err
	}
	setIfChanged(&s.modifiedAt, ms, &s.dirty)
	return nil
}

// SetData merges data into the session data, overwriting existing keys.
func (s *Session) SetData(data map[string]any) *Session {
	mergeData(s.data, data, &s.dirty, &s.dataDirty)
	return s
}

func (s *Session) SetDataValue(name string, value any) *Session {
	mergeData(s.data, map[string]any{name: value}, &s.dirty, &s.dataDirty)
	return s
}

// AddEvent admits input into the session. Records are turned into events
// using the session options.
func (s *Session) AddEvent(input EventInput) (*Event, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: event is required", ErrInvalidArgument)
	}
	event := input.toEvent(s.settings)
	if event == nil {
		return nil, fmt.Errorf("%w: event is required", ErrInvalidArgument)
	}
	if !event.IsValid() {
		return nil, fmt.Errorf("%w: event %q is not valid", ErrInvalid, event.ID())
	}
	if s.Event(event.ID()) != nil {
		return nil, fmt.Errorf("%w: event with id %q already exists", ErrAlreadyExists, event.ID())
	}
	s.events = append(s.events, event)
	s.dirty.mark()
	return event, nil
}

// Event returns the event with id, or nil.
func (s *Session) Event(id string) *Event {
	for _, event := range s.events {
		if event.id == id {
			return event
		}
	}
	return nil
}

// LastEvent returns the most recently added event, or nil.
func (s *Session) LastEvent() *Event {
	if len(s.events) == 0 {
		return nil
	}
	return s.events[len(s.events)-1]
}

// Events returns the session events in their current order.
func (s *Session) Events() []*Event {
	return append([]*Event(nil), s.events...)
}

// EventsByDefinition returns the events carrying definitionID.
func (s *Session) EventsByDefinition(definitionID string) []*Event {
	var out []*Event
	for _, event := range s.events {
		if event.definitionID == definitionID {
			out = append(out, event)
		}
	}
	return out
}

// SortEvents orders events by createdAt, oldest first. Ties keep their
// current order.
func (s *Session) SortEvents() *Session {
	sort.SliceStable(s.events, func(i, j int) bool {
		return s.events[i].createdAt < s.events[j].createdAt
	})
	return s
}

// IsValid reports whether the session has an id, a scope and a creation
// time, and passes schema validation.
func (s *Session) IsValid() bool {
	if s.id == "" || s.collectApp == "" || s.section == "" || s.createdAt == 0 {
		return false
	}
	return s.settings.validatorOrDefault().IsSessionValid(s.Serialize(false))
}

// Serialize returns the wire shape of the session. With onlyChanges the data
// is only included when it changed, and only changed events are included.
func (s *Session) Serialize(onlyChanges bool) SessionRecord {
	record := SessionRecord{
		ID:         s.id,
		Section:    s.section,
		CollectApp: s.collectApp,
		Data:       map[string]any{},
		Events:     []EventRecord{},
		CreatedAt:  s.createdAt,
		ModifiedAt: s.modifiedAt,
	}
	if !onlyChanges || s.dataDirty.isSet() {
		record.Data = datamap.CloneMap(s.data)
	}
	for _, event := range s.events {
		if onlyChanges && !event.HasChanges() {
			continue
		}
		record.Events = append(record.Events, event.Serialize())
	}
	return record
}

// Merge folds other into s: the newest modifiedAt wins, data is overwritten
// key by key and events are merged by id, then sorted by createdAt.
func (s *Session) Merge(other *Session) error {
	if other == nil {
		return fmt.Errorf("%w: session to merge is nil", ErrInvalidArgument)
	}
	if s.id != other.id {
		return fmt.Errorf("%w: session ids differ (%q, %q)", ErrIDMismatch, s.id, other.id)
	}
	if other == s {
		s.dirty.mark()
		return nil
	}

	merged := make([]*Event, len(s.events))
	copy(merged, s.events)
	byID := make(map[string]*Event, len(s.events))
	for _, event := range s.events {
		byID[event.id] = event
	}
	type pendingMerge struct{ into, from *Event }
	var pending []pendingMerge
	for _, event := range other.events {
		if existing, ok := byID[event.id]; ok {
			pending = append(pending, pendingMerge{into: existing, from: event})
			continue
		}
		adopted := event.clone()
		byID[adopted.id] = adopted
		merged = append(merged, adopted)
	}

	for _, p := range pending {
		if err := p.into.Merge(p.from); err != nil {
			return err
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].createdAt < merged[j].createdAt
	})

	if other.modifiedAt > s.modifiedAt {
		s.modifiedAt = other.modifiedAt
	}
	s.SetData(other.data)
	s.events = merged
	s.dirty.mark()
	return nil
}

// HasChanges reports whether the session, its data or any of its events
// changed.
func (s *Session) HasChanges() bool {
	if s.dirty.isSet() || s.dataDirty.isSet() {
		return true
	}
	for _, event := range s.events {
		if event.HasChanges() {
			return true
		}
	}
	return false
}

// ResetDirty clears the session flags and those of its events.
func (s *Session) ResetDirty() *Session {
	s.dirty.reset()
	s.dataDirty.reset()
	for _, event := range s.events {
		event.ResetDirty()
	}
	return s
}

func (s *Session) clone() *Session {
	c := *s
	c.data = datamap.CloneMap(s.data)
	c.events = make([]*Event, len(s.events))
	for i, event := range s.events {
		c.events[i] = event.clone()
	}
	return &c
}
