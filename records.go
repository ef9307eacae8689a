package profiles

// EventRecord is the raw and serialized shape of an Event.
type EventRecord struct {
	ID           string         `json:"id"`
	DefinitionID string         `json:"definitionId"`
	Data         map[string]any `json:"data"`
	CreatedAt    int64          `json:"createdAt"`
}

// SessionRecord is the raw and serialized shape of a Session.
type SessionRecord struct {
	ID         string         `json:"id"`
	Section    string         `json:"section"`
	CollectApp string         `json:"collectApp"`
	Data       map[string]any `json:"data"`
	Events     []EventRecord  `json:"events"`
	CreatedAt  int64          `json:"createdAt"`
	ModifiedAt int64          `json:"modifiedAt"`
}

// AttributeRecord is the raw shape of a single Attribute.
type AttributeRecord struct {
	CollectApp string `json:"collectApp"`
	Section    string `json:"section"`
	Name       string `json:"name"`
	Value      any    `json:"value"`
}

// AttributeGroup carries every attribute of one (collectApp, section) pair.
type AttributeGroup struct {
	CollectApp string         `json:"collectApp"`
	Section    string         `json:"section"`
	Data       map[string]any `json:"data"`
}

// ProfileRecord is the raw and serialized shape of a Profile.
type ProfileRecord struct {
	ID         string           `json:"id"`
	Attributes []AttributeGroup `json:"attributes"`
	Sessions   []SessionRecord  `json:"sessions"`
}

// EventInput is either an *Event or an EventRecord.
type EventInput interface {
	toEvent(settings) *Event
}

// SessionInput is either a *Session or a SessionRecord.
type SessionInput interface {
	toSession(settings) *Session
}

// AttributeInput is either an *Attribute or an AttributeRecord.
type AttributeInput interface {
	toAttribute(settings) *Attribute
}

func (r EventRecord) toEvent(s settings) *Event { return newEvent(r, s) }

func (r SessionRecord) toSession(s settings) *Session { return newSession(r, s) }

func (r AttributeRecord) toAttribute(s settings) *Attribute { return newAttribute(r, s) }
