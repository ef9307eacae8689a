package profiles

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-profiles/pkg/idgen"
)

// Profile is the aggregate root: one tracked visitor with its attributes and
// sessions. A Profile and its children are not safe for concurrent mutation.
type Profile struct {
	id         string
	attributes []*Attribute
	sessions   []*Session
	settings   settings
}

// NewProfile builds a profile from record. Attribute groups with empty data
// are skipped and sessions are constructed without validation.
func NewProfile(record ProfileRecord, opts ...Option) *Profile {
	s := applyOptions(opts)
	id := record.ID
	if id == "" {
		id = s.generateID(idgen.ProfileLength)
	}
	p := &Profile{id: id, settings: s}
	for _, group := range record.Attributes {
		p.attributes = append(p.attributes, p.CreateAttributes(group.CollectApp, group.Section, group.Data)...)
	}
	for _, sessionRecord := range record.Sessions {
		p.sessions = append(p.sessions, newSession(sessionRecord, s))
	}
	return p
}

// CreateProfile returns an empty profile with id, generating one when empty.
func CreateProfile(id string, opts ...Option) *Profile {
	return NewProfile(ProfileRecord{ID: id}, opts...)
}

func (p *Profile) ID() string { return p.id }

// CreateAttribute builds an attribute using the profile options. The
// attribute is not added to the profile.
func (p *Profile) CreateAttribute(collectApp, section, name string, value any) *Attribute {
	return newAttribute(AttributeRecord{
		CollectApp: collectApp,
		Section:    section,
		Name:       name,
		Value:      value,
	}, p.settings)
}

// CreateAttributes builds one attribute per data entry, ordered by name. The
// attributes are not added to the profile.
func (p *Profile) CreateAttributes(collectApp, section string, data map[string]any) []*Attribute {
	if len(data) == 0 {
		return nil
	}
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)
	attributes := make([]*Attribute, 0, len(names))
	for _, name := range names {
		attributes = append(attributes, p.CreateAttribute(collectApp, section, name, data[name]))
	}
	return attributes
}

// Attributes returns the attributes matching collectApp and section. An
// empty filter matches everything.
func (p *Profile) Attributes(collectApp, section string) []*Attribute {
	out := make([]*Attribute, 0, len(p.attributes))
	for _, attribute := range p.attributes {
		if collectApp != "" && attribute.collectApp != collectApp {
			continue
		}
		if section != "" && attribute.section != section {
			continue
		}
		out = append(out, attribute)
	}
	return out
}

// Attribute returns the attribute stored under the given key, or nil.
func (p *Profile) Attribute(name, collectApp, section string) (*Attribute, error) {
	if name == "" || collectApp == "" || section == "" {
		return nil, fmt.Errorf("%w: name, collectApp and section are required", ErrInvalidArgument)
	}
	var found *Attribute
	for _, attribute := range p.attributes {
		if attribute.matches(collectApp, section, name) {
			found = attribute
		}
	}
	return found, nil
}

// SetAttribute upserts a single attribute.
func (p *Profile) SetAttribute(input AttributeInput) error {
	if input == nil {
		return fmt.Errorf("%w: attribute is required", ErrInvalidArgument)
	}
	return p.SetAttributes([]AttributeInput{input})
}

// SetAttributes upserts every input by (collectApp, section, name). Existing
// attributes only get their value overwritten. When any input is invalid
// nothing is changed.
func (p *Profile) SetAttributes(inputs []AttributeInput) error {
	attributes := make([]*Attribute, 0, len(inputs))
	for _, input := range inputs {
		if input == nil {
			return fmt.Errorf("%w: attribute is required", ErrInvalidArgument)
		}
		attribute := input.toAttribute(p.settings)
		if attribute == nil {
			return fmt.Errorf("%w: attribute is required", ErrInvalidArgument)
		}
		if !attribute.IsValid() {
			return fmt.Errorf("%w: attribute %q in %s/%s is not valid", ErrInvalid, attribute.name, attribute.collectApp, attribute.section)
		}
		attributes = append(attributes, attribute)
	}
	for _, attribute := range attributes {
		p.upsertAttribute(attribute)
	}
	return nil
}

func (p *Profile) upsertAttribute(attribute *Attribute) {
	existing, _ := p.Attribute(attribute.name, attribute.collectApp, attribute.section)
	if existing == nil {
		p.attributes = append(p.attributes, attribute)
		return
	}
	if existing != attribute {
		existing.SetValue(attribute.value)
	}
}

// Sessions returns the profile sessions in their current order.
func (p *Profile) Sessions() []*Session {
	return append([]*Session(nil), p.sessions...)
}

// FilterSessions returns the sessions accepted by filter. A nil filter
// accepts every session.
func (p *Profile) FilterSessions(filter func(*Session) bool) []*Session {
	if filter == nil {
		return p.Sessions()
	}
	var out []*Session
	for _, session := range p.sessions {
		if filter(session) {
			out = append(out, session)
		}
	}
	return out
}

// SetSession upserts input by id. Setting the instance already held is a
// no-op; another instance with the same id replaces it.
func (p *Profile) SetSession(input SessionInput) (*Session, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: session is required", ErrInvalidArgument)
	}
	session := input.toSession(p.settings)
	if session == nil {
		return nil, fmt.Errorf("%w: session is required", ErrInvalidArgument)
	}
	if !session.IsValid() {
		return nil, fmt.Errorf("%w: session %q is not valid", ErrInvalid, session.ID())
	}
	for i, existing := range p.sessions {
		if existing == session {
			return session, nil
		}
		if existing.id == session.id {
			p.sessions[i] = session
			return session, nil
		}
	}
	p.sessions = append(p.sessions, session)
	return session, nil
}

// Session returns the session with id, or nil.
func (p *Profile) Session(id string) *Session {
	for _, session := range p.sessions {
		if session.id == id {
			return session
		}
	}
	return nil
}

// LastSession returns the session with the greatest modifiedAt. Ties keep
// the first one found.
func (p *Profile) LastSession() *Session {
	var last *Session
	for _, session := range p.sessions {
		if last == nil || session.modifiedAt > last.modifiedAt {
			last = session
		}
	}
	return last
}

// SortSessions orders sessions by modifiedAt, oldest first.
func (p *Profile) SortSessions() *Profile {
	sort.SliceStable(p.sessions, func(i, j int) bool {
		return p.sessions[i].modifiedAt < p.sessions[j].modifiedAt
	})
	return p
}

// IsValid reports whether the profile has an id and passes schema
// validation.
func (p *Profile) IsValid() bool {
	if p.id == "" {
		return false
	}
	return p.settings.validatorOrDefault().IsProfileValid(p.Serialize(false))
}

// Serialize returns the wire shape of the profile. With onlyChanges only
// changed attributes and sessions are included.
func (p *Profile) Serialize(onlyChanges bool) ProfileRecord {
	record := ProfileRecord{
		ID:         p.id,
		Attributes: p.serializeAttributes(onlyChanges),
		Sessions:   []SessionRecord{},
	}
	for _, session := range p.sessions {
		if onlyChanges && !session.HasChanges() {
			continue
		}
		record.Sessions = append(record.Sessions, session.Serialize(onlyChanges))
	}
	return record
}

// serializeAttributes groups attributes by (collectApp, section) in order of
// first appearance. Groups without serialized members are left out.
func (p *Profile) serializeAttributes(onlyChanges bool) []AttributeGroup {
	groups := []AttributeGroup{}
	index := map[[2]string]int{}
	for _, attribute := range p.attributes {
		if onlyChanges && !attribute.HasChanges() {
			continue
		}
		key := [2]string{attribute.collectApp, attribute.section}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, AttributeGroup{
				CollectApp: attribute.collectApp,
				Section:    attribute.section,
				Data:       map[string]any{},
			})
		}
		groups[i].Data[attribute.name] = attribute.Value()
	}
	return groups
}

// Merge folds other into p. Attributes are upserted, sessions merged by id
// and re-sorted by modifiedAt. Nothing changes when the merge fails.
func (p *Profile) Merge(other *Profile) error {
	if other == nil {
		return fmt.Errorf("%w: profile to merge is nil", ErrInvalidArgument)
	}
	if p.id != other.id {
		return fmt.Errorf("%w: profile ids differ (%q, %q)", ErrIDMismatch, p.id, other.id)
	}
	if other == p {
		return nil
	}

	inputs := make([]AttributeInput, 0, len(other.attributes))
	for _, attribute := range other.attributes {
		if !attribute.IsValid() {
			return fmt.Errorf("%w: attribute %q in %s/%s is not valid", ErrInvalid, attribute.name, attribute.collectApp, attribute.section)
		}
		inputs = append(inputs, attribute.clone())
	}

	if err := p.SetAttributes(inputs); err != nil {
		return err
	}
	for _, session := range other.sessions {
		if existing := p.Session(session.id); existing != nil {
			if err := existing.Merge(session); err != nil {
				return err
			}
			continue
		}
		p.sessions = append(p.sessions, session.clone())
	}
	p.SortSessions()
	return nil
}

// HasChanges reports whether any attribute or session changed.
func (p *Profile) HasChanges() bool {
	for _, attribute := range p.attributes {
		if attribute.HasChanges() {
			return true
		}
	}
	for _, session := range p.sessions {
		if session.HasChanges() {
			return true
		}
	}
	return false
}

// ResetDirty clears the flags of every attribute, session and event.
func (p *Profile) ResetDirty() *Profile {
	for _, attribute := range p.attributes {
		attribute.ResetDirty()
	}
	for _, session := range p.sessions {
		session.ResetDirty()
	}
	return p
}
