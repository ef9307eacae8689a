package profiles

import "github.com/goliatone/go-profiles/internal/datamap"

// Attribute is a named fact scoped to a (collectApp, section) pair.
type Attribute struct {
	name       string
	collectApp string
	section    string
	value      any
	dirty      dirtyFlag
}

// NewAttribute builds an attribute from record. Every non-zero field counts
// as a change, so a zero record yields a clean attribute.
func NewAttribute(record AttributeRecord, opts ...Option) *Attribute {
	return newAttribute(record, applyOptions(opts))
}

func newAttribute(record AttributeRecord, _ settings) *Attribute {
	a := &Attribute{}
	a.SetName(record.Name)
	a.SetCollectApp(record.CollectApp)
	a.SetSection(record.Section)
	a.SetValue(record.Value)
	return a
}

func (a *Attribute) toAttribute(settings) *Attribute { return a }

func (a *Attribute) Name() string { return a.name }

func (a *Attribute) CollectApp() string { return a.collectApp }

func (a *Attribute) Section() string { return a.section }

// Value returns a copy of the attribute value.
func (a *Attribute) Value() any { return datamap.Clone(a.value) }

func (a *Attribute) SetName(name string) *Attribute {
	setIfChanged(&a.name, name, &a.dirty)
	return a
}

func (a *Attribute) SetCollectApp(collectApp string) *Attribute {
	setIfChanged(&a.collectApp, collectApp, &a.dirty)
	return a
}

func (a *Attribute) SetSection(section string) *Attribute {
	setIfChanged(&a.section, section, &a.dirty)
	return a
}

// SetValue assigns value. A nil value is accepted but leaves the attribute
// invalid until a non-nil value is set.
func (a *Attribute) SetValue(value any) *Attribute {
	setValueIfChanged(&a.value, value, &a.dirty)
	return a
}

// IsValid reports whether name, collectApp and section are set and the value
// is non-nil. Typed nil maps, slices and pointers count as nil.
func (a *Attribute) IsValid() bool {
	return a.name != "" && a.collectApp != "" && a.section != "" && !datamap.IsNil(a.value)
}

func (a *Attribute) HasChanges() bool { return a.dirty.isSet() }

func (a *Attribute) ResetDirty() *Attribute {
	a.dirty.reset()
	return a
}

// Record returns the attribute in its raw shape.
func (a *Attribute) Record() AttributeRecord {
	return AttributeRecord{
		CollectApp: a.collectApp,
		Section:    a.section,
		Name:       a.name,
		Value:      a.Value(),
	}
}

func (a *Attribute) matches(collectApp, section, name string) bool {
	return a.collectApp == collectApp && a.section == section && a.name == name
}

func (a *Attribute) clone() *Attribute {
	c := *a
	c.value = datamap.Clone(a.value)
	return &c
}
