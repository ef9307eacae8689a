package profiles

import "github.com/goliatone/go-profiles/internal/datamap"

// dirtyFlag tracks whether an entity has unsaved local changes.
type dirtyFlag bool

func (d *dirtyFlag) mark() { *d = true }

func (d *dirtyFlag) reset() { *d = false }

func (d dirtyFlag) isSet() bool { return bool(d) }

// setIfChanged assigns value to field and marks dirty only when the value
// actually differs.
func setIfChanged[T comparable](field *T, value T, dirty *dirtyFlag) bool {
	if *field == value {
		return false
	}
	*field = value
	dirty.mark()
	return true
}

// setValueIfChanged is setIfChanged for arbitrary JSON values, compared deeply.
func setValueIfChanged(field *any, value any, dirty *dirtyFlag) bool {
	if datamap.Equal(*field, value) {
		return false
	}
	*field = datamap.Clone(value)
	dirty.mark()
	return true
}

// mergeData overwrites keys of data with src and marks every given flag when
// something changed.
func mergeData(data map[string]any, src map[string]any, flags ...*dirtyFlag) {
	if !datamap.Merge(data, src) {
		return
	}
	for _, flag := range flags {
		flag.mark()
	}
}
