package segment

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"
)

// Function is a helper rules can call by name.
type Function func(args ...any) (any, error)

// helper pairs a Function with the Go signatures it accepts. Signatures are
// pointers to func types, e.g. new(func(string) bool).
type helper struct {
	call       Function
	signatures []any
}

// FunctionRegistry holds the helpers exposed to rules, keyed by lower-case
// name. The expr engine type checks calls against declared signatures when a
// rule is compiled; helpers without signatures accept any arguments.
type FunctionRegistry struct {
	mu      sync.RWMutex
	helpers map[string]helper
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{helpers: make(map[string]helper)}
}

// Register adds fn under name. Each signature must be a pointer to a func
// type; a name may only be registered once.
func (r *FunctionRegistry) Register(name string, fn Function, signatures ...any) error {
	if name == "" {
		return fmt.Errorf("segment: function name must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("segment: function %q is nil", name)
	}
	for _, sig := range signatures {
		t := reflect.TypeOf(sig)
		if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Func {
			return fmt.Errorf("segment: function %q signature %T is not a *func", name, sig)
		}
	}

	key := strings.ToLower(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.helpers == nil {
		r.helpers = make(map[string]helper)
	}
	if _, exists := r.helpers[key]; exists {
		return fmt.Errorf("segment: function %q already registered", name)
	}
	r.helpers[key] = helper{call: fn, signatures: slices.Clone(signatures)}
	return nil
}

// Clone returns a registry with the same helpers. Registering on either copy
// does not affect the other.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return &FunctionRegistry{helpers: maps.Clone(r.helpers)}
}

// Call runs the helper registered as name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	h, ok := r.lookup(name)
	if !ok {
		return nil, fmt.Errorf("segment: function %q not registered", name)
	}
	return h.call(args...)
}

// Signatures returns the declared signatures of name, nil when it has none
// or is not registered.
func (r *FunctionRegistry) Signatures(name string) []any {
	h, _ := r.lookup(name)
	return slices.Clone(h.signatures)
}

// Names returns the registered names in sorted order.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.helpers))
}

func (r *FunctionRegistry) lookup(name string) (helper, bool) {
	if r == nil {
		return helper{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.helpers[strings.ToLower(name)]
	return h, ok
}
