package segment

import (
	"fmt"
	"time"
)

// BuiltinFunctions returns a registry with helpers for walking snapshots:
//
//	attr(attributes, app, section, name)  attribute value or nil
//	events(sessions, definitionId)        events across sessions
//	age(epochMs)                          milliseconds elapsed since epochMs
//
// Each helper declares its signature so the expr engine rejects mistyped
// calls at compile time. now drives age; nil means time.Now.
func BuiltinFunctions(now func() time.Time) *FunctionRegistry {
	if now == nil {
		now = time.Now
	}
	registry := NewFunctionRegistry()
	_ = registry.Register("attr", builtinAttr,
		new(func(map[string]any, string, string, string) any))
	_ = registry.Register("events", builtinEvents,
		new(func([]any, string) []any))
	_ = registry.Register("age", func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("segment: age expects 1 argument, got %d", len(args))
		}
		ms, ok := toFloat(args[0])
		if !ok {
			return nil, fmt.Errorf("segment: age expects a number, got %T", args[0])
		}
		return float64(now().UnixMilli()) - ms, nil
	}, new(func(float64) float64))
	return registry
}

func builtinAttr(args ...any) (any, error) {
	if len(args) != 4 {
		return nil, fmt.Errorf("segment: attr expects 4 arguments, got %d", len(args))
	}
	current := args[0]
	for _, raw := range args[1:] {
		key, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("segment: attr path must be strings, got %T", raw)
		}
		m, ok := current.(map[string]any)
		if !ok {
			return nil, nil
		}
		current = m[key]
	}
	return current, nil
}

func builtinEvents(args ...any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("segment: events expects 2 arguments, got %d", len(args))
	}
	sessions, ok := args[0].([]any)
	if !ok {
		return []any{}, nil
	}
	definitionID, _ := args[1].(string)
	out := []any{}
	for _, raw := range sessions {
		session, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		events, _ := session["events"].([]any)
		for _, rawEvent := range events {
			event, ok := rawEvent.(map[string]any)
			if !ok {
				continue
			}
			if definitionID == "" || event["definitionId"] == definitionID {
				out = append(out, event)
			}
		}
	}
	return out, nil
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}
