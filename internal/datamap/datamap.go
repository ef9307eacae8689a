// Package datamap holds the helpers entity data bags rely on: deep cloning,
// numeric-aware deep equality and overwrite merging of string keyed maps.
package datamap

import (
	"encoding/json"
	"math"
	"math/big"
	"reflect"
	"time"
)

var bigIntType = reflect.TypeOf(big.Int{})

// Clone returns a deep copy of value. Maps, slices, arrays and pointers are
// copied recursively. Structs with unexported fields, such as time.Time, are
// copied by value; big.Int values get fresh backing storage.
func Clone(value any) any {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case map[string]any:
		if v == nil {
			return v
		}
		return CloneMap(v)
	case []any:
		if v == nil {
			return v
		}
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Clone(item)
		}
		return out
	case string, bool, float64, int, int64, json.Number:
		return v
	}
	cloned := cloneValue(reflect.ValueOf(value))
	if !cloned.IsValid() {
		return nil
	}
	return cloned.Interface()
}

// CloneMap deep copies src. A nil map clones to an empty, non-nil map.
func CloneMap(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for key, value := range src {
		out[key] = Clone(value)
	}
	return out
}

// Merge writes every key of src into dst, src winning on conflict. It reports
// whether dst observably changed.
func Merge(dst, src map[string]any) bool {
	changed := false
	for key, value := range src {
		current, ok := dst[key]
		if ok && Equal(current, value) {
			continue
		}
		dst[key] = Clone(value)
		changed = true
	}
	return changed
}

// Equal reports deep equality between a and b. Numbers of different Go kinds
// compare by value, so int(1), int64(1), float64(1) and json.Number("1") are
// all equal.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return IsNil(a) && IsNil(b)
	}
	switch ta := a.(type) {
	case time.Time:
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	case *big.Int:
		tb, ok := b.(*big.Int)
		return ok && (ta == tb || (ta != nil && tb != nil && ta.Cmp(tb) == 0))
	case big.Int:
		tb, ok := b.(big.Int)
		return ok && ta.Cmp(&tb) == 0
	}
	if na, ok := toFloat(a); ok {
		nb, ok := toFloat(b)
		return ok && na == nb
	}
	if _, ok := toFloat(b); ok {
		return false
	}

	va := reflect.ValueOf(a)
	vb := reflect.ValueOf(b)
	switch {
	case isMap(va) && isMap(vb):
		if va.Len() != vb.Len() {
			return false
		}
		iter := va.MapRange()
		for iter.Next() {
			other := lookup(vb, iter.Key())
			if !other.IsValid() || !Equal(iter.Value().Interface(), other.Interface()) {
				return false
			}
		}
		return true
	case isList(va) && isList(vb):
		if va.Len() != vb.Len() {
			return false
		}
		for i := 0; i < va.Len(); i++ {
			if !Equal(va.Index(i).Interface(), vb.Index(i).Interface()) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

func lookup(m reflect.Value, key reflect.Value) reflect.Value {
	if key.Type().AssignableTo(m.Type().Key()) {
		return m.MapIndex(key)
	}
	if key.Kind() == reflect.String && m.Type().Key().Kind() == reflect.String {
		return m.MapIndex(reflect.ValueOf(key.String()).Convert(m.Type().Key()))
	}
	return reflect.Value{}
}

func isMap(v reflect.Value) bool {
	return v.Kind() == reflect.Map
}

func isList(v reflect.Value) bool {
	return v.Kind() == reflect.Slice || v.Kind() == reflect.Array
}

// IsNil reports whether value is nil or a typed nil map, slice, pointer,
// interface, func or chan.
func IsNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func cloneValue(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		if v.Type().Elem() == bigIntType {
			return reflect.ValueOf(new(big.Int).Set(v.Interface().(*big.Int)))
		}
		clone := reflect.New(v.Type().Elem())
		clone.Elem().Set(cloneValue(v.Elem()))
		return clone
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := cloneValue(v.Elem())
		if !elem.IsValid() {
			return reflect.Zero(v.Type())
		}
		return elem.Convert(v.Type())
	case reflect.Struct:
		clone := reflect.New(v.Type()).Elem()
		if v.Type() == bigIntType {
			n := v.Interface().(big.Int)
			clone.Set(reflect.ValueOf(*new(big.Int).Set(&n)))
			return clone
		}
		if hasUnexported(v.Type()) {
			clone.Set(v)
			return clone
		}
		for i := 0; i < v.NumField(); i++ {
			clone.Field(i).Set(cloneValue(v.Field(i)))
		}
		return clone
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			clone.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return clone
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	case reflect.Array:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	default:
		return v
	}
}

// hasUnexported reports whether t carries state reflection cannot copy field
// by field.
func hasUnexported(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		if !t.Field(i).IsExported() {
			return true
		}
	}
	return false
}
