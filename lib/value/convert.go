// Copyright 2026 The Firerest Authors
// SPDX-License-Identifier: Apache-2.0

package value

import (
	"encoding/json"
	"fmt"
)

// FromAny converts a native Go value into a Value. It is total: inputs
// outside the supported shapes are rendered as a String of their
// fmt.Sprint form rather than rejected. This mirrors the encoder's
// lenient contract — callers handing over arbitrary data always get
// something storable back.
//
// JSON-decoded data (map[string]any, []any, float64, json.Number) maps
// directly; a json.Number that parses as an integer becomes an Int.
func FromAny(v any) Value {
	switch v := v.(type) {
	case nil:
		return Nil
	case Value:
		return v
	case string:
		return String(v)
	case bool:
		return Bool(v)
	case int:
		return Int(v)
	case int8:
		return Int(v)
	case int16:
		return Int(v)
	case int32:
		return Int(v)
	case int64:
		return Int(v)
	case uint:
		return Int(v)
	case uint8:
		return Int(v)
	case uint16:
		return Int(v)
	case uint32:
		return Int(v)
	case uint64:
		return Int(v)
	case float32:
		return Double(v)
	case float64:
		return Double(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return Int(i)
		}
		if f, err := v.Float64(); err == nil {
			return Double(f)
		}
		return String(v.String())
	case []any:
		list := make(List, len(v))
		for i, element := range v {
			list[i] = FromAny(element)
		}
		return list
	case map[string]any:
		m := make(Map, len(v))
		for k, element := range v {
			m[k] = FromAny(element)
		}
		return m
	default:
		return String(fmt.Sprint(v))
	}
}

// FromAnyMap converts a native Go map into a Map, applying FromAny to
// every entry. Convenience for callers whose document data arrives as
// map[string]any (JSON decoding, user input).
func FromAnyMap(fields map[string]any) Map {
	m := make(Map, len(fields))
	for k, v := range fields {
		m[k] = FromAny(v)
	}
	return m
}

// ToAny converts a Value back into the native Go shape FromAny accepts:
// string, int64, float64, bool, nil, []any, and map[string]any. The
// result marshals to JSON the way callers expect (Null as JSON null,
// not an empty object).
func ToAny(v Value) any {
	switch v := v.(type) {
	case String:
		return string(v)
	case Int:
		return int64(v)
	case Double:
		return float64(v)
	case Bool:
		return bool(v)
	case Null:
		return nil
	case List:
		elements := make([]any, len(v))
		for i, element := range v {
			elements[i] = ToAny(element)
		}
		return elements
	case Map:
		m := make(map[string]any, len(v))
		for k, element := range v {
			m[k] = ToAny(element)
		}
		return m
	default:
		return v.String()
	}
}

// ToAnyMap applies ToAny to every entry of a field map.
func ToAnyMap(fields map[string]Value) map[string]any {
	m := make(map[string]any, len(fields))
	for k, v := range fields {
		m[k] = ToAny(v)
	}
	return m
}
