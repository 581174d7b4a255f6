// Copyright 2026 The Firerest Authors
// SPDX-License-Identifier: Apache-2.0

// Package value defines the generic tagged-union value model exchanged
// between callers and the Firestore connector.
//
// A Value is exactly one of: String, Int, Double, Bool, Null, List, or
// Map. This is the only value type that crosses the connector's API
// boundary — the wire-level typed envelopes live in lib/firestore and
// are converted to and from Value by the codec there.
package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is the tagged union over the supported document value shapes.
// The isValue marker method keeps the union closed: only the types in
// this package satisfy it.
type Value interface {
	isValue()

	// Equal reports deep equality with another Value. Values of
	// different tags are never equal (Int(1) != Double(1)).
	Equal(other Value) bool

	// String returns a human-readable rendering for logs and tests.
	String() string
}

var (
	_ Value = String("")
	_ Value = Int(0)
	_ Value = Double(0)
	_ Value = Bool(false)
	_ Value = Null{}
	_ Value = List(nil)
	_ Value = Map(nil)
)

// String is a UTF-8 string value.
type String string

func (String) isValue() {}

func (s String) Equal(other Value) bool {
	o, ok := other.(String)
	return ok && o == s
}

func (s String) String() string { return strconv.Quote(string(s)) }

// Int is a 64-bit signed integer value.
type Int int64

func (Int) isValue() {}

func (i Int) Equal(other Value) bool {
	o, ok := other.(Int)
	return ok && o == i
}

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// Double is a 64-bit floating-point value.
type Double float64

func (Double) isValue() {}

func (d Double) Equal(other Value) bool {
	o, ok := other.(Double)
	return ok && o == d
}

func (d Double) String() string { return strconv.FormatFloat(float64(d), 'g', -1, 64) }

// Bool is a boolean value.
type Bool bool

func (Bool) isValue() {}

func (b Bool) Equal(other Value) bool {
	o, ok := other.(Bool)
	return ok && o == b
}

func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

// Null is the explicit null value.
type Null struct{}

// Nil is the canonical Null value.
var Nil = Null{}

func (Null) isValue() {}

func (Null) Equal(other Value) bool {
	_, ok := other.(Null)
	return ok
}

func (Null) String() string { return "null" }

// List is an ordered sequence of values.
type List []Value

func (List) isValue() {}

func (l List) Equal(other Value) bool {
	o, ok := other.(List)
	if !ok || len(o) != len(l) {
		return false
	}
	for i, v := range l {
		if !v.Equal(o[i]) {
			return false
		}
	}
	return true
}

func (l List) String() string {
	var builder strings.Builder
	builder.WriteString("[")
	for i, v := range l {
		if i > 0 {
			builder.WriteString(", ")
		}
		builder.WriteString(v.String())
	}
	builder.WriteString("]")
	return builder.String()
}

// Map is an unordered mapping from field names to values. Iteration
// order is not significant anywhere in the connector.
type Map map[string]Value

func (Map) isValue() {}

func (m Map) Equal(other Value) bool {
	o, ok := other.(Map)
	if !ok || len(o) != len(m) {
		return false
	}
	for k, v := range m {
		ov, present := o[k]
		if !present || !v.Equal(ov) {
			return false
		}
	}
	return true
}

func (m Map) String() string {
	var builder strings.Builder
	builder.WriteString("{")
	first := true
	for k, v := range m {
		if !first {
			builder.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&builder, "%s: %s", strconv.Quote(k), v.String())
	}
	builder.WriteString("}")
	return builder.String()
}
