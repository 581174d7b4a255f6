// Copyright 2026 The Firerest Authors
// SPDX-License-Identifier: Apache-2.0

package value

import (
	"encoding/json"
	"testing"
)

func TestEqualDistinguishesTags(t *testing.T) {
	if Int(1).Equal(Double(1)) {
		t.Error("Int(1) should not equal Double(1)")
	}
	if String("true").Equal(Bool(true)) {
		t.Error(`String("true") should not equal Bool(true)`)
	}
	if !Nil.Equal(Null{}) {
		t.Error("Nil should equal Null{}")
	}
}

func TestEqualNested(t *testing.T) {
	a := Map{
		"name": String("John"),
		"tags": List{String("a"), String("b")},
		"meta": Nil,
	}
	b := Map{
		"name": String("John"),
		"tags": List{String("a"), String("b")},
		"meta": Nil,
	}
	if !a.Equal(b) {
		t.Errorf("equal maps reported unequal: %s vs %s", a, b)
	}

	b["tags"] = List{String("b"), String("a")}
	if a.Equal(b) {
		t.Error("lists with different element order reported equal")
	}
}

func TestFromAnyScalars(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Nil},
		{"string", "hello", String("hello")},
		{"bool", true, Bool(true)},
		{"int", 42, Int(42)},
		{"int64", int64(-7), Int(-7)},
		{"uint32", uint32(9), Int(9)},
		{"float64", 2.5, Double(2.5)},
		{"float32", float32(0.5), Double(0.5)},
		{"json number int", json.Number("30"), Int(30)},
		{"json number float", json.Number("3.5"), Double(3.5)},
		{"passthrough", String("already"), String("already")},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := FromAny(test.in)
			if !got.Equal(test.want) {
				t.Errorf("FromAny(%v) = %s, want %s", test.in, got, test.want)
			}
		})
	}
}

func TestFromAnyComposite(t *testing.T) {
	got := FromAny(map[string]any{
		"name": "John",
		"age":  30,
		"tags": []any{"a", "b"},
		"meta": nil,
	})
	want := Map{
		"name": String("John"),
		"age":  Int(30),
		"tags": List{String("a"), String("b")},
		"meta": Nil,
	}
	if !got.Equal(want) {
		t.Errorf("FromAny composite = %s, want %s", got, want)
	}
}

func TestFromAnyFallback(t *testing.T) {
	// A shape outside the supported set is stringified, never rejected.
	type opaque struct{ N int }
	got := FromAny(opaque{N: 3})
	if _, ok := got.(String); !ok {
		t.Fatalf("FromAny(struct) = %T, want String fallback", got)
	}
}

func TestFromAnyMap(t *testing.T) {
	got := FromAnyMap(map[string]any{"a": 1, "b": "x"})
	want := Map{"a": Int(1), "b": String("x")}
	if !got.Equal(want) {
		t.Errorf("FromAnyMap = %s, want %s", got, want)
	}
}

func TestToAnyRoundTrip(t *testing.T) {
	original := Map{
		"name":   String("John"),
		"age":    Int(30),
		"score":  Double(91.5),
		"active": Bool(true),
		"note":   Nil,
		"tags":   List{String("a"), Int(2)},
		"nested": Map{"k": String("v")},
	}
	back := FromAny(ToAny(original))
	if !back.Equal(original) {
		t.Errorf("FromAny(ToAny(m)) = %s, want %s", back, original)
	}
}

func TestToAnyNullIsNil(t *testing.T) {
	if got := ToAny(Nil); got != nil {
		t.Errorf("ToAny(Nil) = %#v, want nil", got)
	}
}
