// Copyright 2026 The Firerest Authors
// SPDX-License-Identifier: Apache-2.0

package firestore

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/lanternhq/firerest/lib/value"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    value.Value
	}{
		{"string", value.String("hello")},
		{"empty string", value.String("")},
		{"int", value.Int(42)},
		{"negative int", value.Int(-7)},
		{"double", value.Double(3.5)},
		{"bool", value.Bool(true)},
		{"null", value.Nil},
		{"list", value.List{value.Int(1), value.String("two"), value.Bool(false)}},
		{"empty list", value.List{}},
		{"map", value.Map{"a": value.Int(1), "b": value.String("x")}},
		{"empty map", value.Map{}},
		{"nested", value.Map{
			"address": value.Map{"city": value.String("Boston")},
			"scores":  value.List{value.Double(1.5), value.List{value.Int(2)}},
		}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := DecodeValue(EncodeValue(test.v))
			if err != nil {
				t.Fatalf("DecodeValue(EncodeValue(%s)): %v", test.v, err)
			}
			if !got.Equal(test.v) {
				t.Errorf("round trip = %s, want %s", got, test.v)
			}
		})
	}
}

func TestEncodeDecodeRoundTripThroughJSON(t *testing.T) {
	// The end-to-end shape: encode, serialize to the wire, deserialize,
	// decode. This is what every request/response cycle does.
	original := value.Map{
		"name": value.String("John"),
		"age":  value.Int(30),
		"tags": value.List{value.String("a"), value.String("b")},
		"meta": value.Nil,
	}

	serialized, err := json.Marshal(EncodeValue(original))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var wire WireValue
	if err := json.Unmarshal(serialized, &wire); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got, err := DecodeValue(wire)
	if err != nil {
		t.Fatalf("DecodeValue: %v", err)
	}
	if !got.Equal(original) {
		t.Errorf("round trip through JSON = %s, want %s", got, original)
	}
}

func TestEncodeValueWireShapes(t *testing.T) {
	tests := []struct {
		name string
		v    value.Value
		want string
	}{
		{"string", value.String("x"), `{"stringValue":"x"}`},
		{"int as decimal string", value.Int(30), `{"integerValue":"30"}`},
		{"double as number", value.Double(2.5), `{"doubleValue":2.5}`},
		{"bool", value.Bool(true), `{"booleanValue":true}`},
		{"null", value.Nil, `{"nullValue":null}`},
		{"nil interface", nil, `{"nullValue":null}`},
		{"empty map", value.Map{}, `{"mapValue":{}}`},
		{"empty list", value.List{}, `{"arrayValue":{}}`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := json.Marshal(EncodeValue(test.v))
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(got) != test.want {
				t.Errorf("EncodeValue JSON = %s, want %s", got, test.want)
			}
		})
	}
}

func TestDecodeValueNumericForms(t *testing.T) {
	tests := []struct {
		name string
		json string
		want value.Value
	}{
		{"integer as string", `{"integerValue":"42"}`, value.Int(42)},
		{"integer as number", `{"integerValue":42}`, value.Int(42)},
		{"double as number", `{"doubleValue":2.5}`, value.Double(2.5)},
		{"double as string", `{"doubleValue":"2.5"}`, value.Double(2.5)},
		{"double as integer literal", `{"doubleValue":3}`, value.Double(3)},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var wire WireValue
			if err := json.Unmarshal([]byte(test.json), &wire); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			got, err := DecodeValue(wire)
			if err != nil {
				t.Fatalf("DecodeValue: %v", err)
			}
			if !got.Equal(test.want) {
				t.Errorf("DecodeValue(%s) = %s, want %s", test.json, got, test.want)
			}
		})
	}
}

func TestDecodeValueMalformedNumbers(t *testing.T) {
	tests := []string{
		`{"integerValue":"not a number"}`,
		`{"integerValue":"4.5"}`,
		`{"doubleValue":"abc"}`,
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			var wire WireValue
			if err := json.Unmarshal([]byte(input), &wire); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			_, err := DecodeValue(wire)
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Errorf("DecodeValue(%s) = %v, want *DecodeError", input, err)
			}
		})
	}
}

func TestDecodeValueMultipleTags(t *testing.T) {
	var wire WireValue
	if err := json.Unmarshal([]byte(`{"stringValue":"x","integerValue":"1"}`), &wire); err != nil {
		t.Fatal(err)
	}
	_, err := DecodeValue(wire)
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Errorf("DecodeValue with two tags = %v, want *DecodeError", err)
	}
}

func TestDecodeValueUnknownTagSentinel(t *testing.T) {
	// Future server-side types (timestampValue, geoPointValue, ...)
	// decode to the sentinel instead of failing.
	var wire WireValue
	if err := json.Unmarshal([]byte(`{"timestampValue":"2026-03-01T12:00:00Z"}`), &wire); err != nil {
		t.Fatal(err)
	}
	got, err := DecodeValue(wire)
	if err != nil {
		t.Fatalf("DecodeValue: %v", err)
	}
	if !got.Equal(UnknownValue) {
		t.Errorf("DecodeValue(unknown tag) = %s, want sentinel %s", got, UnknownValue)
	}
}

func TestDecodeValueMissingMembers(t *testing.T) {
	var wire WireValue
	if err := json.Unmarshal([]byte(`{"mapValue":{}}`), &wire); err != nil {
		t.Fatal(err)
	}
	got, err := DecodeValue(wire)
	if err != nil {
		t.Fatalf("DecodeValue(mapValue without fields): %v", err)
	}
	if !got.Equal(value.Map{}) {
		t.Errorf("mapValue without fields = %s, want empty map", got)
	}

	wire = WireValue{}
	if err := json.Unmarshal([]byte(`{"arrayValue":{}}`), &wire); err != nil {
		t.Fatal(err)
	}
	got, err = DecodeValue(wire)
	if err != nil {
		t.Fatalf("DecodeValue(arrayValue without values): %v", err)
	}
	if !got.Equal(value.List{}) {
		t.Errorf("arrayValue without values = %s, want empty list", got)
	}
}
