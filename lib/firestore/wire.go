// Copyright 2026 The Firerest Authors
// SPDX-License-Identifier: Apache-2.0

package firestore

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/lanternhq/firerest/lib/value"
)

// WireValue is the API's self-describing typed envelope for a single
// value. Exactly one tag is populated in a well-formed envelope.
//
// integerValue and doubleValue arrive over the wire as either a native
// JSON number or its decimal-string form; both are accepted, which is
// why those fields are raw messages rather than typed ones.
type WireValue struct {
	StringValue  *string         `json:"stringValue,omitempty"`
	IntegerValue json.RawMessage `json:"integerValue,omitempty"`
	DoubleValue  json.RawMessage `json:"doubleValue,omitempty"`
	BooleanValue *bool           `json:"booleanValue,omitempty"`
	NullValue    json.RawMessage `json:"nullValue,omitempty"`
	MapValue     *WireMap        `json:"mapValue,omitempty"`
	ArrayValue   *WireArray      `json:"arrayValue,omitempty"`
}

// WireMap is the mapValue envelope. A missing fields member decodes to
// an empty map rather than failing.
type WireMap struct {
	Fields map[string]WireValue `json:"fields,omitempty"`
}

// WireArray is the arrayValue envelope. A missing values member
// decodes to an empty list rather than failing.
type WireArray struct {
	Values []WireValue `json:"values,omitempty"`
}

// UnknownValue is the sentinel DecodeValue returns for an envelope
// that carries none of the recognized type tags. Tolerating unknown
// tags (timestampValue, geoPointValue, future additions) keeps the
// connector working as the database schema evolves; callers that care
// can compare against this sentinel.
const UnknownValue = value.String("<unknown value type>")

// EncodeValue converts a generic value into its typed wire envelope.
// Total: every value.Value shape has a wire form, and a nil Value
// encodes as null. Recurses into maps and lists.
//
// Integers are emitted in their decimal-string form, matching what the
// API itself produces.
func EncodeValue(v value.Value) WireValue {
	switch v := v.(type) {
	case value.String:
		s := string(v)
		return WireValue{StringValue: &s}
	case value.Int:
		quoted := strconv.Quote(strconv.FormatInt(int64(v), 10))
		return WireValue{IntegerValue: json.RawMessage(quoted)}
	case value.Double:
		return WireValue{DoubleValue: json.RawMessage(strconv.FormatFloat(float64(v), 'g', -1, 64))}
	case value.Bool:
		b := bool(v)
		return WireValue{BooleanValue: &b}
	case value.List:
		values := make([]WireValue, len(v))
		for i, element := range v {
			values[i] = EncodeValue(element)
		}
		return WireValue{ArrayValue: &WireArray{Values: values}}
	case value.Map:
		fields := make(map[string]WireValue, len(v))
		for k, element := range v {
			fields[k] = EncodeValue(element)
		}
		return WireValue{MapValue: &WireMap{Fields: fields}}
	default:
		// value.Null and a nil interface both land here.
		return WireValue{NullValue: json.RawMessage("null")}
	}
}

// EncodeFields converts a generic field map into the wire fields map
// used in document bodies.
func EncodeFields(fields map[string]value.Value) map[string]WireValue {
	encoded := make(map[string]WireValue, len(fields))
	for name, v := range fields {
		encoded[name] = EncodeValue(v)
	}
	return encoded
}

// DecodeValue converts a typed wire envelope back into a generic
// value. An envelope with more than one recognized tag, or a numeric
// payload whose string form does not parse, is a *DecodeError. An
// envelope with none of the recognized tags decodes to UnknownValue —
// not an error, so schema additions on the server never break reads.
func DecodeValue(w WireValue) (value.Value, error) {
	if err := w.checkSingleTag(); err != nil {
		return nil, err
	}

	switch {
	case w.StringValue != nil:
		return value.String(*w.StringValue), nil
	case w.IntegerValue != nil:
		i, err := decodeWireInt(w.IntegerValue)
		if err != nil {
			return nil, err
		}
		return value.Int(i), nil
	case w.DoubleValue != nil:
		d, err := decodeWireDouble(w.DoubleValue)
		if err != nil {
			return nil, err
		}
		return value.Double(d), nil
	case w.BooleanValue != nil:
		return value.Bool(*w.BooleanValue), nil
	case w.NullValue != nil:
		return value.Nil, nil
	case w.MapValue != nil:
		fields := make(value.Map, len(w.MapValue.Fields))
		for name, field := range w.MapValue.Fields {
			decoded, err := DecodeValue(field)
			if err != nil {
				return nil, err
			}
			fields[name] = decoded
		}
		return fields, nil
	case w.ArrayValue != nil:
		values := make(value.List, len(w.ArrayValue.Values))
		for i, element := range w.ArrayValue.Values {
			decoded, err := DecodeValue(element)
			if err != nil {
				return nil, err
			}
			values[i] = decoded
		}
		return values, nil
	default:
		return UnknownValue, nil
	}
}

// checkSingleTag rejects envelopes populating more than one recognized
// tag. Zero tags is allowed — DecodeValue maps that to UnknownValue.
func (w WireValue) checkSingleTag() error {
	tags := 0
	if w.StringValue != nil {
		tags++
	}
	if w.IntegerValue != nil {
		tags++
	}
	if w.DoubleValue != nil {
		tags++
	}
	if w.BooleanValue != nil {
		tags++
	}
	if w.NullValue != nil {
		tags++
	}
	if w.MapValue != nil {
		tags++
	}
	if w.ArrayValue != nil {
		tags++
	}
	if tags > 1 {
		return &DecodeError{Reason: fmt.Sprintf("envelope populates %d type tags, want exactly one", tags)}
	}
	return nil
}

// decodeWireInt parses an integerValue payload in either its native
// number or decimal-string form.
func decodeWireInt(raw json.RawMessage) (int64, error) {
	payload, err := unquoteWireNumber(raw)
	if err != nil {
		return 0, err
	}
	i, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return 0, &DecodeError{Reason: fmt.Sprintf("integerValue %q is not an integer", payload)}
	}
	return i, nil
}

// decodeWireDouble parses a doubleValue payload in either its native
// number or decimal-string form.
func decodeWireDouble(raw json.RawMessage) (float64, error) {
	payload, err := unquoteWireNumber(raw)
	if err != nil {
		return 0, err
	}
	d, err := strconv.ParseFloat(payload, 64)
	if err != nil {
		return 0, &DecodeError{Reason: fmt.Sprintf("doubleValue %q is not a number", payload)}
	}
	return d, nil
}

// unquoteWireNumber strips the JSON string quoting from a numeric
// payload when present, leaving native numbers untouched.
func unquoteWireNumber(raw json.RawMessage) (string, error) {
	s := string(raw)
	if len(s) > 0 && s[0] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return "", &DecodeError{Reason: fmt.Sprintf("malformed numeric payload %s", s)}
		}
		return unquoted, nil
	}
	return s, nil
}
