// Copyright 2026 The Firerest Authors
// SPDX-License-Identifier: Apache-2.0

package firestore

import (
	"sort"

	"github.com/lanternhq/firerest/lib/value"
)

// Operator is a structured-query field operator in its wire form.
type Operator string

// The operators the structured-query API understands.
const (
	OpEqual              Operator = "EQUAL"
	OpNotEqual           Operator = "NOT_EQUAL"
	OpGreaterThan        Operator = "GREATER_THAN"
	OpGreaterThanOrEqual Operator = "GREATER_THAN_OR_EQUAL"
	OpLessThan           Operator = "LESS_THAN"
	OpLessThanOrEqual    Operator = "LESS_THAN_OR_EQUAL"
	OpArrayContains      Operator = "ARRAY_CONTAINS"
	OpArrayContainsAny   Operator = "ARRAY_CONTAINS_ANY"
	OpIn                 Operator = "IN"
	OpNotIn              Operator = "NOT_IN"
)

// operatorTokens maps the caller-facing operator tokens to wire
// operators. "=" and "==" are aliases.
var operatorTokens = map[string]Operator{
	"=":                  OpEqual,
	"==":                 OpEqual,
	"!=":                 OpNotEqual,
	">":                  OpGreaterThan,
	">=":                 OpGreaterThanOrEqual,
	"<":                  OpLessThan,
	"<=":                 OpLessThanOrEqual,
	"array-contains":     OpArrayContains,
	"array-contains-any": OpArrayContainsAny,
	"in":                 OpIn,
	"not-in":             OpNotIn,
}

// operatorFor resolves a caller-facing operator token. Unknown tokens
// fall back to EQUAL rather than failing; this leniency is inherited
// behavior that callers depend on.
func operatorFor(token string) Operator {
	if op, ok := operatorTokens[token]; ok {
		return op
	}
	return OpEqual
}

// Filter is a structured-query predicate: either a single field filter
// or an AND composite. Exactly one member is populated.
type Filter struct {
	FieldFilter     *FieldFilter     `json:"fieldFilter,omitempty"`
	CompositeFilter *CompositeFilter `json:"compositeFilter,omitempty"`
}

// FieldFilter is a single-field predicate.
type FieldFilter struct {
	Field FieldReference `json:"field"`
	Op    Operator       `json:"op"`
	Value WireValue      `json:"value"`
}

// FieldReference names the document field a filter applies to.
type FieldReference struct {
	FieldPath string `json:"fieldPath"`
}

// CompositeFilter AND-combines two or more field filters.
type CompositeFilter struct {
	Op      string   `json:"op"`
	Filters []Filter `json:"filters"`
}

// BuildEqualityFilter builds a predicate matching every field in the
// map for equality. An empty map yields nil (no predicate), one entry
// a bare field filter, and several entries an AND composite. Operands
// are ordered by sorted field name so the produced query is
// deterministic.
func BuildEqualityFilter(fields map[string]value.Value) *Filter {
	filters := make([]Filter, 0, len(fields))
	for _, name := range sortedKeys(fields) {
		filters = append(filters, fieldFilter(name, OpEqual, fields[name]))
	}
	return combineFilters(filters)
}

// BuildConditionFilter builds a predicate from an operator-annotated
// map. An entry whose value is a value.Map is an operator map: each
// inner key is an operator token ("<", ">=", "in", ...; unknown tokens
// mean EQUAL) paired with its operand, so one field may contribute
// several filters — both bounds of a range, for example. Any other
// entry contributes one EQUAL filter. All filters flatten into a
// single list: one survives bare, more are AND-combined.
func BuildConditionFilter(conditions map[string]value.Value) *Filter {
	var filters []Filter
	for _, name := range sortedKeys(conditions) {
		switch operand := conditions[name].(type) {
		case value.Map:
			for _, token := range sortedKeys(operand) {
				filters = append(filters, fieldFilter(name, operatorFor(token), operand[token]))
			}
		default:
			filters = append(filters, fieldFilter(name, OpEqual, operand))
		}
	}
	return combineFilters(filters)
}

func fieldFilter(name string, op Operator, operand value.Value) Filter {
	return Filter{FieldFilter: &FieldFilter{
		Field: FieldReference{FieldPath: name},
		Op:    op,
		Value: EncodeValue(operand),
	}}
}

// combineFilters collapses a filter list into the wire shape the query
// API expects: no predicate for an empty list, the bare field filter
// for a single entry, and an AND composite otherwise. A one-element
// composite is never produced.
func combineFilters(filters []Filter) *Filter {
	switch len(filters) {
	case 0:
		return nil
	case 1:
		return &filters[0]
	default:
		return &Filter{CompositeFilter: &CompositeFilter{Op: "AND", Filters: filters}}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// structuredQuery is the documents:runQuery request shape.
type structuredQuery struct {
	From    []collectionSelector `json:"from"`
	Where   *Filter              `json:"where,omitempty"`
	OrderBy []queryOrder         `json:"orderBy,omitempty"`
	Select  *queryProjection     `json:"select,omitempty"`
	Offset  int                  `json:"offset,omitempty"`
	Limit   int                  `json:"limit,omitempty"`
}

type collectionSelector struct {
	CollectionID string `json:"collectionId"`
}

type queryOrder struct {
	Field     FieldReference `json:"field"`
	Direction string         `json:"direction"`
}

type queryProjection struct {
	Fields []FieldReference `json:"fields"`
}

// QueryOptions describes a collection query declaratively. Where and
// Conditions both contribute predicates (all AND-combined); OrderBy,
// Limit, Offset, and Select map directly onto the structured query.
type QueryOptions struct {
	// Where adds one equality predicate per entry.
	Where map[string]value.Value

	// Conditions adds operator-annotated predicates, interpreted as in
	// BuildConditionFilter.
	Conditions map[string]value.Value

	// OrderBy names the field to sort on; empty means no ordering.
	OrderBy string

	// Descending reverses the sort. Only meaningful with OrderBy.
	Descending bool

	// Limit caps the number of returned documents; zero means no cap.
	Limit int

	// Offset skips the first N results; zero means none.
	Offset int

	// Select restricts returned fields to the named paths; empty
	// returns whole documents.
	Select []string
}

// buildQuery assembles the structured query for a collection from the
// declarative options.
func buildQuery(collection string, options QueryOptions) structuredQuery {
	var filters []Filter
	if equality := BuildEqualityFilter(options.Where); equality != nil {
		filters = append(filters, *equality)
	}
	if conditions := BuildConditionFilter(options.Conditions); conditions != nil {
		filters = append(filters, *conditions)
	}

	query := structuredQuery{
		From:   []collectionSelector{{CollectionID: collection}},
		Where:  combineFilters(filters),
		Offset: options.Offset,
		Limit:  options.Limit,
	}

	if options.OrderBy != "" {
		direction := "ASCENDING"
		if options.Descending {
			direction = "DESCENDING"
		}
		query.OrderBy = []queryOrder{{
			Field:     FieldReference{FieldPath: options.OrderBy},
			Direction: direction,
		}}
	}

	if len(options.Select) > 0 {
		projection := &queryProjection{Fields: make([]FieldReference, len(options.Select))}
		for i, path := range options.Select {
			projection.Fields[i] = FieldReference{FieldPath: path}
		}
		query.Select = projection
	}

	return query
}
