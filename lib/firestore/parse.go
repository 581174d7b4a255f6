// Copyright 2026 The Firerest Authors
// SPDX-License-Identifier: Apache-2.0

package firestore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lanternhq/firerest/lib/value"
)

// Document is a decoded Firestore document.
type Document struct {
	// Name is the full resource path
	// ("projects/P/databases/D/documents/collection/id").
	Name string

	// ID is the last segment of Name.
	ID string

	// Fields holds the decoded document data. Fields whose wire value
	// failed to decode are absent — see parseDocument.
	Fields map[string]value.Value

	// CreateTime and UpdateTime are the server-reported revision
	// times, zero when the response omits them.
	CreateTime time.Time
	UpdateTime time.Time
}

// wireDocument is the API's document envelope.
type wireDocument struct {
	Name       string               `json:"name"`
	Fields     map[string]WireValue `json:"fields"`
	CreateTime time.Time            `json:"createTime"`
	UpdateTime time.Time            `json:"updateTime"`
}

// parseDocument decodes a document envelope. Individual fields that
// fail to decode are skipped with a warning — partial data beats no
// data for reads — but an envelope with no fields member at all is a
// *DecodeError.
func parseDocument(doc *wireDocument, logger *slog.Logger) (*Document, error) {
	if doc.Fields == nil {
		return nil, &DecodeError{Reason: fmt.Sprintf("document %q has no fields", doc.Name)}
	}

	fields := make(map[string]value.Value, len(doc.Fields))
	for name, wireValue := range doc.Fields {
		decoded, err := DecodeValue(wireValue)
		if err != nil {
			logger.Warn("skipping undecodable document field",
				"document", doc.Name,
				"field", name,
				"error", err,
			)
			continue
		}
		fields[name] = decoded
	}

	return &Document{
		Name:       doc.Name,
		ID:         documentID(doc.Name),
		Fields:     fields,
		CreateTime: doc.CreateTime,
		UpdateTime: doc.UpdateTime,
	}, nil
}

// documentID extracts the document ID from a resource path: the
// segment after the last slash.
func documentID(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// queryResult is one element of a documents:runQuery response. Elements
// carrying only readTime or transaction metadata have no document.
type queryResult struct {
	Document *wireDocument `json:"document"`
}

// parseQueryResponse decodes a runQuery response body. The API returns
// a JSON array when streamed through the REST frontend but a single
// object in some proxied configurations; both shapes normalize to a
// list. Elements without a document member are skipped, as is any
// document that fails to parse as an envelope.
func parseQueryResponse(body []byte, logger *slog.Logger) ([]*Document, error) {
	results, err := normalizeQueryResults(body)
	if err != nil {
		return nil, err
	}

	documents := make([]*Document, 0, len(results))
	for _, result := range results {
		if result.Document == nil {
			continue
		}
		doc, err := parseDocument(result.Document, logger)
		if err != nil {
			logger.Warn("skipping undecodable query result", "error", err)
			continue
		}
		documents = append(documents, doc)
	}
	return documents, nil
}

func normalizeQueryResults(body []byte) ([]queryResult, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var single queryResult
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, fmt.Errorf("firestore: decoding query response: %w", err)
		}
		return []queryResult{single}, nil
	}

	var results []queryResult
	if err := json.Unmarshal(trimmed, &results); err != nil {
		return nil, fmt.Errorf("firestore: decoding query response: %w", err)
	}
	return results, nil
}
