// Copyright 2026 The Firerest Authors
// SPDX-License-Identifier: Apache-2.0

package firestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/lanternhq/firerest/lib/value"
)

// documentBody is the request shape for document creation and patching.
type documentBody struct {
	Fields map[string]WireValue `json:"fields"`
}

// collectionPath returns the request path for a collection.
func (client *Client) collectionPath(collection string) string {
	return "/" + client.parent + "/" + collection
}

// documentPath returns the request path for a single document.
func (client *Client) documentPath(collection, documentID string) string {
	return client.collectionPath(collection) + "/" + documentID
}

// CreateDocument adds a document with a server-assigned ID and returns
// that ID.
func (client *Client) CreateDocument(ctx context.Context, collection string, data map[string]value.Value) (string, error) {
	var created wireDocument
	err := client.post(ctx, client.collectionPath(collection), documentBody{Fields: EncodeFields(data)}, &created)
	if err != nil {
		return "", err
	}
	return documentID(created.Name), nil
}

// SetDocument writes a document under the given ID, creating it or
// fully replacing its current contents.
func (client *Client) SetDocument(ctx context.Context, collection, documentID string, data map[string]value.Value) error {
	return client.patch(ctx, client.documentPath(collection, documentID), documentBody{Fields: EncodeFields(data)}, nil)
}

// GetDocument fetches one document. An absent document surfaces as an
// *APIError satisfying IsNotFound.
func (client *Client) GetDocument(ctx context.Context, collection, documentID string) (*Document, error) {
	var doc wireDocument
	if err := client.get(ctx, client.documentPath(collection, documentID), &doc); err != nil {
		return nil, err
	}
	return parseDocument(&doc, client.logger)
}

// UpdateDocument patches a document. Which fields the write touches
// follows the update-mask precedence: Options.Replace set means the
// whole document is replaced; an explicit Options.Mask is used
// verbatim; otherwise exactly the fields present in data are written
// and everything else is left untouched (merge semantics).
func (client *Client) UpdateDocument(ctx context.Context, collection, documentID string, data map[string]value.Value, options *UpdateOptions) error {
	path := client.documentPath(collection, documentID)
	if mask := updateMaskFor(data, options); mask != nil {
		query := url.Values{}
		for _, fieldPath := range mask.FieldPaths {
			query.Add("updateMask.fieldPaths", fieldPath)
		}
		path += "?" + query.Encode()
	}
	return client.patch(ctx, path, documentBody{Fields: EncodeFields(data)}, nil)
}

// DeleteDocument removes a document. Deleting an absent document is
// not an error — the API treats the delete as already applied.
func (client *Client) DeleteDocument(ctx context.Context, collection, documentID string) error {
	return client.delete(ctx, client.documentPath(collection, documentID))
}

// ListDocuments fetches every document in a collection.
func (client *Client) ListDocuments(ctx context.Context, collection string) ([]*Document, error) {
	var listing struct {
		Documents []wireDocument `json:"documents"`
	}
	if err := client.get(ctx, client.collectionPath(collection), &listing); err != nil {
		return nil, err
	}

	documents := make([]*Document, 0, len(listing.Documents))
	for i := range listing.Documents {
		doc, err := parseDocument(&listing.Documents[i], client.logger)
		if err != nil {
			client.logger.Warn("skipping undecodable document in listing", "error", err)
			continue
		}
		documents = append(documents, doc)
	}
	return documents, nil
}

// QueryDocuments runs a structured query against a collection.
func (client *Client) QueryDocuments(ctx context.Context, collection string, options QueryOptions) ([]*Document, error) {
	request := struct {
		StructuredQuery structuredQuery `json:"structuredQuery"`
	}{StructuredQuery: buildQuery(collection, options)}

	body, err := client.do(ctx, http.MethodPost, "/"+client.parent+":runQuery", request)
	if err != nil {
		return nil, err
	}
	return parseQueryResponse(body, client.logger)
}

// FindDocuments runs an operator-annotated query: each entry of
// conditions is either a plain value (equality) or a value.Map of
// operator tokens to operands.
func (client *Client) FindDocuments(ctx context.Context, collection string, conditions map[string]value.Value) ([]*Document, error) {
	return client.QueryDocuments(ctx, collection, QueryOptions{Conditions: conditions})
}

// CountDocuments counts the documents matching the equality predicate
// without transferring them, via a server-side count aggregation.
func (client *Client) CountDocuments(ctx context.Context, collection string, where map[string]value.Value) (int64, error) {
	type aggregation struct {
		Alias string   `json:"alias"`
		Count struct{} `json:"count"`
	}
	request := struct {
		StructuredAggregationQuery struct {
			StructuredQuery structuredQuery `json:"structuredQuery"`
			Aggregations    []aggregation   `json:"aggregations"`
		} `json:"structuredAggregationQuery"`
	}{}
	request.StructuredAggregationQuery.StructuredQuery = buildQuery(collection, QueryOptions{Where: where})
	request.StructuredAggregationQuery.Aggregations = []aggregation{{Alias: "count"}}

	body, err := client.do(ctx, http.MethodPost, "/"+client.parent+":runAggregationQuery", request)
	if err != nil {
		return 0, err
	}
	return parseCountResponse(body)
}

// parseCountResponse extracts the count aggregate from a
// runAggregationQuery response, which carries the same
// object-or-array variance as runQuery.
func parseCountResponse(body []byte) (int64, error) {
	type aggregationResult struct {
		Result struct {
			AggregateFields map[string]WireValue `json:"aggregateFields"`
		} `json:"result"`
	}

	trimmed := bytes.TrimSpace(body)
	var results []aggregationResult
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var single aggregationResult
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return 0, fmt.Errorf("firestore: decoding aggregation response: %w", err)
		}
		results = []aggregationResult{single}
	} else if err := json.Unmarshal(trimmed, &results); err != nil {
		return 0, fmt.Errorf("firestore: decoding aggregation response: %w", err)
	}

	for _, result := range results {
		wire, ok := result.Result.AggregateFields["count"]
		if !ok {
			continue
		}
		decoded, err := DecodeValue(wire)
		if err != nil {
			return 0, err
		}
		count, ok := decoded.(value.Int)
		if !ok {
			return 0, &DecodeError{Reason: fmt.Sprintf("count aggregate decoded to %T, want integer", decoded)}
		}
		return int64(count), nil
	}
	return 0, fmt.Errorf("firestore: aggregation response carries no count aggregate")
}

// BatchWrite applies up to 500 create, update, and delete operations
// in one request. Writes are applied non-atomically; per-write
// outcomes are returned in input order, correlated positionally with
// the request (the API preserves order — pinned by tests, since the
// contract does not spell it out).
func (client *Client) BatchWrite(ctx context.Context, operations []BatchOperation) ([]WriteResult, error) {
	writes, err := composeWrites(client.parent, operations)
	if err != nil {
		return nil, err
	}

	request := struct {
		Writes []Write `json:"writes"`
	}{Writes: writes}

	var response struct {
		WriteResults []struct {
			UpdateTime string `json:"updateTime"`
		} `json:"writeResults"`
		Status []struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"status"`
	}
	if err := client.post(ctx, "/"+client.parent+":batchWrite", request, &response); err != nil {
		return nil, err
	}

	results := make([]WriteResult, len(writes))
	for i := range results {
		results[i].Index = i
		if i < len(response.WriteResults) {
			results[i].UpdateTime = response.WriteResults[i].UpdateTime
		}
		if i < len(response.Status) {
			results[i].Code = response.Status[i].Code
			results[i].Message = response.Status[i].Message
		}
	}
	return results, nil
}
