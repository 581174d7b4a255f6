// Copyright 2026 The Firerest Authors
// SPDX-License-Identifier: Apache-2.0

package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lanternhq/firerest/lib/value"
)

// fakeFirestore is an httptest handler standing in for the Firestore
// REST frontend plus the OAuth token endpoint. Each test installs its
// own handle func for the API paths; /token always succeeds.
type fakeFirestore struct {
	handle func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeFirestore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/token" {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"test-token","token_type":"Bearer","expires_in":3600}`)
		return
	}
	if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
		http.Error(w, "missing bearer token: "+got, http.StatusUnauthorized)
		return
	}
	f.handle(w, r)
}

func newFakeFirestore(t *testing.T) (*fakeFirestore, *Client) {
	t.Helper()
	fake := &fakeFirestore{}
	server := httptest.NewTLSServer(fake)
	t.Cleanup(server.Close)
	return fake, newTestClient(t, server)
}

const testDocumentsPath = "/projects/demo-project/databases/(default)/documents"

func TestGetDocument(t *testing.T) {
	fake, client := newFakeFirestore(t)
	fake.handle = func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != testDocumentsPath+"/users/alice" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		fmt.Fprint(w, `{
			"name": "projects/demo-project/databases/(default)/documents/users/alice",
			"fields": {"name": {"stringValue": "Alice"}, "age": {"integerValue": "29"}},
			"createTime": "2026-03-01T12:00:00Z",
			"updateTime": "2026-03-01T12:00:00Z"
		}`)
	}

	doc, err := client.GetDocument(context.Background(), "users", "alice")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc.ID != "alice" {
		t.Errorf("ID = %q, want alice", doc.ID)
	}
	if got := doc.Fields["age"]; got == nil || !got.Equal(value.Int(29)) {
		t.Errorf("age = %v, want 29", got)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	fake, client := newFakeFirestore(t)
	fake.handle = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"code":404,"message":"Document not found","status":"NOT_FOUND"}}`)
	}

	_, err := client.GetDocument(context.Background(), "users", "ghost")
	if !IsNotFound(err) {
		t.Errorf("GetDocument(absent) = %v, want IsNotFound", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != "NOT_FOUND" {
		t.Errorf("error detail = %+v, want decoded status", err)
	}
}

func TestCreateDocument(t *testing.T) {
	fake, client := newFakeFirestore(t)
	fake.handle = func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != testDocumentsPath+"/users" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"stringValue":"Alice"`) {
			t.Errorf("request body missing encoded field: %s", body)
		}
		fmt.Fprint(w, `{
			"name": "projects/demo-project/databases/(default)/documents/users/GeneratedId123",
			"fields": {"name": {"stringValue": "Alice"}}
		}`)
	}

	id, err := client.CreateDocument(context.Background(), "users", map[string]value.Value{
		"name": value.String("Alice"),
	})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if id != "GeneratedId123" {
		t.Errorf("id = %q, want the server-assigned ID", id)
	}
}

func TestUpdateDocumentMaskInQuery(t *testing.T) {
	fake, client := newFakeFirestore(t)

	var gotMask []string
	fake.handle = func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s, want PATCH", r.Method)
		}
		gotMask = r.URL.Query()["updateMask.fieldPaths"]
		fmt.Fprint(w, `{"name":"projects/demo-project/databases/(default)/documents/users/alice","fields":{}}`)
	}

	data := map[string]value.Value{"age": value.Int(29), "city": value.String("Boston")}

	// Default: mask is exactly the supplied fields.
	if err := client.UpdateDocument(context.Background(), "users", "alice", data, nil); err != nil {
		t.Fatal(err)
	}
	if len(gotMask) != 2 || gotMask[0] != "age" || gotMask[1] != "city" {
		t.Errorf("default mask = %v, want [age city]", gotMask)
	}

	// Explicit mask wins over the data's key set.
	err := client.UpdateDocument(context.Background(), "users", "alice", data, &UpdateOptions{Mask: []string{"age"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(gotMask) != 1 || gotMask[0] != "age" {
		t.Errorf("explicit mask = %v, want [age]", gotMask)
	}

	// Replace: no mask parameter at all.
	err = client.UpdateDocument(context.Background(), "users", "alice", data, &UpdateOptions{Replace: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(gotMask) != 0 {
		t.Errorf("replace mask = %v, want none", gotMask)
	}
}

func TestDeleteDocument(t *testing.T) {
	fake, client := newFakeFirestore(t)
	fake.handle = func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != testDocumentsPath+"/users/alice" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		fmt.Fprint(w, `{}`)
	}
	if err := client.DeleteDocument(context.Background(), "users", "alice"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
}

func TestListDocuments(t *testing.T) {
	fake, client := newFakeFirestore(t)
	fake.handle = func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"documents":[
			{"name":"p/d/documents/users/a","fields":{"n":{"integerValue":"1"}}},
			{"name":"p/d/documents/users/b","fields":{"n":{"integerValue":"2"}}}
		]}`)
	}

	docs, err := client.ListDocuments(context.Background(), "users")
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "a" || docs[1].ID != "b" {
		t.Errorf("docs = %+v, want a and b", docs)
	}
}

func TestQueryDocuments(t *testing.T) {
	fake, client := newFakeFirestore(t)

	var gotRequest map[string]any
	fake.handle = func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != testDocumentsPath+":runQuery" {
			t.Errorf("path = %s, want :runQuery", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		fmt.Fprint(w, `[
			{"document":{"name":"p/d/documents/users/a","fields":{"active":{"booleanValue":true}}}},
			{"readTime":"2026-03-01T12:00:00Z"}
		]`)
	}

	docs, err := client.QueryDocuments(context.Background(), "users", QueryOptions{
		Where: map[string]value.Value{"active": value.Bool(true)},
		Limit: 10,
	})
	if err != nil {
		t.Fatalf("QueryDocuments: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "a" {
		t.Errorf("docs = %+v, want the one real document", docs)
	}

	query, _ := gotRequest["structuredQuery"].(map[string]any)
	if query == nil {
		t.Fatalf("request carries no structuredQuery: %v", gotRequest)
	}
	if _, hasWhere := query["where"]; !hasWhere {
		t.Error("structuredQuery carries no where clause")
	}
	if got := query["limit"]; got != float64(10) {
		t.Errorf("limit = %v, want 10", got)
	}
}

func TestFindDocuments(t *testing.T) {
	fake, client := newFakeFirestore(t)

	var body []byte
	fake.handle = func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, `[]`)
	}

	_, err := client.FindDocuments(context.Background(), "users", map[string]value.Value{
		"age": value.Map{">=": value.Int(18)},
	})
	if err != nil {
		t.Fatalf("FindDocuments: %v", err)
	}
	if !strings.Contains(string(body), `"op":"GREATER_THAN_OR_EQUAL"`) {
		t.Errorf("request body missing translated operator: %s", body)
	}
}

func TestCountDocuments(t *testing.T) {
	fake, client := newFakeFirestore(t)
	fake.handle = func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != testDocumentsPath+":runAggregationQuery" {
			t.Errorf("path = %s, want :runAggregationQuery", r.URL.Path)
		}
		fmt.Fprint(w, `[{"result":{"aggregateFields":{"count":{"integerValue":"42"}}}}]`)
	}

	count, err := client.CountDocuments(context.Background(), "users", nil)
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if count != 42 {
		t.Errorf("count = %d, want 42", count)
	}
}

func TestBatchWritePositionalCorrelation(t *testing.T) {
	fake, client := newFakeFirestore(t)
	fake.handle = func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != testDocumentsPath+":batchWrite" {
			t.Errorf("path = %s, want :batchWrite", r.URL.Path)
		}
		var request struct {
			Writes []Write `json:"writes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if len(request.Writes) != 2 {
			t.Errorf("request carries %d writes, want 2", len(request.Writes))
		}
		// Results come back in request order: the contract the
		// correlation relies on.
		fmt.Fprint(w, `{
			"writeResults": [{"updateTime":"2026-03-01T12:00:00Z"}, {}],
			"status": [{}, {"code":6,"message":"Document already exists"}]
		}`)
	}

	results, err := client.BatchWrite(context.Background(), []BatchOperation{
		{Kind: BatchDelete, Collection: "users", DocumentID: "alice"},
		{Kind: BatchCreate, Collection: "users", DocumentID: "bob", Data: map[string]value.Value{"n": value.Int(1)}},
	})
	if err != nil {
		t.Fatalf("BatchWrite: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Failed() || results[0].UpdateTime == "" {
		t.Errorf("result 0 = %+v, want success with update time", results[0])
	}
	if !results[1].Failed() || results[1].Index != 1 {
		t.Errorf("result 1 = %+v, want positional failure", results[1])
	}
	if !strings.Contains(results[1].Message, "already exists") {
		t.Errorf("result 1 message = %q", results[1].Message)
	}
}

func TestAPIErrorSurfacesStatusAndBody(t *testing.T) {
	fake, client := newFakeFirestore(t)
	fake.handle = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"code":400,"message":"invalid filter","status":"INVALID_ARGUMENT"}}`)
	}

	_, err := client.QueryDocuments(context.Background(), "users", QueryOptions{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != 400 || apiErr.Status != "INVALID_ARGUMENT" || apiErr.Message != "invalid filter" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}
