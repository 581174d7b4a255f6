// Copyright 2026 The Firerest Authors
// SPDX-License-Identifier: Apache-2.0

package firestore

import (
	"crypto/rand"
	"fmt"

	"github.com/lanternhq/firerest/lib/value"
)

// maxWritesPerBatch is the API's cap on writes in one batchWrite
// request. Composing exactly this many succeeds; one more is a
// *ValidationError.
const maxWritesPerBatch = 500

// Batch operation kinds.
const (
	BatchCreate = "create"
	BatchUpdate = "update"
	BatchDelete = "delete"
)

// BatchOperation describes one write in a batched request.
type BatchOperation struct {
	// Kind is one of BatchCreate, BatchUpdate, BatchDelete.
	Kind string

	// Collection is the target collection ID.
	Collection string

	// DocumentID names the target document. Required for update and
	// delete; optional for create, where an absent ID gets a
	// client-generated one.
	DocumentID string

	// Data carries the document fields. Required for create and
	// update.
	Data map[string]value.Value

	// Options adjusts update-mask behavior for update operations.
	Options *UpdateOptions
}

// UpdateOptions controls which fields an update touches.
type UpdateOptions struct {
	// Replace disables merge semantics: the write replaces the whole
	// document instead of only the supplied fields.
	Replace bool

	// Mask lists the field paths to touch, used verbatim when set.
	// Ignored when Replace is true.
	Mask []string
}

// Write is one entry of a documents:batchWrite request body.
type Write struct {
	Update          *writeDocument `json:"update,omitempty"`
	Delete          string         `json:"delete,omitempty"`
	UpdateMask      *documentMask  `json:"updateMask,omitempty"`
	CurrentDocument *precondition  `json:"currentDocument,omitempty"`
}

type writeDocument struct {
	Name   string               `json:"name"`
	Fields map[string]WireValue `json:"fields"`
}

type documentMask struct {
	FieldPaths []string `json:"fieldPaths"`
}

type precondition struct {
	Exists bool `json:"exists"`
}

// composeWrites translates batch operations into the API's write
// shapes. The parent is the documents resource path the targets live
// under ("projects/P/databases/D/documents").
//
// Creates carry an exists:false precondition so a duplicate ID is
// rejected by the database rather than silently overwritten. Updates
// carry a field mask chosen by precedence: full replacement when
// Options.Replace is set (no mask — the write touches everything), an
// explicit Options.Mask verbatim, and otherwise exactly the field
// names present in Data, which leaves unlisted existing fields
// untouched.
func composeWrites(parent string, operations []BatchOperation) ([]Write, error) {
	if len(operations) > maxWritesPerBatch {
		return nil, &ValidationError{Reason: fmt.Sprintf("%d operations exceed the batch limit of %d", len(operations), maxWritesPerBatch)}
	}

	writes := make([]Write, 0, len(operations))
	for i, op := range operations {
		write, err := composeWrite(parent, op)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		writes = append(writes, write)
	}
	return writes, nil
}

func composeWrite(parent string, op BatchOperation) (Write, error) {
	switch op.Kind {
	case BatchCreate:
		if op.Data == nil {
			return Write{}, &ValidationError{Reason: "create requires data"}
		}
		documentID := op.DocumentID
		if documentID == "" {
			documentID = autoDocumentID()
		}
		return Write{
			Update: &writeDocument{
				Name:   parent + "/" + op.Collection + "/" + documentID,
				Fields: EncodeFields(op.Data),
			},
			CurrentDocument: &precondition{Exists: false},
		}, nil

	case BatchUpdate:
		if op.Data == nil {
			return Write{}, &ValidationError{Reason: "update requires data"}
		}
		if op.DocumentID == "" {
			return Write{}, &ValidationError{Reason: "update requires a document ID"}
		}
		return Write{
			Update: &writeDocument{
				Name:   parent + "/" + op.Collection + "/" + op.DocumentID,
				Fields: EncodeFields(op.Data),
			},
			UpdateMask: updateMaskFor(op.Data, op.Options),
		}, nil

	case BatchDelete:
		if op.DocumentID == "" {
			return Write{}, &ValidationError{Reason: "delete requires a document ID"}
		}
		return Write{Delete: parent + "/" + op.Collection + "/" + op.DocumentID}, nil

	default:
		return Write{}, &ValidationError{Reason: fmt.Sprintf("unrecognized operation kind %q", op.Kind)}
	}
}

// updateMaskFor resolves the update-mask precedence. A nil result
// means no mask is sent and the write replaces the whole document.
func updateMaskFor(data map[string]value.Value, options *UpdateOptions) *documentMask {
	if options != nil && options.Replace {
		return nil
	}
	if options != nil && len(options.Mask) > 0 {
		return &documentMask{FieldPaths: options.Mask}
	}
	return &documentMask{FieldPaths: sortedKeys(data)}
}

// autoIDAlphabet matches the character set the official clients use
// for generated document IDs.
const autoIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const autoIDLength = 20

// autoDocumentID generates a random 20-character document ID for
// creates that do not name one.
func autoDocumentID() string {
	id := make([]byte, autoIDLength)
	if _, err := rand.Read(id); err != nil {
		// crypto/rand never fails on supported platforms.
		panic("firestore: reading random bytes: " + err.Error())
	}
	for i, b := range id {
		id[i] = autoIDAlphabet[int(b)%len(autoIDAlphabet)]
	}
	return string(id)
}

// WriteResult reports the outcome of one write in a batch, correlated
// to its input operation by position. The API returns writeResults and
// status arrays in request order; order preservation is an assumption
// of the API contract that the tests pin down.
type WriteResult struct {
	// Index is the position of the originating operation.
	Index int

	// UpdateTime is the commit time the API reported, when the write
	// succeeded.
	UpdateTime string

	// Code and Message mirror the google.rpc.Status for the write.
	// A zero Code means success.
	Code    int
	Message string
}

// Failed reports whether the write was rejected.
func (r WriteResult) Failed() bool { return r.Code != 0 }
