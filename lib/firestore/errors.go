// Copyright 2026 The Firerest Authors
// SPDX-License-Identifier: Apache-2.0

package firestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// DecodeError reports a malformed typed wire value. Inside the
// response parser these are field-local: the bad field is skipped and
// the rest of the document is still returned. Callers see a
// DecodeError only when they invoke DecodeValue directly.
type DecodeError struct {
	// Reason describes what was wrong with the envelope.
	Reason string
}

func (err *DecodeError) Error() string {
	return "firestore: decoding wire value: " + err.Reason
}

// ValidationError reports a batch-write input the API would reject:
// too many operations, a create or update without data, a delete
// without a document ID, or an unrecognized operation kind. Fatal to
// the one call that produced it.
type ValidationError struct {
	Reason string
}

func (err *ValidationError) Error() string {
	return "firestore: invalid batch operation: " + err.Reason
}

// AuthError reports a credential failure: missing signing identity,
// an assertion that cannot be signed or decoded, or a failed token
// exchange. The credential cache is never mutated on an AuthError,
// and the exchange is never retried internally — the caller may retry
// the whole operation.
type AuthError struct {
	// Op names the credential step that failed ("signing assertion",
	// "token exchange", ...).
	Op  string
	Err error
}

func (err *AuthError) Error() string {
	return fmt.Sprintf("firestore: auth: %s: %v", err.Op, err.Err)
}

func (err *AuthError) Unwrap() error { return err.Err }

// APIError represents a non-2xx response from the Firestore REST API.
// Google returns structured JSON error bodies with a numeric code, a
// message, and a canonical status string (e.g. "NOT_FOUND").
type APIError struct {
	// StatusCode is the HTTP response status code.
	StatusCode int

	// Status is the canonical google.rpc status string, when present.
	Status string

	// Message is the error description from the API.
	Message string
}

func (err *APIError) Error() string {
	if err.Status != "" {
		return fmt.Sprintf("firestore: HTTP %d %s: %s", err.StatusCode, err.Status, err.Message)
	}
	return fmt.Sprintf("firestore: HTTP %d: %s", err.StatusCode, err.Message)
}

// IsNotFound reports whether err is a Firestore API 404 response.
// Callers branch on this to distinguish an absent document from a
// genuine failure.
func IsNotFound(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == http.StatusNotFound
}

// parseAPIError builds an *APIError from a non-2xx response body.
// Bodies that are not the documented error shape are carried verbatim
// in Message so no context is lost.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiError := &APIError{StatusCode: statusCode}

	var wireError struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &wireError) == nil && wireError.Error.Message != "" {
		apiError.Message = wireError.Error.Message
		apiError.Status = wireError.Error.Status
	} else {
		apiError.Message = string(body)
	}

	return apiError
}
