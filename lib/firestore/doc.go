// Copyright 2026 The Firerest Authors
// SPDX-License-Identifier: Apache-2.0

// Package firestore provides a typed Go client for the Firestore REST
// API (firestore.googleapis.com/v1).
//
// The client authenticates as a Google service account: it signs a
// short-lived RS256 JWT assertion, exchanges it at the OAuth2 token
// endpoint for a bearer token, and caches the token with a safety
// margin so requests never ride an about-to-expire credential.
//
// Document values cross the API boundary as the tagged union defined
// in lib/value; the codec in this package converts between that union
// and the API's typed wire envelopes (stringValue, integerValue, and
// so on). Query filters and batched writes are built from declarative
// descriptions into the structured-query and structured-write JSON
// shapes.
//
// All requests are made over HTTPS. The client refuses non-HTTPS base
// URLs. There is no retry or backoff policy: a failed call surfaces to
// the caller, who owns the decision to retry the whole operation.
package firestore
