// Copyright 2026 The Firerest Authors
// SPDX-License-Identifier: Apache-2.0

// Package serviceaccount loads Google service-account credentials from
// a JSON key file or from the environment.
//
// Loading is deliberately explicit: FromFile reads one named file,
// FromEnv reads the documented environment variables (consulting a
// local .env file first). There is no search across implicit
// well-known paths beyond the documented fallbacks in FromEnv.
package serviceaccount

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables consulted by FromEnv.
const (
	// EnvCredentialsJSON holds the full service-account key JSON inline.
	EnvCredentialsJSON = "FIRESTORE_SERVICE_ACCOUNT"

	// EnvCredentialsFile holds a path to a service-account key file.
	// This matches the variable the Google SDKs use.
	EnvCredentialsFile = "GOOGLE_APPLICATION_CREDENTIALS"
)

// defaultTokenURI is Google's OAuth2 token endpoint, used when the key
// file omits token_uri (old-style keys).
const defaultTokenURI = "https://oauth2.googleapis.com/token"

// Credentials is the subset of a Google service-account key file the
// connector needs: the signing identity and key, the project, and the
// token endpoint the signed assertion is exchanged at.
type Credentials struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri"`
}

// FromJSON parses a service-account key from its JSON form and
// validates the fields the connector cannot operate without.
func FromJSON(data []byte) (*Credentials, error) {
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("serviceaccount: parsing key JSON: %w", err)
	}
	if creds.ClientEmail == "" {
		return nil, fmt.Errorf("serviceaccount: key is missing client_email")
	}
	if creds.PrivateKey == "" {
		return nil, fmt.Errorf("serviceaccount: key is missing private_key")
	}
	if creds.TokenURI == "" {
		creds.TokenURI = defaultTokenURI
	}
	return &creds, nil
}

// FromFile loads a service-account key from the named JSON file.
func FromFile(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("serviceaccount: reading key file: %w", err)
	}
	creds, err := FromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("serviceaccount: %s: %w", path, err)
	}
	return creds, nil
}

// FromEnv loads credentials from the environment. A .env file in the
// working directory is loaded first if present (it never overrides
// variables already set in the process environment). The inline JSON
// variable wins over the file-path variable.
func FromEnv() (*Credentials, error) {
	// Missing .env is not an error; the process environment may
	// already carry the variables.
	_ = godotenv.Load()

	if inline := os.Getenv(EnvCredentialsJSON); inline != "" {
		return FromJSON([]byte(inline))
	}
	if path := os.Getenv(EnvCredentialsFile); path != "" {
		return FromFile(path)
	}
	return nil, fmt.Errorf("serviceaccount: neither %s nor %s is set", EnvCredentialsJSON, EnvCredentialsFile)
}
