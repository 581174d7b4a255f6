// Copyright 2026 The Firerest Authors
// SPDX-License-Identifier: Apache-2.0

package firestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lanternhq/firerest/lib/clock"
	"github.com/lanternhq/firerest/lib/serviceaccount"
)

// defaultBaseURL is the public Firestore REST endpoint.
const defaultBaseURL = "https://firestore.googleapis.com/v1"

// defaultDatabaseID is the database every project starts with.
const defaultDatabaseID = "(default)"

// Config holds configuration for creating a Client.
//
// Exactly one credential source must be configured: either Credentials
// (an already-loaded service-account key) or CredentialsFile (a path
// to one). ProjectID is always required.
type Config struct {
	// ProjectID is the Google Cloud project the documents live in.
	ProjectID string

	// DatabaseID selects the Firestore database. Defaults to
	// "(default)".
	DatabaseID string

	// BaseURL is the root URL for API requests. Defaults to
	// "https://firestore.googleapis.com/v1". Must use HTTPS.
	BaseURL string

	// Credentials is an already-loaded service-account key. Mutually
	// exclusive with CredentialsFile.
	Credentials *serviceaccount.Credentials

	// CredentialsFile is a path to a service-account key file.
	// Mutually exclusive with Credentials.
	CredentialsFile string

	// Scope is the OAuth scope requested in the bearer assertion.
	// Defaults to the Firestore data scope.
	Scope string

	// AssertionLifetime is the validity window of signed assertions.
	// Defaults to one hour.
	AssertionLifetime time.Duration

	// HTTPClient is used for all HTTP requests, including token
	// exchange. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Clock provides time operations. Defaults to clock.Real().
	// Inject clock.Fake() in tests for deterministic expiry behavior.
	Clock clock.Clock

	// Logger is used for structured logging. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Client is a typed Firestore REST API client with automatic
// credential rotation, declarative query building, and structured
// error handling. Safe for concurrent use.
type Client struct {
	baseURL    string
	parent     string
	httpClient *http.Client
	tokens     *tokenSource
	clock      clock.Clock
	logger     *slog.Logger
}

// NewClient creates a Firestore API client from the given
// configuration. Returns an error if the configuration is invalid
// (missing project, bad credential config, non-HTTPS URL, unparseable
// private key).
func NewClient(config Config) (*Client, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	if !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("firestore: API client requires HTTPS (got %q)", baseURL)
	}

	if config.ProjectID == "" {
		return nil, fmt.Errorf("firestore: ProjectID is required")
	}

	databaseID := config.DatabaseID
	if databaseID == "" {
		databaseID = defaultDatabaseID
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Resolve credentials: exactly one source.
	if config.Credentials != nil && config.CredentialsFile != "" {
		return nil, fmt.Errorf("firestore: cannot configure both Credentials and CredentialsFile")
	}
	creds := config.Credentials
	if creds == nil {
		if config.CredentialsFile == "" {
			return nil, fmt.Errorf("firestore: no credentials configured (set Credentials or CredentialsFile)")
		}
		loaded, err := serviceaccount.FromFile(config.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("firestore: %w", err)
		}
		creds = loaded
	}

	tokens, err := newTokenSource(creds, config.Scope, config.AssertionLifetime, httpClient, clk, logger)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:    baseURL,
		parent:     "projects/" + config.ProjectID + "/databases/" + databaseID + "/documents",
		httpClient: httpClient,
		tokens:     tokens,
		clock:      clk,
		logger:     logger,
	}, nil
}

// do executes an authenticated API request. The path is relative to
// the base URL (e.g. "/projects/P/databases/D/documents/users/alice").
// A non-nil requestBody is JSON-encoded. Non-2xx responses return an
// *APIError carrying the decoded status and message.
func (client *Client) do(ctx context.Context, method, path string, requestBody any) ([]byte, error) {
	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("firestore: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, client.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("firestore: creating request: %w", err)
	}

	token, err := client.tokens.BearerToken(ctx)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Authorization", "Bearer "+token)
	request.Header.Set("Accept", "application/json")
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("firestore: %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("firestore: reading response body: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, parseAPIError(response.StatusCode, body)
	}

	return body, nil
}

// get is a convenience method for GET requests that return a single
// JSON object. Decodes the response into result.
func (client *Client) get(ctx context.Context, path string, result any) error {
	body, err := client.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, result)
}

// post is a convenience method for POST requests. Decodes the response
// into result when result is non-nil.
func (client *Client) post(ctx context.Context, path string, requestBody any, result any) error {
	body, err := client.do(ctx, http.MethodPost, path, requestBody)
	if err != nil {
		return err
	}
	if result != nil {
		return json.Unmarshal(body, result)
	}
	return nil
}

// patch is a convenience method for PATCH requests. Decodes the
// response into result when result is non-nil.
func (client *Client) patch(ctx context.Context, path string, requestBody any, result any) error {
	body, err := client.do(ctx, http.MethodPatch, path, requestBody)
	if err != nil {
		return err
	}
	if result != nil {
		return json.Unmarshal(body, result)
	}
	return nil
}

// delete is a convenience method for DELETE requests.
func (client *Client) delete(ctx context.Context, path string) error {
	_, err := client.do(ctx, http.MethodDelete, path, nil)
	return err
}
