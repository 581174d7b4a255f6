// Copyright 2026 The Firerest Authors
// SPDX-License-Identifier: Apache-2.0

package firestore

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lanternhq/firerest/lib/clock"
	"github.com/lanternhq/firerest/lib/serviceaccount"
)

// defaultScope is the OAuth scope granting Firestore access.
const defaultScope = "https://www.googleapis.com/auth/datastore"

// bearerLifetime is the nominal lifetime of a Google access token.
const bearerLifetime = time.Hour

// bearerExpiryMargin is subtracted from the nominal lifetime when the
// token's expiry is recorded, so a token is refreshed 5 minutes before
// it would actually expire. Avoids races where a token dies
// mid-request.
const bearerExpiryMargin = 5 * time.Minute

// defaultAssertionLifetime is the validity window of the signed
// assertion itself.
const defaultAssertionLifetime = time.Hour

// jwtBearerGrantType is the OAuth2 grant exchanging a signed JWT for
// an access token (RFC 7523).
const jwtBearerGrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"

// tokenSource owns the credential lifecycle for one Client: it signs
// bearer assertions with the service-account key, exchanges them for
// access tokens at the token endpoint, and caches the token until a
// safety margin before expiry.
//
// All mutable state lives behind mu. Only one refresh is ever in
// flight, and readers observe either the previous valid token or the
// fully refreshed one, never a partial update.
type tokenSource struct {
	email             string
	key               *rsa.PrivateKey
	tokenURL          string
	scope             string
	assertionLifetime time.Duration
	httpClient        *http.Client
	clock             clock.Clock
	logger            *slog.Logger

	mu             sync.Mutex
	assertion      string
	token          string
	tokenExpiresAt time.Time
}

func newTokenSource(creds *serviceaccount.Credentials, scope string, assertionLifetime time.Duration, httpClient *http.Client, clk clock.Clock, logger *slog.Logger) (*tokenSource, error) {
	if creds == nil || creds.ClientEmail == "" {
		return nil, &AuthError{Op: "configuring", Err: errNoServiceAccount}
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(creds.PrivateKey))
	if err != nil {
		return nil, &AuthError{Op: "parsing private key", Err: err}
	}

	if scope == "" {
		scope = defaultScope
	}
	if assertionLifetime <= 0 {
		assertionLifetime = defaultAssertionLifetime
	}

	return &tokenSource{
		email:             creds.ClientEmail,
		key:               key,
		tokenURL:          creds.TokenURI,
		scope:             scope,
		assertionLifetime: assertionLifetime,
		httpClient:        httpClient,
		clock:             clk,
		logger:            logger,
	}, nil
}

var (
	errNoServiceAccount = errors.New("no service account configured")
	errNoExpiryClaim    = errors.New("assertion has no expiry claim")
	errEmptyToken       = errors.New("token endpoint returned an empty token")
)

// BearerToken returns a valid access token, refreshing it when the
// cached one is absent or past its recorded expiry. The recorded
// expiry already carries the safety margin, so the check here is a
// plain comparison. A cached, unexpired token is returned without any
// network traffic.
func (ts *tokenSource) BearerToken(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := ts.clock.Now()
	if ts.token != "" && now.Before(ts.tokenExpiresAt) {
		return ts.token, nil
	}

	if err := ts.ensureAssertion(now); err != nil {
		return "", err
	}

	token, err := ts.exchange(ctx)
	if err != nil {
		// The cache is left untouched on exchange failure; the caller
		// may retry the whole operation.
		return "", err
	}

	ts.token = token
	ts.tokenExpiresAt = now.Add(bearerLifetime - bearerExpiryMargin)
	ts.logger.Debug("refreshed bearer token", "expires_at", ts.tokenExpiresAt)
	return token, nil
}

// ensureAssertion issues a fresh signed assertion when none is cached
// or the cached one has expired. Must be called with ts.mu held.
func (ts *tokenSource) ensureAssertion(now time.Time) error {
	if ts.assertion != "" {
		expired, err := assertionExpired(ts.assertion, now)
		if err == nil && !expired {
			return nil
		}
		// An undecodable cached assertion is replaced, not surfaced:
		// issuing a new one is always safe.
	}

	assertion, err := ts.issueAssertion(now)
	if err != nil {
		return err
	}
	ts.assertion = assertion
	return nil
}

// issueAssertion builds and signs the RS256 bearer assertion: issuer is
// the service-account email, audience the token endpoint, with the
// configured scope and lifetime.
func (ts *tokenSource) issueAssertion(now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"iss":   ts.email,
		"scope": ts.scope,
		"aud":   ts.tokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(ts.assertionLifetime).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(ts.key)
	if err != nil {
		return "", &AuthError{Op: "signing assertion", Err: err}
	}
	return signed, nil
}

// assertionExpired reports whether the assertion's exp claim is at or
// before now. The signature is not verified — we produced the
// assertion ourselves; only the embedded expiry matters here. An
// assertion without a readable exp claim is an *AuthError.
func assertionExpired(assertion string, now time.Time) (bool, error) {
	token, _, err := jwt.NewParser().ParseUnverified(assertion, jwt.MapClaims{})
	if err != nil {
		return false, &AuthError{Op: "decoding assertion", Err: err}
	}
	expiry, err := token.Claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return false, &AuthError{Op: "decoding assertion", Err: errNoExpiryClaim}
	}
	return !now.Before(expiry.Time), nil
}

// exchange trades the cached assertion for an access token at the
// token endpoint. Must be called with ts.mu held.
func (ts *tokenSource) exchange(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type": {jwtBearerGrantType},
		"assertion":  {ts.assertion},
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &AuthError{Op: "token exchange", Err: err}
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := ts.httpClient.Do(request)
	if err != nil {
		return "", &AuthError{Op: "token exchange", Err: err}
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", &AuthError{Op: "token exchange", Err: err}
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return "", &AuthError{Op: "token exchange", Err: parseAPIError(response.StatusCode, body)}
	}

	var result struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", &AuthError{Op: "token exchange", Err: err}
	}
	if result.AccessToken == "" {
		return "", &AuthError{Op: "token exchange", Err: errEmptyToken}
	}
	return result.AccessToken, nil
}
