// Package gateway is the authenticated transport under every core-API call.
// It owns the service-account bearer token: fetched lazily on first use,
// replaced whenever the core API answers with an authorization failure, and
// never persisted anywhere.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/veilcare/counsel-relay-go/internal/config"
	apperrors "github.com/veilcare/counsel-relay-go/internal/errors"
)

// Credentials is the service-account login exchanged for a bearer token.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Response carries the final status and raw body back to the typed client.
// A non-2xx status after retries are exhausted is returned here as-is, not
// as an error; the typed client decides what it means.
type Response struct {
	StatusCode int
	Body       []byte
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Gateway sends authenticated requests to the core API, transparently
// refreshing the bearer token on {401, 403} and, unless disabled per
// request, 404. The core API surfaces some service-account auth failures as
// 404, so a refresh on 404 is usually right; the one route where 404 is a
// legitimate answer opts out via WithoutNotFoundRefresh.
type Gateway struct {
	tokenURL   string
	creds      Credentials
	maxRetries int
	client     *http.Client
	tokenHTTP  *http.Client

	mu    sync.Mutex
	token string
}

type Option func(*Gateway)

// WithHTTPClient substitutes the transport, used by tests.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) {
		g.client = c
		g.tokenHTTP = c
	}
}

func New(tokenURL string, creds Credentials, maxRetries int, opts ...Option) *Gateway {
	g := &Gateway{
		tokenURL:   tokenURL,
		creds:      creds,
		maxRetries: maxRetries,
		client:     &http.Client{Timeout: config.BackendRequestTimeout},
		tokenHTTP:  &http.Client{Timeout: config.TokenRequestTimeout},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type requestPolicy struct {
	refreshOnNotFound bool
}

type RequestOption func(*requestPolicy)

// WithoutNotFoundRefresh marks a request whose 404 responses mean "resource
// absent" rather than "token dead", so the gateway must not burn a refresh
// attempt on them.
func WithoutNotFoundRefresh() RequestOption {
	return func(p *requestPolicy) {
		p.refreshOnNotFound = false
	}
}

// Do sends one authenticated request. body, when non-nil, is JSON encoded.
// The only error paths are transport failures and a failing token endpoint;
// HTTP-level rejections come back inside Response.
func (g *Gateway) Do(ctx context.Context, method, url string, body any, opts ...RequestOption) (*Response, error) {
	policy := requestPolicy{refreshOnNotFound: true}
	for _, opt := range opts {
		opt(&policy)
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	token, err := g.currentToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := g.send(ctx, method, url, payload, token)
	if err != nil {
		return nil, err
	}

	retries := 0
	for g.shouldRefresh(resp.StatusCode, policy) && retries < g.maxRetries {
		retries++
		log.Debug().
			Int("status", resp.StatusCode).
			Int("retry", retries).
			Str("url", url).
			Msg("refreshing core api token after authorization failure")

		token, err = g.refreshToken(ctx, token)
		if err != nil {
			return nil, err
		}

		resp, err = g.send(ctx, method, url, payload, token)
		if err != nil {
			return nil, err
		}
	}

	return resp, nil
}

func (g *Gateway) shouldRefresh(status int, policy requestPolicy) bool {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	case http.StatusNotFound:
		return policy.refreshOnNotFound
	default:
		return false
	}
}

func (g *Gateway) send(ctx context.Context, method, url string, payload []byte, token string) (*Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("core api request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read core api response: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}

// currentToken returns the cached token, fetching one first if none exists.
func (g *Gateway) currentToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.token != "" {
		return g.token, nil
	}

	token, err := g.fetchToken(ctx)
	if err != nil {
		return "", err
	}
	g.token = token
	return token, nil
}

// refreshToken replaces the cached token, but only if no other caller has
// already done so: when many in-flight requests see the same dead token,
// exactly one of them pays for the refresh.
func (g *Gateway) refreshToken(ctx context.Context, stale string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.token != "" && g.token != stale {
		return g.token, nil
	}

	token, err := g.fetchToken(ctx)
	if err != nil {
		return "", err
	}
	g.token = token
	return token, nil
}

// fetchToken trades the service-account credentials for a bearer token. It
// is deliberately not retried: a dead token endpoint fails the whole call.
func (g *Gateway) fetchToken(ctx context.Context) (string, error) {
	payload, err := json.Marshal(g.creds)
	if err != nil {
		return "", apperrors.AuthFailure(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.tokenURL, bytes.NewReader(payload))
	if err != nil {
		return "", apperrors.AuthFailure(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.tokenHTTP.Do(req)
	if err != nil {
		return "", apperrors.AuthFailure(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.AuthFailure(fmt.Errorf("token endpoint returned status %d", resp.StatusCode))
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", apperrors.AuthFailure(fmt.Errorf("decode token response: %w", err))
	}
	if tok.AccessToken == "" {
		return "", apperrors.AuthFailure(fmt.Errorf("token endpoint returned an empty access_token"))
	}

	return tok.AccessToken, nil
}
