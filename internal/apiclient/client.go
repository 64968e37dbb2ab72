// Package apiclient is the typed HTTP client the session layer uses to talk
// to the application backend. Every request carries a bearer ID token; a 401
// triggers exactly one forced token refresh and one retry before the failure
// surfaces.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/srujanreddynadipi/Crime-Net-Backend/internal/role"
)

const defaultTimeout = 30 * time.Second

// ErrUnauthorized is returned when the backend still rejects the request
// after the single refresh-and-retry.
var ErrUnauthorized = errors.New("apiclient: unauthorized")

// TokenSource supplies the current ID token and can force a re-issue that
// picks up claims changed since the last issuance.
type TokenSource interface {
	IDToken(ctx context.Context) (string, error)
	ForceRefresh(ctx context.Context) (string, error)
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	UID      string `json:"uid"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	Role     string `json:"role,omitempty"`
}

// VerifyResponse is the canonical role-resolution result.
type VerifyResponse struct {
	UID   string    `json:"uid"`
	Email string    `json:"email"`
	Role  role.Role `json:"role"`
}

// Client wraps the backend REST surface.
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (useful for tests).
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) {
		if httpc != nil {
			c.httpc = httpc
		}
	}
}

// New builds a Client for the given base URL.
func New(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("apiclient: base url is required")
	}
	if tokens == nil {
		return nil, errors.New("apiclient: token source is required")
	}
	c := &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: defaultTimeout},
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Register creates or confirms the user profile after identity sign-up.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (VerifyResponse, error) {
	var out VerifyResponse
	if err := c.post(ctx, "/api/auth/register", req, &out); err != nil {
		return VerifyResponse{}, err
	}
	return out, nil
}

// Verify asks the backend to decode the presented token and return the
// canonical role. The bearer token carries the identity; there is no body.
func (c *Client) Verify(ctx context.Context) (VerifyResponse, error) {
	var out VerifyResponse
	if err := c.post(ctx, "/api/auth/verify", nil, &out); err != nil {
		return VerifyResponse{}, err
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}

	token, err := c.tokens.IDToken(ctx)
	if err != nil {
		return fmt.Errorf("obtain token: %w", err)
	}

	resp, err := c.do(ctx, path, payload, token)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		// One forced refresh, one retry; a second 401 surfaces.
		token, err = c.tokens.ForceRefresh(ctx)
		if err != nil {
			return fmt.Errorf("refresh token: %w", err)
		}
		resp, err = c.do(ctx, path, payload, token)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			drain(resp)
			return ErrUnauthorized
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) do(ctx context.Context, path string, payload []byte, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	return c.httpc.Do(req)
}

func decodeError(resp *http.Response) error {
	defer resp.Body.Close()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("backend: %s (status %d)", body.Error, resp.StatusCode)
	}
	return fmt.Errorf("backend: unexpected status %d", resp.StatusCode)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
