package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Session is the part of the session store the client needs: the token to
// attach and a way to drop it when the server rejects it.
type Session interface {
	Token() string
	ClearAuth() error
}

// Client sends requests to the gym API and unwraps its response envelope.
// It never retries and never caches; every call is one round trip.
type Client struct {
	baseURL string
	http    *http.Client
	session Session
	log     zerolog.Logger
	timeout time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every round trip. It applies to a client passed with
// WithHTTPClient too, without modifying the caller's copy.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New returns a client for baseURL (e.g. http://localhost:8080/api/v1).
func New(baseURL string, session Session, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		session: session,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c
}

// BaseURL returns the prefix every path is appended to.
func (c *Client) BaseURL() string { return c.baseURL }

// publicPaths never carry the bearer token.
var publicPaths = map[string]bool{
	"/login":    true,
	"/register": true,
}

// successCodes are the envelope codes that mean success.
var successCodes = map[int]bool{0: true, http.StatusOK: true}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Do sends one request and decodes the envelope's data into out (when out
// is non-nil). body is JSON encoded when non-nil.
func (c *Client) Do(ctx context.Context, method, path string, body any, query url.Values, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	if !publicPaths[path] {
		if tok := c.session.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).
			Str("method", method).
			Str("path", path).
			Str("request_id", reqID).
			Msg("request failed")
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: err}
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status_code", resp.StatusCode).
		Str("latency", time.Since(start).String()).
		Str("request_id", reqID).
		Msg("request processed")

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if decodeErr != nil {
			msg = strings.TrimSpace(string(raw))
			if len(msg) > 200 {
				msg = msg[:200]
			}
		}
		return c.fail(&HTTPError{Status: resp.StatusCode, Message: msg}, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, decodeErr)
	}
	if !successCodes[env.Code] {
		return c.fail(&ApplicationError{Code: env.Code, Message: env.Message}, env.Code, env.Message)
	}

	if out == nil || len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s %s data: %w", method, path, err)
	}
	return nil
}

// fail applies side effects for well known failure codes and picks the
// error to surface.
func (c *Client) fail(err error, code int, message string) error {
	switch code {
	case http.StatusUnauthorized:
		if clearErr := c.session.ClearAuth(); clearErr != nil {
			c.log.Error().Err(clearErr).Msg("clear session after auth failure")
		}
		c.log.Info().Msg("session cleared after authentication failure")
	case http.StatusBadRequest:
		if fe := fieldError(message); fe != nil {
			return fe
		}
	}
	return err
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, query, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, nil, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, nil, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}
