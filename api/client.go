// Package api is a typed client for the MediHelp domain resources. Every call
// goes through the request executor; authenticated calls take their bearer
// token from the session manager and retry once after a refresh on 401.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/medihelp-client/internal/errors"
	"github.com/jrsteele09/medihelp-client/request"
	"github.com/jrsteele09/medihelp-client/token"
	"github.com/rs/zerolog"
)

// Doer executes a request with bounded retry. *request.Executor implements it.
type Doer interface {
	Do(ctx context.Context, req *http.Request, maxRetries int, baseDelay time.Duration) (*http.Response, error)
}

// TokenProvider hands out bearer tokens. *sessions.Manager implements it.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
	Refresh(ctx context.Context, staleAccess string) (string, error)
}

type authMode int

const (
	public       authMode = iota // never sends a token
	optionalAuth                 // sends a token when signed in
	requiredAuth                 // fails with ErrNotAuthenticated when signed out
)

// secondaryRetries is the smaller budget for lookups that only enrich a result
const secondaryRetries = 2

type Client struct {
	baseURL    string
	doer       Doer
	tokens     TokenProvider
	logger     zerolog.Logger
	maxRetries int
	baseDelay  time.Duration
	nowFunc    func() time.Time
}

type Option func(*Client)

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func WithRetry(maxRetries int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.baseDelay = baseDelay
	}
}

// WithNowFunc sets the clock used for created_at values the server left out
func WithNowFunc(nowFunc func() time.Time) Option {
	return func(c *Client) {
		c.nowFunc = nowFunc
	}
}

// New creates a client for the API at baseURL. tokens may be nil, in which
// case only public resources are reachable.
func New(baseURL string, doer Doer, tokens TokenProvider, options ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, apperrors.New("[api.New] baseURL is required")
	}
	if doer == nil {
		return nil, apperrors.New("[api.New] request executor is required")
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		doer:       doer,
		tokens:     tokens,
		logger:     zerolog.Nop(),
		maxRetries: request.DefaultMaxRetries,
		baseDelay:  request.DefaultBaseDelay,
		nowFunc:    time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// call describes one API operation. The request is rebuilt for the retry
// after a token refresh.
type call struct {
	op          string
	method      string
	path        string
	query       url.Values
	json        any
	raw         []byte
	contentType string
	auth        authMode
	retries     int
}

// fetch runs cl and returns the body of a 2xx response
func (c *Client) fetch(ctx context.Context, cl call) ([]byte, error) {
	resp, err := c.send(ctx, cl)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Client.%s]", cl.op)
	}
	c.logger.Debug().Str("op", cl.op).Int("status", resp.StatusCode).Msg("API response")
	if !request.IsSuccess(resp) {
		serverErr := &apperrors.ServerError{Status: resp.StatusCode, Message: request.ExtractErrorMessage(resp, "")}
		return nil, apperrors.Wrapf(serverErr, "[Client.%s]", cl.op)
	}
	body, err := request.ReadBody(resp)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Client.%s]", cl.op)
	}
	return body, nil
}

// send attaches the bearer token and, on a 401, refreshes once and retries once
func (c *Client) send(ctx context.Context, cl call) (*http.Response, error) {
	access, err := c.accessToken(ctx, cl.auth)
	if err != nil {
		return nil, err
	}

	resp, err := c.attempt(ctx, cl, access)
	if err != nil || resp.StatusCode != http.StatusUnauthorized || access == "" {
		return resp, err
	}
	_, _ = request.ReadBody(resp)

	c.logger.Debug().Str("op", cl.op).Msg("Access token rejected, refreshing")
	fresh, err := c.tokens.Refresh(ctx, access)
	if err != nil {
		return nil, err
	}

	resp, err = c.attempt(ctx, cl, fresh)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		msg := request.ExtractErrorMessage(resp, "")
		return nil, &apperrors.AuthError{Op: cl.op, Message: msg, Err: &apperrors.ServerError{Status: http.StatusUnauthorized, Message: msg}}
	}
	return resp, nil
}

func (c *Client) accessToken(ctx context.Context, mode authMode) (string, error) {
	if mode == public {
		return "", nil
	}
	if c.tokens == nil {
		if mode == requiredAuth {
			return "", &apperrors.AuthError{Op: "token", Err: apperrors.ErrNotAuthenticated}
		}
		return "", nil
	}
	access, err := c.tokens.AccessToken(ctx)
	if err != nil {
		if mode == requiredAuth {
			return "", err
		}
		c.logger.Debug().Err(err).Msg("Continuing without a token")
		return "", nil
	}
	return access, nil
}

func (c *Client) attempt(ctx context.Context, cl call, access string) (*http.Response, error) {
	req, err := c.newRequest(ctx, cl)
	if err != nil {
		return nil, err
	}
	if access != "" {
		token.Pair{Access: access}.OAuth2().SetAuthHeader(req)
	}
	retries := cl.retries
	if retries == 0 {
		retries = c.maxRetries
	}
	return c.doer.Do(ctx, req, retries, c.baseDelay)
}

func (c *Client) newRequest(ctx context.Context, cl call) (*http.Request, error) {
	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}
	if cl.raw == nil {
		return request.NewJSONRequest(ctx, cl.method, target, cl.json)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, target, bytes.NewReader(cl.raw))
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Client.newRequest] %s %s", cl.method, target)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", cl.contentType)
	return req, nil
}

// decodeList accepts a bare JSON array or a paginated {"results": [...]} object
func decodeList[T any](body []byte, expected string) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, &apperrors.DataFormatError{Expected: expected}
	}

	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, &apperrors.DataFormatError{Expected: expected, Err: err}
		}
		return items, nil
	case '{':
		var page struct {
			Results *[]T `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return nil, &apperrors.DataFormatError{Expected: expected, Err: err}
		}
		if page.Results == nil {
			return nil, &apperrors.DataFormatError{Expected: expected}
		}
		return *page.Results, nil
	}
	return nil, &apperrors.DataFormatError{Expected: expected}
}

func decodeInto[T any](body []byte, expected string) (T, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return v, &apperrors.DataFormatError{Expected: expected, Err: err}
	}
	return v, nil
}

func decodeObject(body []byte, expected string) (map[string]any, error) {
	data := request.SafeParseJSON[map[string]any](string(body), nil)
	if data == nil {
		return nil, &apperrors.DataFormatError{Expected: expected}
	}
	return data, nil
}
