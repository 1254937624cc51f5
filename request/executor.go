// Package request executes outbound HTTP calls with bounded retry for rate
// limiting and transient transport failures, and normalizes response bodies.
package request

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	apperrors "github.com/jrsteele09/medihelp-client/internal/errors"
	"github.com/jrsteele09/medihelp-client/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries one id for every attempt of a single call
const RequestIDHeader = "X-Request-ID"

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
)

// Attempt describes a failed attempt that is about to be retried. It only
// exists for the lifetime of one Do call.
type Attempt struct {
	URL    string
	Index  int           // zero based index of the attempt that failed
	Delay  time.Duration // wait before the next attempt
	Reason error         // apperrors.ErrRateLimited or the transport error
}

type Executor struct {
	client  *http.Client
	clock   clockwork.Clock
	limiter *rate.Limiter
	logger  zerolog.Logger
	metrics *metrics.Metrics
	onRetry func(Attempt)
}

type Option func(*Executor)

func WithHTTPClient(c *http.Client) Option {
	return func(e *Executor) {
		e.client = c
	}
}

// WithClock replaces the clock used for backoff waits and Retry-After dates
func WithClock(c clockwork.Clock) Option {
	return func(e *Executor) {
		e.clock = c
	}
}

// WithLimiter throttles every attempt through l before it is sent
func WithLimiter(l *rate.Limiter) Option {
	return func(e *Executor) {
		e.limiter = l
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Executor) {
		e.logger = l
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// WithRetryHook is called before every backoff wait
func WithRetryHook(fn func(Attempt)) Option {
	return func(e *Executor) {
		e.onRetry = fn
	}
}

func New(options ...Option) *Executor {
	e := &Executor{
		client: &http.Client{Timeout: 30 * time.Second},
		clock:  clockwork.NewRealClock(),
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// Do sends req, retrying on 429 and on transport errors for at most maxRetries
// attempts in total. A 429 waits for the Retry-After header when the server sent
// one, otherwise baseDelay * 2^attempt; transport errors always use the
// exponential delay. Every other status, including 4xx and 5xx, is returned to
// the caller on the first attempt. Once attempts run out the result is a
// *errors.NetworkError wrapping the last transport error or ErrRateLimited.
func (e *Executor) Do(ctx context.Context, req *http.Request, maxRetries int, baseDelay time.Duration) (*http.Response, error) {
	if maxRetries < 1 {
		maxRetries = 1
	}

	url := req.URL.String()
	getBody, err := replayableBody(req)
	if err != nil {
		return nil, &apperrors.NetworkError{URL: url, Err: err}
	}

	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	logger := e.logger.With().Str("request_id", requestID).Str("method", req.Method).Str("url", url).Logger()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return nil, &apperrors.NetworkError{URL: url, Attempts: attempt, Err: err}
			}
		}

		r := req.Clone(ctx)
		r.Header.Set(RequestIDHeader, requestID)
		if getBody != nil {
			if r.Body, err = getBody(); err != nil {
				return nil, &apperrors.NetworkError{URL: url, Attempts: attempt, Err: err}
			}
		}

		resp, err := e.client.Do(r)
		if err != nil {
			e.metrics.Attempt("error")
			if ctx.Err() != nil {
				return nil, &apperrors.NetworkError{URL: url, Attempts: attempt + 1, Err: ctx.Err()}
			}
			lastErr = err
			if attempt == maxRetries-1 {
				break
			}
			wait := Backoff(baseDelay, attempt)
			logger.Warn().Err(err).Int("attempt", attempt+1).Int("max_attempts", maxRetries).Dur("wait", wait).Msg("Request failed, retrying")
			if err := e.wait(ctx, Attempt{URL: url, Index: attempt, Delay: wait, Reason: err}, "network"); err != nil {
				return nil, &apperrors.NetworkError{URL: url, Attempts: attempt + 1, Err: err}
			}
			continue
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			e.metrics.Attempt("response")
			return resp, nil
		}

		e.metrics.Attempt("rate_limited")
		lastErr = apperrors.ErrRateLimited
		wait, ok := RetryAfter(resp.Header.Get("Retry-After"), e.clock.Now())
		if !ok {
			wait = Backoff(baseDelay, attempt)
		}
		drain(resp)
		if attempt == maxRetries-1 {
			break
		}
		logger.Info().Int("attempt", attempt+1).Int("max_attempts", maxRetries).Dur("wait", wait).Msg("Rate limited, waiting before retry")
		if err := e.wait(ctx, Attempt{URL: url, Index: attempt, Delay: wait, Reason: apperrors.ErrRateLimited}, "rate_limited"); err != nil {
			return nil, &apperrors.NetworkError{URL: url, Attempts: attempt + 1, Err: err}
		}
	}

	logger.Error().Err(lastErr).Int("attempts", maxRetries).Msg("Request failed, retries exhausted")
	return nil, &apperrors.NetworkError{URL: url, Attempts: maxRetries, Err: lastErr}
}

func (e *Executor) wait(ctx context.Context, a Attempt, reason string) error {
	e.metrics.Retry(reason)
	if e.onRetry != nil {
		e.onRetry(a)
	}
	if a.Delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-e.clock.After(a.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MaxBackoff caps the exponential delay between attempts
const MaxBackoff = time.Hour

// Backoff returns base * 2^attempt, capped at MaxBackoff
func Backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	d := min(base, MaxBackoff)
	for i := 0; i < attempt; i++ {
		if d >= MaxBackoff/2 {
			return MaxBackoff
		}
		d *= 2
	}
	return d
}

// replayableBody returns a function producing a fresh copy of the request body
// for each attempt, or nil when the request has no body.
func replayableBody(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		return req.GetBody, nil
	}
	b, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, apperrors.Wrapf(err, "[Executor.Do] read request body")
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(b)), nil
	}, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
