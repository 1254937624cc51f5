package errors

import (
	"errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

// Common error values for the MediHelp client
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingAccessToken = errors.New("access token missing from response")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrHydrationFailed    = errors.New("failed to load user profile")

	// Token errors
	ErrNoRefreshToken = errors.New("no refresh token available")
	ErrRefreshFailed  = errors.New("token refresh failed")

	// Transport errors
	ErrRateLimited = errors.New("rate limited")

	// Response errors
	ErrInvalidResponse = errors.New("invalid response format from server")
)

// AuthError is returned at the authentication boundary: bad credentials, a token
// missing from an otherwise successful response, or a profile fetch that failed.
type AuthError struct {
	Op      string // login, register, hydrate, refresh
	Message string // user facing message, may be empty
	Err     error
}

func (e *AuthError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + ": authentication failed"
}

func (e *AuthError) Unwrap() error { return e.Err }

// NetworkError means the request never produced a usable response, either because
// every attempt failed at the transport level or because the server kept rate limiting.
type NetworkError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request to %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-2xx, non-429 HTTP status with the best message the body offered.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// DataFormatError means a body was present but not in the shape the caller expected.
type DataFormatError struct {
	Expected string
	Err      error
}

func (e *DataFormatError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("unexpected response format, expected %s", e.Expected)
	}
	return fmt.Sprintf("unexpected response format, expected %s: %v", e.Expected, e.Err)
}

func (e *DataFormatError) Unwrap() error {
	if e.Err == nil {
		return ErrInvalidResponse
	}
	return e.Err
}

// Is makes every DataFormatError match ErrInvalidResponse, including ones
// wrapping a decoder error.
func (e *DataFormatError) Is(target error) bool { return target == ErrInvalidResponse }

// IsStatus reports whether err carries a ServerError with the given HTTP status
func IsStatus(err error, status int) bool {
	var se *ServerError
	return errors.As(err, &se) && se.Status == status
}

// Wrapf annotates err with a message and a stack trace. Returns nil for a nil err.
func Wrapf(err error, format string, args ...interface{}) error {
	return pkgerrors.Wrapf(err, format, args...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New returns an error carrying a stack trace
func New(text string) error {
	return pkgerrors.New(text)
}
