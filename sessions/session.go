package sessions

import (
	"context"
	"net/http"
	"time"

	"github.com/jrsteele09/medihelp-client/users"
)

// State of the session machine:
//
//	Unauthenticated -> Authenticating -> Authenticated
//	Authenticated   -> Refreshing     -> Authenticated
//
// A terminal refresh or hydration failure always returns to Unauthenticated.
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
	Refreshing
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	}
	return "unknown"
}

// Session is a snapshot of the manager's state. User is only set once a
// profile fetch has confirmed the access token.
type Session struct {
	User         *users.Profile
	AccessToken  string
	RefreshToken string
	IsLoading    bool
	State        State
}

// Severity of a notification
type Severity string

const (
	SeverityInfo        Severity = "info"
	SeverityDestructive Severity = "destructive"
)

// Navigator is told where to send the user after login, registration and logout
type Navigator interface {
	Navigate(route string)
}

// Notifier shows a short message to the user
type Notifier interface {
	Notify(severity Severity, title, message string)
}

type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

type NotifierFunc func(severity Severity, title, message string)

func (f NotifierFunc) Notify(severity Severity, title, message string) { f(severity, title, message) }

type nopNavigator struct{}

func (nopNavigator) Navigate(string) {}

type nopNotifier struct{}

func (nopNotifier) Notify(Severity, string, string) {}

// Doer executes a request with bounded retry. *request.Executor implements it.
type Doer interface {
	Do(ctx context.Context, req *http.Request, maxRetries int, baseDelay time.Duration) (*http.Response, error)
}

// RegisterResult tells the caller whether registration also logged the user
// in, and the route they were sent to.
type RegisterResult struct {
	LoggedIn bool
	Route    string
}
