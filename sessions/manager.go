// Package sessions owns the signed-in user and the access/refresh token pair.
// It is the only component that reads or writes the token store.
package sessions

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/medihelp-client/internal/errors"
	"github.com/jrsteele09/medihelp-client/internal/metrics"
	"github.com/jrsteele09/medihelp-client/internal/utils"
	"github.com/jrsteele09/medihelp-client/request"
	"github.com/jrsteele09/medihelp-client/token"
	"github.com/jrsteele09/medihelp-client/users"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	loginPath          = "/auth/login/"
	registerPath       = "/auth/register/"
	doctorRegisterPath = "/doctors/register/"
	profilePath        = "/auth/me/"
	refreshPath        = "/auth/token/refresh/"
	logoutPath         = "/auth/logout/"
)

const (
	hydrateFlight = "hydrate"
	refreshFlight = "refresh"
)

const (
	invalidCredentialsMessage = "Invalid credentials. Please check your email and password."
	genericFailureMessage     = "An error occurred. Please try again."
	invalidResponseMessage    = "Invalid response format from server"
)

// Manager is the single source of truth for who is logged in. Construct one
// per process and share it; all methods are safe for concurrent use.
type Manager struct {
	baseURL    string
	doer       Doer
	store      token.Store
	navigator  Navigator
	notifier   Notifier
	logger     zerolog.Logger
	metrics    *metrics.Metrics
	maxRetries int
	baseDelay  time.Duration
	nowFunc    func() time.Time

	lock    sync.RWMutex
	state   State
	user    *users.Profile
	tokens  token.Pair
	loading bool

	flights singleflight.Group
}

var _ oauth2.TokenSource = (*Manager)(nil)

type Option func(*Manager)

func WithNavigator(n Navigator) Option {
	return func(m *Manager) {
		m.navigator = n
	}
}

func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		m.notifier = n
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

// WithRetry sets the retry budget for every auth request
func WithRetry(maxRetries int, baseDelay time.Duration) Option {
	return func(m *Manager) {
		m.maxRetries = maxRetries
		m.baseDelay = baseDelay
	}
}

// WithNowFunc sets the clock used to decide whether an access token has expired
func WithNowFunc(nowFunc func() time.Time) Option {
	return func(m *Manager) {
		m.nowFunc = nowFunc
	}
}

// New creates a Manager talking to the API at baseURL. A nil store keeps
// tokens in memory only for the life of the Manager.
func New(baseURL string, doer Doer, store token.Store, options ...Option) (*Manager, error) {
	if baseURL == "" {
		return nil, apperrors.New("[sessions.New] baseURL is required")
	}
	if doer == nil {
		return nil, apperrors.New("[sessions.New] request executor is required")
	}
	if store == nil {
		store = token.NoopStore{}
	}

	m := &Manager{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		doer:       doer,
		store:      store,
		navigator:  nopNavigator{},
		notifier:   nopNotifier{},
		logger:     zerolog.Nop(),
		maxRetries: request.DefaultMaxRetries,
		baseDelay:  request.DefaultBaseDelay,
		nowFunc:    time.Now,
		state:      Unauthenticated,
		loading:    true,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Session returns a copy of the current session
func (m *Manager) Session() Session {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return Session{
		User:         copyProfile(m.user),
		AccessToken:  m.tokens.Access,
		RefreshToken: m.tokens.Refresh,
		IsLoading:    m.loading,
		State:        m.state,
	}
}

func (m *Manager) State() State {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.state
}

// IsAuthenticated reports whether a profile fetch has confirmed the session
func (m *Manager) IsAuthenticated() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.user != nil
}

func (m *Manager) User() *users.Profile {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return copyProfile(m.user)
}

// Init restores the session persisted by a previous process. With a stored
// access token the state is Authenticating until the profile fetch settles it.
func (m *Manager) Init(ctx context.Context) error {
	defer m.setLoading(false)

	pair, err := token.Load(ctx, m.store)
	if err != nil {
		m.reset()
		m.logger.Warn().Err(err).Msg("Unable to read stored tokens")
		return apperrors.Wrapf(err, "[Manager.Init] restore session")
	}

	m.lock.Lock()
	m.tokens = pair
	m.user = nil
	m.loading = true
	if !pair.HasAccess() {
		m.state = Unauthenticated
		m.lock.Unlock()
		return nil
	}
	m.state = Authenticating
	m.lock.Unlock()

	m.logger.Debug().Bool("has_refresh_token", pair.HasRefresh()).Msg("Restoring stored session")
	return m.Hydrate(ctx)
}

// Login posts credentials, stores the issued tokens and confirms them with a
// profile fetch. Any failure leaves the session as it was before the call or,
// once tokens were stored, cleared.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.begin()
	defer m.setLoading(false)

	resp, err := m.post(ctx, loginPath, map[string]string{"email": email, "password": password})
	if err != nil {
		return m.loginFailed(&apperrors.AuthError{Op: "login", Err: err})
	}
	data, err := decodeObject(resp)
	if err != nil {
		return m.loginFailed(&apperrors.AuthError{Op: "login", Message: invalidResponseMessage, Err: err})
	}
	if !request.IsSuccess(resp) {
		msg := utils.StringOr(data, invalidCredentialsMessage, "detail", "message")
		return m.loginFailed(&apperrors.AuthError{Op: "login", Message: msg, Err: credentialsError(resp.StatusCode, msg)})
	}

	pair, ok := token.Extract(data)
	if !ok {
		m.logger.Error().Strs("fields", keys(data)).Msg("Login response has no access token")
		return m.loginFailed(&apperrors.AuthError{Op: "login", Err: apperrors.ErrMissingAccessToken})
	}

	if _, err := m.authenticate(ctx, "login", pair); err != nil {
		m.notifier.Notify(SeverityDestructive, "Login failed", userMessage(err))
		return err
	}
	return nil
}

func (m *Manager) Register(ctx context.Context, data users.RegisterData) (RegisterResult, error) {
	return m.register(ctx, "register", registerPath, data, "Your account has been created successfully")
}

func (m *Manager) RegisterDoctor(ctx context.Context, data users.DoctorRegisterData) (RegisterResult, error) {
	return m.register(ctx, "register doctor", doctorRegisterPath, data, "Your doctor account has been created successfully")
}

// register creates the account and logs straight in when the response carries
// tokens. Without tokens the user is sent to the login page.
func (m *Manager) register(ctx context.Context, op, path string, payload any, successMessage string) (RegisterResult, error) {
	m.setLoading(true)
	defer m.setLoading(false)

	resp, err := m.post(ctx, path, payload)
	if err != nil {
		m.notifier.Notify(SeverityDestructive, "Registration failed", genericFailureMessage)
		return RegisterResult{}, &apperrors.AuthError{Op: op, Err: err}
	}
	data, err := decodeObject(resp)
	if err != nil {
		m.notifier.Notify(SeverityDestructive, "Registration failed", genericFailureMessage)
		return RegisterResult{}, &apperrors.AuthError{Op: op, Message: invalidResponseMessage, Err: err}
	}
	if !request.IsSuccess(resp) {
		msg := request.FieldErrors(data)
		if msg == "" {
			msg = "Please check your information and try again"
		}
		m.notifier.Notify(SeverityDestructive, "Registration failed", msg)
		return RegisterResult{}, &apperrors.AuthError{Op: op, Message: msg, Err: &apperrors.ServerError{Status: resp.StatusCode, Message: msg}}
	}

	m.notifier.Notify(SeverityInfo, "Registration successful", successMessage)

	pair, ok := token.Extract(data)
	if !ok {
		m.logger.Info().Str("op", op).Msg("Registration returned no tokens, login required")
		m.navigator.Navigate(users.LoginRoute)
		return RegisterResult{Route: users.LoginRoute}, nil
	}

	m.setState(Authenticating)
	profile, err := m.authenticate(ctx, op, pair)
	if err != nil {
		m.notifier.Notify(SeverityDestructive, "Login failed", userMessage(err))
		return RegisterResult{}, err
	}
	return RegisterResult{LoggedIn: true, Route: profile.LandingRoute()}, nil
}

// Logout tells the server to invalidate the refresh token when both tokens are
// held, then clears the session whatever the server said. The only error
// returned is a failure to clear the token store.
func (m *Manager) Logout(ctx context.Context) error {
	m.lock.RLock()
	pair := m.tokens
	m.lock.RUnlock()

	if pair.HasAccess() && pair.HasRefresh() {
		m.revoke(ctx, pair)
	}

	err := m.clear(ctx, "logout")
	m.notifier.Notify(SeverityInfo, "Logged out", "You have been successfully logged out")
	m.navigator.Navigate(users.HomeRoute)
	return err
}

// revoke is best effort; failures are logged and otherwise ignored
func (m *Manager) revoke(ctx context.Context, pair token.Pair) {
	req, err := request.NewJSONRequest(ctx, http.MethodPost, m.baseURL+logoutPath, map[string]string{"refresh_token": pair.Refresh})
	if err != nil {
		m.logger.Warn().Err(err).Msg("Unable to build logout request")
		return
	}
	pair.OAuth2().SetAuthHeader(req)

	resp, err := m.doer.Do(ctx, req, 1, m.baseDelay)
	if err != nil {
		m.logger.Warn().Err(err).Msg("Logout notification failed")
		return
	}
	if !request.IsSuccess(resp) {
		m.logger.Warn().Int("status", resp.StatusCode).Str("message", request.ExtractErrorMessage(resp, "")).Msg("Logout notification rejected")
		return
	}
	_, _ = request.ReadBody(resp)
}

// authenticate stores pair and confirms it with a profile fetch. On failure
// the session is cleared so no half-authenticated state remains.
func (m *Manager) authenticate(ctx context.Context, op string, pair token.Pair) (*users.Profile, error) {
	if err := token.Save(ctx, m.store, pair); err != nil {
		_ = m.clear(ctx, "unable to store tokens")
		return nil, &apperrors.AuthError{Op: op, Err: err}
	}

	m.lock.Lock()
	m.tokens = pair
	m.user = nil
	m.state = Authenticating
	m.lock.Unlock()

	if err := m.hydrate(ctx); err != nil {
		_ = m.clear(ctx, op+" rolled back")
		return nil, &apperrors.AuthError{Op: op, Message: "Unable to load your profile", Err: err}
	}

	profile := m.User()
	if profile == nil {
		return nil, &apperrors.AuthError{Op: op, Err: apperrors.ErrNotAuthenticated}
	}
	m.logger.Info().Int64("user_id", profile.ID).Str("role", string(profile.Role())).Msg("Signed in")
	m.notifier.Notify(SeverityInfo, "Login successful", fmt.Sprintf("Welcome, %s!", profile.FirstName))
	m.navigator.Navigate(profile.LandingRoute())
	return profile, nil
}

func (m *Manager) loginFailed(err *apperrors.AuthError) error {
	m.settle()
	m.logger.Warn().Err(err).Msg("Login failed")
	m.notifier.Notify(SeverityDestructive, "Login failed", userMessage(err))
	return err
}

func (m *Manager) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	req, err := request.NewJSONRequest(ctx, http.MethodPost, m.baseURL+path, payload)
	if err != nil {
		return nil, err
	}
	return m.doer.Do(ctx, req, m.maxRetries, m.baseDelay)
}

// clear drops the session in memory and in the store. The store is cleared
// even when ctx is already cancelled.
func (m *Manager) clear(ctx context.Context, reason string) error {
	m.reset()
	if err := token.Clear(context.WithoutCancel(ctx), m.store); err != nil {
		m.logger.Error().Err(err).Str("reason", reason).Msg("Unable to remove stored tokens")
		return err
	}
	m.logger.Info().Str("reason", reason).Msg("Session cleared")
	return nil
}

// reset drops the in-memory session only
func (m *Manager) reset() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.tokens = token.Pair{}
	m.user = nil
	m.state = Unauthenticated
}

func (m *Manager) begin() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.loading = true
	m.state = Authenticating
}

// settle puts the state back in line with the session after an attempt that
// did not touch the tokens.
func (m *Manager) settle() {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.user != nil {
		m.state = Authenticated
	} else {
		m.state = Unauthenticated
	}
}

func (m *Manager) setLoading(loading bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.loading = loading
}

func (m *Manager) setState(s State) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.state = s
}

// decodeObject reads the whole body, whatever the status, and requires a JSON object
func decodeObject(resp *http.Response) (map[string]any, error) {
	body, err := request.ReadBody(resp)
	if err != nil {
		return nil, err
	}
	data := request.SafeParseJSON[map[string]any](string(body), nil)
	if data == nil {
		return nil, &apperrors.DataFormatError{Expected: "JSON object"}
	}
	return data, nil
}

func credentialsError(status int, msg string) error {
	serverErr := &apperrors.ServerError{Status: status, Message: msg}
	if status == http.StatusBadRequest || status == http.StatusUnauthorized {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidCredentials, serverErr)
	}
	return serverErr
}

// userMessage is the text shown to the user for a failed auth operation
func userMessage(err error) string {
	var authErr *apperrors.AuthError
	if apperrors.As(err, &authErr) {
		if authErr.Message != "" {
			return authErr.Message
		}
		if authErr.Err != nil {
			return authErr.Err.Error()
		}
	}
	return genericFailureMessage
}

func copyProfile(p *users.Profile) *users.Profile {
	if p == nil {
		return nil
	}
	cp := *p
	if p.DateOfBirth != nil {
		cp.DateOfBirth = utils.Ptr(*p.DateOfBirth)
	}
	return &cp
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
