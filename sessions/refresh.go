package sessions

import (
	"context"
	"fmt"
	"net/http"

	apperrors "github.com/jrsteele09/medihelp-client/internal/errors"
	"github.com/jrsteele09/medihelp-client/request"
	"github.com/jrsteele09/medihelp-client/token"
	"github.com/jrsteele09/medihelp-client/users"
	"golang.org/x/oauth2"
)

// Hydrate confirms the held access token by fetching the profile. On a 401 it
// refreshes once and fetches once more; any other outcome clears the session.
// Concurrent callers share a single hydration, which runs with the first
// caller's context: if that context is cancelled every waiting caller gets the
// cancellation error. A cancelled hydration leaves a confirmed session as it was.
func (m *Manager) Hydrate(ctx context.Context) error {
	_, err, _ := m.flights.Do(hydrateFlight, func() (interface{}, error) {
		return nil, m.hydrate(ctx)
	})
	return err
}

func (m *Manager) hydrate(ctx context.Context) error {
	m.lock.Lock()
	access := m.tokens.Access
	if access == "" {
		m.state = Unauthenticated
		m.lock.Unlock()
		return &apperrors.AuthError{Op: "hydrate", Err: apperrors.ErrNotAuthenticated}
	}
	if m.user == nil {
		m.state = Authenticating
	}
	m.lock.Unlock()

	profile, err := m.fetchProfile(ctx, access)
	if apperrors.IsStatus(err, http.StatusUnauthorized) {
		m.logger.Debug().Msg("Profile fetch unauthorized, refreshing access token")
		if access, err = m.Refresh(ctx, access); err == nil {
			profile, err = m.fetchProfile(ctx, access)
		}
	}

	if err != nil {
		err = &apperrors.AuthError{Op: "hydrate", Err: fmt.Errorf("%w: %w", apperrors.ErrHydrationFailed, err)}
		if ctx.Err() != nil {
			m.abandonHydration()
			return err
		}
		m.logger.Warn().Err(err).Msg("Hydration failed")
		_ = m.clear(ctx, "hydration failed")
		return err
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	if m.tokens.Access == "" {
		// logged out while the profile was in flight
		return &apperrors.AuthError{Op: "hydrate", Err: apperrors.ErrNotAuthenticated}
	}
	m.user = profile
	m.state = Authenticated
	return nil
}

// abandonHydration handles a hydration cancelled by its caller. A session
// that was never confirmed is dropped from memory while the stored tokens are
// kept for the next start; a confirmed one is left untouched.
func (m *Manager) abandonHydration() {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.user == nil {
		m.tokens = token.Pair{}
		m.state = Unauthenticated
		return
	}
	m.state = Authenticated
}

func (m *Manager) fetchProfile(ctx context.Context, access string) (*users.Profile, error) {
	req, err := request.NewJSONRequest(ctx, http.MethodGet, m.baseURL+profilePath, nil)
	if err != nil {
		return nil, err
	}
	token.Pair{Access: access}.OAuth2().SetAuthHeader(req)

	resp, err := m.doer.Do(ctx, req, m.maxRetries, m.baseDelay)
	if err != nil {
		return nil, err
	}
	profile, err := request.DecodeJSON[users.Profile](resp, "user profile")
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Refresh exchanges the refresh token for a new access token and returns it.
// staleAccess is the token the caller saw rejected: if the session already
// holds a different one it is returned without a network call. Only one
// refresh is in flight at a time and concurrent callers share its result,
// including a cancellation of the first caller's context; a cancelled refresh
// leaves the session as it was so the next caller can try again.
// Without a refresh token, or when the server refuses it, the session is cleared.
// New tokens arriving after a logout or a fresh login are discarded.
func (m *Manager) Refresh(ctx context.Context, staleAccess string) (string, error) {
	v, err, shared := m.flights.Do(refreshFlight, func() (interface{}, error) {
		return m.refresh(ctx, staleAccess)
	})
	if shared {
		m.logger.Debug().Msg("Joined in-flight token refresh")
	}
	if err != nil {
		return "", err
	}
	access, _ := v.(string)
	return access, nil
}

func (m *Manager) refresh(ctx context.Context, staleAccess string) (string, error) {
	m.lock.Lock()
	current := m.tokens
	if current.HasAccess() && current.Access != staleAccess {
		m.lock.Unlock()
		return current.Access, nil
	}
	if !current.HasRefresh() {
		m.lock.Unlock()
		m.metrics.Refresh("no_refresh_token")
		_ = m.clear(ctx, "no refresh token")
		return "", &apperrors.AuthError{Op: "refresh", Err: apperrors.ErrNoRefreshToken}
	}
	previous := m.state
	m.state = Refreshing
	m.lock.Unlock()

	pair, err := m.requestRefresh(ctx, current.Refresh)
	if err != nil {
		err = &apperrors.AuthError{Op: "refresh", Err: fmt.Errorf("%w: %w", apperrors.ErrRefreshFailed, err)}
		if ctx.Err() != nil {
			m.lock.Lock()
			if m.tokens == current {
				m.state = previous
			}
			m.lock.Unlock()
			return "", err
		}
		m.metrics.Refresh("failure")
		m.logger.Warn().Err(err).Msg("Token refresh failed")
		if m.holds(current) {
			_ = m.clear(ctx, "refresh failed")
		}
		return "", err
	}
	if !pair.HasRefresh() {
		pair.Refresh = current.Refresh
	}

	// held across the save so a logout cannot land between the check and the write
	m.lock.Lock()
	if m.tokens != current {
		m.lock.Unlock()
		m.metrics.Refresh("discarded")
		m.logger.Info().Msg("Session changed during token refresh, discarding new tokens")
		return "", &apperrors.AuthError{Op: "refresh", Err: apperrors.ErrNotAuthenticated}
	}
	if err := token.Save(ctx, m.store, pair); err != nil {
		m.lock.Unlock()
		m.metrics.Refresh("failure")
		_ = m.clear(ctx, "unable to store refreshed tokens")
		return "", &apperrors.AuthError{Op: "refresh", Err: err}
	}
	m.tokens = pair
	if m.user != nil {
		m.state = Authenticated
	} else {
		m.state = previous
	}
	m.lock.Unlock()

	m.metrics.Refresh("success")
	m.logger.Debug().Bool("rotated", pair.Refresh != current.Refresh).Msg("Access token refreshed")
	return pair.Access, nil
}

// holds reports whether the session still holds pair
func (m *Manager) holds(pair token.Pair) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.tokens == pair
}

func (m *Manager) requestRefresh(ctx context.Context, refresh string) (token.Pair, error) {
	resp, err := m.post(ctx, refreshPath, map[string]string{"refresh": refresh})
	if err != nil {
		return token.Pair{}, err
	}
	body, err := request.DecodeJSON[map[string]any](resp, "token refresh response")
	if err != nil {
		return token.Pair{}, err
	}
	pair, ok := token.Extract(body)
	if !ok {
		return token.Pair{}, &apperrors.DataFormatError{Expected: "access token", Err: apperrors.ErrMissingAccessToken}
	}
	return pair, nil
}

// AccessToken returns a bearer token for an API call, refreshing first when
// the held token is a JWT past its exp claim.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	m.lock.RLock()
	access := m.tokens.Access
	m.lock.RUnlock()

	if access == "" {
		return "", &apperrors.AuthError{Op: "token", Err: apperrors.ErrNotAuthenticated}
	}
	if token.Expired(access, m.nowFunc()) {
		m.logger.Debug().Msg("Access token expired, refreshing")
		return m.Refresh(ctx, access)
	}
	return access, nil
}

// Token implements oauth2.TokenSource
func (m *Manager) Token() (*oauth2.Token, error) {
	access, err := m.AccessToken(context.Background())
	if err != nil {
		return nil, err
	}
	m.lock.RLock()
	refresh := m.tokens.Refresh
	m.lock.RUnlock()
	return token.Pair{Access: access, Refresh: refresh}.OAuth2(), nil
}
