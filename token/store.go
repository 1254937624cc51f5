package token

import (
	"context"

	apperrors "github.com/jrsteele09/medihelp-client/internal/errors"
)

// Storage keys, kept identical to the ones the web client used
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
)

// Store is durable key/value storage for the token pair. Get returns "" for a
// missing key. Only the session manager reads or writes it.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// NoopStore is used where no durable storage exists: reads find nothing and
// writes are dropped.
type NoopStore struct{}

var _ Store = NoopStore{}

func (NoopStore) Get(context.Context, string) (string, error) { return "", nil }
func (NoopStore) Set(context.Context, string, string) error   { return nil }
func (NoopStore) Remove(context.Context, string) error        { return nil }

// Load reads the pair from s. A nil store behaves like NoopStore.
func Load(ctx context.Context, s Store) (Pair, error) {
	if s == nil {
		return Pair{}, nil
	}
	access, err := s.Get(ctx, AccessTokenKey)
	if err != nil {
		return Pair{}, apperrors.Wrapf(err, "[token.Load] %s", AccessTokenKey)
	}
	refresh, err := s.Get(ctx, RefreshTokenKey)
	if err != nil {
		return Pair{}, apperrors.Wrapf(err, "[token.Load] %s", RefreshTokenKey)
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

// Save writes p to s. An empty refresh token removes any stored one so a
// stale refresh token never outlives the access token it belonged to.
func Save(ctx context.Context, s Store, p Pair) error {
	if s == nil {
		return nil
	}
	if err := s.Set(ctx, AccessTokenKey, p.Access); err != nil {
		return apperrors.Wrapf(err, "[token.Save] %s", AccessTokenKey)
	}
	if p.Refresh == "" {
		if err := s.Remove(ctx, RefreshTokenKey); err != nil {
			return apperrors.Wrapf(err, "[token.Save] remove %s", RefreshTokenKey)
		}
		return nil
	}
	if err := s.Set(ctx, RefreshTokenKey, p.Refresh); err != nil {
		return apperrors.Wrapf(err, "[token.Save] %s", RefreshTokenKey)
	}
	return nil
}

// Clear removes both keys, attempting the second even if the first fails.
func Clear(ctx context.Context, s Store) error {
	if s == nil {
		return nil
	}
	errAccess := s.Remove(ctx, AccessTokenKey)
	errRefresh := s.Remove(ctx, RefreshTokenKey)
	if errAccess != nil {
		return apperrors.Wrapf(errAccess, "[token.Clear] %s", AccessTokenKey)
	}
	if errRefresh != nil {
		return apperrors.Wrapf(errRefresh, "[token.Clear] %s", RefreshTokenKey)
	}
	return nil
}
