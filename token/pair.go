package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/medihelp-client/internal/utils"
	"golang.org/x/oauth2"
)

// Pair is the access/refresh token pair issued by the API. Refresh is empty
// when the server did not issue one.
type Pair struct {
	Access  string
	Refresh string
}

func (p Pair) HasAccess() bool  { return p.Access != "" }
func (p Pair) HasRefresh() bool { return p.Refresh != "" }

// OAuth2 converts the pair to an oauth2.Token. Expiry is read from the access
// token's exp claim when it is a JWT, otherwise left zero (never expires).
func (p Pair) OAuth2() *oauth2.Token {
	t := &oauth2.Token{
		AccessToken:  p.Access,
		TokenType:    "Bearer",
		RefreshToken: p.Refresh,
	}
	if exp, ok := ExpiresAt(p.Access); ok {
		t.Expiry = exp
	}
	return t
}

var accessKeys = []string{"access", "access_token", "token", "accessToken"}
var refreshKeys = []string{"refresh", "refresh_token", "refreshToken"}

// Extract finds a token pair in a login, register or refresh response body.
// Tokens nested under "tokens" are preferred; the flat fields at the root are
// used when the nested object is absent or carries no access token.
func Extract(body map[string]any) (Pair, bool) {
	if nested, ok := body["tokens"].(map[string]any); ok {
		if access, ok := utils.FirstString(nested, accessKeys...); ok {
			return Pair{Access: access, Refresh: utils.StringOr(nested, "", refreshKeys...)}, true
		}
	}
	if access, ok := utils.FirstString(body, accessKeys...); ok {
		return Pair{Access: access, Refresh: utils.StringOr(body, "", refreshKeys...)}, true
	}
	return Pair{}, false
}

// ExpiresAt reads the exp claim of a JWT access token without verifying the
// signature. The client cannot verify it and only uses it to refresh early.
func ExpiresAt(access string) (time.Time, bool) {
	if access == "" {
		return time.Time{}, false
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(access, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired reports whether access is a JWT whose exp is at or before now.
// Opaque tokens never count as expired.
func Expired(access string, now time.Time) bool {
	exp, ok := ExpiresAt(access)
	return ok && !now.Before(exp)
}
