// Package token reads claims out of Mekteb bearer tokens without
// verifying them. The server owns the trust decision; the client only
// uses decoded claims for expiry estimation and display, never for
// authorization.
package token

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/mektebapp/go-mekteb-client/internal/errors"
)

// NowFunc returns the current time. It can be overridden in tests.
var NowFunc = time.Now

// Claims is the payload the Mekteb API embeds in access and refresh
// tokens.
type Claims struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Exp      int64  `json:"exp"`
	Iat      int64  `json:"iat"`
}

// Pair is an access/refresh token pair as issued by login, register
// and refresh responses.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Decode extracts the claims from a raw token without signature
// verification.
func Decode(rawToken string) (*Claims, error) {
	unverified, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "token.Decode: %v", err)
	}

	mapClaims, ok := unverified.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "token.Decode: unexpected claims type")
	}

	claims := &Claims{}
	if userID, ok := mapClaims["userId"].(float64); ok {
		claims.UserID = int64(userID)
	}
	claims.Username, _ = mapClaims["username"].(string)
	claims.Email, _ = mapClaims["email"].(string)
	claims.Role, _ = mapClaims["role"].(string)

	exp, ok := mapClaims["exp"].(float64)
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "token.Decode: missing exp claim")
	}
	claims.Exp = int64(exp)

	if iat, ok := mapClaims["iat"].(float64); ok {
		claims.Iat = int64(iat)
	}

	return claims, nil
}

// IsExpired reports whether the token is at or past its expiry.
// Tokens that fail to decode are treated as expired.
func IsExpired(rawToken string) bool {
	claims, err := Decode(rawToken)
	if err != nil {
		return true
	}
	return claims.Exp <= NowFunc().Unix()
}

// Expiration returns the token's expiry as an absolute time. The
// second return value is false if the token cannot be decoded.
func Expiration(rawToken string) (time.Time, bool) {
	claims, err := Decode(rawToken)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(claims.Exp, 0), true
}
