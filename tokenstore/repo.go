// Package tokenstore persists the credential triple (access token,
// refresh token, cached user record) between runs.
package tokenstore

import (
	"github.com/mektebapp/go-mekteb-client/users"
)

// Credentials is the persisted session snapshot. Zero values mean
// "absent".
type Credentials struct {
	AccessToken  string      `json:"mekteb_access_token,omitempty"`
	RefreshToken string      `json:"mekteb_refresh_token,omitempty"`
	User         *users.User `json:"mekteb_user,omitempty"`
}

// Empty reports whether no credential data is stored at all.
func (c Credentials) Empty() bool {
	return c.AccessToken == "" && c.RefreshToken == "" && c.User == nil
}

// Repo defines the interface for credential storage. All three values
// are written together on login, the token pair alone on refresh, and
// everything is removed together on logout.
type Repo interface {
	// Load reads the stored credentials. A missing store yields empty
	// credentials and no error; a corrupt store yields an error.
	Load() (Credentials, error)

	// SaveSession stores the full credential triple.
	SaveSession(accessToken, refreshToken string, user *users.User) error

	// SaveTokens replaces the token pair, leaving the user untouched.
	SaveTokens(accessToken, refreshToken string) error

	// Clear removes all stored credentials.
	Clear() error
}
