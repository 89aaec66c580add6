package auth

import (
	"errors"
	"fmt"
	"net/http"

	interrors "github.com/mektebapp/go-mekteb-client/internal/errors"
)

var (
	InvalidCredentialsErr = errors.New("invalid username or password")
	UserExistsErr         = errors.New("username or email already taken")
	InvalidRefreshErr     = errors.New("refresh token rejected")
)

// knownMessages maps backend error strings onto stable sentinel errors
// so callers can branch without string matching.
var knownMessages = map[string]error{
	"Invalid credentials":             InvalidCredentialsErr,
	"Invalid username or password":    InvalidCredentialsErr,
	"User already exists":             UserExistsErr,
	"Username already taken":          UserExistsErr,
	"Email already registered":        UserExistsErr,
	"Invalid refresh token":           InvalidRefreshErr,
	"Refresh token expired":           InvalidRefreshErr,
}

// Error is an authentication failure with the server's message kept
// intact for display.
type Error struct {
	Status  int
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("auth error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("auth error (status %d)", e.Status)
}

func (e *Error) Unwrap() error {
	return e.err
}

// authError maps an error response to an *Error, recognising known
// backend messages where possible and falling back to the raw text.
func authError(status int, resp *Response) error {
	message := resp.Error
	if message == "" {
		message = resp.Message
	}

	authErr := &Error{Status: status, Message: message}
	if sentinel, ok := knownMessages[message]; ok {
		authErr.err = sentinel
	} else if status == http.StatusUnauthorized {
		authErr.err = interrors.ErrUnauthorized
	}
	return authErr
}
