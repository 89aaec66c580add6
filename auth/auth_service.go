// Package auth talks to the /auth endpoints. It deliberately uses a
// plain HTTP client rather than the authenticated pipeline: login and
// register run before a session exists, and refresh must never
// recurse into the 401 handler it serves.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mektebapp/go-mekteb-client/internal/errors"
	"github.com/mektebapp/go-mekteb-client/token"
	"github.com/mektebapp/go-mekteb-client/users"
)

// Credentials is the login request payload.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the register request payload.
type Registration struct {
	FirstName string         `json:"firstName"`
	LastName  string         `json:"lastName"`
	Username  string         `json:"username"`
	Email     string         `json:"email"`
	Password  string         `json:"password"`
	Role      users.RoleType `json:"role"`
}

// Response is the shape /auth/login, /auth/register and /auth/refresh
// all reply with.
type Response struct {
	Success      bool        `json:"success"`
	Message      string      `json:"message,omitempty"`
	Error        string      `json:"error,omitempty"`
	User         *users.User `json:"user,omitempty"`
	AccessToken  string      `json:"accessToken,omitempty"`
	RefreshToken string      `json:"refreshToken,omitempty"`
}

// Service issues authentication calls against the API.
type Service struct {
	baseURL    string
	httpClient *http.Client
	validator  *Validator
	log        zerolog.Logger
}

// NewService creates an auth service for the given API base URL.
func NewService(baseURL string, timeout time.Duration, log zerolog.Logger) *Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		validator:  NewValidator(),
		log:        log.With().Str("component", "auth").Logger(),
	}
}

// Login exchanges credentials for a token pair and user record.
func (s *Service) Login(ctx context.Context, creds Credentials) (*Response, error) {
	if err := s.validator.ValidateCredentials(creds); err != nil {
		return nil, err
	}

	resp, err := s.post(ctx, "/auth/login", creds)
	if err != nil {
		return nil, err
	}
	if resp.User == nil || resp.AccessToken == "" || resp.RefreshToken == "" {
		return nil, errors.Wrapf(errors.ErrInternal, "auth.Login: incomplete response")
	}

	s.log.Debug().Str("username", resp.User.Username).Msg("login succeeded")
	return resp, nil
}

// Register creates an account and returns the same shape as Login.
func (s *Service) Register(ctx context.Context, reg Registration) (*Response, error) {
	if err := s.validator.ValidateRegistration(reg); err != nil {
		return nil, err
	}

	resp, err := s.post(ctx, "/auth/register", reg)
	if err != nil {
		return nil, err
	}
	if resp.User == nil || resp.AccessToken == "" || resp.RefreshToken == "" {
		return nil, errors.Wrapf(errors.ErrInternal, "auth.Register: incomplete response")
	}
	return resp, nil
}

// Refresh exchanges a refresh token for a new token pair. The
// authenticated pipeline calls this when a request 401s.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (token.Pair, error) {
	if refreshToken == "" {
		return token.Pair{}, errors.ErrNoRefreshToken
	}

	resp, err := s.post(ctx, "/auth/refresh", map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return token.Pair{}, err
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return token.Pair{}, errors.Wrapf(errors.ErrInternal, "auth.Refresh: incomplete token pair")
	}

	return token.Pair{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}, nil
}

// Logout tells the server to drop the session. Best effort: callers
// ignore the error and clear local state regardless.
func (s *Service) Logout(ctx context.Context) error {
	_, err := s.post(ctx, "/auth/logout", nil)
	return err
}

func (s *Service) post(ctx context.Context, path string, body any) (*Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrapf(err, "auth: encoding request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, reader)
	if err != nil {
		return nil, errors.Wrapf(err, "auth: building request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "auth: POST %s", path)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "auth: reading response")
	}

	var resp Response
	if len(data) > 0 {
		if err := json.Unmarshal(data, &resp); err != nil && httpResp.StatusCode < 400 {
			return nil, errors.Wrapf(err, "auth: decoding response")
		}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, authError(httpResp.StatusCode, &resp)
	}
	return &resp, nil
}
