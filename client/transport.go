package client

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mektebapp/go-mekteb-client/internal/errors"
	"github.com/mektebapp/go-mekteb-client/token"
	"github.com/mektebapp/go-mekteb-client/tokenstore"
)

// Refresher exchanges a refresh token for a new token pair. The auth
// service implements it with a plain HTTP client so the refresh call
// never re-enters this transport.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (token.Pair, error)
}

// SessionController is the slice of the session manager the transport
// needs: persisting a refreshed pair and tearing the session down when
// refresh fails terminally.
type SessionController interface {
	UpdateTokens(accessToken, refreshToken string) error
	ForceLogout()
}

// refreshOutcome settles every request queued behind an in-flight
// refresh: all of them replay with the new access token, or all of
// them fail with the same error.
type refreshOutcome struct {
	accessToken string
	err         error
}

// authTransport attaches the bearer token to outgoing requests and
// transparently survives one refresh cycle per request. At most one
// refresh call is in flight at a time; 401s arriving during that
// window queue behind it.
type authTransport struct {
	base      http.RoundTripper
	store     tokenstore.Repo
	session   SessionController
	refresher Refresher
	log       zerolog.Logger

	lock       sync.Mutex
	refreshing bool
	waiters    []chan refreshOutcome
}

func newAuthTransport(base http.RoundTripper, store tokenstore.Repo, session SessionController, refresher Refresher, log zerolog.Logger) *authTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &authTransport{
		base:      base,
		store:     store,
		session:   session,
		refresher: refresher,
		log:       log.With().Str("component", "transport").Logger(),
	}
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	outbound := req
	if creds, err := t.store.Load(); err == nil && creds.AccessToken != "" {
		outbound = withBearer(req, creds.AccessToken)
	}

	resp, err := t.base.RoundTrip(outbound)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	t.lock.Lock()
	if t.refreshing {
		ch := make(chan refreshOutcome, 1)
		t.waiters = append(t.waiters, ch)
		t.lock.Unlock()
		return t.awaitRefresh(req, resp, ch)
	}
	t.refreshing = true
	t.lock.Unlock()

	return t.leadRefresh(req, resp)
}

// awaitRefresh parks a 401'd request behind the in-flight refresh and
// replays it once the refresh settles.
func (t *authTransport) awaitRefresh(req *http.Request, resp *http.Response, ch chan refreshOutcome) (*http.Response, error) {
	drain(resp)

	select {
	case out := <-ch:
		if out.err != nil {
			return nil, out.err
		}
		return t.replay(req, out.accessToken)
	case <-req.Context().Done():
		return nil, req.Context().Err()
	}
}

// leadRefresh runs the refresh protocol on behalf of every queued
// request. The in-flight flag is cleared by settle on every path.
func (t *authTransport) leadRefresh(req *http.Request, resp *http.Response) (*http.Response, error) {
	requestID := uuid.New().String()

	var refreshToken string
	if creds, err := t.store.Load(); err == nil {
		refreshToken = creds.RefreshToken
	}

	if refreshToken == "" {
		t.log.Warn().Str("request_id", requestID).Msg("unauthorized with no refresh token, session terminated")
		t.session.ForceLogout()
		t.settle(refreshOutcome{err: errors.ErrNoRefreshToken})
		// The original 401 passes through as the final failure.
		return resp, nil
	}

	pair, err := t.refresher.Refresh(req.Context(), refreshToken)
	if err == nil {
		// Persist before settling so queued replays and every
		// subsequent request see the new pair.
		err = t.session.UpdateTokens(pair.AccessToken, pair.RefreshToken)
	}
	if err != nil {
		refreshErr := errors.Wrapf(err, "client: %w", errors.ErrRefreshFailed)
		t.log.Warn().Str("request_id", requestID).Err(err).Msg("token refresh failed, session terminated")
		t.session.ForceLogout()
		t.settle(refreshOutcome{err: refreshErr})
		drain(resp)
		return nil, refreshErr
	}

	t.log.Debug().Str("request_id", requestID).Msg("token refreshed")
	t.settle(refreshOutcome{accessToken: pair.AccessToken})
	drain(resp)
	return t.replay(req, pair.AccessToken)
}

// settle drains and replaces the waiter queue and clears the in-flight
// flag in one critical section.
func (t *authTransport) settle(out refreshOutcome) {
	t.lock.Lock()
	waiters := t.waiters
	t.waiters = nil
	t.refreshing = false
	t.lock.Unlock()

	for _, ch := range waiters {
		ch <- out
	}
}

// replay reissues the request with the new access token. The result
// is returned verbatim: a second 401 is a final failure, never
// another refresh.
func (t *authTransport) replay(req *http.Request, accessToken string) (*http.Response, error) {
	clone := withBearer(req, accessToken)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, errors.Wrapf(err, "client: rewinding request body for replay")
		}
		clone.Body = body
	}
	return t.base.RoundTrip(clone)
}

func withBearer(req *http.Request, accessToken string) *http.Request {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+accessToken)
	return clone
}

func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
