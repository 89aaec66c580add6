// Package sessions owns the process-wide authentication state: which
// user is logged in and which token pair backs them. All durable
// writes go through the token store; view code never touches storage
// directly.
package sessions

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/mektebapp/go-mekteb-client/internal/errors"
	"github.com/mektebapp/go-mekteb-client/token"
	"github.com/mektebapp/go-mekteb-client/tokenstore"
	"github.com/mektebapp/go-mekteb-client/users"
)

// State is an immutable snapshot of the session.
type State struct {
	User         *users.User
	AccessToken  string
	RefreshToken string
	Loading      bool
}

// IsAuthenticated reports whether a user is logged in. A user record
// without any token is treated as logged out.
func (s State) IsAuthenticated() bool {
	return s.User != nil && (s.AccessToken != "" || s.RefreshToken != "")
}

// Manager is the single source of truth for the current session. One
// instance exists per application run.
type Manager struct {
	store tokenstore.Repo
	log   zerolog.Logger

	lock         sync.Mutex
	user         *users.User
	accessToken  string
	refreshToken string
	loading      bool

	watchers      []func(State)
	logoutWatcher []func()
}

// NewManager creates a Manager in the loading state. Call Hydrate
// before exposing the session to callers.
func NewManager(store tokenstore.Repo, log zerolog.Logger) *Manager {
	return &Manager{
		store:   store,
		log:     log.With().Str("component", "sessions").Logger(),
		loading: true,
	}
}

// Hydrate restores the session from the token store. It runs once at
// startup and never returns an error: storage failures fail safe to a
// logged-out session. The loading flag is cleared on every branch.
func (m *Manager) Hydrate() {
	creds, err := m.store.Load()
	if err != nil {
		m.log.Warn().Err(err).Msg("credential store unreadable, starting logged out")
		m.forceClear()
		m.finishLoading()
		return
	}

	switch {
	case creds.Empty():
		// Nothing stored, stay logged out.
	case creds.User == nil:
		// Tokens without a user record violate the session invariant.
		m.forceClear()
	case creds.AccessToken != "" && !token.IsExpired(creds.AccessToken):
		m.set(creds.User, creds.AccessToken, creds.RefreshToken)
	case creds.RefreshToken != "" && !token.IsExpired(creds.RefreshToken):
		// Soft restore: the access token is stale, so the pipeline
		// will mint a fresh one on the first authenticated call.
		m.set(creds.User, "", creds.RefreshToken)
	default:
		m.forceClear()
	}

	m.finishLoading()
}

// Login persists the credential triple and updates the in-memory
// session atomically.
func (m *Manager) Login(accessToken, refreshToken string, user *users.User) error {
	if err := m.store.SaveSession(accessToken, refreshToken, user); err != nil {
		return errors.Wrapf(err, "sessions.Login")
	}

	m.set(user, accessToken, refreshToken)
	m.log.Info().Str("username", user.Username).Msg("logged in")
	return nil
}

// Logout removes stored credentials and clears the in-memory session.
func (m *Manager) Logout() error {
	if err := m.store.Clear(); err != nil {
		return errors.Wrapf(err, "sessions.Logout")
	}

	m.set(nil, "", "")
	m.log.Info().Msg("logged out")
	return nil
}

// UpdateTokens replaces the token pair after a refresh, keeping the
// user unchanged.
func (m *Manager) UpdateTokens(accessToken, refreshToken string) error {
	if err := m.store.SaveTokens(accessToken, refreshToken); err != nil {
		return errors.Wrapf(err, "sessions.UpdateTokens")
	}

	m.lock.Lock()
	m.accessToken = accessToken
	m.refreshToken = refreshToken
	state := m.snapshotLocked()
	watchers := append([]func(State){}, m.watchers...)
	m.lock.Unlock()

	notify(watchers, state)
	return nil
}

// ForceLogout clears the session and broadcasts the logout to every
// subscriber. The pipeline calls it when the refresh protocol fails
// terminally.
func (m *Manager) ForceLogout() {
	m.forceClear()

	m.lock.Lock()
	logoutWatchers := append([]func(){}, m.logoutWatcher...)
	m.lock.Unlock()

	m.log.Warn().Msg("session expired, forcing logout")
	for _, fn := range logoutWatchers {
		fn()
	}
}

// Watch registers a callback invoked after every session mutation.
func (m *Manager) Watch(fn func(State)) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.watchers = append(m.watchers, fn)
}

// OnLogout registers a callback invoked when the session is forcibly
// terminated (refresh failure, missing refresh token).
func (m *Manager) OnLogout(fn func()) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.logoutWatcher = append(m.logoutWatcher, fn)
}

// Snapshot returns the current session state.
func (m *Manager) Snapshot() State {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.snapshotLocked()
}

// IsAuthenticated reports whether a user with at least one token is
// present.
func (m *Manager) IsAuthenticated() bool {
	return m.Snapshot().IsAuthenticated()
}

// User returns the current user, or nil when logged out.
func (m *Manager) User() *users.User {
	return m.Snapshot().User
}

func (m *Manager) set(user *users.User, accessToken, refreshToken string) {
	m.lock.Lock()
	m.user = user
	m.accessToken = accessToken
	m.refreshToken = refreshToken
	state := m.snapshotLocked()
	watchers := append([]func(State){}, m.watchers...)
	m.lock.Unlock()

	notify(watchers, state)
}

func (m *Manager) forceClear() {
	if err := m.store.Clear(); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear credential store")
	}
	m.set(nil, "", "")
}

func (m *Manager) finishLoading() {
	m.lock.Lock()
	m.loading = false
	state := m.snapshotLocked()
	watchers := append([]func(State){}, m.watchers...)
	m.lock.Unlock()

	notify(watchers, state)
}

func (m *Manager) snapshotLocked() State {
	return State{
		User:         m.user,
		AccessToken:  m.accessToken,
		RefreshToken: m.refreshToken,
		Loading:      m.loading,
	}
}

func notify(watchers []func(State), state State) {
	for _, fn := range watchers {
		fn(state)
	}
}
