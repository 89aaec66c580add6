package sessions_test

import (
	"errors"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mektebapp/go-mekteb-client/sessions"
	"github.com/mektebapp/go-mekteb-client/token"
	"github.com/mektebapp/go-mekteb-client/tokenstore/repofake"
	"github.com/mektebapp/go-mekteb-client/users"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func signedToken(t *testing.T, expiresIn time.Duration) string {
	t.Helper()

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"userId": float64(7),
		"exp":    testNow.Add(expiresIn).Unix(),
		"iat":    testNow.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func setupManager(t *testing.T) (*sessions.Manager, *repofake.FakeTokenStore) {
	t.Helper()

	token.NowFunc = func() time.Time { return testNow }
	t.Cleanup(func() { token.NowFunc = time.Now })

	store := repofake.NewFakeTokenStore()
	return sessions.NewManager(store, zerolog.Nop()), store
}

func testUser() *users.User {
	return &users.User{ID: 7, Username: "amina", Email: "amina@example.com", Role: users.RoleTeacher}
}

func TestHydrateEmptyStore(t *testing.T) {
	manager, _ := setupManager(t)

	require.True(t, manager.Snapshot().Loading)
	manager.Hydrate()

	state := manager.Snapshot()
	require.False(t, state.Loading)
	require.False(t, state.IsAuthenticated())
	require.Nil(t, state.User)
}

func TestHydrateValidAccessToken(t *testing.T) {
	manager, store := setupManager(t)

	access := signedToken(t, time.Hour)
	refresh := signedToken(t, 24*time.Hour)
	require.NoError(t, store.SaveSession(access, refresh, testUser()))

	manager.Hydrate()

	state := manager.Snapshot()
	require.True(t, state.IsAuthenticated())
	require.Equal(t, access, state.AccessToken)
	require.Equal(t, refresh, state.RefreshToken)
	require.Equal(t, "amina", state.User.Username)
}

func TestHydrateSoftRestore(t *testing.T) {
	manager, store := setupManager(t)

	access := signedToken(t, -time.Minute)
	refresh := signedToken(t, 24*time.Hour)
	require.NoError(t, store.SaveSession(access, refresh, testUser()))

	manager.Hydrate()

	// Authenticated with only the refresh token; the pipeline mints a
	// new access token on the first authenticated call.
	state := manager.Snapshot()
	require.True(t, state.IsAuthenticated())
	require.Empty(t, state.AccessToken)
	require.Equal(t, refresh, state.RefreshToken)
}

func TestHydrateBothExpired(t *testing.T) {
	manager, store := setupManager(t)

	require.NoError(t, store.SaveSession(signedToken(t, -time.Hour), signedToken(t, -time.Minute), testUser()))

	manager.Hydrate()

	state := manager.Snapshot()
	require.False(t, state.IsAuthenticated())

	creds, err := store.Load()
	require.NoError(t, err)
	require.True(t, creds.Empty())
}

func TestHydrateMalformedTokens(t *testing.T) {
	manager, store := setupManager(t)

	require.NoError(t, store.SaveSession("garbage", "also-garbage", testUser()))

	manager.Hydrate()
	require.False(t, manager.IsAuthenticated())
}

func TestHydrateTokensWithoutUser(t *testing.T) {
	manager, store := setupManager(t)

	require.NoError(t, store.SaveSession(signedToken(t, time.Hour), signedToken(t, 24*time.Hour), nil))

	manager.Hydrate()

	require.False(t, manager.IsAuthenticated())
	creds, err := store.Load()
	require.NoError(t, err)
	require.True(t, creds.Empty())
}

func TestHydrateStoreError(t *testing.T) {
	manager, store := setupManager(t)
	store.LoadErr = errors.New("disk on fire")

	manager.Hydrate()

	state := manager.Snapshot()
	require.False(t, state.Loading)
	require.False(t, state.IsAuthenticated())
}

func TestLoginLogoutRoundTrip(t *testing.T) {
	manager, store := setupManager(t)
	manager.Hydrate()

	user := testUser()
	require.NoError(t, manager.Login("access-1", "refresh-1", user))

	creds, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "access-1", creds.AccessToken)
	require.Equal(t, "refresh-1", creds.RefreshToken)
	require.Equal(t, user, creds.User)
	require.True(t, manager.IsAuthenticated())

	require.NoError(t, manager.Logout())

	creds, err = store.Load()
	require.NoError(t, err)
	require.True(t, creds.Empty())
	require.False(t, manager.IsAuthenticated())
}

func TestUpdateTokensKeepsUser(t *testing.T) {
	manager, store := setupManager(t)
	manager.Hydrate()

	user := testUser()
	require.NoError(t, manager.Login("access-1", "refresh-1", user))
	require.NoError(t, manager.UpdateTokens("access-2", "refresh-2"))

	state := manager.Snapshot()
	require.Equal(t, "access-2", state.AccessToken)
	require.Equal(t, "refresh-2", state.RefreshToken)
	require.Equal(t, user, state.User)

	creds, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "access-2", creds.AccessToken)
	require.Equal(t, user, creds.User)
}

func TestForceLogoutBroadcast(t *testing.T) {
	manager, store := setupManager(t)
	manager.Hydrate()
	require.NoError(t, manager.Login("access-1", "refresh-1", testUser()))

	var notified int
	manager.OnLogout(func() { notified++ })

	manager.ForceLogout()

	require.Equal(t, 1, notified)
	require.False(t, manager.IsAuthenticated())

	creds, err := store.Load()
	require.NoError(t, err)
	require.True(t, creds.Empty())
}

func TestWatchSeesAtomicUpdates(t *testing.T) {
	manager, _ := setupManager(t)
	manager.Hydrate()

	var states []sessions.State
	manager.Watch(func(s sessions.State) { states = append(states, s) })

	require.NoError(t, manager.Login("access-1", "refresh-1", testUser()))

	require.Len(t, states, 1)
	// No observer ever sees a partially applied login.
	require.True(t, states[0].IsAuthenticated())
	require.Equal(t, "access-1", states[0].AccessToken)
	require.Equal(t, "refresh-1", states[0].RefreshToken)
	require.NotNil(t, states[0].User)
}
