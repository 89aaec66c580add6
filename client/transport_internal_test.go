package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mektebapp/go-mekteb-client/internal/errors"
	"github.com/mektebapp/go-mekteb-client/sessions"
	"github.com/mektebapp/go-mekteb-client/token"
	"github.com/mektebapp/go-mekteb-client/tokenstore/repofake"
	"github.com/mektebapp/go-mekteb-client/users"
)

type blockingRefresher struct {
	lock    sync.Mutex
	calls   int
	got     string
	pair    token.Pair
	err     error
	release chan struct{}
}

func (f *blockingRefresher) Refresh(_ context.Context, refreshToken string) (token.Pair, error) {
	f.lock.Lock()
	f.calls++
	f.got = refreshToken
	f.lock.Unlock()

	<-f.release
	return f.pair, f.err
}

func (f *blockingRefresher) callCount() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.calls
}

// waitForWaiters blocks until the transport has a refresh in flight
// with n requests queued behind it.
func waitForWaiters(t *testing.T, tr *authTransport, n int) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		tr.lock.Lock()
		ready := tr.refreshing && len(tr.waiters) == n
		tr.lock.Unlock()
		if ready {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d queued requests", n)
}

func newCountingServer(validToken string) (*httptest.Server, func() (stale, fresh int)) {
	var lock sync.Mutex
	var stale, fresh int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lock.Lock()
		valid := r.Header.Get("Authorization") == "Bearer "+validToken
		if valid {
			fresh++
		} else {
			stale++
		}
		lock.Unlock()

		if !valid {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))

	return server, func() (int, int) {
		lock.Lock()
		defer lock.Unlock()
		return stale, fresh
	}
}

// Holds access token T1 (stale) and refresh token T2. Three requests
// fire concurrently, all 401. Exactly one refresh call is made with
// T2, all three replays carry the new token T3, and storage ends up
// with T3/T4.
func TestSingleFlightRefresh(t *testing.T) {
	server, counts := newCountingServer("T3")
	defer server.Close()

	store := repofake.NewFakeTokenStore()
	require.NoError(t, store.SaveSession("T1", "T2", &users.User{ID: 1}))
	manager := sessions.NewManager(store, zerolog.Nop())
	manager.Hydrate()

	refresher := &blockingRefresher{
		pair:    token.Pair{AccessToken: "T3", RefreshToken: "T4"},
		release: make(chan struct{}),
	}
	transport := newAuthTransport(nil, store, manager, refresher, zerolog.Nop())
	httpClient := &http.Client{Transport: transport}

	const concurrent = 3
	results := make(chan error, concurrent)
	for i := 0; i < concurrent; i++ {
		go func() {
			resp, err := httpClient.Get(server.URL + "/students")
			if err == nil {
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					err = errors.Wrapf(errors.ErrInternal, "status %d", resp.StatusCode)
				}
			}
			results <- err
		}()
	}

	// One request leads the refresh, the other two queue behind it.
	waitForWaiters(t, transport, concurrent-1)
	close(refresher.release)

	for i := 0; i < concurrent; i++ {
		require.NoError(t, <-results)
	}

	require.Equal(t, 1, refresher.callCount())
	require.Equal(t, "T2", refresher.got)

	stale, fresh := counts()
	require.Equal(t, concurrent, stale)
	require.Equal(t, concurrent, fresh)

	creds, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "T3", creds.AccessToken)
	require.Equal(t, "T4", creds.RefreshToken)
}

// When the in-flight refresh fails, every queued request rejects with
// the refresh error, the session is cleared exactly once, and the
// logout broadcast fires.
func TestSingleFlightRefreshFailure(t *testing.T) {
	server, counts := newCountingServer("T3")
	defer server.Close()

	store := repofake.NewFakeTokenStore()
	require.NoError(t, store.SaveSession("T1", "T2", &users.User{ID: 1}))
	manager := sessions.NewManager(store, zerolog.Nop())
	manager.Hydrate()

	logouts := 0
	manager.OnLogout(func() { logouts++ })

	refresher := &blockingRefresher{
		err:     errors.ErrInvalidToken,
		release: make(chan struct{}),
	}
	transport := newAuthTransport(nil, store, manager, refresher, zerolog.Nop())
	httpClient := &http.Client{Transport: transport}

	const concurrent = 3
	results := make(chan error, concurrent)
	for i := 0; i < concurrent; i++ {
		go func() {
			resp, err := httpClient.Get(server.URL + "/students")
			if err == nil {
				_ = resp.Body.Close()
			}
			results <- err
		}()
	}

	waitForWaiters(t, transport, concurrent-1)
	close(refresher.release)

	for i := 0; i < concurrent; i++ {
		err := <-results
		require.Error(t, err)
		require.ErrorIs(t, err, errors.ErrRefreshFailed)
	}

	require.Equal(t, 1, refresher.callCount())
	require.Equal(t, 1, logouts)

	stale, fresh := counts()
	require.Equal(t, concurrent, stale)
	require.Equal(t, 0, fresh)

	creds, err := store.Load()
	require.NoError(t, err)
	require.True(t, creds.Empty())

	// The in-flight flag is released, so a later 401 starts a fresh
	// refresh cycle instead of queueing forever.
	transport.lock.Lock()
	require.False(t, transport.refreshing)
	require.Empty(t, transport.waiters)
	transport.lock.Unlock()
}
