package repofake

import (
	"sync"

	"github.com/mektebapp/go-mekteb-client/tokenstore"
	"github.com/mektebapp/go-mekteb-client/users"
)

var _ tokenstore.Repo = (*FakeTokenStore)(nil)

// FakeTokenStore is an in-memory credential store for tests. LoadErr
// can be set to simulate a corrupt backing store.
type FakeTokenStore struct {
	creds   tokenstore.Credentials
	LoadErr error
	lock    sync.Mutex
}

func NewFakeTokenStore() *FakeTokenStore {
	return &FakeTokenStore{}
}

func (s *FakeTokenStore) Load() (tokenstore.Credentials, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.LoadErr != nil {
		return tokenstore.Credentials{}, s.LoadErr
	}
	return s.creds, nil
}

func (s *FakeTokenStore) SaveSession(accessToken, refreshToken string, user *users.User) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.creds = tokenstore.Credentials{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}
	return nil
}

func (s *FakeTokenStore) SaveTokens(accessToken, refreshToken string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.creds.AccessToken = accessToken
	s.creds.RefreshToken = refreshToken
	return nil
}

func (s *FakeTokenStore) Clear() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.creds = tokenstore.Credentials{}
	return nil
}
