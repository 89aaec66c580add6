package tokenstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/mektebapp/go-mekteb-client/internal/errors"
	"github.com/mektebapp/go-mekteb-client/users"
)

var _ Repo = (*FileRepo)(nil)

// FileRepo stores credentials in a JSON file, created with owner-only
// permissions.
type FileRepo struct {
	path string
	lock sync.Mutex
}

// NewFileRepo creates a file backed credential store at path.
func NewFileRepo(path string) *FileRepo {
	return &FileRepo{path: path}
}

func (r *FileRepo) Load() (Credentials, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.read()
}

func (r *FileRepo) SaveSession(accessToken, refreshToken string, user *users.User) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.write(Credentials{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	})
}

func (r *FileRepo) SaveTokens(accessToken, refreshToken string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	creds, err := r.read()
	if err != nil {
		return err
	}
	creds.AccessToken = accessToken
	creds.RefreshToken = refreshToken
	return r.write(creds)
}

func (r *FileRepo) Clear() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "tokenstore.Clear")
	}
	return nil
}

func (r *FileRepo) read() (Credentials, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return Credentials{}, nil
	}
	if err != nil {
		return Credentials{}, errors.Wrapf(err, "tokenstore.read")
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, errors.Wrapf(err, "tokenstore.read: corrupt credentials file")
	}
	return creds, nil
}

func (r *FileRepo) write(creds Credentials) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return errors.Wrapf(err, "tokenstore.write")
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return errors.Wrapf(err, "tokenstore.write")
	}

	if err := os.WriteFile(r.path, data, 0o600); err != nil {
		return errors.Wrapf(err, "tokenstore.write")
	}
	return nil
}
