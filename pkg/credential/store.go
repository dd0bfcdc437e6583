package credential

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/helalist/hela/pkg/logging"
)

const credentialsFileName = "credentials.toml"

// Credentials is the persisted login state. Token is the well-known key read by Store.Token.
type Credentials struct {
	Server   string `toml:"server,omitempty"`
	Username string `toml:"username,omitempty"`
	Token    string `toml:"token"`
}

// Store keeps Credentials in a TOML file. Every Token call reads the file again.
type Store struct {
	path string
}

var _ Provider = &Store{}

// DefaultPath returns $XDG_CONFIG_HOME/hela/credentials.toml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "hela", credentialsFileName)
}

func NewStore(path string) *Store {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
	}
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the stored credentials. A missing file yields ErrNotLoggedIn.
func (s *Store) Load() (Credentials, error) {
	var creds Credentials
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return creds, ErrNotLoggedIn
	}
	if err != nil {
		return creds, fmt.Errorf("read credentials: %w", err)
	}
	if err := toml.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("parse credentials %s: %w", s.path, err)
	}
	if strings.TrimSpace(creds.Token) == "" {
		return creds, ErrNotLoggedIn
	}
	return creds, nil
}

func (s *Store) Token() (string, bool) {
	creds, err := s.Load()
	if err != nil {
		if !errors.Is(err, ErrNotLoggedIn) {
			logger := logging.GetLogger()
			logger.Debug().Err(err).Str("path", s.path).Msg("Credentials")
		}
		return "", false
	}
	return strings.TrimSpace(creds.Token), true
}

// withLock runs fn while holding the store's lock file.
func (s *Store) withLock(fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	lock, err := newFileLock(s.path + ".lock")
	if err != nil {
		return fmt.Errorf("open credentials lock: %w", err)
	}
	if err := lock.Acquire(); err != nil {
		_ = lock.Release()
		return fmt.Errorf("acquire credentials lock: %w", err)
	}
	fnErr := fn()
	if err := lock.Release(); err != nil && fnErr == nil {
		return fmt.Errorf("release credentials lock: %w", err)
	}
	return fnErr
}

// Save writes creds, creating the parent directory as needed. The file is only readable by the
// current user and is replaced atomically.
func (s *Store) Save(creds Credentials) error {
	data, err := toml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	return s.withLock(func() error {
		tmp, err := os.CreateTemp(filepath.Dir(s.path), credentialsFileName+".*")
		if err != nil {
			return fmt.Errorf("write credentials: %w", err)
		}
		defer os.Remove(tmp.Name())
		if _, err := tmp.Write(data); err != nil {
			tmp.Close()
			return fmt.Errorf("write credentials: %w", err)
		}
		if err := tmp.Chmod(0o600); err != nil {
			tmp.Close()
			return fmt.Errorf("write credentials: %w", err)
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("write credentials: %w", err)
		}
		if err := os.Rename(tmp.Name(), s.path); err != nil {
			return fmt.Errorf("write credentials: %w", err)
		}
		return nil
	})
}

// Clear removes the stored credentials. Clearing an absent file is not an error.
func (s *Store) Clear() error {
	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return s.withLock(func() error {
		err := os.Remove(s.path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove credentials: %w", err)
		}
		return nil
	})
}
