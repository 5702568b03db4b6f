package account

import (
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/ini.v1"
)

// TokenStore keeps the auth token between runs.
type TokenStore interface {
	// Load returns "" when no token is stored.
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileStore persists the token in the [Auth] section of an INI state file.
// Other sections of the file are left untouched.
type FileStore struct {
	Path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. The file is created on first Save.
func NewFileStore(path string) *FileStore { return &FileStore{Path: path} }

func (f *FileStore) load() (*ini.File, error) {
	// Loose: a missing file loads as empty.
	return ini.LoadSources(ini.LoadOptions{Loose: true}, f.Path)
}

func (f *FileStore) Load() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, err := f.load()
	if err != nil {
		return "", err
	}
	return cfg.Section("Auth").Key("Token").String(), nil
}

func (f *FileStore) Save(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, err := f.load()
	if err != nil {
		return err
	}
	cfg.Section("Auth").Key("Token").SetValue(token)
	return f.write(cfg)
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, err := f.load()
	if err != nil {
		return err
	}
	cfg.Section("Auth").DeleteKey("Token")
	return f.write(cfg)
}

func (f *FileStore) write(cfg *ini.File) error {
	if dir := filepath.Dir(f.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	// The token is a credential: keep the file private.
	fh, err := os.OpenFile(f.Path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := cfg.WriteTo(fh); err != nil {
		_ = fh.Close()
		return err
	}
	return fh.Close()
}

// MemoryStore is a TokenStore that forgets everything on exit.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStore) Clear() error { return m.Save("") }
