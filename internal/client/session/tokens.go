package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// TokenKey is the key the access token is persisted under.
const TokenKey = "auth_token"

// TokenStore persists the single access token across restarts.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

type MemoryTokens struct {
	mu    sync.Mutex
	token string
}

func NewMemoryTokens(initial string) *MemoryTokens {
	return &MemoryTokens{token: initial}
}

func (m *MemoryTokens) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryTokens) Save(token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *MemoryTokens) Clear() error {
	return m.Save("")
}

// FileTokens keeps a small JSON object on disk, the CLI's equivalent of
// browser local storage. Other keys in the file are preserved.
type FileTokens struct {
	mu   sync.Mutex
	path string
}

func NewFileTokens(path string) *FileTokens {
	return &FileTokens{path: path}
}

// DefaultTokenPath is <user config dir>/authhub/state.json.
func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "authhub", "state.json"), nil
}

func (f *FileTokens) Load() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, err := f.read()
	if err != nil {
		return "", err
	}

	tok, _ := m[TokenKey].(string)
	return tok, nil
}

func (f *FileTokens) Save(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, err := f.read()
	if err != nil {
		// an unreadable file is replaced rather than blocking signin
		m = map[string]any{}
	}
	m[TokenKey] = token
	return f.write(m)
}

func (f *FileTokens) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, err := f.read()
	if err != nil {
		m = map[string]any{}
	}
	if _, ok := m[TokenKey]; !ok && err == nil {
		return nil
	}
	delete(m, TokenKey)
	return f.write(m)
}

func (f *FileTokens) read() (map[string]any, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}

	m := map[string]any{}
	if len(raw) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse token file: %w", err)
	}
	return m, nil
}

// write replaces the file atomically so a crash never leaves half a token.
func (f *FileTokens) write(m map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}

	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp token file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), f.path)
}
