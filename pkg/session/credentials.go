package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Credentials is the persisted session: a bearer token, a user-type
// discriminator, and a user identifier. The three keys are stored together
// and cleared together; a partial write never survives.
type Credentials struct {
	Token    string `json:"echomed_token"`
	UserType string `json:"echomed_user_type"`
	UserID   string `json:"echomed_user_id"`
}

// Present reports whether all three credential keys are set. A credential
// with any key missing is treated as absent.
func (c Credentials) Present() bool {
	return c.Token != "" && c.UserType != "" && c.UserID != ""
}

// CredentialStore persists session credentials across process restarts.
// Only the session Store reads or writes it.
type CredentialStore interface {
	// Load returns the stored credentials, or a zero value with nil error
	// when nothing is stored.
	Load() (Credentials, error)

	// Save replaces the stored credentials atomically.
	Save(creds Credentials) error

	// Clear removes all credential keys together. Clearing an empty store
	// is a no-op.
	Clear() error
}

// FileCredentialStore persists credentials as a JSON file. Writes go through
// a temp file and rename so a crash never leaves a partial credential on
// disk.
type FileCredentialStore struct {
	path string
}

// NewFileCredentialStore creates a store backed by the given file path.
func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{path: path}
}

func (f *FileCredentialStore) Load() (Credentials, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Credentials{}, nil
		}
		return Credentials{}, fmt.Errorf("read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("parse credentials: %w", err)
	}
	return creds, nil
}

func (f *FileCredentialStore) Save(creds Credentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("create temp credentials: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close credentials: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit credentials: %w", err)
	}
	return nil
}

func (f *FileCredentialStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}
