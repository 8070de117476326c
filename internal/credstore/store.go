package credstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"driveway/internal/config"
	"driveway/internal/drive"
)

// Store is a file-backed drive.CredentialStore. Each account's state lives
// in one file named after its email, sealed by the configured Sealer.
type Store struct {
	dir    string
	sealer Sealer
}

var _ drive.CredentialStore = (*Store)(nil)

// NewStoreFromConfig creates a Store from the credentials config. The
// prompt is only invoked for sealed store types.
func NewStoreFromConfig(cfg config.CredentialsConfig, prompt PassphraseFunc) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("dir required for credential store")
	}
	sealer, err := NewSealerFromConfig(cfg, prompt)
	if err != nil {
		return nil, err
	}
	return &Store{dir: cfg.Dir, sealer: sealer}, nil
}

// NewStore creates a Store over the given directory and sealer.
func NewStore(dir string, sealer Sealer) *Store {
	return &Store{dir: dir, sealer: sealer}
}

func (s *Store) path(email string) string {
	return filepath.Join(s.dir, email+".json")
}

// Load returns the state for the given email, or drive.ErrNotFound.
func (s *Store) Load(email string) (*drive.AccountState, error) {
	data, err := os.ReadFile(s.path(email))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("account %s: %w", email, drive.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading account state: %w", err)
	}

	plaintext, err := s.sealer.Open(data)
	if err != nil {
		return nil, fmt.Errorf("unsealing account state for %s: %w", email, err)
	}

	var st drive.AccountState
	if err := json.Unmarshal(plaintext, &st); err != nil {
		return nil, fmt.Errorf("decoding account state for %s: %w", email, err)
	}
	return &st, nil
}

// Save persists the state atomically: write to a temp file in the same
// directory, then rename over the destination.
func (s *Store) Save(st *drive.AccountState) error {
	if st.Email == "" {
		return fmt.Errorf("cannot save account state without an email")
	}

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("creating credential directory: %w", err)
	}

	plaintext, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding account state for %s: %w", st.Email, err)
	}

	data, err := s.sealer.Seal(plaintext)
	if err != nil {
		return fmt.Errorf("sealing account state for %s: %w", st.Email, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing account state: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path(st.Email)); err != nil {
		return fmt.Errorf("replacing account state file: %w", err)
	}
	return nil
}

// List returns the state of every stored account, sorted by email.
func (s *Store) List() ([]*drive.AccountState, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading credential directory: %w", err)
	}

	var states []*drive.AccountState
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
			continue
		}
		st, err := s.Load(strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, err
		}
		states = append(states, st)
	}

	sort.Slice(states, func(i, j int) bool { return states[i].Email < states[j].Email })
	return states, nil
}
