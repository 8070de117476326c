package testutil

import (
	"fmt"
	"sort"

	"driveway/internal/drive"
)

// MemoryCredentialStore is an in-memory drive.CredentialStore for tests.
type MemoryCredentialStore struct {
	states map[string]drive.AccountState

	// SaveErr, when set, is returned by Save.
	SaveErr error

	// Saves counts successful Save calls.
	Saves int
}

var _ drive.CredentialStore = (*MemoryCredentialStore)(nil)

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{states: make(map[string]drive.AccountState)}
}

func (m *MemoryCredentialStore) Load(email string) (*drive.AccountState, error) {
	st, ok := m.states[email]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", email, drive.ErrNotFound)
	}
	copied := st
	return &copied, nil
}

func (m *MemoryCredentialStore) Save(st *drive.AccountState) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.states[st.Email] = *st
	m.Saves++
	return nil
}

func (m *MemoryCredentialStore) List() ([]*drive.AccountState, error) {
	emails := make([]string, 0, len(m.states))
	for email := range m.states {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	states := make([]*drive.AccountState, 0, len(emails))
	for _, email := range emails {
		st := m.states[email]
		states = append(states, &st)
	}
	return states, nil
}
