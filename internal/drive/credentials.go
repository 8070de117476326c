package drive

import (
	"encoding/json"
	"time"
)

// AccountState is the persistent per-account state held by the credential
// store: the opaque OAuth credential blob plus the bookkeeping the sync
// engine needs to resume where it left off.
type AccountState struct {
	// Email identifies the account. It is also the credential store key.
	Email string `json:"email"`

	// AccountID is the account's surrogate id in the local database.
	AccountID int64 `json:"account_id"`

	// Credential is the serialized OAuth token material. The sync engine
	// never inspects it; only the remote adapter reads or rewrites it.
	Credential json.RawMessage `json:"credential,omitempty"`

	// ChangePageToken is the resumption cursor for the remote change feed.
	ChangePageToken string `json:"change_page_token,omitempty"`

	// RootFolderID is the id of the account's root folder, recorded during
	// full import.
	RootFolderID string `json:"root_folder_id,omitempty"`

	// LastSync is the last time this account successfully synchronized.
	LastSync *time.Time `json:"last_sync,omitempty"`
}

// CredentialStore persists AccountState blobs keyed by email.
type CredentialStore interface {
	// Load returns the state for the given email, or ErrNotFound.
	Load(email string) (*AccountState, error)

	// Save persists the state. The write must be atomic so a crash cannot
	// leave a truncated state file behind.
	Save(st *AccountState) error

	// List returns the state of every known account in a stable order.
	List() ([]*AccountState, error)
}
