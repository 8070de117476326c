package credstore_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"driveway/internal/config"
	"driveway/internal/credstore"
	"driveway/internal/drive"
)

func newPlainStore(t *testing.T) *credstore.Store {
	t.Helper()
	return credstore.NewStore(t.TempDir(), &credstore.PlainSealer{})
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()
	store := newPlainStore(t)

	lastSync := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	st := &drive.AccountState{
		Email:           "a@example.com",
		AccountID:       7,
		Credential:      json.RawMessage(`{"access_token":"xyz"}`),
		ChangePageToken: "t42",
		RootFolderID:    "root",
		LastSync:        &lastSync,
	}

	if err := store.Save(st); err != nil {
		t.Fatalf("saving state: %v", err)
	}

	got, err := store.Load("a@example.com")
	if err != nil {
		t.Fatalf("loading state: %v", err)
	}
	if got.AccountID != 7 || got.ChangePageToken != "t42" || got.RootFolderID != "root" {
		t.Errorf("fields lost: %+v", got)
	}
	if got.LastSync == nil || !got.LastSync.Equal(lastSync) {
		t.Errorf("got last sync %v, want %v", got.LastSync, lastSync)
	}
	if string(got.Credential) != `{"access_token":"xyz"}` {
		t.Errorf("credential blob altered: %s", got.Credential)
	}
}

func TestStoreMissingAccount(t *testing.T) {
	t.Parallel()
	store := newPlainStore(t)

	_, err := store.Load("nobody@example.com")
	if !errors.Is(err, drive.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestStoreSaveWithoutEmail(t *testing.T) {
	t.Parallel()
	store := newPlainStore(t)

	if err := store.Save(&drive.AccountState{}); err == nil {
		t.Error("expected error saving state without email")
	}
}

func TestStoreList(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store := credstore.NewStore(dir, &credstore.PlainSealer{})

	for _, email := range []string{"b@example.com", "a@example.com"} {
		if err := store.Save(&drive.AccountState{Email: email}); err != nil {
			t.Fatalf("saving state: %v", err)
		}
	}
	// Stray files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("x"), 0644); err != nil {
		t.Fatalf("writing stray file: %v", err)
	}

	states, err := store.List()
	if err != nil {
		t.Fatalf("listing states: %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("got %d states, want 2", len(states))
	}
	if states[0].Email != "a@example.com" || states[1].Email != "b@example.com" {
		t.Errorf("states not sorted by email: %s, %s", states[0].Email, states[1].Email)
	}
}

func TestStoreListEmptyDir(t *testing.T) {
	t.Parallel()
	store := credstore.NewStore(filepath.Join(t.TempDir(), "does-not-exist"), &credstore.PlainSealer{})

	states, err := store.List()
	if err != nil {
		t.Fatalf("listing states: %v", err)
	}
	if len(states) != 0 {
		t.Errorf("got %d states from missing dir, want 0", len(states))
	}
}

func TestAgeSealerRoundTrip(t *testing.T) {
	t.Parallel()

	prompt := func() (string, error) { return "correct horse battery staple", nil }
	sealer, err := credstore.NewSealerFromConfig(ageConfig(t), prompt)
	if err != nil {
		t.Fatalf("creating sealer: %v", err)
	}

	plaintext := []byte(`{"email":"a@example.com"}`)
	sealed, err := sealer.Seal(plaintext)
	if err != nil {
		t.Fatalf("sealing: %v", err)
	}
	if string(sealed) == string(plaintext) {
		t.Error("sealed output equals plaintext")
	}

	opened, err := sealer.Open(sealed)
	if err != nil {
		t.Fatalf("opening: %v", err)
	}
	if string(opened) != string(plaintext) {
		t.Errorf("round trip altered data: %s", opened)
	}
}

func TestAgeSealerWrongPassphrase(t *testing.T) {
	t.Parallel()

	sealerA, err := credstore.NewSealerFromConfig(ageConfig(t),
		func() (string, error) { return "passphrase one", nil })
	if err != nil {
		t.Fatalf("creating sealer: %v", err)
	}
	sealed, err := sealerA.Seal([]byte("secret"))
	if err != nil {
		t.Fatalf("sealing: %v", err)
	}

	sealerB, err := credstore.NewSealerFromConfig(ageConfig(t),
		func() (string, error) { return "passphrase two", nil })
	if err != nil {
		t.Fatalf("creating sealer: %v", err)
	}
	if _, err := sealerB.Open(sealed); err == nil {
		t.Error("expected error opening with wrong passphrase")
	}
}

func TestUnknownSealerType(t *testing.T) {
	t.Parallel()

	cfg := ageConfig(t)
	cfg.Type = "rot13"
	if _, err := credstore.NewSealerFromConfig(cfg, nil); err == nil {
		t.Error("expected error for unknown sealer type")
	}
}

func ageConfig(t *testing.T) config.CredentialsConfig {
	t.Helper()
	return config.CredentialsConfig{Type: "age", Dir: t.TempDir()}
}
