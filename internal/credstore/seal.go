package credstore

import (
	"bytes"
	"fmt"
	"io"

	"filippo.io/age"

	"driveway/internal/config"
)

// Sealer transforms credential blobs before they touch disk. Implementations
// must round-trip: Open(Seal(b)) == b.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(ciphertext []byte) ([]byte, error)
}

// PassphraseFunc obtains the user's passphrase, typically by prompting on
// the terminal. It is called at most once per process.
type PassphraseFunc func() (string, error)

// NewSealerFromConfig creates a Sealer based on the credentials config type.
func NewSealerFromConfig(cfg config.CredentialsConfig, prompt PassphraseFunc) (Sealer, error) {
	switch cfg.Type {
	case "plain", "":
		return &PlainSealer{}, nil
	case "age":
		if prompt == nil {
			return nil, fmt.Errorf("age credential store requires a passphrase prompt")
		}
		return &AgeSealer{prompt: prompt}, nil
	default:
		return nil, fmt.Errorf("unknown credentials type: %s", cfg.Type)
	}
}

// PlainSealer stores credentials unencrypted.
type PlainSealer struct{}

var _ Sealer = (*PlainSealer)(nil)

func (*PlainSealer) Seal(plaintext []byte) ([]byte, error) { return plaintext, nil }
func (*PlainSealer) Open(ciphertext []byte) ([]byte, error) { return ciphertext, nil }

// AgeSealer encrypts credentials with the user's passphrase using age's
// scrypt-based passphrase encryption.
type AgeSealer struct {
	prompt     PassphraseFunc
	passphrase string
}

var _ Sealer = (*AgeSealer)(nil)

func (s *AgeSealer) getPassphrase() (string, error) {
	if s.passphrase == "" {
		p, err := s.prompt()
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		if p == "" {
			return "", fmt.Errorf("empty passphrase")
		}
		s.passphrase = p
	}
	return s.passphrase, nil
}

func (s *AgeSealer) Seal(plaintext []byte) ([]byte, error) {
	passphrase, err := s.getPassphrase()
	if err != nil {
		return nil, err
	}

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("encrypting credentials: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}

	return buf.Bytes(), nil
}

func (s *AgeSealer) Open(ciphertext []byte) ([]byte, error) {
	passphrase, err := s.getPassphrase()
	if err != nil {
		return nil, err
	}

	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting credentials: %w", err)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted credentials: %w", err)
	}
	return plaintext, nil
}
