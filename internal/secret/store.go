// Package secret provides the SecretStore external collaborator from
// spec.md §6: an opaque keyed get/set/delete store over which the secure
// storage subsystem (AES-GCM session keys, RSA-wrapped account
// credentials, TTL rotation) is layered. The rotation logic itself is
// out of scope (spec.md §1 Out of scope); this package only owns the
// keyring-backed storage primitive the core calls through.
package secret

import (
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "open-mail"

// Key enumerates the identifiers spec.md §6 lists for the secure
// storage subsystem layered on top of this store.
type Key string

const (
	KeyAESGCMCipher     Key = "aesgcm_cipher_key"
	KeyAESGCMCipherPrev Key = "aesgcm_cipher_key_backup"
	KeyPublicPEM        Key = "public_pem"
	KeyPrivatePEM       Key = "private_pem"
	KeyAccounts         Key = "accounts"
	KeyAccountsBackup   Key = "accounts_backup"
)

// ValueType tags what a stored Value holds, per spec.md §6's
// `{value, type, created_at, last_updated_at}` record shape.
type ValueType string

const (
	TypeRaw           ValueType = "raw"
	TypeRSAEncrypted  ValueType = "rsa_encrypted_key"
)

// Value is one stored record's metadata + payload.
type Value struct {
	Data          string
	Type          ValueType
	CreatedAt     int64
	LastUpdatedAt int64
}

// Store is the external collaborator interface the core depends on.
// Rotation, envelope encryption, and TTL enforcement live above this
// interface, not in any implementation of it.
type Store interface {
	Get(key Key) (Value, error)
	Set(key Key, value Value) error
	Delete(key Key) error
	Close() error
}

// KeyringStore implements Store over the OS-native credential store
// (macOS Keychain, Secret Service, wincred, pass, or an encrypted file
// fallback), adapted from the teacher's credential package.
type KeyringStore struct {
	ring keyring.Keyring
}

// NewKeyringStore opens the backing keyring. fileDir is used only by the
// FileBackend fallback (e.g. headless Linux without a secret service).
func NewKeyringStore(fileDir string) (*KeyringStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt(serviceName + "-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &KeyringStore{ring: ring}, nil
}

func (s *KeyringStore) Get(key Key) (Value, error) {
	item, err := s.ring.Get(string(key))
	if err != nil {
		return Value{}, fmt.Errorf("getting secret %q: %w", key, err)
	}
	return decodeValue(item.Data), nil
}

func (s *KeyringStore) Set(key Key, value Value) error {
	if err := s.ring.Set(keyring.Item{
		Key:  string(key),
		Data: encodeValue(value),
	}); err != nil {
		return fmt.Errorf("setting secret %q: %w", key, err)
	}
	return nil
}

func (s *KeyringStore) Delete(key Key) error {
	if err := s.ring.Remove(string(key)); err != nil {
		return fmt.Errorf("deleting secret %q: %w", key, err)
	}
	return nil
}

// Close is a no-op: the keyring library holds no handle that needs
// releasing, but Store.Close gives callers an explicit shutdown point
// in place of the destructor-triggered clear spec.md §9 flags as a
// redesign target.
func (s *KeyringStore) Close() error { return nil }
