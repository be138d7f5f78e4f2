package auth

import (
	"context"
	"errors"

	"modelrouter/internal/utils"
)

// ErrKeyNotFound is returned when a presented API key matches no record.
var ErrKeyNotFound = errors.New("API key not found")

// APIKeyRecord is the view of an API key needed at request time.
type APIKeyRecord struct {
	ID      string
	Name    string
	Revoked bool
}

// APIKeyStore resolves plaintext API keys into stored records.
type APIKeyStore interface {
	Lookup(ctx context.Context, plaintextKey string) (*APIKeyRecord, error)
}

// KeyEntry is one configured API key. Only the SHA-256 hash of the key is
// ever stored; cmd/genkey produces matching pairs.
type KeyEntry struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	KeyHash string `yaml:"key_hash"`
	Revoked bool   `yaml:"revoked"`
}

// StaticAPIKeyStore holds the keys loaded from configuration. The router is
// single-operator, so keys live in config rather than a database.
type StaticAPIKeyStore struct {
	// map of hash(API key) -> record
	keys map[string]*APIKeyRecord
}

// NewStaticAPIKeyStore indexes the configured entries by key hash.
func NewStaticAPIKeyStore(entries []KeyEntry) *StaticAPIKeyStore {
	s := &StaticAPIKeyStore{keys: make(map[string]*APIKeyRecord, len(entries))}
	for _, entry := range entries {
		s.keys[entry.KeyHash] = &APIKeyRecord{
			ID:      entry.ID,
			Name:    entry.Name,
			Revoked: entry.Revoked,
		}
	}
	return s
}

// Len returns the number of configured keys. Zero means the operator runs
// the router without authentication.
func (s *StaticAPIKeyStore) Len() int {
	return len(s.keys)
}

func (s *StaticAPIKeyStore) Lookup(ctx context.Context, plaintextKey string) (*APIKeyRecord, error) {
	rec, ok := s.keys[utils.HashString(plaintextKey)]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return rec, nil
}
