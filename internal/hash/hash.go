// Package hash fingerprints persisted snapshots.
//
// A digest covers the snapshot's state branches only. The write timestamp is
// excluded, so two snapshots holding the same state share a digest no matter
// when they were written. The package provides a real SHA-256 implementation
// and a fake one for testing.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/danieljhkim/statekeep/internal/state"
)

// Hasher computes snapshot digests.
type Hasher interface {
	// HashSnapshot returns the digest of s.
	HashSnapshot(s state.Snapshot) (string, error)
}

// SHA256Hasher implements Hasher using SHA-256 over the snapshot's JSON
// encoding. encoding/json sorts map keys, so the encoding is canonical.
type SHA256Hasher struct{}

// NewSHA256Hasher creates a new SHA256Hasher.
func NewSHA256Hasher() *SHA256Hasher {
	return &SHA256Hasher{}
}

// HashSnapshot computes the SHA-256 digest of s without its timestamp.
func (h *SHA256Hasher) HashSnapshot(s state.Snapshot) (string, error) {
	body := s
	if _, ok := s[state.TimestampKey]; ok {
		body = s.Clone()
		delete(body, state.TimestampKey)
	}
	if body == nil {
		body = state.Snapshot{}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// FakeHasher implements Hasher with deterministic digests for testing.
type FakeHasher struct {
	digest string
}

// NewFakeHasher creates a FakeHasher that returns digest for every snapshot.
func NewFakeHasher(digest string) *FakeHasher {
	return &FakeHasher{digest: digest}
}

// HashSnapshot returns the configured digest.
func (h *FakeHasher) HashSnapshot(state.Snapshot) (string, error) {
	if h.digest == "" {
		return "fakehash", nil
	}
	return h.digest, nil
}
