package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for algorithm migration.
const (
	DomainSnapshot = "jokebox/snapshot/v1"
	DomainIntent   = "jokebox/intent/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SnapshotHash computes the content hash of a record sequence in its
// canonical array form. Equal content (ids, texts, scores, order) always
// yields the same hash.
func SnapshotHash(records IRArray) (string, error) {
	canonical, err := MarshalCanonical(records)
	if err != nil {
		return "", fmt.Errorf("SnapshotHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}

// IntentID computes a content-addressed ID for an intent applied at seq
// within a session.
func IntentID(session string, in Intent, seq int64) (string, error) {
	obj := IRObject{
		"session": IRString(session),
		"intent":  in.Canonical(),
		"seq":     IRInt(seq),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("IntentID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainIntent, canonical), nil
}

// MustSnapshotHash is like SnapshotHash but panics on error.
// Sequences built from records always marshal, so the store uses this form.
func MustSnapshotHash(records IRArray) string {
	h, err := SnapshotHash(records)
	if err != nil {
		panic(err)
	}
	return h
}
