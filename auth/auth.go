// Copyright (c) 2025 Davron Karimov.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrInvalidAdminKey = errors.New("invalid admin key")

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateLink creates a short shareable link token for an event.
// Eight characters of a UUID are plenty for a room-sized namespace and
// keep the voting URL typeable from a projector screen.
func GenerateLink() string {
	return uuid.NewString()[:8]
}

// ValidateAdminKey compares the provided admin key against the
// configured secret in constant time.
func ValidateAdminKey(provided, expected string) error {
	if expected == "" || !hmac.Equal([]byte(provided), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// First 16 hex chars (64 bits) - enough for deduplication
	return hex.EncodeToString(sum[:8])
}

// VoterKey derives the dedup key for a voter from the client-reported
// device fingerprint and the salted IP hash. The fingerprint is advisory
// only; a voter that forges a fresh one can vote again. That weakness is
// inherited from the client design and deliberately not papered over.
func VoterKey(deviceID, ip, salt string) string {
	ipHash := HashIP(ip, salt)
	if deviceID == "" {
		return ipHash
	}
	return deviceID + ":" + ipHash
}
