// Package id generates identifiers: prefixed NanoIDs for ephemeral handles, UUIDv7 for identities,
// and millisecond timestamp tokens for books added without a catalog id.
package id

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "client-V1StGXR8_Z5jdHi6B-myT").
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// User returns a new time-ordered identity id.
func User() (string, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate user id: %w", err)
	}
	return u.String(), nil
}

// Timestamp returns the decimal Unix-millisecond value of now. If that token is
// already taken it is bumped by one millisecond until it is free.
func Timestamp(now time.Time, taken func(string) bool) string {
	ms := now.UnixMilli()
	for {
		token := strconv.FormatInt(ms, 10)
		if taken == nil || !taken(token) {
			return token
		}
		ms++
	}
}
