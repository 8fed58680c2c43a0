// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"regexp"
)

// =============================================================================
// KEY/VALUE INTERFACE
// =============================================================================

// KV is a flat store of JSON records addressed by key.
type KV interface {
	// Get returns the record for key, or ErrKeyNotFound.
	Get(key string) ([]byte, error)

	// Set replaces the record for key.
	Set(key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// Close releases any underlying resources.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open returns the backend named by backend rooted at dir.
func Open(backend, dir string) (KV, error) {
	switch backend {
	case "", BackendFile:
		return NewFileStore(dir)
	case BackendSQLite:
		return NewSQLiteStore(dir)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrKeyNotFound is returned by Get for a key that was never set.
var ErrKeyNotFound = &StorageError{Message: "key not found"}

// ErrInvalidKey is returned for keys that are empty or not filename safe.
var ErrInvalidKey = &StorageError{Message: "invalid key"}

// ErrUnknownBackend is returned by Open for an unrecognised backend name.
var ErrUnknownBackend = &StorageError{Message: "unknown storage backend"}

// StorageError is a storage failure comparable with errors.Is.
type StorageError struct {
	Message string
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing storage errors.
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)

// validateKey rejects keys that could escape a directory or collide.
func validateKey(key string) error {
	if !keyPattern.MatchString(key) || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
