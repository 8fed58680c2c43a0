// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns one fresh store per backend.
func backends(t *testing.T) map[string]KV {
	t.Helper()

	file, err := NewFileStore(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)

	db, err := NewSQLiteStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return map[string]KV{
		BackendFile:   file,
		BackendSQLite: db,
		BackendMemory: NewMemoryStore(),
	}
}

func TestKV_SetGetDelete(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := kv.Get("flutter_guru_user")
			assert.True(t, errors.Is(err, ErrKeyNotFound), "got %v", err)

			require.NoError(t, kv.Set("flutter_guru_user", []byte(`{"id":"1"}`)))
			got, err := kv.Get("flutter_guru_user")
			require.NoError(t, err)
			assert.Equal(t, `{"id":"1"}`, string(got))

			require.NoError(t, kv.Set("flutter_guru_user", []byte(`{"id":"2"}`)))
			got, err = kv.Get("flutter_guru_user")
			require.NoError(t, err)
			assert.Equal(t, `{"id":"2"}`, string(got))

			require.NoError(t, kv.Delete("flutter_guru_user"))
			_, err = kv.Get("flutter_guru_user")
			assert.ErrorIs(t, err, ErrKeyNotFound)

			// Deleting twice is fine.
			assert.NoError(t, kv.Delete("flutter_guru_user"))
		})
	}
}

func TestKV_RejectsUnsafeKeys(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", "..", "../escape", "a/b", "with space"} {
				assert.ErrorIs(t, kv.Set(key, []byte("x")), ErrInvalidKey, "key %q", key)
				_, err := kv.Get(key)
				assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
			}
		})
	}
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	a, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, a.Set("flutter_guru_chats", []byte(`{"sessions":[]}`)))

	b, err := NewFileStore(dir)
	require.NoError(t, err)
	got, err := b.Get("flutter_guru_chats")
	require.NoError(t, err)
	assert.Equal(t, `{"sessions":[]}`, string(got))

	info, err := os.Stat(filepath.Join(dir, "flutter_guru_chats.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	a, err := NewSQLiteStore(dir)
	require.NoError(t, err)
	require.NoError(t, a.Set("flutter_guru_chats", []byte("payload")))
	require.NoError(t, a.Close())

	b, err := NewSQLiteStore(dir)
	require.NoError(t, err)
	defer b.Close()
	got, err := b.Get("flutter_guru_chats")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))
	assert.Equal(t, filepath.Join(dir, DatabaseFile), b.Path())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	kv := NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, kv.Set("k", buf))
	buf[0] = 'z'

	got, err := kv.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestOpen_Backends(t *testing.T) {
	kv, err := Open("", t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, kv)

	kv, err = Open(BackendMemory, "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, kv)

	_, err = Open("redis", t.TempDir())
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
