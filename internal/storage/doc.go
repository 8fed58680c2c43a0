// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local key/value area the session store
// persists into.
//
// Each key holds one opaque JSON record. Two durable backends exist:
//
//   - FileStore: one file per key, written atomically (default)
//   - SQLiteStore: a single kv table in a modernc.org/sqlite database
//
// MemoryStore backs tests and the --ephemeral flag.
//
// # Usage
//
//	kv, err := storage.Open(storage.BackendFile, dataDir)
//	if err != nil {
//	    return err
//	}
//	defer kv.Close()
//	err = kv.Set("flutter_guru_user", data)
package storage
