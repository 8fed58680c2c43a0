// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session is the chat state container: the ordered session list,
// the active-session pointer and the signed-in user.
//
// The Store loads both records from a storage.KV on Open and rewrites the
// whole chats record after every mutation. It guarantees that the session
// list is never empty and that the active ID always names a listed session.
//
// # Key Types
//
//   - Store: state container with named intents (NewChat, Delete, Select...)
//   - ErrSessionNotFound: returned for unknown session IDs
//
// # Usage
//
//	store := session.Open(kv, session.WithLogger(logger))
//	if notice := store.TakeRecoveryNotice(); notice != "" {
//	    // show it once
//	}
//	s, err := store.NewChat()
package session
