// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth produces the signed-in user: either a Google account obtained
// through the OAuth device flow, or a locally synthesized guest.
//
// The Google ID token is decoded without signature verification. The client
// keeps no server-side session, so the token is only a source of profile
// fields (sub, name, email, picture).
package auth
