// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the store, the
// controller, the gateway and the UI.
//
// # Key Types
//
//   - User: signed-in identity (Google or guest)
//   - Message: one chat turn with an optional image or document attachment
//   - Session: one conversation thread with a title and ordered messages
//   - Role: message sender (user or assistant)
//
// # Usage
//
//	s := model.NewSession(time.Now())
//	s.Append(model.NewUserMessage("How do I use Riverpod?", nil, nil))
package model
