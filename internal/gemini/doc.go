// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini is the model gateway: it turns a conversation history, a
// prompt and optional inline attachments into a single generateContent call
// against the Gemini REST API and returns the reply text.
//
// Basic usage:
//
//	client := gemini.NewClient(apiKey).
//		WithLogger(logger).
//		WithTimeout(2 * time.Minute)
//
//	reply, err := client.Generate(ctx, "How do I use Riverpod?", history, nil)
//	if errors.Is(err, gemini.ErrInvalidAPIKey) {
//		// ask the user to set GEMINI_API_KEY
//	}
//
// The client never retries. A failed call returns an error and the caller
// decides what to show.
package gemini
