// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultSessionTitle is the title of a session nobody has written to yet.
const DefaultSessionTitle = "New Chat"

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session is one conversation thread. Messages are append-only.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	UpdatedAt time.Time `json:"-"`
}

// NewSession creates a default session holding only the welcome message.
func NewSession(now time.Time) Session {
	return Session{
		ID:        ulid.Make().String(),
		Title:     DefaultSessionTitle,
		Messages:  []Message{WelcomeMessage(now)},
		UpdatedAt: now,
	}
}

// Append adds a message and bumps UpdatedAt.
func (s *Session) Append(msg Message) {
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = msg.Timestamp
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now()
	}
}

// LastMessage returns the newest message, or false for an empty session.
func (s Session) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// Clone returns a copy whose message slice can be modified independently.
func (s Session) Clone() Session {
	c := s
	c.Messages = append([]Message(nil), s.Messages...)
	return c
}

// sessionJSON mirrors Session with updatedAt stored as epoch milliseconds.
type sessionJSON struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	UpdatedAt int64     `json:"updatedAt"`
}

// MarshalJSON writes updatedAt as epoch milliseconds.
func (s Session) MarshalJSON() ([]byte, error) {
	msgs := s.Messages
	if msgs == nil {
		msgs = []Message{}
	}
	return json.Marshal(sessionJSON{
		ID:        s.ID,
		Title:     s.Title,
		Messages:  msgs,
		UpdatedAt: s.UpdatedAt.UnixMilli(),
	})
}

// UnmarshalJSON reads updatedAt as epoch milliseconds.
func (s *Session) UnmarshalJSON(data []byte) error {
	var raw sessionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.ID = raw.ID
	s.Title = raw.Title
	s.Messages = raw.Messages
	s.UpdatedAt = time.UnixMilli(raw.UpdatedAt)
	return nil
}
