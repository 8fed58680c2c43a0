// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns the header shown above a message.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Guru"
	default:
		return string(r)
	}
}

// =============================================================================
// ATTACHMENTS
// =============================================================================

// Image is a base64 encoded image attached to a message.
type Image struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

// File is a base64 encoded document attached to a message.
type File struct {
	Name     string `json:"name"`
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// WelcomeMessageID is the fixed ID of the greeting seeded into new sessions.
const WelcomeMessageID = "1"

// WelcomeText greets the user in Bengali and English.
const WelcomeText = "👋 নমস্কার! আমি আপনার Flutter AI গুরু। আমি আপনাকে Flutter এবং Dart দিয়ে চমৎকার অ্যাপ তৈরি করতে সাহায্য করতে পারি। আপনি আমাকে কোডের ফাইল (.dart), কনফিগারেশন (.yaml), পিডিএফ অথবা ছবি পাঠাতে পারেন।\n\nHi! I'm your Flutter AI Guru. You can send me code files, pubspec.yaml, PDFs, or images for analysis."

// Message is a single immutable chat turn.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Image     *Image    `json:"image,omitempty"`
	File      *File     `json:"file,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message with a generated ID and the current time.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a user message carrying at most one of image or file.
func NewUserMessage(content string, image *Image, file *File) Message {
	msg := NewMessage(RoleUser, content)
	msg.Image = image
	msg.File = file
	return msg
}

// NewAssistantMessage creates an assistant reply.
func NewAssistantMessage(content string) Message {
	return NewMessage(RoleAssistant, content)
}

// WelcomeMessage returns the greeting every fresh session starts with.
func WelcomeMessage(now time.Time) Message {
	return Message{
		ID:        WelcomeMessageID,
		Role:      RoleAssistant,
		Content:   WelcomeText,
		Timestamp: now,
	}
}

// HasAttachment reports whether the message carries an image or a document.
func (m Message) HasAttachment() bool {
	return m.Image != nil || m.File != nil
}

// TimeLabel formats the timestamp as HH:MM in local time.
func (m Message) TimeLabel() string {
	return m.Timestamp.Local().Format("15:04")
}
