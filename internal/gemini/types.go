// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"strings"

	"github.com/jeranaias/guru-tui/internal/model"
)

// Wire roles.
const (
	roleUser  = "user"
	roleModel = "model"
)

// Attachment is one inline payload on the outgoing turn.
type Attachment struct {
	Data     string // base64, no data: prefix
	MimeType string
}

// Sampling holds the generation settings sent with every request.
type Sampling struct {
	Temperature    float64
	TopK           int
	TopP           float64
	ThinkingBudget int
}

// DefaultSampling returns the stock generation settings.
func DefaultSampling() Sampling {
	return Sampling{
		Temperature:    0.7,
		TopK:           40,
		TopP:           0.95,
		ThinkingBudget: 4000,
	}
}

// =============================================================================
// REQUEST
// =============================================================================

// Part is a text part or an inline data part.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
	Thought    bool        `json:"thought,omitempty"`
}

// InlineData carries a base64 payload and its media type.
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Content is one turn.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type thinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type generationConfig struct {
	Temperature    float64         `json:"temperature"`
	TopK           int             `json:"topK"`
	TopP           float64         `json:"topP"`
	ThinkingConfig *thinkingConfig `json:"thinkingConfig,omitempty"`
}

// GenerateRequest is the generateContent request body.
type GenerateRequest struct {
	Contents          []Content        `json:"contents"`
	SystemInstruction *Content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

// =============================================================================
// RESPONSE
// =============================================================================

// GenerateResponse is the subset of the generateContent response we read.
type GenerateResponse struct {
	Candidates []struct {
		Content      Content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		ThoughtsTokenCount   int `json:"thoughtsTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
}

// Text joins the non-thought text parts of the first candidate.
func (r *GenerateResponse) Text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		if p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// =============================================================================
// CONTENT ASSEMBLY
// =============================================================================

// BuildContents converts prior messages plus the new turn into wire contents.
// Assistant messages become role "model". A message's image and file ride as
// inline data after its text.
func BuildContents(history []model.Message, prompt string, attachments []Attachment) []Content {
	contents := make([]Content, 0, len(history)+1)
	for _, msg := range history {
		contents = append(contents, messageContent(msg))
	}

	contents = append(contents, Content{Role: roleUser, Parts: turnParts(prompt, attachments)})
	return contents
}

func messageContent(msg model.Message) Content {
	role := roleUser
	if msg.Role == model.RoleAssistant {
		role = roleModel
	}
	return Content{Role: role, Parts: turnParts(msg.Content, AttachmentsFor(msg.Image, msg.File))}
}

// turnParts lays out one turn's text followed by its inline payloads. An
// empty text part would marshal to {}, which the API rejects, so it is only
// sent when the turn has nothing else.
func turnParts(text string, attachments []Attachment) []Part {
	parts := make([]Part, 0, len(attachments)+1)
	if text != "" || len(attachments) == 0 {
		parts = append(parts, Part{Text: text})
	}
	for _, a := range attachments {
		parts = append(parts, Part{InlineData: &InlineData{MimeType: a.MimeType, Data: a.Data}})
	}
	return parts
}

// AttachmentsFor collects the inline payloads staged on a user message.
func AttachmentsFor(img *model.Image, f *model.File) []Attachment {
	var out []Attachment
	if img != nil {
		out = append(out, Attachment{Data: img.Data, MimeType: img.MimeType})
	}
	if f != nil {
		out = append(out, Attachment{Data: f.Data, MimeType: f.MimeType})
	}
	return out
}
