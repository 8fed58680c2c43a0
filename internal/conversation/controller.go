// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation runs one prompt/response round trip at a time against
// the active session: it titles new sessions, records the user turn, calls
// the model gateway and records the reply or the failure.
package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/guru-tui/internal/attach"
	"github.com/jeranaias/guru-tui/internal/gemini"
	"github.com/jeranaias/guru-tui/internal/model"
	"github.com/jeranaias/guru-tui/internal/session"
	"github.com/jeranaias/guru-tui/internal/util"
)

// Text constants shown to the user.
const (
	// GenericError is shown after any failed request.
	GenericError = "দুঃখিত, কোনো একটি সমস্যা হয়েছে। আবার চেষ্টা করুন।"

	// AttachmentOnlyPrompt is sent when the user submits only an attachment.
	AttachmentOnlyPrompt = "Analyze the attached content."

	// ImageTitle and FileTitle name sessions whose first turn has no text.
	ImageTitle = "Image Analysis"
	FileTitle  = "File Analysis"

	// TitleLength is the rune length of a derived session title.
	TitleLength = 30
)

var (
	// ErrEmptyPrompt is returned when there is neither text nor an attachment.
	ErrEmptyPrompt = errors.New("nothing to send")

	// ErrBusy is returned while a request is already in flight.
	ErrBusy = errors.New("a request is already in progress")
)

// Gateway produces a reply for a prompt given the prior conversation.
type Gateway interface {
	Generate(ctx context.Context, prompt string, history []model.Message, attachments []gemini.Attachment) (string, error)
}

// Turn is one submission between Begin and Complete or Fail.
type Turn struct {
	SessionID   string
	Prompt      string
	History     []model.Message
	Attachments []gemini.Attachment
	UserMessage model.Message
}

// Controller serializes submissions against a session store.
type Controller struct {
	store   *session.Store
	gateway Gateway
	logger  *zap.Logger

	mu      sync.Mutex
	loading bool
	lastErr string
	cause   error
}

// NewController wires a controller to its store and gateway.
func NewController(store *session.Store, gateway Gateway, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		store:   store,
		gateway: gateway,
		logger:  logger.Named("conversation"),
	}
}

// Loading reports whether a request is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Error returns the user-facing error from the last failed request, or "".
func (c *Controller) Error() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Cause returns the underlying error of the last failed request.
func (c *Controller) Cause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cause
}

// DismissError clears the error banner.
func (c *Controller) DismissError() {
	c.mu.Lock()
	c.lastErr = ""
	c.cause = nil
	c.mu.Unlock()
}

// SetGateway swaps the gateway used by later submissions.
func (c *Controller) SetGateway(g Gateway) {
	c.mu.Lock()
	c.gateway = g
	c.mu.Unlock()
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Begin validates and records a submission against the active session. On
// success the staged attachment has been consumed and the controller is
// loading; the caller must finish the turn with Complete or Fail.
// On error nothing has changed.
func (c *Controller) Begin(text string, staged *attach.Staged) (*Turn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loading {
		return nil, ErrBusy
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" && (staged == nil || staged.Empty()) {
		return nil, ErrEmptyPrompt
	}

	var img *model.Image
	var file *model.File
	if staged != nil {
		img, file = staged.Take()
	}

	active := c.store.Active()
	if len(active.Messages) == 1 {
		title := Title(text, img, file)
		if err := c.store.SetTitle(active.ID, title); err != nil {
			c.logger.Warn("failed to save title", zap.String("session", active.ID), zap.Error(err))
		}
	}

	userMsg := model.NewUserMessage(text, img, file)
	if err := c.store.Append(active.ID, userMsg); err != nil {
		c.logger.Warn("failed to save user message", zap.String("session", active.ID), zap.Error(err))
	}

	prompt := text
	if trimmed == "" {
		prompt = AttachmentOnlyPrompt
	}

	c.loading = true
	c.lastErr = ""
	c.cause = nil

	return &Turn{
		SessionID:   active.ID,
		Prompt:      prompt,
		History:     active.Messages,
		Attachments: gemini.AttachmentsFor(img, file),
		UserMessage: userMsg,
	}, nil
}

// Run calls the gateway for t. It does not touch controller state and is
// safe to run off the UI goroutine.
func (c *Controller) Run(ctx context.Context, t *Turn) (string, error) {
	c.mu.Lock()
	gw := c.gateway
	c.mu.Unlock()
	return gw.Generate(ctx, t.Prompt, t.History, t.Attachments)
}

// Complete records the assistant reply for t and clears loading.
func (c *Controller) Complete(t *Turn, reply string) model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := model.NewAssistantMessage(reply)
	if err := c.store.Append(t.SessionID, msg); err != nil {
		c.logger.Warn("failed to save reply", zap.String("session", t.SessionID), zap.Error(err))
	}
	c.loading = false
	return msg
}

// Fail records a failed turn. No message is appended and nothing is retried.
func (c *Controller) Fail(t *Turn, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Error("model request failed", zap.String("session", t.SessionID), zap.Error(err))
	c.loading = false
	c.lastErr = GenericError
	c.cause = err
}

// Submit runs a full round trip and blocks until it finishes. The returned
// error is the gateway error for a failed turn, or the Begin error.
func (c *Controller) Submit(ctx context.Context, text string, staged *attach.Staged) (model.Message, error) {
	t, err := c.Begin(text, staged)
	if err != nil {
		return model.Message{}, err
	}
	reply, err := c.Run(ctx, t)
	if err != nil {
		c.Fail(t, err)
		return model.Message{}, err
	}
	return c.Complete(t, reply), nil
}

// Title derives a session title from the first submission. The text is
// NFC-normalised and leading and trailing whitespace is dropped before the
// first TitleLength runes are taken.
func Title(text string, img *model.Image, file *model.File) string {
	trimmed := strings.TrimSpace(norm.NFC.String(text))
	switch {
	case trimmed != "":
		return util.PrefixRunes(trimmed, TitleLength)
	case img != nil:
		return ImageTitle
	case file != nil:
		return FileTitle
	default:
		return model.DefaultSessionTitle
	}
}
