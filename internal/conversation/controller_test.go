// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/guru-tui/internal/attach"
	"github.com/jeranaias/guru-tui/internal/gemini"
	"github.com/jeranaias/guru-tui/internal/model"
	"github.com/jeranaias/guru-tui/internal/session"
	"github.com/jeranaias/guru-tui/internal/storage"
)

// recordingGateway captures every call and answers with reply or err.
type recordingGateway struct {
	mu    sync.Mutex
	calls []gatewayCall
	reply string
	err   error
}

type gatewayCall struct {
	prompt      string
	history     []model.Message
	attachments []gemini.Attachment
}

func (g *recordingGateway) Generate(_ context.Context, prompt string, history []model.Message, attachments []gemini.Attachment) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, gatewayCall{prompt: prompt, history: history, attachments: attachments})
	return g.reply, g.err
}

func newController(t *testing.T, gw Gateway) (*Controller, *session.Store) {
	t.Helper()
	store := session.Open(storage.NewMemoryStore())
	return NewController(store, gw, nil), store
}

func TestSubmit_SuccessAppendsUserThenAssistant(t *testing.T) {
	gw := &recordingGateway{reply: "Use `setState` sparingly."}
	c, store := newController(t, gw)

	var staged attach.Staged
	msg, err := c.Submit(context.Background(), "How do I manage state?", &staged)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAssistant, msg.Role)

	active := store.Active()
	require.Len(t, active.Messages, 3)
	assert.Equal(t, model.WelcomeMessageID, active.Messages[0].ID)
	assert.Equal(t, model.RoleUser, active.Messages[1].Role)
	assert.Equal(t, "How do I manage state?", active.Messages[1].Content)
	assert.Equal(t, model.RoleAssistant, active.Messages[2].Role)
	assert.Equal(t, "Use `setState` sparingly.", active.Messages[2].Content)

	assert.False(t, c.Loading())
	assert.Empty(t, c.Error())

	require.Len(t, gw.calls, 1)
	assert.Equal(t, "How do I manage state?", gw.calls[0].prompt)
	require.Len(t, gw.calls[0].history, 1, "history excludes the turn being sent")
	assert.Equal(t, model.WelcomeMessageID, gw.calls[0].history[0].ID)
}

func TestSubmit_FailureAppendsOnlyUserMessage(t *testing.T) {
	cause := errors.New("connection reset")
	gw := &recordingGateway{err: cause}
	c, store := newController(t, gw)

	_, err := c.Submit(context.Background(), "hello", nil)
	assert.ErrorIs(t, err, cause)

	active := store.Active()
	require.Len(t, active.Messages, 2)
	assert.Equal(t, model.RoleUser, active.Messages[1].Role)
	assert.False(t, c.Loading())
	assert.Equal(t, GenericError, c.Error())
	assert.ErrorIs(t, c.Cause(), cause)

	c.DismissError()
	assert.Empty(t, c.Error())
}

func TestBegin_RejectsEmptyWithoutAttachment(t *testing.T) {
	gw := &recordingGateway{}
	c, store := newController(t, gw)
	before := store.Active()

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := c.Begin(text, &attach.Staged{})
		assert.ErrorIs(t, err, ErrEmptyPrompt)
	}

	assert.Equal(t, before, store.Active())
	assert.False(t, c.Loading())
	assert.Empty(t, gw.calls)
}

func TestBegin_RejectsWhileLoading(t *testing.T) {
	c, store := newController(t, &recordingGateway{reply: "ok"})

	turn, err := c.Begin("first", nil)
	require.NoError(t, err)
	assert.True(t, c.Loading())

	staged := &attach.Staged{}
	staged.SetImage(&model.Image{Data: "AAAA", MimeType: "image/png"})
	_, err = c.Begin("second", staged)
	assert.ErrorIs(t, err, ErrBusy)
	assert.False(t, staged.Empty(), "a rejected submission keeps the staged attachment")
	assert.Len(t, store.Active().Messages, 2)

	c.Complete(turn, "done")
	assert.False(t, c.Loading())
	assert.Len(t, store.Active().Messages, 3)
}

func TestBegin_AttachmentOnly(t *testing.T) {
	gw := &recordingGateway{reply: "That is a Scaffold."}
	c, store := newController(t, gw)

	staged := &attach.Staged{}
	staged.SetImage(&model.Image{Data: "iVBOR", MimeType: "image/png"})

	_, err := c.Submit(context.Background(), "", staged)
	require.NoError(t, err)
	assert.True(t, staged.Empty(), "staged attachment is consumed")

	require.Len(t, gw.calls, 1)
	assert.Equal(t, AttachmentOnlyPrompt, gw.calls[0].prompt)
	assert.Equal(t, []gemini.Attachment{{Data: "iVBOR", MimeType: "image/png"}}, gw.calls[0].attachments)

	active := store.Active()
	assert.Equal(t, ImageTitle, active.Title)
	require.NotNil(t, active.Messages[1].Image)
	assert.Empty(t, active.Messages[1].Content)
}

func TestBegin_TitlesOnlyFirstTurn(t *testing.T) {
	c, store := newController(t, &recordingGateway{reply: "ok"})

	_, err := c.Submit(context.Background(), "Explain the difference between Provider and Riverpod", nil)
	require.NoError(t, err)
	first := store.Active().Title
	assert.Equal(t, "Explain the difference between", first)

	_, err = c.Submit(context.Background(), "And Bloc?", nil)
	require.NoError(t, err)
	assert.Equal(t, first, store.Active().Title)
}

func TestSubmit_TargetsSessionActiveAtBegin(t *testing.T) {
	c, store := newController(t, &recordingGateway{reply: "late reply"})

	turn, err := c.Begin("question", nil)
	require.NoError(t, err)
	origin := turn.SessionID

	_, err = store.NewChat()
	require.NoError(t, err)
	c.Complete(turn, "late reply")

	s, ok := store.Session(origin)
	require.True(t, ok)
	assert.Len(t, s.Messages, 3)
	assert.Len(t, store.Active().Messages, 1)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "hello", Title("  hello  ", nil, nil))
	assert.Equal(t, FileTitle, Title(" ", nil, &model.File{Name: "a.dart"}))
	assert.Equal(t, ImageTitle, Title("", &model.Image{}, nil))

	long := strings.Repeat("w", TitleLength+5)
	assert.Equal(t, long[:TitleLength], Title("\n\t   "+long, nil, nil), "leading whitespace does not count")

	bengali := strings.Repeat("ফ্লাটার", 10)
	got := Title(bengali, nil, nil)
	assert.Equal(t, TitleLength, len([]rune(got)))
}
