// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/guru-tui/internal/attach"
	"github.com/jeranaias/guru-tui/internal/config"
	"github.com/jeranaias/guru-tui/internal/conversation"
	"github.com/jeranaias/guru-tui/internal/export"
	"github.com/jeranaias/guru-tui/internal/gemini"
	"github.com/jeranaias/guru-tui/internal/model"
	"github.com/jeranaias/guru-tui/internal/session"
	"github.com/jeranaias/guru-tui/internal/storage"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type fakeGateway struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
	attach  [][]gemini.Attachment
}

func (g *fakeGateway) Generate(_ context.Context, prompt string, _ []model.Message, attachments []gemini.Attachment) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	g.attach = append(g.attach, attachments)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

// testApp wires an App around memory storage and a fake gateway.
func testApp(t *testing.T, gw *fakeGateway) (*App, *bytes.Buffer) {
	t.Helper()
	app := Build(config.Default(), storage.NewMemoryStore(), nil)
	app.Gateway = gw
	app.Controller.SetGateway(gw)

	out := &bytes.Buffer{}
	app.Out = out
	app.Err = io.Discard
	app.In = strings.NewReader("")
	t.Cleanup(func() { _ = app.Close() })
	return app, out
}

// scriptedReader feeds fixed lines to the chat loop, then io.EOF.
type scriptedReader struct {
	lines   []string
	prompts []string
}

func (r *scriptedReader) Prompt(prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func decodeJSON(t *testing.T, buf *bytes.Buffer, data interface{}) JSONResponse {
	t.Helper()
	resp := JSONResponse{Data: data}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	return resp
}

// =============================================================================
// PARSE
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		argv  []string
		want  Command
		check func(t *testing.T, a Args)
	}{
		{name: "no args starts the TUI", argv: nil, want: CmdTUI},
		{
			name: "ask joins the question",
			argv: []string{"ask", "how", "do", "I", "pad?"},
			want: CmdAsk,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "how do I pad?", a.Query)
			},
		},
		{
			name: "ask with image",
			argv: []string{"a", "-i", "shot.png", "why?"},
			want: CmdAsk,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "shot.png", a.Image)
				assert.Equal(t, "why?", a.Query)
			},
		},
		{
			name: "ask with file equals form",
			argv: []string{"ask", "--file=lib/main.dart", "explain"},
			want: CmdAsk,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "lib/main.dart", a.File)
			},
		},
		{
			name: "global flags anywhere",
			argv: []string{"--json", "ask", "--model", "gemini-2.5-pro", "-q", "hi"},
			want: CmdAsk,
			check: func(t *testing.T, a Args) {
				assert.True(t, a.JSON)
				assert.True(t, a.Quiet)
				assert.Equal(t, "gemini-2.5-pro", a.Model)
				assert.Equal(t, "hi", a.Query)
			},
		},
		{
			name: "chat new",
			argv: []string{"chat", "--new"},
			want: CmdChat,
			check: func(t *testing.T, a Args) {
				assert.True(t, a.NewSession)
			},
		},
		{
			name: "sessions alias",
			argv: []string{"session", "delete", "2", "--confirm"},
			want: CmdSessions,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "delete", a.Subcommand)
				assert.Equal(t, []string{"delete", "2", "--confirm"}, a.Raw)
			},
		},
		{
			name: "login guest",
			argv: []string{"login", "--guest"},
			want: CmdLogin,
			check: func(t *testing.T, a Args) {
				assert.True(t, a.Guest)
			},
		},
		{name: "signout alias", argv: []string{"signout"}, want: CmdLogout},
		{name: "whoami", argv: []string{"whoami"}, want: CmdWhoami},
		{
			name: "config set keeps spaces in value",
			argv: []string{"config", "set", "gemini.model", "my", "model"},
			want: CmdConfig,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "set", a.Subcommand)
				assert.Equal(t, "gemini.model", a.ConfigKey)
				assert.Equal(t, "my model", a.ConfigVal)
			},
		},
		{name: "version flag", argv: []string{"--version"}, want: CmdVersion},
		{name: "help flag", argv: []string{"-h"}, want: CmdHelp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, err := Parse(tt.argv)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd)
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	_, _, err := Parse([]string{"ask", "-i", "a.png", "-f", "b.dart", "q"})
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	_, _, err = Parse([]string{"ask", "-i"})
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	cmd, _, err := Parse([]string{"sesions"})
	require.Error(t, err)
	assert.Equal(t, CmdHelp, cmd)
	assert.Contains(t, err.Error(), "guru sessions")
}

func TestCommand_NeedsApp(t *testing.T) {
	assert.True(t, CmdAsk.NeedsApp())
	assert.True(t, CmdTUI.NeedsApp())
	assert.False(t, CmdConfig.NeedsApp())
	assert.False(t, CmdVersion.NeedsApp())
	assert.Equal(t, "sessions", CmdSessions.String())
}

func TestPrintUsageAndVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintUsage(&buf)
	assert.Contains(t, buf.String(), "guru ask")
	assert.Contains(t, buf.String(), Version)

	buf.Reset()
	PrintVersion(&buf)
	assert.Contains(t, buf.String(), "guru version "+Version)
}

// =============================================================================
// ARG PARSER
// =============================================================================

func TestArgParser(t *testing.T) {
	p := NewArgParser([]string{"export", "2", "--format", "json", "--output=/tmp/out", "--confirm"})
	assert.Equal(t, "export", p.Subcommand())
	assert.Equal(t, "2", p.Positional(1))
	assert.Equal(t, "json", p.Flag("format"))
	assert.Equal(t, "/tmp/out", p.Flag("--output"))
	assert.True(t, p.BoolFlag("confirm"))
	assert.True(t, p.HasFlag("format"))
	assert.False(t, p.HasFlag("missing"))
	assert.Equal(t, "md", p.FlagOrDefault("style", "md"))
	assert.Equal(t, "", p.Positional(5))
	assert.Equal(t, 2, p.PositionalCount())
}

func TestArgParser_BoolFlagsNeverTakeValues(t *testing.T) {
	p := NewArgParser([]string{"delete", "--confirm", "3"})
	assert.True(t, p.BoolFlag("confirm"))
	assert.Equal(t, "3", p.Positional(1))

	p = NewArgParser([]string{"show", "--json=false"})
	assert.False(t, p.BoolFlag("json"))
	assert.True(t, p.HasFlag("json"))
}

func TestArgParser_Empty(t *testing.T) {
	p := NewArgParser(nil)
	assert.Equal(t, "", p.Subcommand())
	assert.Empty(t, p.PositionalFrom(1))
}

// =============================================================================
// ERRORS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"validation", NewValidationError("x", "y", "bad"), ExitUsageError},
		{"unsupported document", fmt.Errorf("wrap: %w", attach.ErrUnsupportedDocument), ExitUsageError},
		{"export format", export.ErrUnsupportedFormat, ExitUsageError},
		{"not found", NewNotFoundError("session", "9"), ExitNotFoundError},
		{"store not found", fmt.Errorf("%w: x", session.ErrSessionNotFound), ExitNotFoundError},
		{"unknown key", fmt.Errorf("%w: nope", config.ErrUnknownKey), ExitConfigError},
		{"invalid config", config.ValidateErrors{{Field: "a", Message: "b"}}, ExitConfigError},
		{"api key", NewCommandError("ask", "generate", "failed", gemini.ErrInvalidAPIKey), ExitAuthError},
		{"deadline", context.DeadlineExceeded, ExitNetworkError},
		{"rate limited", gemini.ErrRateLimited, ExitNetworkError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestDisplayError(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, NewCommandError("ask", "generate", "failed", gemini.ErrInvalidAPIKey), false)
	assert.Contains(t, buf.String(), "GEMINI_API_KEY")

	buf.Reset()
	DisplayError(&buf, NewNotFoundError("session", "7"), true)
	resp := decodeJSON(t, &buf, nil)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Contains(t, *resp.Error, "session not found: 7")
}

func TestSuggestCommand(t *testing.T) {
	assert.Equal(t, "help", SuggestCommand("hepl"))
	assert.Equal(t, "sessions", SuggestCommand("sesions"))
	assert.Equal(t, "login", SuggestCommand("logn"))
	assert.Equal(t, "", SuggestCommand("x"))
	assert.Equal(t, "", SuggestCommand("kubernetes"))
}

// =============================================================================
// CONFIRMATION
// =============================================================================

func TestRequireConfirmation(t *testing.T) {
	yes, no := true, false

	ok, err := RequireConfirmation("delete", ConfirmationOptions{ConfirmFlag: true})
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = RequireConfirmation("delete", ConfirmationOptions{JSONMode: true})
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	_, err = RequireConfirmation("delete", ConfirmationOptions{Interactive: &no})
	assert.Error(t, err)

	var out bytes.Buffer
	ok, err = RequireConfirmation("delete it", ConfirmationOptions{Interactive: &yes, In: strings.NewReader("y\n"), Out: &out})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "delete it")

	ok, err = RequireConfirmation("delete it", ConfirmationOptions{Interactive: &yes, In: strings.NewReader("\n"), Out: &out})
	require.NoError(t, err)
	assert.False(t, ok)
}

// =============================================================================
// ASK
// =============================================================================

func TestHandleAsk(t *testing.T) {
	gw := &fakeGateway{reply: "Wrap it in a Center widget."}
	app, out := testApp(t, gw)

	err := HandleAsk(context.Background(), app, Args{Query: "How do I center?"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Wrap it in a Center widget.")
	assert.Equal(t, []string{"How do I center?"}, gw.prompts)

	// ask never touches saved sessions
	assert.Len(t, app.Store.Active().Messages, 1)
}

func TestHandleAsk_JSON(t *testing.T) {
	gw := &fakeGateway{reply: "Use Padding."}
	app, out := testApp(t, gw)

	require.NoError(t, HandleAsk(context.Background(), app, Args{Query: "padding?", JSON: true}))

	var result AskResult
	resp := decodeJSON(t, out, &result)
	assert.True(t, resp.Success)
	assert.Equal(t, "ask", resp.Command)
	assert.Equal(t, "Use Padding.", result.Answer)
	assert.Equal(t, app.Config.Gemini.Model, result.Model)
}

func TestHandleAsk_Document(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.dart")
	require.NoError(t, os.WriteFile(path, []byte("void main() {}"), 0o600))

	gw := &fakeGateway{reply: "It does nothing."}
	app, _ := testApp(t, gw)

	require.NoError(t, HandleAsk(context.Background(), app, Args{Query: "explain", File: path}))
	require.Len(t, gw.attach, 1)
	assert.Len(t, gw.attach[0], 1)
}

func TestHandleAsk_Errors(t *testing.T) {
	if IsTTY() {
		t.Skip("stdin is a terminal")
	}
	app, _ := testApp(t, &fakeGateway{reply: "x"})

	err := HandleAsk(context.Background(), app, Args{})
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	err = HandleAsk(context.Background(), app, Args{Query: "q", File: "notes.exe"})
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	app.Gateway = &fakeGateway{err: gemini.ErrInvalidAPIKey}
	err = HandleAsk(context.Background(), app, Args{Query: "q"})
	assert.Equal(t, ExitAuthError, GetExitCode(err))
}

func TestHandleAsk_ReadsPipedQuestion(t *testing.T) {
	if IsTTY() {
		t.Skip("stdin is a terminal")
	}
	gw := &fakeGateway{reply: "ok"}
	app, _ := testApp(t, gw)
	app.In = strings.NewReader("  what is a Key?\n")

	require.NoError(t, HandleAsk(context.Background(), app, Args{}))
	assert.Equal(t, []string{"what is a Key?"}, gw.prompts)
}

// =============================================================================
// CHAT
// =============================================================================

func TestRunChat_Turns(t *testing.T) {
	gw := &fakeGateway{reply: "Use a Center."}
	app, out := testApp(t, gw)
	first := app.Store.ActiveID()

	in := &scriptedReader{lines: []string{"", "How do I center?", "/new", "/sessions", "/quit"}}
	require.NoError(t, RunChat(context.Background(), app, in, Args{}, false))

	assert.Contains(t, out.String(), "Use a Center.")
	assert.Contains(t, out.String(), "Sessions")

	sess, ok := app.Store.Session(first)
	require.True(t, ok)
	assert.Equal(t, "How do I center?", sess.Title)
	assert.Len(t, sess.Messages, 3)

	assert.Len(t, app.Store.Sessions(), 2)
	assert.NotEqual(t, first, app.Store.ActiveID())
}

func TestRunChat_Failure(t *testing.T) {
	gw := &fakeGateway{err: fmt.Errorf("wrapped: %w", gemini.ErrInvalidAPIKey)}
	app, out := testApp(t, gw)

	in := &scriptedReader{lines: []string{"hello"}}
	require.NoError(t, RunChat(context.Background(), app, in, Args{Quiet: true}, false))

	assert.Contains(t, out.String(), conversation.GenericError)
	assert.Contains(t, out.String(), "GEMINI_API_KEY")
	assert.Empty(t, app.Controller.Error())
}

func TestRunChat_AttachDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pubspec.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: demo\n"), 0o600))

	gw := &fakeGateway{reply: "Looks fine."}
	app, out := testApp(t, gw)

	in := &scriptedReader{lines: []string{"/file " + path, "", "/image", "/file notes.exe"}}
	require.NoError(t, RunChat(context.Background(), app, in, Args{Quiet: true}, false))

	// blank lines are skipped even with an attachment staged
	assert.Empty(t, gw.prompts)
	assert.Contains(t, out.String(), "Attached pubspec.yaml")
	assert.Contains(t, out.String(), "usage: /image PATH")
	assert.Contains(t, in.prompts[1], "pubspec.yaml")
}

func TestRunChat_SendsStagedDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.dart")
	require.NoError(t, os.WriteFile(path, []byte("void main() {}"), 0o600))

	gw := &fakeGateway{reply: "ok"}
	app, _ := testApp(t, gw)

	in := &scriptedReader{lines: []string{"/file " + path, "explain this", "next"}}
	require.NoError(t, RunChat(context.Background(), app, in, Args{Quiet: true}, false))

	require.Len(t, gw.attach, 2)
	assert.Len(t, gw.attach[0], 1)
	assert.Empty(t, gw.attach[1], "attachment is cleared after sending")
	assert.Equal(t, "› ", in.prompts[2])
}

func TestRunChat_SwitchAndNew(t *testing.T) {
	app, out := testApp(t, &fakeGateway{reply: "ok"})
	original := app.Store.ActiveID()

	in := &scriptedReader{lines: []string{"/switch 2", "/switch 9", "/bogus", "exit"}}
	require.NoError(t, RunChat(context.Background(), app, in, Args{NewSession: true, Quiet: true}, false))

	assert.Equal(t, original, app.Store.ActiveID())
	assert.Contains(t, out.String(), "session not found: 9")
	assert.Contains(t, out.String(), "unknown command /bogus")
}

func TestCompleteSlashCommand(t *testing.T) {
	assert.Equal(t, []string{"/sessions", "/switch "}, completeSlashCommand("/s"))
	assert.Nil(t, completeSlashCommand("hello"))
}

// =============================================================================
// SESSIONS
// =============================================================================

func TestHandleSessions_List(t *testing.T) {
	app, out := testApp(t, &fakeGateway{})
	_, err := app.Store.NewChat()
	require.NoError(t, err)

	require.NoError(t, HandleSessions(app, Args{JSON: true}))

	var rows []SessionInfo
	decodeJSON(t, out, &rows)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Index)
	assert.True(t, rows[0].Active)
	assert.False(t, rows[1].Active)
	assert.Equal(t, model.DefaultSessionTitle, rows[1].Title)
}

func TestHandleSessions_ShowAndDelete(t *testing.T) {
	app, out := testApp(t, &fakeGateway{reply: "A Column stacks widgets."})
	_, err := app.Controller.Submit(context.Background(), "What is a Column?", &attach.Staged{})
	require.NoError(t, err)

	require.NoError(t, HandleSessions(app, Args{Subcommand: "show", Raw: []string{"show", "1"}}))
	assert.Contains(t, out.String(), "What is a Column?")
	assert.Contains(t, out.String(), "A Column stacks widgets.")

	id := app.Store.ActiveID()
	err = HandleSessions(app, Args{Subcommand: "delete", Raw: []string{"delete", "1"}, JSON: true})
	assert.Equal(t, ExitUsageError, GetExitCode(err), "json mode requires --confirm")

	require.NoError(t, HandleSessions(app, Args{Subcommand: "delete", Raw: []string{"delete", id, "--confirm"}}))
	_, ok := app.Store.Session(id)
	assert.False(t, ok)
	assert.Len(t, app.Store.Sessions(), 1, "a default session replaces the last one")
}

func TestHandleSessions_Export(t *testing.T) {
	app, out := testApp(t, &fakeGateway{})
	dir := t.TempDir()

	require.NoError(t, HandleSessions(app, Args{Subcommand: "export", Raw: []string{"export", "1", "--format", "json", "--output", dir}}))
	path := strings.TrimSpace(out.String())
	assert.Equal(t, dir, filepath.Dir(path))
	assert.FileExists(t, path)

	err := HandleSessions(app, Args{Subcommand: "export", Raw: []string{"export", "1", "--format", "pdf", "--output", dir}})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestHandleSessions_Errors(t *testing.T) {
	app, _ := testApp(t, &fakeGateway{})

	assert.Equal(t, ExitUsageError, GetExitCode(HandleSessions(app, Args{Subcommand: "show", Raw: []string{"show"}})))
	assert.Equal(t, ExitNotFoundError, GetExitCode(HandleSessions(app, Args{Subcommand: "show", Raw: []string{"show", "4"}})))
	assert.Equal(t, ExitNotFoundError, GetExitCode(HandleSessions(app, Args{Subcommand: "show", Raw: []string{"show", "nope"}})))
	assert.Equal(t, ExitUsageError, GetExitCode(HandleSessions(app, Args{Subcommand: "purge"})))
}

// =============================================================================
// AUTH
// =============================================================================

func TestHandleLogin_Guest(t *testing.T) {
	app, out := testApp(t, &fakeGateway{})

	require.NoError(t, HandleLogin(context.Background(), app, Args{Guest: true}))
	assert.Contains(t, out.String(), "Logged in as Guest")

	u, ok := app.Store.User()
	require.True(t, ok)
	assert.True(t, u.IsGuest())

	out.Reset()
	require.NoError(t, HandleWhoami(app, Args{JSON: true}))
	var who WhoamiResult
	decodeJSON(t, out, &who)
	assert.True(t, who.SignedIn)
	assert.True(t, who.Guest)
}

func TestHandleLogin_GoogleNotConfigured(t *testing.T) {
	app, _ := testApp(t, &fakeGateway{})

	err := HandleLogin(context.Background(), app, Args{})
	assert.Equal(t, ExitAuthError, GetExitCode(err))
	_, ok := app.Store.User()
	assert.False(t, ok)
}

func TestHandleLogout(t *testing.T) {
	app, out := testApp(t, &fakeGateway{})
	require.NoError(t, HandleLogin(context.Background(), app, Args{Guest: true}))
	sessions := len(app.Store.Sessions())

	out.Reset()
	require.NoError(t, HandleLogout(app, Args{}))
	assert.Contains(t, out.String(), "Signed out")
	_, ok := app.Store.User()
	assert.False(t, ok)
	assert.Len(t, app.Store.Sessions(), sessions)

	out.Reset()
	require.NoError(t, HandleWhoami(app, Args{}))
	assert.Contains(t, out.String(), "Not signed in")
}

// =============================================================================
// CONFIG
// =============================================================================

func TestHandleConfig_SetGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	var out bytes.Buffer

	require.NoError(t, HandleConfigAt(path, Args{Subcommand: "set", ConfigKey: "gemini.model", ConfigVal: "gemini-2.5-pro"}, &out))
	assert.FileExists(t, path)

	out.Reset()
	require.NoError(t, HandleConfigAt(path, Args{Subcommand: "get", ConfigKey: "gemini.model"}, &out))
	assert.Equal(t, "gemini-2.5-pro\n", out.String())

	cfg, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", cfg.Gemini.Model)
}

func TestHandleConfig_SetRejectsBadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	var out bytes.Buffer

	err := HandleConfigAt(path, Args{Subcommand: "set", ConfigKey: "gemini.colour", ConfigVal: "blue"}, &out)
	assert.Equal(t, ExitConfigError, GetExitCode(err))

	err = HandleConfigAt(path, Args{Subcommand: "set", ConfigKey: "storage.backend", ConfigVal: "mongo"}, &out)
	assert.Equal(t, ExitConfigError, GetExitCode(err))
	assert.NoFileExists(t, path)

	err = HandleConfigAt(path, Args{Subcommand: "set", ConfigKey: "gemini.model"}, &out)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestHandleConfig_SetDoesNotPersistEnvironment(t *testing.T) {
	t.Setenv("GURU_MODEL", "from-env")
	path := filepath.Join(t.TempDir(), "config.toml")

	require.NoError(t, HandleConfigAt(path, Args{Subcommand: "set", ConfigKey: "ui.code_style", ConfigVal: "dracula"}, io.Discard))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "from-env")
	assert.Contains(t, string(data), "dracula")
}

func TestHandleConfig_ShowMasksSecrets(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "AIza-very-secret")
	path := filepath.Join(t.TempDir(), "config.toml")
	var out bytes.Buffer

	require.NoError(t, HandleConfigAt(path, Args{Subcommand: "show"}, &out))
	assert.NotContains(t, out.String(), "AIza-very-secret")
	assert.Contains(t, out.String(), "blake2b:")
	assert.Contains(t, out.String(), "[gemini]")

	out.Reset()
	require.NoError(t, HandleConfigAt(path, Args{Subcommand: "show", JSON: true}, &out))
	var data struct {
		Values map[string]string `json:"values"`
	}
	decodeJSON(t, &out, &data)
	assert.Equal(t, "(not set)", data.Values["auth.google_client_secret"])
}

func TestHandleConfig_PathAndReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	var out bytes.Buffer

	require.NoError(t, HandleConfigAt(path, Args{Subcommand: "path"}, &out))
	assert.Contains(t, out.String(), path)
	assert.Contains(t, out.String(), "does not exist")

	require.NoError(t, HandleConfigAt(path, Args{Subcommand: "reset", Quiet: true}, io.Discard))
	cfg, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Gemini.Model, cfg.Gemini.Model)

	assert.Equal(t, ExitUsageError, GetExitCode(HandleConfigAt(path, Args{Subcommand: "wipe"}, io.Discard)))
}
