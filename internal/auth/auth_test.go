// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("not-googles-key"))
	require.NoError(t, err)
	return tok
}

// =============================================================================
// USERS
// =============================================================================

func TestGuest(t *testing.T) {
	now := time.UnixMilli(1718000000123)
	u := Guest(now)

	assert.Equal(t, "guest_1718000000123", u.ID)
	assert.Equal(t, GuestName, u.Name)
	assert.Equal(t, GuestEmail, u.Email)
	assert.Equal(t, GuestPicture, u.Picture)
	assert.True(t, u.IsGuest())
}

func TestFromIDToken(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{
		"sub":     "1098765",
		"name":    "Rashed Karim",
		"email":   "rashed@example.com",
		"picture": "https://lh3.googleusercontent.com/a/x",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	u, err := FromIDToken(token)
	require.NoError(t, err, "signature and expiry are not checked")
	assert.Equal(t, "1098765", u.ID)
	assert.Equal(t, "Rashed Karim", u.Name)
	assert.Equal(t, "rashed@example.com", u.Email)
	assert.Equal(t, "https://lh3.googleusercontent.com/a/x", u.Picture)
	assert.False(t, u.IsGuest())
}

func TestFromIDToken_Invalid(t *testing.T) {
	_, err := FromIDToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = FromIDToken(signedToken(t, jwt.MapClaims{"name": "No Subject"}))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// =============================================================================
// READINESS
// =============================================================================

type pollProbe struct {
	calls     atomic.Int32
	readyFrom int32
}

func (p *pollProbe) Available() bool {
	return p.calls.Add(1) > p.readyFrom
}

type chanProbe struct {
	ch chan struct{}
	ok bool
}

func (p *chanProbe) Available() bool {
	select {
	case <-p.ch:
		return p.ok
	default:
		return false
	}
}

func (p *chanProbe) Ready() <-chan struct{} { return p.ch }

func TestWaitReady_PollsUntilAvailable(t *testing.T) {
	p := &pollProbe{readyFrom: 3}
	err := WaitReady(context.Background(), p, time.Millisecond, 50)
	require.NoError(t, err)
	assert.Equal(t, int32(4), p.calls.Load())
}

func TestWaitReady_PollingGivesUp(t *testing.T) {
	p := &pollProbe{readyFrom: 1000}
	err := WaitReady(context.Background(), p, time.Millisecond, 5)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Equal(t, int32(6), p.calls.Load(), "one initial check plus one per attempt")
}

func TestWaitReady_Channel(t *testing.T) {
	p := &chanProbe{ch: make(chan struct{}), ok: true}
	go func() {
		time.Sleep(5 * time.Millisecond)
		close(p.ch)
	}()
	require.NoError(t, WaitReady(context.Background(), p, 10*time.Millisecond, 50))
}

func TestWaitReady_ChannelFailureAndTimeout(t *testing.T) {
	failed := &chanProbe{ch: make(chan struct{}), ok: false}
	close(failed.ch)
	assert.ErrorIs(t, WaitReady(context.Background(), failed, time.Millisecond, 5), ErrProviderUnavailable)

	never := &chanProbe{ch: make(chan struct{})}
	start := time.Now()
	assert.ErrorIs(t, WaitReady(context.Background(), never, time.Millisecond, 20), ErrProviderUnavailable)
	assert.Less(t, time.Since(start), time.Second)
}

func TestWaitReady_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WaitReady(ctx, &pollProbe{readyFrom: 1000}, time.Second, 50)
	assert.ErrorIs(t, err, context.Canceled)
}

// =============================================================================
// DEVICE FLOW
// =============================================================================

// fakeGoogle serves discovery, device code and token endpoints.
func fakeGoogle(t *testing.T, idToken string) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	var polls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"authorization_endpoint":        server.URL + "/auth",
			"token_endpoint":                server.URL + "/token",
			"device_authorization_endpoint": server.URL + "/device/code",
		})
	})
	mux.HandleFunc("/device/code", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client-123", r.Form.Get("client_id"))
		assert.True(t, strings.Contains(r.Form.Get("scope"), "openid"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"device_code":      "dev-abc",
			"user_code":        "WXYZ-1234",
			"verification_url": "https://www.google.com/device",
			"expires_in":       1800,
			"interval":         1,
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if polls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "authorization_pending"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "ya29.token",
			"token_type":   "Bearer",
			"expires_in":   3599,
			"id_token":     idToken,
		})
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestGoogleProvider_DeviceLogin(t *testing.T) {
	if testing.Short() {
		t.Skip("device flow polls at one second intervals")
	}
	idToken := signedToken(t, jwt.MapClaims{"sub": "42", "name": "Ayesha Rahman", "email": "ayesha@example.com"})
	server := fakeGoogle(t, idToken)

	p := NewGoogleProvider("client-123", "secret").
		WithDiscoveryURL(server.URL + "/.well-known/openid-configuration")
	p.Start(context.Background())
	require.NoError(t, WaitReady(context.Background(), p, 10*time.Millisecond, 50))

	var shown DeviceCode
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	u, err := p.DeviceLogin(ctx, func(dc DeviceCode) { shown = dc })
	require.NoError(t, err)

	assert.Equal(t, "WXYZ-1234", shown.UserCode)
	assert.Equal(t, "https://www.google.com/device", shown.VerificationURI)
	assert.Equal(t, "42", u.ID)
	assert.Equal(t, "Ayesha Rahman", u.Name)
}

func TestGoogleProvider_DiscoveryFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p := NewGoogleProvider("client-123", "").WithDiscoveryURL(server.URL)
	p.Start(context.Background())

	err := WaitReady(context.Background(), p, 10*time.Millisecond, 50)
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	_, err = p.DeviceLogin(context.Background(), nil)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestGoogleProvider_NotConfigured(t *testing.T) {
	p := NewGoogleProvider("", "")
	assert.False(t, p.Configured())
	p.Start(context.Background())
	<-p.Ready()
	assert.False(t, p.Available())
}
