// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/jeranaias/guru-tui/internal/model"
)

// DefaultDiscoveryURL is Google's OpenID Connect discovery document.
const DefaultDiscoveryURL = "https://accounts.google.com/.well-known/openid-configuration"

// Scopes requested during sign-in.
var Scopes = []string{"openid", "email", "profile"}

// DeviceCode is what the user needs to finish signing in on another device.
type DeviceCode struct {
	UserCode        string
	VerificationURI string
	ExpiresAt       time.Time
}

// discoveryDoc is the subset of the OIDC discovery document we use.
type discoveryDoc struct {
	AuthorizationEndpoint       string `json:"authorization_endpoint"`
	TokenEndpoint               string `json:"token_endpoint"`
	DeviceAuthorizationEndpoint string `json:"device_authorization_endpoint"`
}

// GoogleProvider signs users in with the OAuth 2.0 device flow.
//
// The provider is not usable until Start has fetched the discovery document.
// Ready is closed at that point whether or not discovery succeeded; Available
// reports the outcome.
type GoogleProvider struct {
	clientID     string
	clientSecret string
	discoveryURL string
	httpClient   *http.Client
	logger       *zap.Logger

	once     sync.Once
	ready    chan struct{}
	mu       sync.RWMutex
	endpoint oauth2.Endpoint
	err      error
}

// NewGoogleProvider creates a provider for the given OAuth client.
func NewGoogleProvider(clientID, clientSecret string) *GoogleProvider {
	return &GoogleProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		discoveryURL: DefaultDiscoveryURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		logger:       zap.NewNop(),
		ready:        make(chan struct{}),
		endpoint:     endpoints.Google,
	}
}

// WithDiscoveryURL overrides the discovery document location.
func (g *GoogleProvider) WithDiscoveryURL(u string) *GoogleProvider {
	g.discoveryURL = u
	return g
}

// WithHTTPClient replaces the HTTP client used for discovery and token calls.
func (g *GoogleProvider) WithHTTPClient(hc *http.Client) *GoogleProvider {
	g.httpClient = hc
	return g
}

// WithLogger sets the logger.
func (g *GoogleProvider) WithLogger(logger *zap.Logger) *GoogleProvider {
	if logger != nil {
		g.logger = logger.Named("auth")
	}
	return g
}

// Configured reports whether a client ID is set.
func (g *GoogleProvider) Configured() bool {
	return g.clientID != ""
}

// Start fetches the discovery document in the background. Calling it more
// than once has no effect.
func (g *GoogleProvider) Start(ctx context.Context) {
	g.once.Do(func() {
		go func() {
			defer close(g.ready)
			ep, err := g.discover(ctx)
			g.mu.Lock()
			defer g.mu.Unlock()
			if err != nil {
				g.err = err
				g.logger.Warn("identity provider discovery failed", zap.Error(err))
				return
			}
			g.endpoint = ep
			g.logger.Debug("identity provider ready", zap.String("device_endpoint", ep.DeviceAuthURL))
		}()
	})
}

// Ready is closed once Start has finished.
func (g *GoogleProvider) Ready() <-chan struct{} {
	return g.ready
}

// Available reports whether discovery completed successfully.
func (g *GoogleProvider) Available() bool {
	select {
	case <-g.ready:
	default:
		return false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.err == nil && g.clientID != ""
}

func (g *GoogleProvider) discover(ctx context.Context) (oauth2.Endpoint, error) {
	if g.clientID == "" {
		return oauth2.Endpoint{}, ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.discoveryURL, nil)
	if err != nil {
		return oauth2.Endpoint{}, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return oauth2.Endpoint{}, fmt.Errorf("discovery request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return oauth2.Endpoint{}, fmt.Errorf("discovery returned HTTP %d", resp.StatusCode)
	}

	var doc discoveryDoc
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&doc); err != nil {
		return oauth2.Endpoint{}, fmt.Errorf("failed to parse discovery document: %w", err)
	}
	if doc.TokenEndpoint == "" || doc.DeviceAuthorizationEndpoint == "" {
		return oauth2.Endpoint{}, fmt.Errorf("discovery document lacks device flow endpoints")
	}
	return oauth2.Endpoint{
		AuthURL:       doc.AuthorizationEndpoint,
		TokenURL:      doc.TokenEndpoint,
		DeviceAuthURL: doc.DeviceAuthorizationEndpoint,
		AuthStyle:     oauth2.AuthStyleInParams,
	}, nil
}

func (g *GoogleProvider) config() *oauth2.Config {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return &oauth2.Config{
		ClientID:     g.clientID,
		ClientSecret: g.clientSecret,
		Endpoint:     g.endpoint,
		Scopes:       Scopes,
	}
}

// DeviceLogin runs the device flow. prompt is called once with the code the
// user must enter; the call then blocks until the user approves, the code
// expires or ctx is cancelled.
func (g *GoogleProvider) DeviceLogin(ctx context.Context, prompt func(DeviceCode)) (model.User, error) {
	if !g.Available() {
		g.mu.RLock()
		err := g.err
		g.mu.RUnlock()
		if err != nil {
			return model.User{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		return model.User{}, ErrProviderUnavailable
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	cfg := g.config()

	da, err := cfg.DeviceAuth(ctx)
	if err != nil {
		return model.User{}, fmt.Errorf("device authorization failed: %w", err)
	}
	if prompt != nil {
		prompt(DeviceCode{
			UserCode:        da.UserCode,
			VerificationURI: da.VerificationURI,
			ExpiresAt:       da.Expiry,
		})
	}

	tok, err := cfg.DeviceAccessToken(ctx, da)
	if err != nil {
		return model.User{}, fmt.Errorf("device token exchange failed: %w", err)
	}

	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return model.User{}, fmt.Errorf("%w: token response has no id_token", ErrInvalidToken)
	}

	user, err := FromIDToken(idToken)
	if err != nil {
		return model.User{}, err
	}
	g.logger.Info("signed in", zap.String("user_id", user.ID))
	return user, nil
}
