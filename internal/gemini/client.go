// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/time/rate"

	"github.com/jeranaias/guru-tui/internal/model"
)

// Configuration constants for the Gemini API.
const (
	// DefaultBaseURL is the base URL of the Generative Language API.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel is the model every request targets unless configured.
	DefaultModel = "gemini-3-pro-preview"

	// DefaultTimeout bounds a single generateContent call.
	DefaultTimeout = 120 * time.Second

	// DefaultRequestsPerMinute caps outgoing calls.
	DefaultRequestsPerMinute = 30

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	userAgent = "guru-tui/1.0"
)

// Error variables for common Gemini failures.
var (
	// ErrNotConfigured indicates the API key is not set.
	ErrNotConfigured = errors.New("Gemini API key not configured")

	// ErrInvalidAPIKey indicates the API rejected the key.
	ErrInvalidAPIKey = errors.New("invalid Gemini API key")

	// ErrRateLimited indicates the API or the local limiter refused the call.
	ErrRateLimited = errors.New("rate limited")
)

// invalidKeyMarker is the message the API returns for an unknown key or project.
const invalidKeyMarker = "Requested entity was not found"

// APIError represents an error body returned by the Gemini API.
type APIError struct {
	Status  int    // HTTP status
	Code    string // RPC status, e.g. INVALID_ARGUMENT
	Reason  string // ErrorInfo reason, e.g. API_KEY_INVALID
	Message string

	kind error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("Gemini error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("Gemini error (HTTP %d): %s", e.Status, e.Message)
}

// Unwrap exposes the sentinel the error was classified as, if any.
func (e *APIError) Unwrap() error {
	return e.kind
}

// apiErrorResponse is the google.rpc.Status envelope.
type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Type   string `json:"@type"`
			Reason string `json:"reason"`
		} `json:"details"`
	} `json:"error"`
}

// Client calls generateContent on the Gemini API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger

	mu       sync.RWMutex
	sampling Sampling
}

// NewClient creates a client for apiKey. An empty key still yields a usable
// value, but Generate fails with ErrNotConfigured.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
				TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
			},
		},
		limiter:  rate.NewLimiter(rate.Every(time.Minute/DefaultRequestsPerMinute), 1),
		logger:   zap.NewNop(),
		sampling: DefaultSampling(),
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(u string) *Client {
	if u != "" {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
	return c
}

// WithModel sets the model name.
func (c *Client) WithModel(name string) *Client {
	if name != "" {
		c.model = name
	}
	return c
}

// WithTimeout sets the request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// WithHTTPClient replaces the HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithRequestsPerMinute sets the local rate limit. Zero or less disables it.
func (c *Client) WithRequestsPerMinute(n int) *Client {
	if n <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 1)
	} else {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
	}
	return c
}

// WithLogger sets the logger.
func (c *Client) WithLogger(logger *zap.Logger) *Client {
	if logger != nil {
		c.logger = logger.Named("gemini")
	}
	return c
}

// WithSampling sets the generation settings.
func (c *Client) WithSampling(s Sampling) *Client {
	c.SetSampling(s)
	return c
}

// SetSampling replaces the generation settings. Safe to call while requests
// are in flight; they keep the settings they started with.
func (c *Client) SetSampling(s Sampling) {
	c.mu.Lock()
	c.sampling = s
	c.mu.Unlock()
}

// Sampling returns the current generation settings.
func (c *Client) Sampling() Sampling {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sampling
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// IsConfigured returns true if the client has an API key.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// KeyFingerprint identifies the API key in logs without revealing it.
func (c *Client) KeyFingerprint() string {
	if c.apiKey == "" {
		return "none"
	}
	sum := blake2b.Sum256([]byte(c.apiKey))
	return hex.EncodeToString(sum[:4])
}

// =============================================================================
// GENERATE
// =============================================================================

// Generate sends history plus the new turn and returns the reply text. An
// empty reply becomes FallbackReply.
func (c *Client) Generate(ctx context.Context, prompt string, history []model.Message, attachments []Attachment) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	if err := c.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
	}

	s := c.Sampling()
	reqBody := GenerateRequest{
		Contents: BuildContents(history, prompt, attachments),
		SystemInstruction: &Content{
			Parts: []Part{{Text: SystemInstruction}},
		},
		GenerationConfig: generationConfig{
			Temperature: s.Temperature,
			TopK:        s.TopK,
			TopP:        s.TopP,
		},
	}
	if s.ThinkingBudget > 0 {
		reqBody.GenerationConfig.ThinkingConfig = &thinkingConfig{ThinkingBudget: s.ThinkingBudget}
	}

	resp, err := c.doRequest(ctx, c.endpoint(), reqBody)
	if err != nil {
		return "", err
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" && len(resp.Candidates) == 0 {
		c.logger.Warn("prompt blocked", zap.String("reason", resp.PromptFeedback.BlockReason))
		return FallbackReply, nil
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return FallbackReply, nil
	}
	return text, nil
}

func (c *Client) endpoint() string {
	return c.baseURL + "/models/" + url.PathEscape(c.model) + ":generateContent"
}

// readResponse reads the response body with size limits.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// doRequest performs a single generateContent call.
func (c *Client) doRequest(ctx context.Context, requestURL string, reqBody GenerateRequest) (*GenerateResponse, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("x-goog-api-key", c.apiKey)

	c.logger.Debug("api request",
		zap.String("model", c.model),
		zap.Int("contents", len(reqBody.Contents)),
		zap.Int("bytes", len(bodyBytes)),
		zap.String("key", c.KeyFingerprint()),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	req.Header.Del("x-goog-api-key")
	if err != nil {
		c.logger.Warn("api request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	c.logger.Info("api response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp.StatusCode, body)
	}

	var out GenerateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &out, nil
}

// handleErrorResponse converts an HTTP error response into an error that
// matches one of the package sentinels where possible.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	apiErr := &APIError{Status: statusCode, Message: strings.TrimSpace(string(body))}

	var env apiErrorResponse
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		apiErr.Code = env.Error.Status
		apiErr.Message = env.Error.Message
		for _, d := range env.Error.Details {
			if d.Reason != "" {
				apiErr.Reason = d.Reason
				break
			}
		}
	}

	switch {
	case isInvalidKey(statusCode, apiErr):
		apiErr.kind = ErrInvalidAPIKey
	case statusCode == http.StatusTooManyRequests:
		apiErr.kind = ErrRateLimited
	}

	c.logger.Warn("api error",
		zap.Int("status", statusCode),
		zap.String("code", apiErr.Code),
		zap.String("reason", apiErr.Reason),
	)
	return apiErr
}

func isInvalidKey(status int, e *APIError) bool {
	if strings.Contains(e.Message, invalidKeyMarker) {
		return true
	}
	if strings.HasPrefix(e.Reason, "API_KEY_") {
		return true
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return strings.Contains(strings.ToLower(e.Message), "api key")
	}
	return false
}
