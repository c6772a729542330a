// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the OpenRouter chat-completion client.
package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/rigchat/internal/logger"
	"github.com/jeranaias/rigchat/internal/model"
)

// Configuration constants for the OpenRouter API.
const (
	// DefaultOpenRouterURL is the base URL for the OpenRouter API.
	DefaultOpenRouterURL = "https://openrouter.ai/api/v1"

	// DefaultModel is the completion model sent with every request.
	DefaultModel = "mistralai/mistral-7b-instruct"

	DefaultTemperature = 0.7
	DefaultMaxTokens   = 500

	// DefaultHistoryWindow is how many prior messages accompany a request.
	DefaultHistoryWindow = 10

	// DefaultTimeout bounds a whole request, including reading the body.
	DefaultTimeout = 30 * time.Second

	// DefaultSystemPrompt is used when no persona is configured.
	DefaultSystemPrompt = "You are a friendly, helpful assistant. Always answer in Indonesian."

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	userAgent = "rigchat/1.0"
)

// Completer produces one assistant reply for a user message.
type Completer interface {
	Complete(ctx context.Context, userMessage, credential string, history []model.Message) (string, error)
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatMessage is a single message in the request payload.
type ChatMessage struct {
	Role    string `json:"role"`    // "user", "assistant", or "system"
	Content string `json:"content"` // The message content
}

// ChatRequest is the body of a chat completions request.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// ChatResponse is the subset of the completions response rigchat reads.
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// =============================================================================
// CLIENT
// =============================================================================

// OpenRouterClient sends chat completions to an OpenRouter-compatible API.
// It holds no credential; each call supplies one.
type OpenRouterClient struct {
	baseURL       string
	httpClient    *http.Client
	model         string
	temperature   float64
	maxTokens     int
	historyWindow int
	systemPrompt  string
	siteURL       string
	siteName      string
	limiter       *rate.Limiter
}

// NewOpenRouterClient creates a client with the default model and settings.
func NewOpenRouterClient() *OpenRouterClient {
	return &OpenRouterClient{
		baseURL:       DefaultOpenRouterURL,
		httpClient:    &http.Client{Timeout: DefaultTimeout},
		model:         DefaultModel,
		temperature:   DefaultTemperature,
		maxTokens:     DefaultMaxTokens,
		historyWindow: DefaultHistoryWindow,
		systemPrompt:  DefaultSystemPrompt,
		siteURL:       "https://github.com/jeranaias/rigchat",
		siteName:      "rigchat",
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *OpenRouterClient) WithBaseURL(url string) *OpenRouterClient {
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

// WithTimeout sets the request timeout.
func (c *OpenRouterClient) WithTimeout(timeout time.Duration) *OpenRouterClient {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *OpenRouterClient) WithHTTPClient(hc *http.Client) *OpenRouterClient {
	c.httpClient = hc
	return c
}

// WithModel sets the model identifier.
func (c *OpenRouterClient) WithModel(model string) *OpenRouterClient {
	if model != "" {
		c.model = model
	}
	return c
}

// WithSampling sets temperature and the reply token cap.
func (c *OpenRouterClient) WithSampling(temperature float64, maxTokens int) *OpenRouterClient {
	c.temperature = temperature
	c.maxTokens = maxTokens
	return c
}

// WithHistoryWindow sets how many prior messages are sent.
func (c *OpenRouterClient) WithHistoryWindow(n int) *OpenRouterClient {
	c.historyWindow = n
	return c
}

// WithSystemPrompt sets the system message sent first on every request.
func (c *OpenRouterClient) WithSystemPrompt(prompt string) *OpenRouterClient {
	if prompt != "" {
		c.systemPrompt = prompt
	}
	return c
}

// WithSiteName sets the X-Title attribution header.
func (c *OpenRouterClient) WithSiteName(name string) *OpenRouterClient {
	c.siteName = name
	return c
}

// WithSiteURL sets the HTTP-Referer attribution header.
func (c *OpenRouterClient) WithSiteURL(url string) *OpenRouterClient {
	c.siteURL = url
	return c
}

// WithRateLimit caps outbound requests per minute. Zero disables the cap.
func (c *OpenRouterClient) WithRateLimit(perMinute int) *OpenRouterClient {
	if perMinute <= 0 {
		c.limiter = nil
		return c
	}
	c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	return c
}

// Model returns the configured model identifier.
func (c *OpenRouterClient) Model() string {
	return c.model
}

// Timeout returns the request timeout.
func (c *OpenRouterClient) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// =============================================================================
// REQUEST ASSEMBLY
// =============================================================================

// BuildMessages returns the system prompt, the last historyWindow messages of
// history in order, and the new user message.
func (c *OpenRouterClient) BuildMessages(history []model.Message, userMessage string) []ChatMessage {
	window := windowOf(history, c.historyWindow)

	msgs := make([]ChatMessage, 0, len(window)+2)
	msgs = append(msgs, ChatMessage{Role: string(model.RoleSystem), Content: c.systemPrompt})
	for _, m := range window {
		msgs = append(msgs, ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	msgs = append(msgs, ChatMessage{Role: string(model.RoleUser), Content: userMessage})
	return msgs
}

func windowOf(history []model.Message, n int) []model.Message {
	if n <= 0 {
		return nil
	}
	if len(history) > n {
		return history[len(history)-n:]
	}
	return history
}

// setHeaders sets the required headers for OpenRouter API requests.
func (c *OpenRouterClient) setHeaders(req *http.Request, credential string) {
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	if c.siteURL != "" {
		req.Header.Set("HTTP-Referer", c.siteURL)
	}
	if c.siteName != "" {
		req.Header.Set("X-Title", c.siteName)
	}
}

// =============================================================================
// COMPLETION
// =============================================================================

// Complete sends one completion request and returns the first choice's
// content. Every failure is an *APIError. There are no retries.
func (c *OpenRouterClient) Complete(ctx context.Context, userMessage, credential string, history []model.Message) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", unknownError(fmt.Sprintf("rate limiter: %v", err), err)
		}
	}

	reqBody := ChatRequest{
		Model:       c.model,
		Messages:    c.BuildMessages(history, userMessage),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", unknownError(fmt.Sprintf("failed to marshal request: %v", err), err)
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", unknownError(fmt.Sprintf("failed to create request: %v", err), err)
	}
	c.setHeaders(req, credential)

	log := logger.L()
	log.Debug("api request", "method", req.Method, "path", req.URL.Path, "messages", len(reqBody.Messages))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		apiErr := transportError(err)
		log.Warn("api request failed", "kind", apiErr.Kind, "duration", time.Since(start))
		return "", apiErr
	}
	defer resp.Body.Close()

	// Timeouts can also fire while the body is being read.
	body, err := readResponse(resp)
	if err != nil {
		if isTimeout(err) {
			return "", &APIError{Kind: KindTimeout, Status: resp.StatusCode, Message: err.Error(), Err: err}
		}
		return "", unknownError(err.Error(), err)
	}
	log.Debug("api response", "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp.StatusCode, body)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", unknownError(fmt.Sprintf("failed to parse response: %v", err), err)
	}
	if len(chatResp.Choices) == 0 {
		return "", unknownError("response contained no choices", nil)
	}
	return chatResp.Choices[0].Message.Content, nil
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}
