package cerebras

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/cerebras-community/cerebras-go/internal/security"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = ModelLlama3_3_70B

	// DefaultSystemPrompt guides the model when none is configured.
	DefaultSystemPrompt = "You are a helpful assistant."

	// DefaultTimeout bounds non-streaming calls. Streaming calls are bounded
	// only by the caller's context so long generations are not cut short.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRefreshRetries is how many credential refreshes a single
	// chat call may trigger when the endpoint reports an expired key.
	DefaultMaxRefreshRetries = 1

	defaultTemperature = 0.75
	defaultTopP        = 0.9
	defaultMaxTokens   = 2048

	// apiKeyPrefix marks an input string as a ready-made API key rather
	// than a cookie string.
	apiKeyPrefix = "csk-"
)

// Client issues chat completion requests against the demo endpoint. It owns
// exactly one session credential, refreshed from the caller's cookies when
// the service reports expiry. Safe for concurrent use; concurrent callers
// trigger at most one refresh.
type Client struct {
	cookies string // empty when constructed from a fixed API key
	baseURL string
	authURL string
	origin  string

	model        string
	systemPrompt string
	temperature  float64
	topP         float64
	maxTokens    int

	timeout           time.Duration
	maxRefreshRetries int

	httpClient *http.Client
	logger     *slog.Logger
	progress   Progress

	mu      sync.Mutex // guards apiKey
	apiKey  string
	refresh singleflight.Group
}

// Option is a functional option for configuring Client.
type Option func(*Client)

// WithModel selects the model for completions (see Models).
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithSystemPrompt replaces the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) {
		c.systemPrompt = prompt
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Client) {
		c.temperature = t
	}
}

// WithTopP sets the nucleus sampling parameter.
func WithTopP(p float64) Option {
	return func(c *Client) {
		c.topP = p
	}
}

// WithMaxTokens limits the completion length.
func WithMaxTokens(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithTimeout bounds each non-streaming call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithMaxRefreshRetries sets how many credential refreshes a single chat
// call may trigger on a detected expiry before the failure is surfaced.
func WithMaxRefreshRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRefreshRetries = n
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithProgress attaches a progress sink (for example ui.NewSpinner).
func WithProgress(p Progress) Option {
	return func(c *Client) {
		c.progress = p
	}
}

// WithBaseURL overrides the completion endpoint. Used in tests.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithAuthURL overrides the key-issuance endpoint. Used in tests.
func WithAuthURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.authURL = url
		}
	}
}

// New creates a Client from either a cookie string or a ready-made API key.
// An input with the "csk-" prefix is used directly as the key and is never
// refreshed; anything else is treated as the cookie string of an
// authenticated browser session, and the demo key is fetched lazily on
// first use.
func New(cookiesOrKey string, opts ...Option) (*Client, error) {
	cookiesOrKey = strings.TrimSpace(cookiesOrKey)
	if cookiesOrKey == "" {
		return nil, ErrNoCredentialSource
	}

	c := &Client{
		baseURL:           DefaultBaseURL,
		authURL:           DefaultAuthURL,
		origin:            DefaultOrigin,
		model:             DefaultModel,
		systemPrompt:      DefaultSystemPrompt,
		temperature:       defaultTemperature,
		topP:              defaultTopP,
		maxTokens:         defaultMaxTokens,
		timeout:           DefaultTimeout,
		maxRefreshRetries: DefaultMaxRefreshRetries,
		httpClient:        &http.Client{Transport: &userAgentTransport{}},
		logger:            slog.Default(),
	}

	if strings.HasPrefix(cookiesOrKey, apiKeyPrefix) {
		c.apiKey = cookiesOrKey
	} else {
		c.cookies = cookiesOrKey
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// APIKey returns the currently cached credential, empty when none has been
// fetched yet.
func (c *Client) APIKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apiKey
}

// Generate sends the prompt and blocks until the full completion is
// available. The returned text is exactly the concatenation of everything
// the provider emitted for this request.
func (c *Client) Generate(ctx context.Context, prompt string) (*Completion, error) {
	if err := validatePrompt(prompt); err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	c.startProgress("generating")

	resp, err := c.send(ctx, prompt, false)
	if err != nil {
		c.finishProgress(err)
		return nil, err
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		cerr := &ChatError{Message: "failed to decode completion response", Err: err}
		c.finishProgress(cerr)
		return nil, cerr
	}
	if len(out.Choices) == 0 {
		cerr := &ChatError{Message: "completion response carried no choices"}
		c.finishProgress(cerr)
		return nil, cerr
	}

	comp := &Completion{
		ID:           out.ID,
		Model:        out.Model,
		Content:      out.Choices[0].Message.Content,
		FinishReason: out.Choices[0].FinishReason,
		Usage:        out.Usage,
	}

	c.advanceProgress(len(comp.Content))
	c.finishProgress(nil)

	c.logger.Debug("completion received",
		slog.String("model", comp.Model),
		slog.String("finish_reason", comp.FinishReason),
		slog.Int("completion_tokens", comp.Usage.CompletionTokens),
	)

	return comp, nil
}

// GenerateStream sends the prompt and returns the response as a lazy,
// finite, non-restartable sequence of text deltas. The caller must consume
// the stream or Close it; Close releases the underlying connection and is
// safe after partial consumption.
func (c *Client) GenerateStream(ctx context.Context, prompt string) (*Stream, error) {
	if err := validatePrompt(prompt); err != nil {
		return nil, err
	}

	c.startProgress("streaming")

	resp, err := c.send(ctx, prompt, true)
	if err != nil {
		c.finishProgress(err)
		return nil, err
	}

	return newStream(resp.Body, c.progress), nil
}

// send posts the completion request, refreshing the credential and retrying
// when the endpoint reports expiry. The refresh budget is spent at most
// once per send; a response with any non-OK status never escapes.
func (c *Client) send(ctx context.Context, prompt string, stream bool) (*http.Response, error) {
	refreshes := 0
	for {
		key, err := c.ensureKey(ctx)
		if err != nil {
			return nil, err
		}

		resp, err := c.post(ctx, key, prompt, stream)
		if err != nil {
			return nil, &ChatError{Message: "completion request failed", Err: err}
		}

		if resp.StatusCode == http.StatusUnauthorized && c.canRefresh() && refreshes < c.maxRefreshRetries {
			resp.Body.Close()
			refreshes++
			c.logger.Warn("demo key rejected, refreshing",
				slog.String("key", security.MaskKey(key)),
				slog.Int("refresh", refreshes),
			)
			if _, err := c.refreshKey(ctx); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			defer resp.Body.Close()
			return nil, chatErrorFromResponse(resp)
		}

		return resp, nil
	}
}

// post builds and executes one completion request with the given key.
func (c *Client) post(ctx context.Context, key, prompt string, stream bool) (*http.Response, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: c.systemPrompt},
			{Role: "user", Content: prompt},
		},
		Stream:              stream,
		Temperature:         c.temperature,
		TopP:                c.topP,
		MaxCompletionTokens: c.maxTokens,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	} else {
		req.Header.Set("Accept", "application/json")
	}

	return c.httpClient.Do(req)
}

// chatErrorFromResponse drains a failed completion response into a ChatError.
func chatErrorFromResponse(resp *http.Response) *ChatError {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return &ChatError{StatusCode: resp.StatusCode, Message: resp.Status, Err: err}
	}

	var payload apiErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return &ChatError{StatusCode: resp.StatusCode, Message: payload.Error.Message}
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = resp.Status
	}
	return &ChatError{StatusCode: resp.StatusCode, Message: msg}
}

func validatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return &InputError{Message: "prompt must be a non-empty string"}
	}
	return nil
}
