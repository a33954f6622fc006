package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Defaults for the Ollama provider.
const (
	DefaultOllamaEndpoint = "http://localhost:11434"
	DefaultOllamaModel    = "llama3.1:8b"

	defaultMaxRetries     = 3
	defaultRequestTimeout = 120 * time.Second
)

// OllamaClient talks to a local Ollama server over its chat API.
type OllamaClient struct {
	endpoint   string
	model      string
	maxRetries int
	client     *http.Client
}

// OllamaOption configures an OllamaClient.
type OllamaOption func(*OllamaClient)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) OllamaOption {
	return func(o *OllamaClient) { o.client = c }
}

// WithMaxRetries overrides the retry budget for transient failures.
func WithMaxRetries(n int) OllamaOption {
	return func(o *OllamaClient) { o.maxRetries = n }
}

// NewOllamaClient creates an Ollama-backed client. Empty endpoint or
// model select the defaults.
func NewOllamaClient(endpoint, model string, opts ...OllamaOption) *OllamaClient {
	if endpoint == "" {
		endpoint = DefaultOllamaEndpoint
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	o := &OllamaClient{
		endpoint:   endpoint,
		model:      model,
		maxRetries: defaultMaxRetries,
		client: &http.Client{
			Timeout: defaultRequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 50,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Name returns the provider name.
func (o *OllamaClient) Name() string { return "ollama" }

// Model returns the configured model name.
func (o *OllamaClient) Model() string { return o.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Model           string      `json:"model"`
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
}

// CheckConnection reports whether the Ollama server is reachable.
func (o *OllamaClient) CheckConnection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.endpoint+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama unreachable at %s: %w", o.endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}
	return nil
}

// Generate calls the chat endpoint, retrying transient failures with
// exponential backoff.
func (o *OllamaClient) Generate(ctx context.Context, req Request) (*Response, error) {
	if req.Temperature == 0 {
		req.Temperature = 0.1
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = 4096
	}
	if req.TopP == 0 {
		req.TopP = 0.9
	}

	var lastErr error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<attempt) * time.Second
			if backoff > 10*time.Second {
				backoff = 10 * time.Second
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
		resp, err := o.generateOnce(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("ollama generate failed after %d attempts: %w", o.maxRetries+1, lastErr)
}

func (o *OllamaClient) generateOnce(ctx context.Context, req Request) (*Response, error) {
	messages := make([]chatMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	payload := chatRequest{
		Model:    o.model,
		Messages: messages,
		Stream:   false,
		Options: map[string]any{
			"temperature": req.Temperature,
			"num_predict": req.MaxTokens,
			"top_p":       req.TopP,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	httpResp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read ollama response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama API error %d: %s", httpResp.StatusCode, string(respBody))
	}

	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return nil, fmt.Errorf("parse ollama response: %w", err)
	}

	promptTokens := chat.PromptEvalCount
	if promptTokens == 0 {
		promptTokens = len(req.Prompt) / 4 // rough estimate when the server omits counts
	}
	completionTokens := chat.EvalCount
	if completionTokens == 0 {
		completionTokens = len(chat.Message.Content) / 4
	}

	return &Response{
		Text:             chat.Message.Content,
		Model:            chat.Model,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		Elapsed:          time.Since(start),
	}, nil
}
