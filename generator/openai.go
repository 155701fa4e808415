package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const completionsPath = "/chat/completions"

// maxResponseBytes caps how much of a completion body is read. Abridgment
// outputs are short; anything larger is a provider malfunction.
const maxResponseBytes = 4 << 20

// HTTPClient talks to an OpenAI-compatible chat completions endpoint. It
// covers hosted routers and local runtimes that expose the same wire shape.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	metrics    *Metrics
}

// NewHTTPClient validates the base URL and builds a client. An empty API key
// is allowed for local providers that do not authenticate.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, metrics *Metrics) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: missing host", baseURL)
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete sends one chat completion request and returns the generated text
// with observed usage. All failures come back classified.
func (c *HTTPClient) Complete(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(chatRequest{
		Model:       req.Model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	c.metrics.ObserveDuration(time.Since(start))
	if err != nil {
		classified := classifyError(err, 0)
		c.metrics.IncError(classified)
		return nil, classified
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		// Include a snippet of the body so the failure reason is legible.
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		classified := classifyError(
			fmt.Errorf("http status %d: %s", httpResp.StatusCode, strings.TrimSpace(string(snippet))),
			httpResp.StatusCode,
		)
		c.metrics.IncError(classified)
		return nil, classified
	}

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		classified := classifyError(err, 0)
		c.metrics.IncError(classified)
		return nil, classified
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		classified := ErrMalformed{Err: fmt.Errorf("decoding response: %w", err)}
		c.metrics.IncError(classified)
		return nil, classified
	}
	if len(parsed.Choices) == 0 {
		classified := ErrMalformed{Err: fmt.Errorf("response contained no choices")}
		c.metrics.IncError(classified)
		return nil, classified
	}

	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		classified := ErrMalformed{Err: fmt.Errorf("response contained empty text")}
		c.metrics.IncError(classified)
		return nil, classified
	}

	c.metrics.AddTokens(parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens)

	return &Response{
		Text:         text,
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
	}, nil
}
