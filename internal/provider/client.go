package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Client talks to an OpenAI-compatible chat-completions endpoint
// (LM Studio, Ollama, vLLM). Requests are non-streaming; the hard
// timeout surfaces as *TimeoutError.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) ModelName() string { return c.model }

func (c *Client) Models(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/models", nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, c.classify(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &ProtocolError{Status: resp.StatusCode, Reason: parseServerError(resp.StatusCode, body)}
	}
	var result struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ProtocolError{Reason: err.Error()}
	}
	models := make([]string, len(result.Data))
	for i, m := range result.Data {
		models[i] = m.ID
	}
	return models, nil
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

type completionResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Stats *struct {
		TokensPerSecond  float64 `json:"tokens_per_second"`
		TimeToFirstToken float64 `json:"time_to_first_token"`
		GenerationTime   float64 `json:"generation_time"`
	} `json:"stats"`
}

func (c *Client) Complete(ctx context.Context, msgs []Message, p Params) (*Completion, error) {
	payload, err := json.Marshal(completionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
		Stream:      false,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, c.classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &ProtocolError{Status: resp.StatusCode, Reason: parseServerError(resp.StatusCode, body)}
	}

	var cr completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, &ProtocolError{Reason: err.Error()}
	}
	if len(cr.Choices) == 0 {
		return nil, &ProtocolError{Reason: "response contains no choices"}
	}

	out := &Completion{
		Message:      cr.Choices[0].Message,
		FinishReason: cr.Choices[0].FinishReason,
	}
	// LM Studio's native API carries a stats block; plain OpenAI
	// endpoints only have usage.
	if cr.Stats != nil || cr.Usage != nil {
		s := &Stats{}
		if cr.Usage != nil {
			s.TokensGenerated = cr.Usage.CompletionTokens
		}
		if cr.Stats != nil {
			s.TokensPerSecond = cr.Stats.TokensPerSecond
			s.TimeToFirstToken = cr.Stats.TimeToFirstToken
			s.GenerationTime = cr.Stats.GenerationTime
		}
		out.Stats = s
	}
	return out, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *Client) classify(err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &TimeoutError{URL: c.baseURL, Err: err}
	}
	return &ConnectionError{URL: c.baseURL, Err: err}
}
