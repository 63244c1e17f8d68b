package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/randomtoy/horobingo-go/internal/domain"
	"github.com/randomtoy/horobingo-go/internal/ports"
)

// Client implements ports.StatementGenerator via the OpenRouter API.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	logger      *slog.Logger
}

func NewClient(httpClient *http.Client, apiKey, baseURL, model string, temperature float64, logger *slog.Logger) *Client {
	return &Client{
		httpClient:  httpClient,
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: temperature,
		logger:      logger,
	}
}

// chatRequest / chatResponse mirror the OpenAI-compatible API shapes.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate makes a single chat completion call and decodes the reply as a
// JSON array of exactly in.Count strings.
func (c *Client) Generate(ctx context.Context, in ports.GenerateInput) ([]string, error) {
	if c.apiKey == "" {
		return nil, domain.ErrGeneratorUnavailable
	}

	content, err := c.callLLM(ctx, in.Instruction, in.Prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamLLM, err)
	}

	statements, err := parseStatements(content, in.Count)
	if err != nil {
		c.logger.WarnContext(ctx, "LLM returned malformed statements", "model", c.model, "error", err)
		return nil, err
	}
	return statements, nil
}

func (c *Client) callLLM(ctx context.Context, system, user string) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.temperature,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upstream status %d: %s", resp.StatusCode, string(respBody))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}

// parseStatements accepts a JSON array whose elements are all strings,
// optionally wrapped in a markdown code fence.
func parseStatements(content string, want int) ([]string, error) {
	content = stripCodeFence(content)

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("%w: not a JSON array: %w", domain.ErrInvalidStatements, err)
	}
	if len(raw) != want {
		return nil, fmt.Errorf("%w: got %d items, want %d", domain.ErrInvalidStatements, len(raw), want)
	}

	out := make([]string, len(raw))
	for i, item := range raw {
		trimmed := bytes.TrimSpace(item)
		if len(trimmed) == 0 || trimmed[0] != '"' {
			return nil, fmt.Errorf("%w: item %d is not a string", domain.ErrInvalidStatements, i)
		}
		if err := json.Unmarshal(trimmed, &out[i]); err != nil {
			return nil, fmt.Errorf("%w: item %d: %w", domain.ErrInvalidStatements, i, err)
		}
	}
	return out, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// Drop the info string, e.g. ```json.
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
