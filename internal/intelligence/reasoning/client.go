// Package reasoning implements the third prediction tier: product inference
// delegated to an external large language model over an OpenAI-compatible
// chat-completions endpoint, with the quantum calculation record folded into
// the prompt as grounding context.
package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/turtacn/ChemReact-Intelligence/internal/config"
	apperrors "github.com/turtacn/ChemReact-Intelligence/pkg/errors"
)

// DefaultBaseURL targets the Gemini OpenAI-compatibility endpoint, matching
// the default model in config.  Any chat-completions server works here.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

const systemMessage = "You are a computational chemistry assistant. " +
	"Respond with a single valid JSON object and nothing else."

// Client is a minimal chat-completions client.  It owns no retry or parsing
// policy; Engine layers those on top.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(cfg config.ReasoningConfig) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		// Per-call deadlines come from the caller's context, so the
		// transport itself carries no timeout.
		httpClient: &http.Client{},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one prompt and returns the raw assistant message content.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemMessage},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.2,
	}
	reqBody.ResponseFormat.Type = "json_object"

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeReasoningCallFailed, "failed to encode chat request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeReasoningCallFailed, "failed to build chat request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeReasoningCallFailed, "chat completion request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeReasoningCallFailed, "failed to read chat response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperrors.New(apperrors.ErrCodeReasoningCallFailed,
			fmt.Sprintf("chat completion returned status %d", resp.StatusCode)).
			WithDetail(strings.TrimSpace(string(body)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeReasoningCallFailed, "failed to decode chat response envelope")
	}
	if len(parsed.Choices) == 0 {
		return "", apperrors.New(apperrors.ErrCodeReasoningCallFailed, "chat response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
