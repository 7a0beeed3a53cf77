// Package llm provides the Groq chat-completions client used for order
// extraction and call-center agent replies.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/order-expert/voicebot-service/internal/core"
)

// API endpoint and headers.
const (
	apiChatCompletions  = "/chat/completions"
	headerContentType   = "Content-Type"
	headerAuthorization = "Authorization"
	contentTypeJSON     = "application/json"
)

// Sampling temperature for all completions. The bot must stay on script, so
// generation is kept near-deterministic.
const completionTemperature = 0.2

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Static errors.
var (
	ErrNoMessages = errors.New("messages cannot be empty")
	ErrNoChoices  = errors.New("completion response contained no choices")
)

// GroqClient talks to the Groq OpenAI-compatible chat-completions API.
type GroqClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewGroqClient creates a client for the given API base URL and model.
// The baseURL should include the version prefix, e.g.
// "https://api.groq.com/openai/v1".
func NewGroqClient(baseURL, apiKey, model string, timeout time.Duration) *GroqClient {
	return &GroqClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
	}
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string             `json:"model"`
	Messages       []core.ChatMessage `json:"messages"`
	Temperature    float64            `json:"temperature"`
	ResponseFormat *responseFormat    `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message core.ChatMessage `json:"message"`
	} `json:"choices"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends the conversation to the model and returns the assistant's
// reply. With jsonMode set, the API is instructed to emit a single JSON
// object.
func (c *GroqClient) Complete(
	ctx context.Context,
	messages []core.ChatMessage,
	jsonMode bool,
) (string, error) {
	if len(messages) == 0 {
		return "", ErrNoMessages
	}

	payload := chatRequest{
		Model:          c.model,
		Messages:       messages,
		Temperature:    completionTemperature,
		ResponseFormat: nil,
	}
	if jsonMode {
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	requestBody, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	url := c.baseURL + apiChatCompletions

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		url,
		bytes.NewBuffer(requestBody),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create completion request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAuthorization, "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request to LLM service at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.parseErrorResponse(resp)
	}

	var completion chatResponse

	err = json.NewDecoder(resp.Body).Decode(&completion)
	if err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", ErrNoChoices
	}

	return completion.Choices[0].Message.Content, nil
}

// parseErrorResponse decodes a structured API error, falling back to the raw
// body so diagnostics are never lost.
func (c *GroqClient) parseErrorResponse(resp *http.Response) error {
	var apiErr apiErrorResponse

	err := json.NewDecoder(resp.Body).Decode(&apiErr)
	if err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("LLM service error (%s): %s (type: %s)",
			resp.Status, apiErr.Error.Message, apiErr.Error.Type)
	}

	body, _ := io.ReadAll(resp.Body)

	return fmt.Errorf("LLM service returned non-OK status: %s, body: %s",
		resp.Status, string(body))
}
