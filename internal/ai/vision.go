// Package ai provides the AI service clients for attune: the local vision
// classifier that describes screenshots and the contextual judge that turns
// descriptions into focus verdicts.
package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// VisionConfig holds local vision classifier settings.
type VisionConfig struct {
	BaseURL string        // Ollama base URL (default http://localhost:11434)
	Model   string        // Vision model name
	Timeout time.Duration // Per-call timeout
}

// VisionClient describes screenshots using a local Ollama vision model.
type VisionClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewVisionClient creates a vision client.
func NewVisionClient(cfg VisionConfig) *VisionClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &VisionClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
	}
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
}

// Describe returns a short natural-language description of the screen image.
// The image is sent base64-encoded and is never written anywhere by this
// client.
func (c *VisionClient) Describe(ctx context.Context, image []byte) (string, error) {
	reqBody := ollamaChatRequest{
		Model: c.model,
		Messages: []ollamaMessage{{
			Role:    "user",
			Content: BuildDescribePrompt(),
			Images:  []string{base64.StdEncoding.EncodeToString(image)},
		}},
		Stream: false,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encode vision request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("vision request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decode vision response: %w", err)
	}

	description := strings.TrimSpace(chatResp.Message.Content)
	if description == "" {
		return "", fmt.Errorf("vision model returned empty description")
	}

	log.Debug().
		Str("model", c.model).
		Dur("elapsed", time.Since(start)).
		Int("descriptionLen", len(description)).
		Msg("Vision description complete")

	return description, nil
}
