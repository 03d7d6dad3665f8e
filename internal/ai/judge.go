package ai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/dhruvjain2905/Attune/pkg/models"
)

const anthropicVersion = "2023-06-01"

// Verdict is the contextual judge's classification of one tick.
type Verdict struct {
	Focused     bool
	Explanation string
}

// DistractionEntry is one distracted analysis fed to categorization.
type DistractionEntry struct {
	Time        time.Time
	Explanation string
}

// NarrativeRequest carries the session statistics the narrative summary
// prompt is built from.
type NarrativeRequest struct {
	Goal              string
	FocusPercentage   float64
	ProductiveTime    int64
	NotProductiveTime int64
	FocusedCount      int
	DistractedCount   int
	NudgeCount        int
	Distractions      []DistractionEntry
}

// TitleRequest carries the inputs for session title generation.
type TitleRequest struct {
	Goal            string
	FocusedCount    int
	DistractedCount int
	NudgeCount      int
}

// JudgeConfig holds contextual judge settings.
type JudgeConfig struct {
	BaseURL string        // API base URL (default https://api.anthropic.com)
	APIKey  string
	Model   string
	Timeout time.Duration // Per-call timeout
}

// JudgeClient classifies activity descriptions against the session goal using
// an Anthropic-style messages API.
type JudgeClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewJudgeClient creates a judge client.
func NewJudgeClient(cfg JudgeConfig) *JudgeClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &JudgeClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
	}
}

type messagesRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// complete sends one user message and returns the text of the reply.
func (c *JudgeClient) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	reqBody := messagesRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encode judge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("judge request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("judge request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var msgResp messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&msgResp); err != nil {
		return "", fmt.Errorf("decode judge response: %w", err)
	}

	var sb strings.Builder
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("judge returned empty response")
	}
	return text, nil
}

// Judge classifies the described activity against the goal. Callers fall back
// to a focused verdict on any returned error; this method never invents a
// distracted verdict it cannot parse.
func (c *JudgeClient) Judge(ctx context.Context, goal, description string, history []string) (*Verdict, error) {
	start := time.Now()

	text, err := c.complete(ctx, BuildJudgePrompt(goal, description, history), 150)
	if err != nil {
		return nil, err
	}

	verdict, err := ParseVerdict(text)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Bool("focused", verdict.Focused).
		Dur("elapsed", time.Since(start)).
		Msg("Judge verdict complete")

	return verdict, nil
}

// Categorize buckets distraction explanations into named categories with
// estimated seconds. Each entry represents roughly avgIntervalSeconds of time.
func (c *JudgeClient) Categorize(ctx context.Context, entries []DistractionEntry, avgIntervalSeconds int) (models.JSONSecondsMap, error) {
	if len(entries) == 0 {
		return models.JSONSecondsMap{}, nil
	}

	text, err := c.complete(ctx, BuildCategorizePrompt(entries, avgIntervalSeconds), 500)
	if err != nil {
		return nil, err
	}

	var categories models.JSONSecondsMap
	if err := json.Unmarshal([]byte(ExtractJSONObject(text)), &categories); err != nil {
		return nil, fmt.Errorf("parse categories: %w", err)
	}
	return categories, nil
}

// Narrative generates a short narrative summary of the session.
func (c *JudgeClient) Narrative(ctx context.Context, req NarrativeRequest) (string, error) {
	return c.complete(ctx, BuildNarrativePrompt(req), 350)
}

// Title generates a 1-3 word session title.
func (c *JudgeClient) Title(ctx context.Context, req TitleRequest) (string, error) {
	text, err := c.complete(ctx, BuildTitlePrompt(req), 50)
	if err != nil {
		return "", err
	}
	return strings.Trim(strings.TrimSpace(text), `"'`), nil
}
