package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisionClientDescribe(t *testing.T) {
	var gotReq ollamaChatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: "  Editing a spreadsheet in LibreOffice.  "},
		})
	}))
	defer server.Close()

	client := NewVisionClient(VisionConfig{BaseURL: server.URL, Model: "qwen3-vl:2b"})

	description, err := client.Describe(context.Background(), []byte("fake-png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "Editing a spreadsheet in LibreOffice.", description)
	assert.Equal(t, "qwen3-vl:2b", gotReq.Model)
	assert.False(t, gotReq.Stream)
	require.Len(t, gotReq.Messages, 1)
	assert.Len(t, gotReq.Messages[0].Images, 1)
}

func TestVisionClientDescribeErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model not loaded", http.StatusInternalServerError)
			},
		},
		{
			name: "empty description",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(ollamaChatResponse{})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewVisionClient(VisionConfig{BaseURL: server.URL, Model: "qwen3-vl:2b"})
			_, err := client.Describe(context.Background(), []byte("img"))
			assert.Error(t, err)
		})
	}
}

func TestJudgeClientJudge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Messages[0].Content, "finish the quarterly report")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[{"type":"text","text":"DISTRACTED\nWatching videos unrelated to the report."}]}`))
	}))
	defer server.Close()

	client := NewJudgeClient(JudgeConfig{BaseURL: server.URL, APIKey: "test-key", Model: "claude-sonnet-4-20250514"})

	verdict, err := client.Judge(context.Background(), "finish the quarterly report", "Watching a video site.", nil)
	require.NoError(t, err)
	assert.False(t, verdict.Focused)
	assert.Equal(t, "Watching videos unrelated to the report.", verdict.Explanation)
}

func TestJudgeClientJudgeAmbiguousReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[{"type":"text","text":"I am not sure what the user is doing."}]}`))
	}))
	defer server.Close()

	client := NewJudgeClient(JudgeConfig{BaseURL: server.URL, APIKey: "k", Model: "m"})

	_, err := client.Judge(context.Background(), "write code", "unclear screen", nil)
	assert.Error(t, err)
}

func TestJudgeClientCategorize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[{"type":"text","text":"` + "```json\\n{\\\"Social Media\\\": 90}\\n```" + `"}]}`))
	}))
	defer server.Close()

	client := NewJudgeClient(JudgeConfig{BaseURL: server.URL, APIKey: "k", Model: "m"})

	categories, err := client.Categorize(context.Background(), []DistractionEntry{
		{Explanation: "Scrolling a feed"},
		{Explanation: "Scrolling a feed again"},
		{Explanation: "Reading replies"},
	}, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(90), categories["Social Media"])
}

func TestJudgeClientCategorizeEmpty(t *testing.T) {
	client := NewJudgeClient(JudgeConfig{BaseURL: "http://localhost:1", APIKey: "k", Model: "m"})

	categories, err := client.Categorize(context.Background(), nil, 30)
	require.NoError(t, err)
	assert.Empty(t, categories)
}

func TestJudgeClientTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[{"type":"text","text":"\"Deep Work\""}]}`))
	}))
	defer server.Close()

	client := NewJudgeClient(JudgeConfig{BaseURL: server.URL, APIKey: "k", Model: "m"})

	title, err := client.Title(context.Background(), TitleRequest{Goal: "write the design doc"})
	require.NoError(t, err)
	assert.Equal(t, "Deep Work", title)
}
