package ai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/require"
	"github.com/zheruizz/another.ai-app/internal/ai"
	"github.com/zheruizz/another.ai-app/internal/errors"
)

var testRequest = ai.CompletionRequest{
	Model:        "gpt-4o-mini",
	Temperature:  0.3,
	SystemPrompt: "You are a persona.",
	UserPrompt:   "Pick A or B.",
	JSONOutput:   true,
}

func chatCompletionBody(content string) map[string]any {
	choices := []map[string]any{}
	if content != "" {
		choices = append(choices, map[string]any{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		})
	}
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": choices,
	}
}

func TestOpenAIClient_Complete(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		body            map[string]any
		want            string
		wantErr         bool
		wantRateLimited bool
	}{
		{
			name:   "returns first choice",
			status: http.StatusOK,
			body:   chatCompletionBody(`{"preference":"B","rationale":"cheaper","confidence":0.8}`),
			want:   `{"preference":"B","rationale":"cheaper","confidence":0.8}`,
		},
		{
			name:   "no choices yields an empty object",
			status: http.StatusOK,
			body:   chatCompletionBody(""),
			want:   "{}",
		},
		{
			name:            "rate limit is marked",
			status:          http.StatusTooManyRequests,
			body:            map[string]any{"error": map[string]any{"message": "slow down", "type": "requests"}},
			wantErr:         true,
			wantRateLimited: true,
		},
		{
			name:    "server error is returned",
			status:  http.StatusInternalServerError,
			body:    map[string]any{"error": map[string]any{"message": "boom", "type": "server_error"}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer gock.Off()
			gock.New("https://api.openai.com").
				Post("/v1/chat/completions").
				Reply(tt.status).
				JSON(tt.body)

			client := ai.NewOpenAIClient("test-key", "")
			got, err := client.Complete(context.Background(), testRequest)
			if tt.wantErr {
				require.Error(t, err)
				require.Equal(t, tt.wantRateLimited, errors.Is(err, ai.ErrRateLimited))
			} else {
				require.NoError(t, err)
				require.Equal(t, tt.want, got)
			}
			require.True(t, gock.IsDone(), "expected request was not made")
		})
	}
}

func TestOpenAIClient_RequestShape(t *testing.T) {
	var received struct {
		Model          string  `json:"model"`
		Temperature    float64 `json:"temperature"`
		ResponseFormat struct {
			Type string `json:"type"`
		} `json:"response_format"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatCompletionBody(`{}`))
	}))
	t.Cleanup(server.Close)

	client := ai.NewOpenAIClient("test-key", server.URL+"/v1")
	_, err := client.Complete(context.Background(), testRequest)
	require.NoError(t, err)

	require.Equal(t, "gpt-4o-mini", received.Model)
	require.InDelta(t, 0.3, received.Temperature, 1e-6)
	require.Equal(t, "json_object", received.ResponseFormat.Type)
	require.Len(t, received.Messages, 2)
	require.Equal(t, "system", received.Messages[0].Role)
	require.Equal(t, "You are a persona.", received.Messages[0].Content)
	require.Equal(t, "user", received.Messages[1].Role)
	require.Equal(t, "Pick A or B.", received.Messages[1].Content)
}
