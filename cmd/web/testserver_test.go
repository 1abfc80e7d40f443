package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zheruizz/another.ai-app/internal/e2etest"
)

// fakeModel imitates the OpenAI chat completions endpoint. Consecutive calls alternate between preferring A and B.
type fakeModel struct {
	server *httptest.Server
	calls  atomic.Int64
	delay  time.Duration
}

func newFakeModel(t *testing.T, delay time.Duration) *fakeModel {
	t.Helper()
	model := &fakeModel{delay: delay} //nolint:exhaustruct // set below
	model.server = httptest.NewServer(http.HandlerFunc(model.chatCompletion))
	t.Cleanup(model.server.Close)
	return model
}

func (m *fakeModel) chatCompletion(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/chat/completions" {
		http.NotFound(w, r)
		return
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-r.Context().Done():
			return
		}
	}

	preference := "A"
	if m.calls.Add(1)%2 == 0 {
		preference = "B"
	}
	content, _ := json.Marshal(map[string]any{
		"preference": preference,
		"rationale":  "Option " + preference + " reads better",
		"confidence": 0.75,
	})
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": string(content)},
			"finish_reason": "stop",
		}},
		"usage": map[string]int{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
	})
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (m *fakeModel) lookupEnv(overrides map[string]string) func(string) (string, bool) {
	env := map[string]string{
		"SYNTHPANEL_ADDR":       "localhost:0",
		"SYNTHPANEL_SQLITE_URL": ":memory:",
		"OPENAI_API_KEY":        "test-key",
		"OPENAI_BASE_URL":       m.server.URL + "/v1",
		"DEFAULT_SAMPLE_SIZE":   "4",
	}
	for k, v := range overrides {
		env[k] = v
	}
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

// startTestServer starts the server and stops it when the test finishes.
func startTestServer(t *testing.T, lookupEnv func(string) (string, bool)) *e2etest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	server, err := e2etest.StartServer(ctx, io.Discard, lookupEnv, run)
	require.NoError(t, err)
	return server
}

func getBody(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url) //nolint:gosec,noctx // test server URL
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, resp.Body.Close())
	}()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
