package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelrouter/internal/models"
)

func chatServer(t *testing.T, handler func(payload map[string]any) (int, any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		status, body := handler(payload)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func completionBody(text string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": text}},
		},
	}
}

func TestForwardSubstitutesModelAndPassesBodyThrough(t *testing.T) {
	var seen map[string]any
	srv := chatServer(t, func(payload map[string]any) (int, any) {
		seen = payload
		return http.StatusOK, completionBody("hi")
	})

	client := NewClient(5 * time.Second)
	entry := models.ModelEntry{ID: "deepseek-coder", Endpoint: srv.URL, Mode: models.ModeChat}

	payload := map[string]any{
		"model":       "whatever-the-client-sent",
		"messages":    []any{map[string]any{"role": "user", "content": "fix"}},
		"temperature": 0.2,
	}
	result, err := client.Forward(context.Background(), entry, payload)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, "deepseek-coder", seen["model"])
	assert.Equal(t, 0.2, seen["temperature"])
	assert.Contains(t, string(result.Body), "hi")
	// The original payload map is not mutated.
	assert.Equal(t, "whatever-the-client-sent", payload["model"])
}

func TestForwardReturnsBackendStatusVerbatim(t *testing.T) {
	srv := chatServer(t, func(payload map[string]any) (int, any) {
		return http.StatusServiceUnavailable, map[string]any{"error": "loading model"}
	})

	client := NewClient(5 * time.Second)
	entry := models.ModelEntry{ID: "qwen3-4b", Endpoint: srv.URL, Mode: models.ModeChat}

	result, err := client.Forward(context.Background(), entry, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, result.StatusCode)
}

func TestComplete(t *testing.T) {
	srv := chatServer(t, func(payload map[string]any) (int, any) {
		messages := payload["messages"].([]any)
		first := messages[0].(map[string]any)
		assert.Equal(t, "user", first["role"])
		assert.Equal(t, "Summarize: long text", first["content"])
		return http.StatusOK, completionBody("a summary")
	})

	client := NewClient(5 * time.Second)
	entry := models.ModelEntry{ID: "qwen3-4b", Endpoint: srv.URL, Mode: models.ModeChat}

	out, err := client.Complete(context.Background(), entry, "Summarize: long text")
	require.NoError(t, err)
	assert.Equal(t, "a summary", out)
}

func TestCompleteNonOKStatusIsAnError(t *testing.T) {
	srv := chatServer(t, func(payload map[string]any) (int, any) {
		return http.StatusInternalServerError, map[string]any{"error": "boom"}
	})

	client := NewClient(5 * time.Second)
	entry := models.ModelEntry{ID: "qwen3-4b", Endpoint: srv.URL, Mode: models.ModeChat}

	_, err := client.Complete(context.Background(), entry, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestCompleteUnreachableBackend(t *testing.T) {
	client := NewClient(time.Second)
	entry := models.ModelEntry{ID: "down", Endpoint: "http://127.0.0.1:1", Mode: models.ModeChat}

	_, err := client.Complete(context.Background(), entry, "x")
	assert.Error(t, err)
}

func TestCompleteHonorsContextCancellation(t *testing.T) {
	srv := chatServer(t, func(payload map[string]any) (int, any) {
		time.Sleep(200 * time.Millisecond)
		return http.StatusOK, completionBody("late")
	})

	client := NewClient(5 * time.Second)
	entry := models.ModelEntry{ID: "slow", Endpoint: srv.URL, Mode: models.ModeChat}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Complete(ctx, entry, "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
