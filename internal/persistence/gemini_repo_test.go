package persistence

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiRepo_Generate(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/"+DefaultGeminiModel+":generateContent"), r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"role": "model", "parts": [{"text": "ENHANCED: gemini"}]},
				"finishReason": "STOP"
			}]
		}`))
	}))
	defer srv.Close()

	repo := NewGeminiRepo(srv.URL, "")
	text, err := repo.Generate(context.Background(), testRequest(t))
	require.NoError(t, err)

	assert.Equal(t, "ENHANCED: gemini", text)
	assert.Contains(t, captured, "systemInstruction")

	contents, ok := captured["contents"].([]interface{})
	require.True(t, ok)
	assert.Len(t, contents, 1)
}

func TestGeminiRepo_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	}))
	defer srv.Close()

	_, err := NewGeminiRepo(srv.URL, "").Generate(context.Background(), testRequest(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate content")
}

func TestGeminiRepo_Blocked(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"prompt blocked", `{"promptFeedback":{"blockReason":"SAFETY"}}`, "prompt blocked (SAFETY)"},
		{"no candidates", `{"candidates":[]}`, "no candidates returned"},
		{"candidate stopped for safety", `{"candidates":[{"finishReason":"SAFETY"}]}`, "finish reason SAFETY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			text, err := NewGeminiRepo(srv.URL, "").Generate(context.Background(), testRequest(t))
			require.Error(t, err)
			assert.Empty(t, text)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
