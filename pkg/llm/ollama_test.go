package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.1:8b", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.False(t, req.Stream)

		json.NewEncoder(w).Encode(chatResponse{
			Model:           req.Model,
			Message:         chatMessage{Role: "assistant", Content: `{"name": "Slice"}`},
			Done:            true,
			PromptEvalCount: 120,
			EvalCount:       30,
		})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "")
	resp, err := c.Generate(context.Background(), Request{
		Prompt:       "translate this",
		SystemPrompt: SystemPrompt,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"name": "Slice"}`, resp.Text)
	assert.Equal(t, 150, resp.Tokens())
}

func TestOllamaGenerateRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{Content: "ok"},
			Done:    true,
		})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "test-model", WithMaxRetries(2))
	resp, err := c.Generate(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOllamaGenerateExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "test-model", WithMaxRetries(0))
	_, err := c.Generate(context.Background(), Request{Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestOllamaGenerateHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewOllamaClient("http://127.0.0.1:1", "m", WithMaxRetries(3))
	_, err := c.Generate(ctx, Request{Prompt: "p"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOllamaCheckConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "")
	assert.NoError(t, c.CheckConnection(context.Background()))

	srv.Close()
	assert.Error(t, c.CheckConnection(context.Background()))
}

func TestOllamaTokenEstimateFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{Content: "12345678"},
			Done:    true,
		})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "m")
	resp, err := c.Generate(context.Background(), Request{Prompt: "1234567812345678"})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.PromptTokens)
	assert.Equal(t, 2, resp.CompletionTokens)
}
