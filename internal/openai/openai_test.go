// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/memo-engine/internal/httputil"
	"github.com/pdiddy/memo-engine/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = 0
}

func embeddingConfig(url string) types.EmbeddingConfig {
	return types.EmbeddingConfig{
		AIConfig: types.AIConfig{
			APIKey:  "sk-test",
			BaseURL: url,
		},
		Dimensions: 3,
	}
}

func TestEmbedBatchReordersByResponseIndex(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-small", req.Model)
		require.Len(t, req.Input, 3)

		// Return data deliberately out of order; the client must place
		// vectors by index.
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 2, "embedding": []float64{3, 3, 3}},
				{"index": 0, "embedding": []float64{1, 1, 1}},
				{"index": 1, "embedding": []float64{2, 2, 2}},
			},
		})
	}))
	defer ts.Close()

	client, err := NewEmbeddingClient(embeddingConfig(ts.URL))
	require.NoError(t, err)

	vectors, err := client.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{1, 1, 1}, vectors[0])
	assert.Equal(t, []float32{2, 2, 2}, vectors[1])
	assert.Equal(t, []float32{3, 3, 3}, vectors[2])
}

func TestEmbedBatchSurfacesAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid api key", "type": "auth"},
		})
	}))
	defer ts.Close()

	client, err := NewEmbeddingClient(embeddingConfig(ts.URL))
	require.NoError(t, err)

	_, err = client.EmbedBatch(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestEmbedBatchRetriesRateLimit(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"index": 0, "embedding": []float64{1, 2, 3}}},
		})
	}))
	defer ts.Close()

	client, err := NewEmbeddingClient(embeddingConfig(ts.URL))
	require.NoError(t, err)

	vectors, err := client.EmbedBatch(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, []float32{1, 2, 3}, vectors[0])
}

func TestEmbedBatchCountMismatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"index": 0, "embedding": []float64{1}}},
		})
	}))
	defer ts.Close()

	client, err := NewEmbeddingClient(embeddingConfig(ts.URL))
	require.NoError(t, err)

	_, err = client.EmbedBatch(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned 1 vectors for 2 texts")
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	client, err := NewEmbeddingClient(embeddingConfig("http://unused"))
	require.NoError(t, err)

	vectors, err := client.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestNewEmbeddingClientRequiresAPIKey(t *testing.T) {
	_, err := NewEmbeddingClient(types.EmbeddingConfig{})
	require.Error(t, err)
}

func TestChatGenerate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req struct {
			Model       string  `json:"model"`
			Temperature float64 `json:"temperature"`
			MaxTokens   int     `json:"max_tokens"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4-turbo-preview", req.Model)
		assert.Equal(t, 0.2, req.Temperature)
		assert.Equal(t, 2000, req.MaxTokens)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "Generated section [1]."}},
			},
		})
	}))
	defer ts.Close()

	client, err := NewChatClient(types.AIConfig{APIKey: "sk-test", BaseURL: ts.URL})
	require.NoError(t, err)

	content, err := client.Generate(context.Background(), "system msg", "prompt", 2000, 0.2)
	require.NoError(t, err)
	assert.Equal(t, "Generated section [1].", content)
}

func TestChatGenerateNoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer ts.Close()

	client, err := NewChatClient(types.AIConfig{APIKey: "sk-test", BaseURL: ts.URL})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "", "prompt", 100, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
