package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, "hello", req.Prompt)

		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{0.1, 0.2, 0.3}})
	}))
	defer server.Close()

	e := NewEmbedder(Config{BaseURL: server.URL, RequestsPerSecond: -1})
	got, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, got)
}

func TestEmbed_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	e := NewEmbedder(Config{BaseURL: server.URL, RequestsPerSecond: -1})
	_, err := e.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestEmbed_RateLimiterHonoursContext(t *testing.T) {
	e := NewEmbedder(Config{BaseURL: "http://localhost:1", RequestsPerSecond: 0.001})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// First token is available immediately; burn it so the next call waits.
	_, _ = e.Embed(context.Background(), "warmup")

	_, err := e.Embed(ctx, "hello")
	require.Error(t, err)
}

func TestNewEmbedder_Defaults(t *testing.T) {
	e := NewEmbedder(Config{})
	assert.Equal(t, DefaultDimensions, e.Dimensions())
	assert.Equal(t, DefaultModel, e.ModelName())
	assert.NotNil(t, e.limiter)
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	e := NewEmbedder(Config{BaseURL: server.URL})
	assert.NoError(t, e.Ping(context.Background()))
}
