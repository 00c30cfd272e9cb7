package local

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeInferenceServer(t *testing.T, served []string, tokens []string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		data := make([]map[string]any, 0, len(served))
		for _, id := range served {
			data = append(data, map[string]any{"id": id, "object": "model", "created": 0, "owned_by": "llamacpp"})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["stream"])
		w.Header().Set("Content-Type", "text/event-stream")
		for _, tok := range tokens {
			chunk := map[string]any{
				"id":      "chatcmpl-1",
				"object":  "chat.completion.chunk",
				"created": 1,
				"model":   body["model"],
				"choices": []map[string]any{{"index": 0, "delta": map[string]any{"content": tok}}},
			}
			b, _ := json.Marshal(chunk)
			fmt.Fprintf(w, "data: %s\n\n", b)
			w.(http.Flusher).Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestEngine(endpoint string) *OpenAIEngine {
	cfg := DefaultConfig()
	cfg.Endpoint = endpoint
	return NewOpenAIEngine(cfg, zerolog.Nop())
}

func TestOpenAIEngine_ListModels(t *testing.T) {
	srv := fakeInferenceServer(t, []string{"/models/smollm2-360m-q8_0.gguf", "qwen"}, nil)

	ids, err := newTestEngine(srv.URL).ListModels(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"/models/smollm2-360m-q8_0.gguf", "qwen"}, ids)
}

func TestOpenAIEngine_LoadAndStream(t *testing.T) {
	srv := fakeInferenceServer(t, []string{"/models/smollm2-360m-q8_0.gguf"}, []string{"Take ", "a ", "breath"})
	eng := newTestEngine(srv.URL)

	require.NoError(t, eng.LoadModel(context.Background(), "smollm2-360m-q8_0"))
	assert.Equal(t, "/models/smollm2-360m-q8_0.gguf", eng.Loaded())

	var out []string
	err := eng.GenerateStream(context.Background(), GenerateRequest{Prompt: "hi", MaxTokens: 16}, func(tok string) error {
		out = append(out, tok)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Take ", "a ", "breath"}, out)
}

func TestOpenAIEngine_LoadUnknown(t *testing.T) {
	srv := fakeInferenceServer(t, []string{"qwen"}, nil)
	eng := newTestEngine(srv.URL)

	err := eng.LoadModel(context.Background(), "smollm2-360m-q8_0")

	assert.ErrorIs(t, err, ErrModelNotFound)
	assert.Empty(t, eng.Loaded())
}

func TestOpenAIEngine_GenerateWithoutModel(t *testing.T) {
	eng := newTestEngine("http://127.0.0.1:1")

	err := eng.GenerateStream(context.Background(), GenerateRequest{Prompt: "hi"}, func(string) error { return nil })

	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestOpenAIEngine_Unreachable(t *testing.T) {
	_, err := newTestEngine("http://127.0.0.1:1").ListModels(context.Background())
	assert.ErrorIs(t, err, ErrEngineUnavailable)
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080/v1/", baseURL("http://localhost:8080"))
	assert.Equal(t, "http://localhost:8080/v1/", baseURL("http://localhost:8080/v1/"))
	assert.Equal(t, "http://host/v1/", baseURL(" http://host/ "))
}
