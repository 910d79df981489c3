package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newOllamaTestServer(t *testing.T, handler http.HandlerFunc) *OllamaEmbedder {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	e, err := NewOllamaEmbedder(Config{OllamaHost: server.URL, OllamaModel: "test-model"})
	if err != nil {
		t.Fatalf("NewOllamaEmbedder: %v", err)
	}
	return e
}

func TestOllamaEmbedder_EmbedBatch(t *testing.T) {
	e := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %q, want test-model", req.Model)
		}
		embeddings := make([][]float32, len(req.Input))
		for i := range req.Input {
			embeddings[i] = []float32{float32(i + 1), 0.5}
		}
		json.NewEncoder(w).Encode(map[string]any{
			"model":      req.Model,
			"embeddings": embeddings,
		})
	})

	vectors, err := e.EmbedBatch(context.Background(), []string{"one", "two", "three"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vectors))
	}
	for i, v := range vectors {
		if v[0] != float32(i+1) {
			t.Errorf("vector %d out of order: %v", i, v)
		}
	}
}

func TestOllamaEmbedder_Embed(t *testing.T) {
	e := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float32{{0.1, 0.2, 0.3}},
		})
	})

	emb, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(emb) != 3 {
		t.Errorf("expected 3 dims, got %d", len(emb))
	}
}

func TestOllamaEmbedder_LengthMismatch(t *testing.T) {
	e := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float32{{0.1}},
		})
	})

	_, err := e.EmbedBatch(context.Background(), []string{"a", "b"})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestOllamaEmbedder_ServerError(t *testing.T) {
	e := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "model not loaded"})
	})

	if _, err := e.Embed(context.Background(), "hello"); err == nil {
		t.Error("expected error on 500 response")
	}
}

func TestOllamaEmbedder_EmptyInput(t *testing.T) {
	e := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty input")
	})

	vectors, err := e.EmbedBatch(context.Background(), nil)
	if err != nil || vectors != nil {
		t.Errorf("EmbedBatch(nil) = %v, %v; want nil, nil", vectors, err)
	}
}

func TestNewOllamaEmbedder_RequiresHost(t *testing.T) {
	_, err := NewOllamaEmbedder(Config{OllamaModel: "m"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}
