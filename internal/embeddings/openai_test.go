package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func embeddingsStub(t *testing.T, dim int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %q", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); !strings.HasPrefix(got, "Bearer ") {
			t.Errorf("missing bearer auth, got %q", got)
		}
		vec := make([]float64, dim)
		for i := range vec {
			vec[i] = float64(i) / float64(dim)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": vec}},
		})
	}))
}

func stubConfig(url string, dim int) *Config {
	return &Config{
		Provider: "openai",
		Model:    "test-model",
		APIKey:   "test-key",
		BaseURL:  url,
		Dim:      dim,
	}
}

func TestOpenAIEmbed_LearnsDimFromFirstResponse(t *testing.T) {
	srv := embeddingsStub(t, 8)
	defer srv.Close()

	prov := NewOpenAI(stubConfig(srv.URL, 0))
	emb, err := prov.Embed(context.Background(), "limitation of liability")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(emb) != 8 {
		t.Fatalf("embedding dim = %d, want 8", len(emb))
	}
	if prov.Dim() != 8 {
		t.Fatalf("Dim() = %d after first response, want 8", prov.Dim())
	}
}

// Concurrent first-use must be safe: with no configured dim, many workers can
// race to learn it from their first responses. Run with -race.
func TestOpenAIEmbed_ConcurrentFirstUse(t *testing.T) {
	srv := embeddingsStub(t, 8)
	defer srv.Close()

	prov := NewOpenAI(stubConfig(srv.URL, 0))

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			emb, err := prov.Embed(context.Background(), "indemnification clause")
			if err != nil {
				errs <- err
				return
			}
			if len(emb) != 8 {
				t.Errorf("embedding dim = %d, want 8", len(emb))
			}
			if d := prov.Dim(); d != 0 && d != 8 {
				t.Errorf("Dim() = %d mid-flight, want 0 or 8", d)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Embed: %v", err)
	}
	if prov.Dim() != 8 {
		t.Fatalf("Dim() = %d after all calls, want 8", prov.Dim())
	}
}

func TestOpenAIEmbed_RejectsDimMismatch(t *testing.T) {
	srv := embeddingsStub(t, 8)
	defer srv.Close()

	prov := NewOpenAI(stubConfig(srv.URL, 16))
	if _, err := prov.Embed(context.Background(), "termination for convenience"); err == nil {
		t.Fatal("expected dim mismatch error")
	}
	if prov.Dim() != 16 {
		t.Fatalf("Dim() = %d after mismatch, want configured 16", prov.Dim())
	}
}
