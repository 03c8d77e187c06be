package openai

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func stubWait(t *testing.T) *[]time.Duration {
	t.Helper()
	var waits []time.Duration
	original := wait
	wait = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	t.Cleanup(func() { wait = original })
	return &waits
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{{
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	})
}

func TestGenerateSendsJSONRequest(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		writeCompletion(w, `{"confidence": 0.4}`)
	}))
	defer server.Close()

	temp := 0.5
	g, err := NewGenerator(Options{APIKey: " secret ", BaseURL: server.URL + "/", Temperature: &temp})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}

	out, err := g.Generate(context.Background(), "gpt-4-turbo-2024-04-09", "prompt")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != `{"confidence": 0.4}` {
		t.Fatalf("unexpected output %q", out)
	}
	if got.Model != "gpt-4-turbo-2024-04-09" || got.ResponseFormat.Type != "json_object" {
		t.Fatalf("unexpected request: %+v", got)
	}
	if got.Temperature == nil || *got.Temperature != 0.5 {
		t.Fatalf("temperature not forwarded")
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "prompt" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestGenerateDecodesGzip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		defer gz.Close()
		_ = json.NewEncoder(gz).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": "{}"}}},
		})
	}))
	defer server.Close()

	g, _ := NewGenerator(Options{APIKey: "k", BaseURL: server.URL})
	out, err := g.Generate(context.Background(), "", "prompt")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "{}" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestGenerateRetriesTemporaryStatus(t *testing.T) {
	waits := stubWait(t)

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "2")
			http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
			return
		}
		writeCompletion(w, "{}")
	}))
	defer server.Close()

	g, _ := NewGenerator(Options{APIKey: "k", BaseURL: server.URL, MaxRetries: 3})
	if _, err := g.Generate(context.Background(), "", "prompt"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
	if len(*waits) != 1 || (*waits)[0] != 2*time.Second {
		t.Fatalf("expected Retry-After delay, got %v", *waits)
	}
}

func TestGenerateDoesNotRetryClientError(t *testing.T) {
	stubWait(t)

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad model", http.StatusBadRequest)
	}))
	defer server.Close()

	g, _ := NewGenerator(Options{APIKey: "k", BaseURL: server.URL, MaxRetries: 3})
	_, err := g.Generate(context.Background(), "", "prompt")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 status error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestGenerateStopsAfterRetriesExhausted(t *testing.T) {
	waits := stubWait(t)

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	g, _ := NewGenerator(Options{APIKey: "k", BaseURL: server.URL, MaxRetries: 3})
	if _, err := g.Generate(context.Background(), "", "prompt"); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
	if len(*waits) != 2 || (*waits)[0] != time.Second || (*waits)[1] != 2*time.Second {
		t.Fatalf("expected exponential backoff, got %v", *waits)
	}
}

func TestNewGeneratorDefaults(t *testing.T) {
	if _, err := NewGenerator(Options{APIKey: "  "}); err == nil {
		t.Fatal("expected error for missing key")
	}
	g, err := NewGenerator(Options{APIKey: "k"})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	if g.Model() != DefaultModel || g.baseURL != DefaultBaseURL || g.Provider() != "openai" {
		t.Fatalf("unexpected defaults: %+v", g)
	}
}
