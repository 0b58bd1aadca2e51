package litellm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Strob0t/ActionForge/internal/adapter/litellm"
	"github.com/Strob0t/ActionForge/internal/port/llm"
	"github.com/Strob0t/ActionForge/internal/resilience"
)

func completionBody(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "openai/gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
}

func TestCompleteSendsPromptAndReturnsText(t *testing.T) {
	var got struct {
		Model               string `json:"model"`
		MaxCompletionTokens int    `json:"max_completion_tokens"`
		Messages            []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth: %q", auth)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionBody("  Proporrei la fibra. @Telefonia  "))
	}))
	defer srv.Close()

	c := litellm.NewChatClient(srv.URL, "test-key", "openai/gpt-4o-mini", 300, nil)
	text, err := c.Complete(context.Background(), llm.Prompt{System: "sei il moderatore", User: "brief"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "Proporrei la fibra. @Telefonia" {
		t.Errorf("text = %q", text)
	}
	if got.Model != "openai/gpt-4o-mini" || got.MaxCompletionTokens != 300 {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "brief" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestCompleteUsesRotatedKey(t *testing.T) {
	var auth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionBody("ok"))
	}))
	defer srv.Close()

	key := "rotated-1"
	c := litellm.NewChatClient(srv.URL, "boot-key", "m", 0, nil)
	c.SetKeySource(func() string { return key })

	for _, want := range []string{"rotated-1", "rotated-2"} {
		key = want
		if _, err := c.Complete(context.Background(), llm.Prompt{User: "x"}); err != nil {
			t.Fatalf("Complete: %v", err)
		}
		if got := auth.Load(); got != "Bearer "+want {
			t.Errorf("auth = %v, want Bearer %s", got, want)
		}
	}

	key = ""
	if _, err := c.Complete(context.Background(), llm.Prompt{User: "x"}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got := auth.Load(); got != "Bearer boot-key" {
		t.Errorf("empty source should fall back, auth = %v", got)
	}
}

func TestCompleteEmptyChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionBody("   "))
	}))
	defer srv.Close()

	c := litellm.NewChatClient(srv.URL, "", "m", 0, nil)
	if _, err := c.Complete(context.Background(), llm.Prompt{User: "x"}); !errors.Is(err, litellm.ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestCompleteOpensBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := litellm.NewChatClient(srv.URL, "k", "m", 0, resilience.NewBreaker(2, time.Minute))
	for range 2 {
		if _, err := c.Complete(context.Background(), llm.Prompt{User: "x"}); err == nil {
			t.Fatal("expected error from failing server")
		}
	}
	if _, err := c.Complete(context.Background(), llm.Prompt{User: "x"}); !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("server hit %d times, want 2", hits.Load())
	}
}

func TestAdminHealth(t *testing.T) {
	healthy := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health/liveliness" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`"I'm alive!"`))
	}))
	defer srv.Close()

	c := litellm.NewAdminClient(srv.URL, "")
	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
	healthy = false
	if err := c.Health(context.Background()); err == nil {
		t.Fatal("expected unhealthy error")
	}
}
