package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tutorlab/tutor-platform/internal/core/domain"
)

func TestClient_Complete_Success(t *testing.T) {
	var captured completionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Fatalf("unexpected auth header: %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"2x"}}]}`))
	}))
	defer server.Close()

	client := New(Config{APIKey: "test-key", BaseURL: server.URL, Model: "test-model"})

	reply, err := client.Complete(context.Background(), "You are a tutor.", []domain.Turn{
		{Role: domain.RoleUser, Content: "Derivative of x^2?"},
	})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if reply != "2x" {
		t.Fatalf("unexpected reply: %q", reply)
	}

	if captured.Model != "test-model" {
		t.Fatalf("unexpected model: %q", captured.Model)
	}
	if len(captured.Messages) != 2 {
		t.Fatalf("expected system + user message, got %d", len(captured.Messages))
	}
	if captured.Messages[0].Role != "system" || captured.Messages[0].Content != "You are a tutor." {
		t.Fatalf("system message must come first: %+v", captured.Messages[0])
	}
	if captured.Messages[1].Role != "user" || captured.Messages[1].Content != "Derivative of x^2?" {
		t.Fatalf("unexpected user message: %+v", captured.Messages[1])
	}
}

func TestClient_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit exceeded"}}`))
	}))
	defer server.Close()

	client := New(Config{APIKey: "test-key", BaseURL: server.URL})

	_, err := client.Complete(context.Background(), "prompt", nil)
	if err == nil || !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Fatalf("expected api error with upstream message, got %v", err)
	}
}

func TestClient_Complete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := New(Config{APIKey: "test-key", BaseURL: server.URL})

	_, err := client.Complete(context.Background(), "prompt", nil)
	if err == nil || !strings.Contains(err.Error(), "empty choices") {
		t.Fatalf("expected empty choices error, got %v", err)
	}
}

func TestClient_Complete_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := New(Config{APIKey: "test-key", BaseURL: server.URL})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Complete(ctx, "prompt", nil)
	if err == nil {
		t.Fatalf("expected error on cancelled context")
	}
}

func TestNew_Defaults(t *testing.T) {
	client := New(Config{APIKey: "k"})
	if client.baseURL != defaultBaseURL {
		t.Fatalf("expected default base URL, got %q", client.baseURL)
	}
	if client.model != defaultModel {
		t.Fatalf("expected default model, got %q", client.model)
	}
	if client.maxTokens != defaultMaxTokens {
		t.Fatalf("expected default max tokens, got %d", client.maxTokens)
	}
	if client.http.Timeout != defaultTimeout {
		t.Fatalf("expected default timeout, got %s", client.http.Timeout)
	}
}
