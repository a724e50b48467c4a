// ABOUTME: Tests for the OpenAI-backed oracles against a local fake endpoint
// ABOUTME: Covers chat answers, embeddings, retries, and structured verdicts
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harper/topicseg/internal/models"
)

func newFakeServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) *ClientConfig {
	cfg := DefaultConfig("test-key")
	cfg.BaseURL = baseURL
	cfg.RetryDelay = time.Millisecond
	cfg.MaxRetries = 2
	cfg.Timeout = 5 * time.Second
	return cfg
}

func writeChatReply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 0,
		"model":   DefaultChatModel,
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	})
}

func TestNewOpenAIClient_RequiresKeyOrBaseURL(t *testing.T) {
	if _, err := NewOpenAIClient(""); !errors.Is(err, models.ErrValidation) {
		t.Errorf("NewOpenAIClient(\"\") error = %v, want ErrValidation", err)
	}

	cfg := DefaultConfig("")
	cfg.BaseURL = "http://localhost:11434/v1"
	client, err := NewOpenAIClientWithConfig(cfg)
	if err != nil {
		t.Fatalf("keyless client with base URL error = %v", err)
	}
	if client.Model() != DefaultChatModel {
		t.Errorf("Model() = %q, want %q", client.Model(), DefaultChatModel)
	}
}

func TestOpenAIClient_Invoke(t *testing.T) {
	var gotPrompt string
	srv := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) > 0 {
			gotPrompt = req.Messages[0].Content
		}
		writeChatReply(w, "True")
	})

	client, err := NewOpenAIClientWithConfig(testConfig(srv.URL + "/v1"))
	if err != nil {
		t.Fatalf("NewOpenAIClientWithConfig() error = %v", err)
	}

	answer, err := client.Invoke(context.Background(), "Does it continue?")
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if answer != "True" {
		t.Errorf("Invoke() = %q, want True", answer)
	}
	if gotPrompt != "Does it continue?" {
		t.Errorf("server saw prompt %q", gotPrompt)
	}
}

func TestOpenAIClient_InvokeRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, `{"error":{"message":"overloaded","type":"server_error"}}`, http.StatusInternalServerError)
			return
		}
		writeChatReply(w, "False")
	})

	client, err := NewOpenAIClientWithConfig(testConfig(srv.URL + "/v1"))
	if err != nil {
		t.Fatalf("NewOpenAIClientWithConfig() error = %v", err)
	}
	answer, err := client.Invoke(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if answer != "False" || calls.Load() != 3 {
		t.Errorf("answer = %q after %d calls, want False after 3", answer, calls.Load())
	}
}

func TestOpenAIClient_InvokeClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	})

	client, err := NewOpenAIClientWithConfig(testConfig(srv.URL + "/v1"))
	if err != nil {
		t.Fatalf("NewOpenAIClientWithConfig() error = %v", err)
	}
	_, err = client.Invoke(context.Background(), "prompt")
	if !errors.Is(err, models.ErrOracle) {
		t.Errorf("Invoke() error = %v, want ErrOracle", err)
	}
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want 1", calls.Load())
	}
}

func TestOpenAIClient_GenerateEmbedding(t *testing.T) {
	srv := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  string(DefaultEmbeddingModel),
			"data": []map[string]any{{
				"object":    "embedding",
				"index":     0,
				"embedding": []float32{0.5, -0.25, 1},
			}},
		})
	})

	client, err := NewOpenAIClientWithConfig(testConfig(srv.URL + "/v1"))
	if err != nil {
		t.Fatalf("NewOpenAIClientWithConfig() error = %v", err)
	}
	vec, err := client.GenerateEmbedding(context.Background(), "climate")
	if err != nil {
		t.Fatalf("GenerateEmbedding() error = %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.5 || vec[1] != -0.25 {
		t.Errorf("GenerateEmbedding() = %v", vec)
	}
}

func TestStructuredClient_Invoke(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		fails bool
	}{
		{"continues", `{"continues":true}`, "true", false},
		{"boundary", `{"continues":false}`, "false", false},
		{"wrapped in prose", `Sure: {"continues": true}`, "true", false},
		{"not json", `maybe`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
				if !strings.HasSuffix(r.URL.Path, "/responses") {
					http.NotFound(w, r)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]any{
					"id":         "resp_1",
					"object":     "response",
					"created_at": 0,
					"model":      DefaultChatModel,
					"status":     "completed",
					"output": []map[string]any{{
						"type":   "message",
						"id":     "msg_1",
						"role":   "assistant",
						"status": "completed",
						"content": []map[string]any{{
							"type":        "output_text",
							"text":        tt.text,
							"annotations": []any{},
						}},
					}},
				})
			})

			client, err := NewStructuredClient(testConfig(srv.URL))
			if err != nil {
				t.Fatalf("NewStructuredClient() error = %v", err)
			}
			got, err := client.Invoke(context.Background(), "Does it continue?")
			if tt.fails {
				if !errors.Is(err, models.ErrOracle) {
					t.Errorf("Invoke() error = %v, want ErrOracle", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Invoke() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Invoke() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateSchema_Strict(t *testing.T) {
	schema := GenerateSchema[ContinuationVerdict]()
	if schema["type"] != "object" {
		t.Errorf("type = %v, want object", schema["type"])
	}
	if schema["additionalProperties"] != false {
		t.Errorf("additionalProperties = %v, want false", schema["additionalProperties"])
	}
	required, _ := schema["required"].([]string)
	if len(required) != 1 || required[0] != "continues" {
		t.Errorf("required = %v, want [continues]", schema["required"])
	}
}
