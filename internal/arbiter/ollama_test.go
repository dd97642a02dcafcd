package arbiter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/valpere/bitext/internal/orchestrator"
)

var candidates = []orchestrator.Candidate{
	{Model: "google", Text: "Мысық отырды."},
	{Model: "kazllm", Text: "Мысық отырып қалды."},
}

func TestOllamaArbiter_New(t *testing.T) {
	arbiter := NewOllamaArbiter("llama3.2", "http://localhost:11434/")

	if arbiter.model != "llama3.2" {
		t.Errorf("expected model 'llama3.2', got %q", arbiter.model)
	}
	if arbiter.baseURL != "http://localhost:11434" {
		t.Errorf("expected trailing slash trimmed, got %q", arbiter.baseURL)
	}
	if arbiter.client == nil {
		t.Error("expected non-nil HTTP client")
	}
}

func TestOllamaArbiter_Evaluate_NoCandidates(t *testing.T) {
	arbiter := NewOllamaArbiter("llama3.2", "http://localhost:11434")

	_, err := arbiter.Evaluate(context.Background(), "The cat sat.", "English", "Kazakh", nil)
	if !errors.Is(err, ErrNoCandidates) {
		t.Errorf("expected ErrNoCandidates, got %v", err)
	}
}

func TestOllamaArbiter_Evaluate_SingleCandidate(t *testing.T) {
	arbiter := NewOllamaArbiter("llama3.2", "http://127.0.0.1:1")

	res, err := arbiter.Evaluate(context.Background(), "The cat sat.", "English", "Kazakh", candidates[:1])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Selected != "google" || res.Text != "Мысық отырды." {
		t.Errorf("unexpected evaluation: %+v", res)
	}
	if res.IsComposite() {
		t.Error("expected not composite for a single candidate")
	}
}

func TestOllamaArbiter_Evaluate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req ollamaRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Model != "llama3.2" {
			t.Errorf("expected model 'llama3.2', got %q", req.Model)
		}
		if req.Format != "json" {
			t.Error("expected format 'json'")
		}
		if !strings.Contains(req.Prompt, `[kazllm]: "Мысық отырып қалды."`) {
			t.Errorf("prompt does not list the candidates: %s", req.Prompt)
		}

		json.NewEncoder(w).Encode(ollamaResponse{
			Response: `{"selected": "kazllm", "final_text": "", "reasoning": "More natural"}`,
		})
	}))
	defer server.Close()

	arbiter := NewOllamaArbiter("llama3.2", server.URL)

	res, err := arbiter.Evaluate(context.Background(), "The cat sat.", "English", "Kazakh", candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Selected != "kazllm" {
		t.Errorf("expected selected 'kazllm', got %q", res.Selected)
	}
	if res.Text != "Мысық отырып қалды." {
		t.Errorf("expected the selected candidate's text, got %q", res.Text)
	}
}

func TestOllamaArbiter_Evaluate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	arbiter := NewOllamaArbiter("llama3.2", server.URL)
	if _, err := arbiter.Evaluate(context.Background(), "The cat sat.", "English", "Kazakh", candidates); err == nil {
		t.Error("expected error for a non-200 status")
	}
}

func TestParseArbiterResponse(t *testing.T) {
	tests := []struct {
		name          string
		response      string
		wantSelected  string
		wantText      string
		wantComposite bool
		wantErr       bool
	}{
		{
			name:         "valid json",
			response:     `{"selected": "google", "final_text": "Мысық отырды.", "reasoning": "Best match"}`,
			wantSelected: "google",
			wantText:     "Мысық отырды.",
		},
		{
			name:          "composite",
			response:      `{"selected": "composite", "final_text": "«Мысық отырды»", "reasoning": "Merged"}`,
			wantSelected:  "composite",
			wantText:      "Мысық отырды",
			wantComposite: true,
		},
		{
			name:         "with whitespace",
			response:     `  {"selected": "google", "final_text": "Мысық отырды.", "reasoning": "OK"}  `,
			wantSelected: "google",
			wantText:     "Мысық отырды.",
		},
		{
			name:     "unknown selection without text",
			response: `{"selected": "systran", "final_text": "", "reasoning": "?"}`,
			wantErr:  true,
		},
		{
			name:     "invalid json",
			response: "not json",
			wantErr:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := parseArbiterResponse(tt.response, candidates)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseArbiterResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if res.Selected != tt.wantSelected || res.Text != tt.wantText || res.IsComposite() != tt.wantComposite {
				t.Errorf("parseArbiterResponse() = %+v", res)
			}
		})
	}
}
