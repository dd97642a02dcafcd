package translator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOllamaService_Translate(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"response": "<think>aspect</think>\"Мысық отырды.\""}`))
	}))
	defer server.Close()

	svc := NewOllamaService(ServiceConfig{BaseURL: server.URL})

	got, err := svc.Translate(context.Background(), Request{
		Text:       "The cat sat.",
		SourceLang: "en",
		TargetLang: "kk",
		Model:      "gemma2:2b",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Мысық отырды." {
		t.Errorf("Translate() = %q, want cleaned output", got)
	}
	if body["model"] != "gemma2:2b" {
		t.Errorf("model = %v, want gemma2:2b", body["model"])
	}
	prompt, _ := body["prompt"].(string)
	if !strings.Contains(prompt, "from English to Kazakh") {
		t.Errorf("prompt does not name the languages: %q", prompt)
	}
}

func TestOllamaService_DefaultModel(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"response": "ok"}`))
	}))
	defer server.Close()

	svc := NewOllamaService(ServiceConfig{BaseURL: server.URL})
	if _, err := svc.Translate(context.Background(), Request{Text: "a", TargetLang: "kk"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body["model"] != DefaultOllamaModel {
		t.Errorf("model = %v, want %s", body["model"], DefaultOllamaModel)
	}
}

func TestOllamaService_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewOllamaService(ServiceConfig{BaseURL: server.URL})
	if _, err := svc.Translate(context.Background(), Request{Text: "a", TargetLang: "kk"}); err == nil {
		t.Error("expected error for non-OK status")
	}
}

func TestOllamaService_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"models": []}`))
	}))
	defer server.Close()

	svc := NewOllamaService(ServiceConfig{BaseURL: server.URL})
	if err := svc.IsAvailable(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestOpenRouterService_Translate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`{"choices": [{"message": {"content": "Translation: Мысық отырды."}}]}`))
	}))
	defer server.Close()

	svc := NewOpenRouterService(ServiceConfig{APIKey: "key", BaseURL: server.URL})

	got, err := svc.Translate(context.Background(), Request{Text: "The cat sat.", SourceLang: "English", TargetLang: "Kazakh"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Мысық отырды." {
		t.Errorf("Translate() = %q", got)
	}
}

func TestOpenRouterService_NoAPIKey(t *testing.T) {
	svc := NewOpenRouterService(ServiceConfig{})

	if _, err := svc.Translate(context.Background(), Request{Text: "a", TargetLang: "kk"}); err == nil {
		t.Error("expected error when no API key")
	}
}

func TestOpenRouterService_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	svc := NewOpenRouterService(ServiceConfig{APIKey: "key", BaseURL: server.URL})
	if _, err := svc.Translate(context.Background(), Request{Text: "a", TargetLang: "kk"}); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestMyMemoryService_Translate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("langpair"); got != "en|kk" {
			t.Errorf("langpair = %q, want en|kk", got)
		}
		if got := r.URL.Query().Get("de"); got != "me@example.com" {
			t.Errorf("de = %q", got)
		}
		w.Write([]byte(`{"responseData": {"translatedText": "Мысық отырды."}, "responseStatus": 200}`))
	}))
	defer server.Close()

	svc := NewMyMemoryService("me@example.com")
	svc.baseURL = server.URL

	got, err := svc.Translate(context.Background(), Request{Text: "The cat sat.", SourceLang: "English", TargetLang: "Kazakh"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Мысық отырды." {
		t.Errorf("Translate() = %q", got)
	}
}

func TestMyMemoryService_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"responseStatus": 403, "responseDetails": "quota"}`))
	}))
	defer server.Close()

	svc := NewMyMemoryService("")
	svc.baseURL = server.URL

	if _, err := svc.Translate(context.Background(), Request{Text: "a", TargetLang: "kk"}); err == nil {
		t.Error("expected error for API status 403")
	}
}

func TestServiceNames(t *testing.T) {
	tests := []struct {
		svc  Service
		want string
	}{
		{NewGoogleService("", ""), "google"},
		{NewOllamaService(ServiceConfig{}), "ollama"},
		{NewOpenRouterService(ServiceConfig{}), "openrouter"},
		{NewMyMemoryService(""), "mymemory"},
	}

	for _, tt := range tests {
		if got := tt.svc.Name(); got != tt.want {
			t.Errorf("Name() = %q, want %q", got, tt.want)
		}
	}
}
