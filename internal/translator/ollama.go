package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/valpere/bitext/internal/postprocess"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "qwen2.5:7b"
)

// OllamaService translates with a local Ollama server.
type OllamaService struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaService(cfg ServiceConfig) *OllamaService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOllamaURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &OllamaService{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (s *OllamaService) Name() string {
	return "ollama"
}

func (s *OllamaService) Translate(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = s.model
	}

	ollamaReq := map[string]interface{}{
		"model":  model,
		"prompt": translationPrompt(req),
		"stream": false,
	}

	jsonData, err := json.Marshal(ollamaReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/generate", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var ollamaResp struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return postprocess.Clean(ollamaResp.Response), nil
}

// IsAvailable checks that the server answers its model listing.
func (s *OllamaService) IsAvailable(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama not available: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}
	return nil
}

func translationPrompt(req Request) string {
	source := LanguageName(req.SourceLang)
	if source == "" || source == "auto" {
		source = "the detected language"
	}
	return fmt.Sprintf(`Translate the following sentence from %s to %s.
Only respond with the translation, nothing else.

Sentence: "%s"

Translation:`, source, LanguageName(req.TargetLang), req.Text)
}
