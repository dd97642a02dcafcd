package refiner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/valpere/bitext/internal/postprocess"
)

// OllamaRefiner uses a local Ollama model as a literary editor.
type OllamaRefiner struct {
	model   string
	baseURL string
	client  *http.Client
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// NewOllamaRefiner creates a refiner backed by a local Ollama model.
func NewOllamaRefiner(model, baseURL string) *OllamaRefiner {
	return &OllamaRefiner{
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// Refine returns the polished translation, or the draft when the editor
// answers with nothing.
func (r *OllamaRefiner) Refine(ctx context.Context, sourceLang, targetLang, sourceText, draftText string) (string, error) {
	prompt := buildRefinementPrompt(sourceLang, targetLang, sourceText, draftText)

	reqBody := ollamaRequest{
		Model:  r.model,
		Prompt: prompt,
		Stream: false,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal refinement request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/generate", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create refinement request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("refinement request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("refiner returned status %d", resp.StatusCode)
	}

	var ollamaResp ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return "", fmt.Errorf("failed to decode refinement response: %w", err)
	}

	refined := postprocess.Clean(ollamaResp.Response)
	if refined == "" {
		return draftText, nil
	}
	return refined, nil
}

func buildRefinementPrompt(sourceLang, targetLang, sourceText, draftText string) string {
	return fmt.Sprintf(`You are an experienced %s literary editor.

You will receive one sentence of a book and its DRAFT %s translation.
Rewrite the draft so it reads as natural, idiomatic %s prose.

ORIGINAL (%s):
%s

DRAFT TRANSLATION (%s):
%s

Keep the meaning, names and proper nouns. Keep it one sentence.
If the draft is already good, return it unchanged.

Output ONLY the refined sentence in %s. Do not include any explanation.`,
		targetLang,
		targetLang, targetLang,
		sourceLang, sourceText,
		targetLang, draftText,
		targetLang,
	)
}
