package arbiter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/valpere/bitext/internal/orchestrator"
	"github.com/valpere/bitext/internal/postprocess"
)

// ErrNoCandidates is returned by Evaluate when there is nothing to judge.
var ErrNoCandidates = errors.New("no candidates to evaluate")

type OllamaArbiter struct {
	model   string
	baseURL string
	client  *http.Client
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

func NewOllamaArbiter(model, baseURL string) *OllamaArbiter {
	return &OllamaArbiter{
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Evaluate judges candidates. A single candidate is returned as is without
// a model call.
func (a *OllamaArbiter) Evaluate(ctx context.Context, source, sourceLang, targetLang string, candidates []orchestrator.Candidate) (*Evaluation, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	if len(candidates) == 1 {
		return &Evaluation{
			Selected:  candidates[0].Model,
			Text:      candidates[0].Text,
			Reasoning: "Only one candidate available",
		}, nil
	}

	reqBody := ollamaRequest{
		Model:  a.model,
		Prompt: buildArbiterPrompt(source, sourceLang, targetLang, candidates),
		Stream: false,
		Format: "json",
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/generate", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arbiter request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arbiter returned status %d", resp.StatusCode)
	}

	var ollamaResp ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return parseArbiterResponse(ollamaResp.Response, candidates)
}

func buildArbiterPrompt(source, sourceLang, targetLang string, candidates []orchestrator.Candidate) string {
	var sb strings.Builder
	sb.WriteString("You are a professional translator evaluator.\n")
	sb.WriteString(fmt.Sprintf("Given the original sentence in %s:\n", sourceLang))
	sb.WriteString(fmt.Sprintf(`"%s"`, source))
	sb.WriteString(fmt.Sprintf("\n\nAnd these translations to %s:\n", targetLang))

	for i, c := range candidates {
		sb.WriteString(fmt.Sprintf("  %d. [%s]: \"%s\"\n", i+1, c.Model, c.Text))
	}

	sb.WriteString(`Select the best translation or compose an improved one from the available options.
Respond ONLY in JSON:
{
  "selected": "<model in brackets above>|composite",
  "final_text": "...",
  "reasoning": "..."
}
`)

	return sb.String()
}

// parseArbiterResponse decodes the verdict. A verdict naming a candidate
// without final_text takes that candidate's text.
func parseArbiterResponse(response string, candidates []orchestrator.Candidate) (*Evaluation, error) {
	response = strings.TrimSpace(response)

	var parsed struct {
		Selected  string `json:"selected"`
		FinalText string `json:"final_text"`
		Reasoning string `json:"reasoning"`
	}

	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse arbiter response as JSON: %w", err)
	}

	ev := &Evaluation{
		Selected:  strings.TrimSpace(parsed.Selected),
		Text:      postprocess.TrimQuotes(strings.TrimSpace(parsed.FinalText)),
		Reasoning: strings.TrimSpace(parsed.Reasoning),
	}
	if ev.Text == "" {
		for _, c := range candidates {
			if c.Model == ev.Selected {
				ev.Text = c.Text
				break
			}
		}
	}
	if ev.Text == "" {
		return nil, fmt.Errorf("arbiter selected %q without a usable text", ev.Selected)
	}
	return ev, nil
}
