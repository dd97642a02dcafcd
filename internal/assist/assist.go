// Package assist asks a chat model to explain or improve a translation.
package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/valpere/bitext/internal/backend"
	"github.com/valpere/bitext/internal/lifecycle"
	"github.com/valpere/bitext/internal/logging"
	"github.com/valpere/bitext/internal/postprocess"
)

const (
	ExplainTemperature = 0.7
	ImproveTemperature = 0.8

	ClaudeModel  = "claude-sonnet-4-5-20250929"
	ChatGPTModel = "gpt-4"

	// MaxCandidates caps the variants requested from Improve.
	MaxCandidates = 5
)

// ErrEmptyInstruction is returned by Improve when no instruction is given.
var ErrEmptyInstruction = errors.New("improvement instruction is empty")

// Chatter sends one message to a chat endpoint.
type Chatter interface {
	Chat(ctx context.Context, endpoint string, req backend.ChatRequest) (string, error)
}

// Route is the endpoint and model name a translation model tag maps to.
type Route struct {
	Endpoint string
	Model    string
}

// RouteFor maps a translation model tag to a chat route. kazllm cannot
// explain or improve and is served by chatgpt.
func RouteFor(model string) Route {
	if model == "kazllm" {
		model = "chatgpt"
	}
	if model == "claude" {
		return Route{Endpoint: backend.ClaudeEndpoint, Model: ClaudeModel}
	}
	return Route{Endpoint: backend.ChatGPTEndpoint, Model: ChatGPTModel}
}

type Assistant struct {
	chat   Chatter
	source string
	target string
	log    zerolog.Logger
}

// New creates an Assistant for the given language pair, e.g. "English"
// and "Kazakh".
func New(chat Chatter, sourceLang, targetLang string) *Assistant {
	if sourceLang == "" {
		sourceLang = "English"
	}
	if targetLang == "" {
		targetLang = "Kazakh"
	}
	return &Assistant{
		chat:   chat,
		source: sourceLang,
		target: targetLang,
		log:    logging.Component("assist"),
	}
}

// Explain returns a short explanation of the word choices in translation.
func (a *Assistant) Explain(ctx context.Context, original, translation, model string) (string, error) {
	prompt := fmt.Sprintf(`Briefly explain this translation (3-4 sentences at most):

Original (%s): "%s"
Translation (%s): "%s"

Explain why these words were chosen and the main nuances. Be concise.`,
		a.source, original, a.target, translation)

	reply, err := a.ask(ctx, model, prompt, ExplainTemperature)
	if err != nil {
		return "", err
	}
	return postprocess.Clean(reply), nil
}

// Improve asks for up to MaxCandidates improved translations following
// instruction and returns them in the order given.
func (a *Assistant) Improve(ctx context.Context, original, current, instruction, model string) ([]string, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, ErrEmptyInstruction
	}

	prompt := fmt.Sprintf(`Improve the translation according to the request:

Original (%s): "%s"
Current translation (%s): "%s"
Request: %s

Give from 1 to %d improved translations in %s. Start each variant on a new line with its number (1., 2., and so on). No explanations, only the translations.`,
		a.source, original, a.target, current, instruction, MaxCandidates, a.target)

	reply, err := a.ask(ctx, model, prompt, ImproveTemperature)
	if err != nil {
		return nil, err
	}
	candidates := postprocess.Candidates(reply)
	if len(candidates) == 0 {
		return nil, &lifecycle.TranslationServiceError{Model: RouteFor(model).Model, Err: errors.New("no candidates in reply")}
	}
	return candidates, nil
}

func (a *Assistant) ask(ctx context.Context, model, prompt string, temperature float64) (string, error) {
	route := RouteFor(model)
	a.log.Debug().Ctx(ctx).
		Str("endpoint", route.Endpoint).
		Str("model", route.Model).
		Float64("temperature", temperature).
		Msg("chat request")

	reply, err := a.chat.Chat(ctx, route.Endpoint, backend.ChatRequest{
		Message:     prompt,
		Model:       route.Model,
		Temperature: temperature,
	})
	if err != nil {
		return "", &lifecycle.TranslationServiceError{Model: route.Model, Err: err}
	}
	if strings.TrimSpace(reply) == "" {
		return "", &lifecycle.TranslationServiceError{Model: route.Model, Err: errors.New("empty reply")}
	}
	return reply, nil
}
