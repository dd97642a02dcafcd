// Package orchestrator translates one sentence with several models in
// parallel so the results can be compared side by side.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/valpere/bitext/internal/lifecycle"
	"github.com/valpere/bitext/internal/logging"
)

// ErrNoModels is returned when Execute is given nothing to run.
var ErrNoModels = errors.New("no models to compare")

type Config struct {
	// Timeout bounds each attempt of each model.
	Timeout time.Duration
	// MaxAttempts is the total number of tries per model, first included.
	MaxAttempts int
	RetryDelay  time.Duration
}

// Candidate is one model's translation.
type Candidate struct {
	Model   string
	Text    string
	Latency time.Duration
}

type Result struct {
	// Candidates holds the successful results in the order models were given.
	Candidates []Candidate
	Errors     []error
	Succeeded  int
	Failed     int
}

type Orchestrator struct {
	translator lifecycle.Translator
	config     Config
	log        zerolog.Logger
}

func New(t lifecycle.Translator, config Config) *Orchestrator {
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 500 * time.Millisecond
	}
	return &Orchestrator{
		translator: t,
		config:     config,
		log:        logging.Component("orchestrator"),
	}
}

// Execute translates text with every model at once. Duplicate and blank
// model tags are dropped.
func (o *Orchestrator) Execute(ctx context.Context, text string, models []string) (*Result, error) {
	models = unique(models)
	if len(models) == 0 {
		return nil, ErrNoModels
	}

	type outcome struct {
		cand Candidate
		err  error
	}
	outcomes := make([]outcome, len(models))

	var wg sync.WaitGroup
	for i, model := range models {
		wg.Add(1)
		go func(i int, model string) {
			defer wg.Done()
			cand, err := o.run(ctx, text, model)
			outcomes[i] = outcome{cand: cand, err: err}
		}(i, model)
	}
	wg.Wait()

	result := &Result{}
	for i, oc := range outcomes {
		if oc.err != nil {
			result.Errors = append(result.Errors, &lifecycle.TranslationServiceError{Model: models[i], Err: oc.err})
			result.Failed++
			continue
		}
		result.Candidates = append(result.Candidates, oc.cand)
		result.Succeeded++
	}

	o.log.Debug().Ctx(ctx).
		Strs("models", models).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("comparison finished")
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, text, model string) (Candidate, error) {
	var lastErr error
	for attempt := 1; attempt <= o.config.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return Candidate{}, ctx.Err()
			case <-time.After(o.config.RetryDelay):
			}
		}

		start := time.Now()
		out, err := o.attempt(ctx, text, model)
		if err == nil {
			return Candidate{Model: model, Text: out, Latency: time.Since(start)}, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		o.log.Debug().Ctx(ctx).Err(err).Str("model", model).Int("attempt", attempt).Msg("attempt failed")
	}
	return Candidate{}, lastErr
}

func (o *Orchestrator) attempt(ctx context.Context, text, model string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	out, err := o.translator.Translate(ctx, text, model)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(norm.NFC.String(out))
	if out == "" {
		return "", fmt.Errorf("empty translation")
	}
	return out, nil
}

func unique(models []string) []string {
	seen := make(map[string]bool, len(models))
	out := make([]string, 0, len(models))
	for _, m := range models {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
