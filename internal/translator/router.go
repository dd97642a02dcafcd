package translator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/valpere/bitext/internal/logging"
)

// Fallback handles model tags that no registered service claims, usually
// the book service itself.
type Fallback interface {
	Translate(ctx context.Context, text, model string) (string, error)
}

// Router picks a Service by the prefix of a model tag. "google" selects the
// google service with its default model, "ollama:qwen2.5:3b" selects ollama
// with model "qwen2.5:3b". Any other tag goes to the fallback unchanged.
type Router struct {
	services map[string]Service
	fallback Fallback
	source   string
	target   string
	log      zerolog.Logger
}

func NewRouter(fallback Fallback, sourceLang, targetLang string, services ...Service) *Router {
	r := &Router{
		services: make(map[string]Service, len(services)),
		fallback: fallback,
		source:   sourceLang,
		target:   targetLang,
		log:      logging.Component("translator"),
	}
	for _, s := range services {
		r.services[s.Name()] = s
	}
	return r
}

// ParseModel splits a model tag at its first colon.
func ParseModel(tag string) (service, model string) {
	service, model, _ = strings.Cut(tag, ":")
	return service, model
}

// Services returns the names of the registered services.
func (r *Router) Services() []string {
	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	return names
}

// Translate implements lifecycle.Translator.
func (r *Router) Translate(ctx context.Context, text, model string) (string, error) {
	name, sub := ParseModel(model)
	svc, ok := r.services[name]
	if !ok {
		if r.fallback == nil {
			return "", fmt.Errorf("no translation service for model %q", model)
		}
		return r.fallback.Translate(ctx, text, model)
	}

	start := time.Now()
	out, err := svc.Translate(ctx, Request{
		Text:       text,
		SourceLang: r.source,
		TargetLang: r.target,
		Model:      sub,
	})
	r.log.Debug().Ctx(ctx).
		Str("service", name).
		Dur("latency", time.Since(start)).
		Err(err).
		Msg("translate")
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}
