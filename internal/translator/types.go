// Package translator provides machine translation services selectable by
// model tag, and a Router that sends each request to the right one.
package translator

import (
	"context"
	"time"
)

// Request is one sentence to translate. Languages are names or BCP 47
// tags, e.g. "English" or "kk".
type Request struct {
	Text       string
	SourceLang string
	TargetLang string
	// Model is the service specific model, empty for the service default.
	Model string
}

// Service is a machine translation backend.
type Service interface {
	Name() string
	Translate(ctx context.Context, req Request) (string, error)
}

// ServiceConfig carries the settings shared by the HTTP services.
type ServiceConfig struct {
	APIKey  string        `mapstructure:"api_key" json:"api_key"`
	Model   string        `mapstructure:"model" json:"model"`
	BaseURL string        `mapstructure:"base_url" json:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`
}
