package translator

import (
	"context"
	"fmt"

	translate "cloud.google.com/go/translate"
	"google.golang.org/api/option"
)

// GoogleService uses the Cloud Translation API. Without a credentials file
// it falls back to application default credentials.
type GoogleService struct {
	credentials string
	project     string
}

func NewGoogleService(credentials, project string) *GoogleService {
	return &GoogleService{credentials: credentials, project: project}
}

func (s *GoogleService) Name() string {
	return "google"
}

func (s *GoogleService) Translate(ctx context.Context, req Request) (string, error) {
	target, err := LanguageTag(req.TargetLang)
	if err != nil {
		return "", fmt.Errorf("invalid target language: %w", err)
	}

	opts := []option.ClientOption{}
	if s.credentials != "" {
		opts = append(opts, option.WithCredentialsFile(s.credentials))
	}
	if s.project != "" {
		opts = append(opts, option.WithQuotaProject(s.project))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	topts := &translate.Options{Format: translate.Text}
	if req.SourceLang != "" && req.SourceLang != "auto" {
		if source, err := LanguageTag(req.SourceLang); err == nil {
			topts.Source = source
		}
	}
	if req.Model != "" {
		topts.Model = req.Model
	}

	translations, err := client.Translate(ctx, []string{req.Text}, target, topts)
	if err != nil {
		return "", fmt.Errorf("translation failed: %w", err)
	}
	if len(translations) == 0 {
		return "", fmt.Errorf("no translation returned")
	}
	return translations[0].Text, nil
}
