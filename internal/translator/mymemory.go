package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const DefaultMyMemoryURL = "https://api.mymemory.translated.net"

// MyMemoryService uses the free MyMemory translation memory API. An email
// raises the anonymous daily quota.
type MyMemoryService struct {
	email   string
	baseURL string
	client  *http.Client
}

func NewMyMemoryService(email string) *MyMemoryService {
	return &MyMemoryService{
		email:   email,
		baseURL: DefaultMyMemoryURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *MyMemoryService) Name() string {
	return "mymemory"
}

func (s *MyMemoryService) Translate(ctx context.Context, req Request) (string, error) {
	source := "en"
	if req.SourceLang != "" && req.SourceLang != "auto" {
		tag, err := LanguageTag(req.SourceLang)
		if err != nil {
			return "", fmt.Errorf("invalid source language: %w", err)
		}
		source = tag.String()
	}
	target, err := LanguageTag(req.TargetLang)
	if err != nil {
		return "", fmt.Errorf("invalid target language: %w", err)
	}

	q := url.Values{}
	q.Set("q", req.Text)
	q.Set("langpair", source+"|"+target.String())
	if s.email != "" {
		q.Set("de", s.email)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/get?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var mymemResp struct {
		ResponseData struct {
			TranslatedText string `json:"translatedText"`
		} `json:"responseData"`
		ResponseStatus  int    `json:"responseStatus"`
		ResponseDetails string `json:"responseDetails"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&mymemResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if mymemResp.ResponseStatus != http.StatusOK {
		return "", fmt.Errorf("API error: %s (%d)", mymemResp.ResponseDetails, mymemResp.ResponseStatus)
	}

	return mymemResp.ResponseData.TranslatedText, nil
}
