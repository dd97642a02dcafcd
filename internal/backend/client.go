// Package backend is the HTTP client for the book service: book loading,
// the book list, translation, persistence and the chat endpoints used by
// explain and improve.
package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/valpere/bitext/internal/lifecycle"
	"github.com/valpere/bitext/internal/logging"
)

const (
	DefaultBaseURL = "http://127.0.0.1:8080"

	ChatGPTEndpoint = "/api/chatgpt"
	ClaudeEndpoint  = "/api/claude"
)

// StatusError is returned for a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Client talks to the book service. A non-empty token is sent as a bearer
// credential on every request.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	log     zerolog.Logger
}

func New(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
		log:     logging.Component("backend"),
	}
}

// GetBook fetches a book with its pages and stored translations.
func (c *Client) GetBook(ctx context.Context, id int64) (*Book, error) {
	var p bookPayload
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/books/%d", id), nil, &p); err != nil {
		return nil, fmt.Errorf("get book %d: %w", id, err)
	}
	return p.book(id), nil
}

// ListBooks returns every book visible to the token.
func (c *Client) ListBooks(ctx context.Context) ([]BookSummary, error) {
	var resp struct {
		Books []BookSummary `json:"books"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/books/list", nil, &resp); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return resp.Books, nil
}

// DeleteBook removes a book from the service.
func (c *Client) DeleteBook(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/books/%d", id), nil, nil); err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}
	return nil
}

// Download renders a book with its translations into a file.
func (c *Client) Download(ctx context.Context, id int64) (*Export, error) {
	var resp struct {
		Filename    string `json:"filename"`
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/books/%d/download", id), struct{}{}, &resp); err != nil {
		return nil, fmt.Errorf("download book %d: %w", id, err)
	}
	content, err := base64.StdEncoding.DecodeString(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("download book %d: decode content: %w", id, err)
	}
	return &Export{Filename: resp.Filename, ContentType: resp.ContentType, Content: content}, nil
}

// Translate implements lifecycle.Translator.
func (c *Client) Translate(ctx context.Context, text, model string) (string, error) {
	req := struct {
		Text  string `json:"text"`
		Model string `json:"model"`
	}{Text: text, Model: model}
	var resp struct {
		Text string `json:"text"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/translate", req, &resp); err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	return resp.Text, nil
}

// SaveTranslation implements lifecycle.Persister.
func (c *Client) SaveTranslation(ctx context.Context, req lifecycle.SaveRequest) error {
	if err := c.do(ctx, http.MethodPost, "/api/books/translation/save", req, nil); err != nil {
		return fmt.Errorf("save translation %s: %w", req.SentenceID, err)
	}
	return nil
}

// Approve implements lifecycle.Persister.
func (c *Client) Approve(ctx context.Context, bookID int64, sentenceID string) error {
	req := struct {
		BookID     int64  `json:"book_id"`
		SentenceID string `json:"sentence_id"`
	}{BookID: bookID, SentenceID: sentenceID}
	if err := c.do(ctx, http.MethodPost, "/api/books/translation/approve", req, nil); err != nil {
		return fmt.Errorf("approve %s: %w", sentenceID, err)
	}
	return nil
}

// Chat sends a message to a chat endpoint and returns the reply.
func (c *Client) Chat(ctx context.Context, endpoint string, req ChatRequest) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, endpoint, req, &resp); err != nil {
		return "", fmt.Errorf("chat %s: %w", endpoint, err)
	}
	return resp.Message, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug().Ctx(ctx).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
