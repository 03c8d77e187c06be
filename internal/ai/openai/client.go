// Package openai is a Generator over the OpenAI chat completions API.
package openai

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jd-matcher/internal/logger"
	"github.com/spigell/jd-matcher/internal/utils"
)

const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultModel      = "gpt-4o-2024-08-06"
	defaultMaxRetries = 3
	defaultTimeout    = 2 * time.Minute
	providerName      = "openai"

	contentType     = "application/json"
	acceptEncoding  = "gzip"
	baseRetryDelay  = time.Second
	maxRetryDelay   = 30 * time.Second
	maxErrorBodyLen = 500
)

var wait = utils.WaitFor

type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxRetries  int
	Timeout     time.Duration
	Temperature *float64
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

type Generator struct {
	apiKey      string
	baseURL     string
	model       string
	maxRetries  int
	temperature *float64
	httpClient  *http.Client
	logger      *zap.Logger
}

func NewGenerator(opts Options) (*Generator, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	retries := opts.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Generator{
		apiKey:      apiKey,
		baseURL:     baseURL,
		model:       model,
		maxRetries:  retries,
		temperature: opts.Temperature,
		httpClient:  client,
		logger:      logger.WithCommonFields(opts.Logger, providerName, model),
	}, nil
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    *float64       `json:"temperature,omitempty"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// StatusError is a non-success HTTP response from the API.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status: %s: %s", e.Status, e.Body)
}

func (e *StatusError) temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// Generate posts a chat completion asking for a JSON object and returns the
// first choice content. Rate limits and server errors are retried.
func (g *Generator) Generate(ctx context.Context, model, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}
	if model = strings.TrimSpace(model); model == "" {
		model = g.model
	}

	payload, err := json.Marshal(chatRequest{
		Model:          model,
		Messages:       []chatMessage{{Role: "user", Content: prompt}},
		Temperature:    g.temperature,
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		out, err := g.post(ctx, payload)
		if err == nil {
			return out, nil
		}
		lastErr = err

		var statusErr *StatusError
		if !errors.As(err, &statusErr) || !statusErr.temporary() || attempt == g.maxRetries {
			break
		}

		delay := statusErr.RetryAfter
		if delay <= 0 || delay > maxRetryDelay {
			delay = utils.Backoff(baseRetryDelay, attempt, maxRetryDelay)
		}
		g.logger.Warn("openai request failed, retrying",
			zap.String(logger.FieldModel, model),
			zap.Int("attempt", attempt),
			zap.Int("status", statusErr.StatusCode),
			zap.Duration("delay", delay),
		)
		if err := wait(ctx, delay); err != nil {
			return "", err
		}
	}

	return "", fmt.Errorf("chat completion: %w", lastErr)
}

func (g *Generator) post(ctx context.Context, payload []byte) (string, error) {
	url := g.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept-Encoding", acceptEncoding)
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	g.logger.Debug("make request", zap.String("url", url))
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}

	body, err := decodeBody(resp)
	if err != nil {
		return "", err
	}
	defer body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(body, maxErrorBodyLen))
		return "", &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
			RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var parsed chatResponse
	if err := json.NewDecoder(body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("openai api returned no choices")
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("openai api returned empty content")
	}
	return content, nil
}

func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, err
		}
		return readCloser{Reader: gz, close: func() error {
			gz.Close()
			return resp.Body.Close()
		}}, nil
	default:
		return resp.Body, nil
	}
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r readCloser) Close() error { return r.close() }

func retryAfter(header string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func (g *Generator) Model() string { return g.model }

func (g *Generator) Provider() string { return providerName }
