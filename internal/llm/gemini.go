package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	geminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta"
	geminiMaxRetries   = 3
	geminiInitialDelay = time.Second
)

// GeminiConfig configures the native Gemini embedding endpoint.
type GeminiConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	HTTPClient *http.Client
}

// GeminiEmbedder calls models/{model}:embedContent directly so the output
// dimensionality can be pinned.
type GeminiEmbedder struct {
	apiKey     string
	baseURL    string
	model      string
	dimensions int
	client     *http.Client
	delay      time.Duration
}

// NewGeminiEmbedder creates a native Gemini embedder.
func NewGeminiEmbedder(cfg GeminiConfig) (*GeminiEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: missing api key", ErrNotConfigured)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: missing embedding model", ErrNotConfigured)
	}
	e := &GeminiEmbedder{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      strings.TrimPrefix(cfg.Model, "models/"),
		dimensions: cfg.Dimensions,
		client:     cfg.HTTPClient,
		delay:      geminiInitialDelay,
	}
	if e.baseURL == "" {
		e.baseURL = geminiBaseURL
	}
	if e.dimensions <= 0 {
		e.dimensions = DefaultDimensions
	}
	if e.client == nil {
		e.client = &http.Client{Timeout: 30 * time.Second}
	}
	return e, nil
}

// Dimensions reports the pinned embedding width.
func (e *GeminiEmbedder) Dimensions() int {
	return e.dimensions
}

// Embed returns the embedding of text. 429 and 5xx responses are retried
// with exponential backoff.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := e.requestBody(text)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/models/%s:embedContent", e.baseURL, e.model)

	var lastErr error
	for attempt := 0; attempt < geminiMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(e.delay << (attempt - 1)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", e.apiKey)

		resp, err := e.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("embedding request failed: %w", err)
			continue
		}
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			msg := gjson.GetBytes(respBody, "error.message").String()
			if msg == "" {
				msg = string(respBody)
			}
			lastErr = fmt.Errorf("gemini api error (%d): %s", resp.StatusCode, msg)
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				continue
			}
			return nil, lastErr
		}

		return e.decode(respBody)
	}
	return nil, lastErr
}

func (e *GeminiEmbedder) requestBody(text string) ([]byte, error) {
	body, err := sjson.SetBytes(nil, "model", "models/"+e.model)
	if err == nil {
		body, err = sjson.SetBytes(body, "content.parts.0.text", text)
	}
	if err == nil {
		body, err = sjson.SetBytes(body, "outputDimensionality", e.dimensions)
	}
	if err != nil {
		return nil, fmt.Errorf("building embedding request: %w", err)
	}
	return body, nil
}

func (e *GeminiEmbedder) decode(body []byte) ([]float32, error) {
	values := gjson.GetBytes(body, "embedding.values")
	if !values.IsArray() {
		return nil, fmt.Errorf("%w: no embedding values", ErrMalformedResponse)
	}
	arr := values.Array()
	if len(arr) != e.dimensions {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(arr), e.dimensions)
	}
	out := make([]float32, len(arr))
	for i, v := range arr {
		out[i] = float32(v.Float())
	}
	return out, nil
}
