// Package gemini implements the AI classification client for the
// Gemini generateContent API. The client owns response-shape validation
// and JSON extraction; it never substitutes defaults on failure. That
// is the caller's job via the heuristic fallback.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/linkbox/analyzer/models"
)

const (
	// DefaultBaseURL is the Gemini API endpoint
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	// DefaultModel is the text model used for classification
	DefaultModel = "gemini-pro"

	// Generation bounds favoring deterministic, parseable output
	defaultTemperature     = 0.3
	defaultMaxOutputTokens = 1000
)

// AnalysisError reports a failed model classification: missing
// credential, network failure, non-success status, missing response
// text, or JSON parse/shape failure. It is the only error type that
// crosses the pipeline boundary; callers catch it with errors.As and
// fall back to heuristic classification.
type AnalysisError struct {
	Op  string // "request", "decode" or "parse"
	Err error
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("analysis %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("analysis %s failed", e.Op)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// Client issues classification requests to the Gemini API. The API key
// is supplied by the caller at construction; the client performs no
// credential storage I/O and mutates no state beyond the network call.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new Gemini client instance
func NewClient(baseURL, model, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		model:   model,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Analyze classifies a page and returns the parsed result. Every
// failure mode returns a *AnalysisError; there is no fallback inside
// the client.
func (c *Client) Analyze(ctx context.Context, targetURL, content string) (*models.AnalysisResult, error) {
	if c.apiKey == "" {
		return nil, &AnalysisError{Op: "request", Err: fmt.Errorf("API key is not configured")}
	}

	prompt := BuildPrompt(targetURL, content)

	payload, err := json.Marshal(models.GeminiRequest{
		Contents: []models.GeminiContent{
			{Parts: []models.GeminiPart{{Text: prompt}}},
		},
		GenerationConfig: models.GenerationConfig{
			Temperature:     defaultTemperature,
			MaxOutputTokens: defaultMaxOutputTokens,
		},
	})
	if err != nil {
		return nil, &AnalysisError{Op: "request", Err: fmt.Errorf("failed to encode request: %w", err)}
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, c.model, url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &AnalysisError{Op: "request", Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &AnalysisError{Op: "request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &AnalysisError{Op: "request", Err: fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)}
	}

	var gemResp models.GeminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gemResp); err != nil {
		return nil, &AnalysisError{Op: "decode", Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	text := gemResp.Text()
	if text == "" {
		return nil, &AnalysisError{Op: "decode", Err: fmt.Errorf("response contains no generated text")}
	}

	result, err := parseResult(text)
	if err != nil {
		return nil, &AnalysisError{Op: "parse", Err: err}
	}

	return result, nil
}

// parseResult strips code fences from the generated text and decodes it
// into an AnalysisResult, enforcing the required fields
func parseResult(text string) (*models.AnalysisResult, error) {
	cleaned := stripCodeFences(text)

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("failed to parse generated JSON: %w", err)
	}

	if result.Title == "" || result.Folder == "" {
		return nil, fmt.Errorf("generated JSON is missing required fields")
	}

	return &result, nil
}

// stripCodeFences removes Markdown code-fence wrappers. Models commonly
// wrap JSON in ```json fences despite the prompt's instructions.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
