package analyzer

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/linkbox/analyzer/gemini"
	"github.com/linkbox/analyzer/metrics"
	"github.com/linkbox/analyzer/models"
)

// DefaultProxyBaseURL is the public CORS-bypass proxy used to retrieve
// page content.
const DefaultProxyBaseURL = "https://api.allorigins.win"

// Config contains pipeline configuration
type Config struct {
	HTTPTimeout   time.Duration
	ProxyBaseURL  string
	GeminiBaseURL string
	GeminiModel   string
	GeminiAPIKey  string // empty disables AI classification entirely
}

// DefaultConfig returns default pipeline configuration
func DefaultConfig() Config {
	return Config{
		HTTPTimeout:   15 * time.Second,
		ProxyBaseURL:  DefaultProxyBaseURL,
		GeminiBaseURL: gemini.DefaultBaseURL,
		GeminiModel:   gemini.DefaultModel,
	}
}

// Analyzer runs the link analysis and classification pipeline: content
// retrieval through the proxy, AI classification with heuristic
// fallback, and record assembly. It holds no mutable state between
// calls.
type Analyzer struct {
	config     Config
	httpClient *http.Client
	gemini     *gemini.Client
	tracer     trace.Tracer
}

// New creates a new Analyzer instance
func New(config Config) *Analyzer {
	if config.HTTPTimeout <= 0 {
		config.HTTPTimeout = 15 * time.Second
	}
	if config.ProxyBaseURL == "" {
		config.ProxyBaseURL = DefaultProxyBaseURL
	}

	return &Analyzer{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.HTTPTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		gemini: gemini.NewClient(config.GeminiBaseURL, config.GeminiModel, config.GeminiAPIKey, config.HTTPTimeout),
		tracer: otel.Tracer("github.com/linkbox/analyzer"),
	}
}

// AnalyzeURL runs the full pipeline for a single URL and returns the
// assembled record plus the fetched content excerpt (for snapshot
// archival). The URL must already be validated with ValidateURL.
//
// AnalyzeURL never fails: AI errors and missing credentials degrade to
// the deterministic heuristic path, and content-fetch failures degrade
// to a URL-only stub upstream of classification.
func (a *Analyzer) AnalyzeURL(ctx context.Context, targetURL string) (models.LinkRecord, string) {
	ctx, span := a.tracer.Start(ctx, "analyzer.AnalyzeURL")
	defer span.End()

	content := a.FetchContent(ctx, targetURL)

	var result *models.AnalysisResult
	if a.config.GeminiAPIKey == "" {
		log.Printf("no API key configured, classifying %s heuristically", targetURL)
		metrics.AnalysesTotal.WithLabelValues(metrics.PathHeuristic).Inc()
	} else {
		parsed, err := a.gemini.Analyze(ctx, targetURL, content)
		if err != nil {
			log.Printf("AI classification failed for %s, falling back to heuristics: %v", targetURL, err)
			metrics.AnalysesTotal.WithLabelValues(metrics.PathHeuristic).Inc()
		} else {
			result = parsed
			metrics.AnalysesTotal.WithLabelValues(metrics.PathAI).Inc()
		}
	}

	return Assemble(targetURL, content, result), content
}

// ValidateURL rejects anything that is not an absolute http(s) URL.
// Validation happens at the input boundary; the pipeline itself assumes
// a valid URL.
func ValidateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("url is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL must be http or https")
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL must be absolute")
	}
	return nil
}

// hostOf extracts the lower-cased hostname, or "" for unparseable URLs
func hostOf(targetURL string) string {
	parsed, err := url.Parse(targetURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}
