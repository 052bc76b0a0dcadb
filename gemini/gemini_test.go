package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/linkbox/analyzer/models"
)

// geminiText wraps generated text in the response envelope the API
// returns
func geminiText(text string) models.GeminiResponse {
	return models.GeminiResponse{
		Candidates: []models.GeminiCandidate{
			{Content: models.GeminiContent{Parts: []models.GeminiPart{{Text: text}}}},
		},
	}
}

// TestAnalyzeSuccess tests a full request round trip with a fenced
// JSON payload, the shape models typically return
func TestAnalyzeSuccess(t *testing.T) {
	payload := "```json\n{\"title\": \"X\", \"description\": \"Y\", \"summary\": \"Z\", \"tags\": [\"a\", \"b\"], \"folder\": \"개발/코딩\"}\n```"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("path = %s, want generateContent endpoint", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key = %q, want %q", r.URL.Query().Get("key"), "test-key")
		}

		var req models.GeminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.GenerationConfig.Temperature != 0.3 {
			t.Errorf("temperature = %v, want 0.3", req.GenerationConfig.Temperature)
		}
		if req.GenerationConfig.MaxOutputTokens != 1000 {
			t.Errorf("maxOutputTokens = %v, want 1000", req.GenerationConfig.MaxOutputTokens)
		}

		json.NewEncoder(w).Encode(geminiText(payload))
	}))
	defer server.Close()

	client := NewClient(server.URL, "gemini-pro", "test-key", 5*time.Second)
	result, err := client.Analyze(context.Background(), "https://example.com", "page content")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.Title != "X" {
		t.Errorf("Title = %q, want %q", result.Title, "X")
	}
	if result.Description != "Y" {
		t.Errorf("Description = %q, want %q", result.Description, "Y")
	}
	if result.Summary != "Z" {
		t.Errorf("Summary = %q, want %q", result.Summary, "Z")
	}
	if len(result.Tags) != 2 || result.Tags[0] != "a" || result.Tags[1] != "b" {
		t.Errorf("Tags = %v, want [a b]", result.Tags)
	}
	if result.Folder != "개발/코딩" {
		t.Errorf("Folder = %q, want %q", result.Folder, "개발/코딩")
	}
}

// TestAnalyzeMissingKey tests that an unconfigured key fails without a
// network call
func TestAnalyzeMissingKey(t *testing.T) {
	client := NewClient("http://localhost:1", "gemini-pro", "", time.Second)

	_, err := client.Analyze(context.Background(), "https://example.com", "content")
	var analysisErr *AnalysisError
	if !errors.As(err, &analysisErr) {
		t.Fatalf("expected *AnalysisError, got %T", err)
	}
	if analysisErr.Op != "request" {
		t.Errorf("Op = %q, want %q", analysisErr.Op, "request")
	}
}

// TestAnalyzeHTTPError tests a non-200 API response
func TestAnalyzeHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, "gemini-pro", "test-key", time.Second)
	_, err := client.Analyze(context.Background(), "https://example.com", "content")

	var analysisErr *AnalysisError
	if !errors.As(err, &analysisErr) {
		t.Fatalf("expected *AnalysisError, got %T", err)
	}
	if analysisErr.Op != "request" {
		t.Errorf("Op = %q, want %q", analysisErr.Op, "request")
	}
}

// TestAnalyzeEmptyResponse tests a response with no generated text
func TestAnalyzeEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates": []}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "gemini-pro", "test-key", time.Second)
	_, err := client.Analyze(context.Background(), "https://example.com", "content")

	var analysisErr *AnalysisError
	if !errors.As(err, &analysisErr) {
		t.Fatalf("expected *AnalysisError, got %T", err)
	}
	if analysisErr.Op != "decode" {
		t.Errorf("Op = %q, want %q", analysisErr.Op, "decode")
	}
}

// TestAnalyzeUnparseableText tests generated text that is not valid
// JSON
func TestAnalyzeUnparseableText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(geminiText("Sure! Here is the analysis you asked for."))
	}))
	defer server.Close()

	client := NewClient(server.URL, "gemini-pro", "test-key", time.Second)
	_, err := client.Analyze(context.Background(), "https://example.com", "content")

	var analysisErr *AnalysisError
	if !errors.As(err, &analysisErr) {
		t.Fatalf("expected *AnalysisError, got %T", err)
	}
	if analysisErr.Op != "parse" {
		t.Errorf("Op = %q, want %q", analysisErr.Op, "parse")
	}
}

// TestAnalyzeMissingRequiredFields tests valid JSON missing title or
// folder
func TestAnalyzeMissingRequiredFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(geminiText(`{"description": "no title or folder"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "gemini-pro", "test-key", time.Second)
	_, err := client.Analyze(context.Background(), "https://example.com", "content")

	var analysisErr *AnalysisError
	if !errors.As(err, &analysisErr) {
		t.Fatalf("expected *AnalysisError, got %T", err)
	}
	if analysisErr.Op != "parse" {
		t.Errorf("Op = %q, want %q", analysisErr.Op, "parse")
	}
}

// TestStripCodeFences tests fence removal variants
func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"no fence", `{"a": 1}`, `{"a": 1}`},
		{"surrounding whitespace", "  \n{\"a\": 1}\n  ", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFences(tt.in); got != tt.want {
				t.Errorf("stripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestBuildPrompt tests that the prompt carries the essentials
func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("https://example.com/react", "React hooks page content")

	if !strings.Contains(prompt, "https://example.com/react") {
		t.Error("prompt missing target URL")
	}
	if !strings.Contains(prompt, "React hooks page content") {
		t.Error("prompt missing page content")
	}
	for _, folder := range models.CanonicalFolders() {
		if !strings.Contains(prompt, folder) {
			t.Errorf("prompt missing folder %q", folder)
		}
	}
	if !strings.Contains(prompt, "JSON만 반환") {
		t.Error("prompt missing JSON-only instruction")
	}
}
