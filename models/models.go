package models

import "time"

// LinkRecord represents a saved bookmark with its derived metadata.
// It is the only data shape the pipeline exposes to storage and
// presentation collaborators.
type LinkRecord struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Summary     string    `json:"summary,omitempty"` // optional, multi-line
	Tags        []string  `json:"tags"`              // insertion-ordered, deduplicated, case-sensitive
	Folder      string    `json:"folder"`            // single category per record
	Image       string    `json:"image"`             // always populated, default thumbnail guaranteed
	ContentKey  string    `json:"content_key,omitempty"` // snapshot storage key, empty when archival failed
	AddedAt     time.Time `json:"added_at"`
	IsRead      bool      `json:"is_read"`
	ReadCount   int       `json:"read_count"`
}

// AnalysisResult is the parsed output of an AI or heuristic
// classification, before defaults are merged in. Not persisted.
type AnalysisResult struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Summary     string   `json:"summary,omitempty"`
	Tags        []string `json:"tags"`
	Folder      string   `json:"folder"`
}

// ClassificationRequest is the ephemeral input to prompt construction.
type ClassificationRequest struct {
	URL            string `json:"url"`
	ContentExcerpt string `json:"content_excerpt"`
}

// Folder categories assigned by the classifiers. The set is extensible:
// values outside this list returned by the model are accepted as-is and
// become valid categories.
const (
	FolderDevelopment = "개발/코딩"
	FolderDesign      = "디자인/UI-UX"
	FolderNews        = "뉴스/트렌드"
	FolderLearning    = "학습/교육"
	FolderBlog        = "블로그/아티클"
	FolderTools       = "도구/서비스"
	FolderBusiness    = "비즈니스/마케팅"
	FolderLifestyle   = "라이프스타일"
	FolderOther       = "기타"
)

// CanonicalFolders returns the closed part of the category set, in the
// order it is presented to the model.
func CanonicalFolders() []string {
	return []string{
		FolderDevelopment,
		FolderDesign,
		FolderNews,
		FolderLearning,
		FolderBlog,
		FolderTools,
		FolderBusiness,
		FolderLifestyle,
		FolderOther,
	}
}

// GeminiRequest represents a request to the Gemini generateContent API
type GeminiRequest struct {
	Contents         []GeminiContent  `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

// GeminiContent is a single conversation turn
type GeminiContent struct {
	Parts []GeminiPart `json:"parts"`
}

// GeminiPart carries one text fragment
type GeminiPart struct {
	Text string `json:"text"`
}

// GenerationConfig bounds the model's output. Low temperature and a
// capped token budget favor deterministic, parseable JSON.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// GeminiResponse represents a response from the Gemini generateContent API
type GeminiResponse struct {
	Candidates []GeminiCandidate `json:"candidates"`
}

// GeminiCandidate is one generated completion
type GeminiCandidate struct {
	Content GeminiContent `json:"content"`
}

// Text returns the first generated text fragment, or "" when the
// response shape is incomplete (missing candidates, content, or parts).
func (r GeminiResponse) Text() string {
	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return r.Candidates[0].Content.Parts[0].Text
}
