package analyzer

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/linkbox/analyzer/models"
)

// Default thumbnails by domain class. These back the guarantee that
// Image is always populated.
const (
	imageGeneric = "https://images.unsplash.com/photo-1461749280684-dccba630e2f6?w=400&h=200&fit=crop"
	imageCode    = "https://images.unsplash.com/photo-1618477388954-7852f32655ec?w=400&h=200&fit=crop"
	imageVideo   = "https://images.unsplash.com/photo-1611224923853-80b023f02d71?w=400&h=200&fit=crop"
	imageArticle = "https://images.unsplash.com/photo-1432888622747-4eb9a8efeb07?w=400&h=200&fit=crop"
)

// defaultImage picks a representative thumbnail based on the URL's
// domain, independent of whether the classification came from the AI
// or heuristic path
func defaultImage(targetURL string) string {
	host := hostOf(targetURL)
	switch {
	case strings.Contains(host, "github"):
		return imageCode
	case strings.Contains(host, "youtube"):
		return imageVideo
	case strings.Contains(host, "blog"), strings.Contains(host, "medium"):
		return imageArticle
	}
	return imageGeneric
}

// Assemble merges an analysis result with defaults into a canonical
// LinkRecord. result may be nil (AI unavailable or failed), in which
// case the heuristic classification for the same URL/content is used
// wholesale. Partial AI results have their empty fields backfilled from
// the same heuristic, so the record always carries a non-empty title,
// folder and at least one tag.
//
// ID and AddedAt are assigned here: they are creation-time facts, not
// analysis facts. Assemble never fails.
func Assemble(targetURL, content string, result *models.AnalysisResult) models.LinkRecord {
	fallback := ClassifyHeuristic(targetURL, content)

	merged := fallback
	if result != nil {
		merged = *result
		if merged.Title == "" {
			merged.Title = fallback.Title
		}
		if merged.Description == "" {
			merged.Description = fallback.Description
		}
		if merged.Folder == "" {
			merged.Folder = fallback.Folder
		}
		if len(merged.Tags) == 0 {
			merged.Tags = fallback.Tags
		}
	}

	tags := dedupeTags(merged.Tags)
	if len(tags) == 0 {
		tags = dedupeTags(fallback.Tags)
	}

	return models.LinkRecord{
		ID:          uuid.New().String(),
		URL:         targetURL,
		Title:       merged.Title,
		Description: merged.Description,
		Summary:     merged.Summary,
		Tags:        tags,
		Folder:      merged.Folder,
		Image:       defaultImage(targetURL),
		AddedAt:     time.Now(),
	}
}

// dedupeTags drops empty strings and duplicates, preserving first
// occurrence order. Matching is case-sensitive.
func dedupeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	deduped := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		deduped = append(deduped, tag)
	}
	return deduped
}
