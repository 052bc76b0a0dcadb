package analyzer

import (
	"strings"

	"github.com/linkbox/analyzer/models"
)

// classificationRule maps URL and content signals to a templated
// classification. Domain patterns are matched against the hostname
// only; keyword patterns against the lower-cased URL plus content.
type classificationRule struct {
	domains     []string
	keywords    []string
	folder      string
	title       string
	description string
	tags        []string
}

// heuristicRules is the canonical fallback rule table. Rules are
// evaluated in order and the first match wins; domain rules precede
// keyword rules so a github.com page that mentions "tutorial" still
// classifies as development.
var heuristicRules = []classificationRule{
	{
		domains:     []string{"github", "gitlab", "bitbucket", "stackoverflow"},
		folder:      models.FolderDevelopment,
		title:       "Code repository",
		description: "Source code, issues and developer documentation.",
		tags:        []string{"Development", "Code"},
	},
	{
		domains:     []string{"youtube", "youtu.be", "vimeo"},
		folder:      models.FolderLearning,
		title:       "Video content",
		description: "Video or lecture content for watching later.",
		tags:        []string{"Video", "Tutorial"},
	},
	{
		domains:     []string{"medium", "blog", "tistory", "velog", "substack"},
		folder:      models.FolderBlog,
		title:       "Blog article",
		description: "A blog post or long-form article.",
		tags:        []string{"Article", "Blog"},
	},
	{
		domains:     []string{"news", "cnn", "bbc", "reuters"},
		folder:      models.FolderNews,
		title:       "News article",
		description: "News coverage and current trends.",
		tags:        []string{"News", "Trends"},
	},
	{
		keywords:    []string{"job", "career", "recruit"},
		folder:      models.FolderBusiness,
		title:       "Job posting",
		description: "A job or career opportunity.",
		tags:        []string{"Jobs", "Career"},
	},
	{
		keywords:    []string{"design", "figma", "ui", "ux"},
		folder:      models.FolderDesign,
		title:       "Design resource",
		description: "Design, UI or UX reference material.",
		tags:        []string{"Design", "UI"},
	},
	{
		keywords:    []string{"tutorial", "course", "lecture", "learn"},
		folder:      models.FolderLearning,
		title:       "Learning resource",
		description: "Tutorial or course material.",
		tags:        []string{"Learning", "Tutorial"},
	},
	{
		keywords:    []string{"news", "trend"},
		folder:      models.FolderNews,
		title:       "News article",
		description: "News coverage and current trends.",
		tags:        []string{"News", "Trends"},
	},
}

// defaultRule applies when no rule matches
var defaultRule = classificationRule{
	folder:      models.FolderOther,
	title:       "Saved link",
	description: "A web page saved for later reading.",
	tags:        []string{"General"},
}

// ClassifyHeuristic derives a classification from the URL and fetched
// content without any I/O. It is pure and idempotent: the same input
// always yields the same result, so it is safe to use both when no AI
// credential is configured and as the fallback after a failed AI call.
func ClassifyHeuristic(targetURL, content string) models.AnalysisResult {
	host := hostOf(targetURL)
	haystack := strings.ToLower(targetURL + " " + content)

	for _, rule := range heuristicRules {
		if rule.matches(host, haystack) {
			return rule.result()
		}
	}
	return defaultRule.result()
}

func (r classificationRule) matches(host, haystack string) bool {
	for _, domain := range r.domains {
		if strings.Contains(host, domain) {
			return true
		}
	}
	for _, keyword := range r.keywords {
		if strings.Contains(haystack, keyword) {
			return true
		}
	}
	return false
}

func (r classificationRule) result() models.AnalysisResult {
	tags := make([]string, len(r.tags))
	copy(tags, r.tags)
	return models.AnalysisResult{
		Title:       r.title,
		Description: r.description,
		Tags:        tags,
		Folder:      r.folder,
	}
}
