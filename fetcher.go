package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/linkbox/analyzer/metrics"
)

// maxContentLength bounds the extracted text so prompts stay within the
// model's input limits. Truncation happens here, not in the prompt
// builder.
const maxContentLength = 3000

// proxyEnvelope is the JSON wrapper returned by the allorigins-style
// fetch proxy; Contents holds the raw page markup.
type proxyEnvelope struct {
	Contents string `json:"contents"`
}

// FetchContent retrieves representative text for a URL through the
// CORS-bypass proxy. Any failure (network, status, envelope shape, HTML
// parse) degrades to a "website: <url>" stub instead of an error:
// downstream stages must still produce a usable record.
func (a *Analyzer) FetchContent(ctx context.Context, targetURL string) string {
	content, err := a.fetchViaProxy(ctx, targetURL)
	if err != nil {
		log.Printf("content fetch failed for %s, using URL stub: %v", targetURL, err)
		metrics.FetchDegradations.Inc()
		return "website: " + targetURL
	}
	return content
}

// fetchViaProxy performs the proxy round trip and text extraction
func (a *Analyzer) fetchViaProxy(ctx context.Context, targetURL string) (string, error) {
	proxyURL := fmt.Sprintf("%s/get?url=%s", a.config.ProxyBaseURL, url.QueryEscape(targetURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, proxyURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; LinkBox/1.0)")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var envelope proxyEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", fmt.Errorf("failed to decode proxy envelope: %w", err)
	}
	if envelope.Contents == "" {
		return "", fmt.Errorf("proxy returned no contents")
	}

	doc, err := html.Parse(strings.NewReader(envelope.Contents))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	text := extractReadableText(doc)
	if text == "" {
		return "", fmt.Errorf("no readable text in page")
	}

	return truncate(text, maxContentLength), nil
}

// nonContentTags are subtrees skipped during text extraction
var nonContentTags = map[string]bool{
	"script": true,
	"style":  true,
	"nav":    true,
	"header": true,
	"footer": true,
	"aside":  true,
}

// extractReadableText extracts visible text from the HTML, skipping
// navigation chrome and collapsing whitespace
func extractReadableText(n *html.Node) string {
	var buf strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode && nonContentTags[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

// truncate caps a string at limit runes without splitting multi-byte
// characters
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
