package analyzer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// newProxyServer returns a test server that mimics the fetch proxy:
// GET /get?url=... answered with a JSON envelope wrapping the page.
func newProxyServer(t *testing.T, page string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/get" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("url") == "" {
			http.Error(w, "missing url", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"contents": %q}`, page)
	}))
}

func newTestAnalyzer(proxyURL string) *Analyzer {
	config := DefaultConfig()
	config.ProxyBaseURL = proxyURL
	config.HTTPTimeout = 5 * time.Second
	return New(config)
}

// TestFetchContentExtractsText tests text extraction from a proxied page
func TestFetchContentExtractsText(t *testing.T) {
	page := `<html>
		<head><title>Test</title><style>body { color: red }</style></head>
		<body>
			<script>var hidden = true;</script>
			<nav>Home About Contact</nav>
			<h1>React  Hooks</h1>
			<p>A   practical
			guide.</p>
			<footer>Copyright</footer>
		</body>
	</html>`

	server := newProxyServer(t, page)
	defer server.Close()

	a := newTestAnalyzer(server.URL)
	content := a.FetchContent(context.Background(), "https://example.com/react")

	if !strings.Contains(content, "React Hooks") {
		t.Errorf("content missing heading text: %q", content)
	}
	if !strings.Contains(content, "A practical guide.") {
		t.Errorf("whitespace not collapsed: %q", content)
	}
	for _, excluded := range []string{"hidden", "color: red", "Home About Contact", "Copyright"} {
		if strings.Contains(content, excluded) {
			t.Errorf("content includes non-content text %q: %q", excluded, content)
		}
	}
}

// TestFetchContentTruncates tests that long pages are capped
func TestFetchContentTruncates(t *testing.T) {
	page := "<html><body><p>" + strings.Repeat("word ", 2000) + "</p></body></html>"

	server := newProxyServer(t, page)
	defer server.Close()

	a := newTestAnalyzer(server.URL)
	content := a.FetchContent(context.Background(), "https://example.com/long")

	if len([]rune(content)) > maxContentLength {
		t.Errorf("content length = %d runes, want <= %d", len([]rune(content)), maxContentLength)
	}
}

// TestFetchContentProxyDown tests degradation to the URL stub when the
// proxy is unreachable
func TestFetchContentProxyDown(t *testing.T) {
	server := newProxyServer(t, "<html></html>")
	server.Close() // Unreachable

	a := newTestAnalyzer(server.URL)
	content := a.FetchContent(context.Background(), "https://example.com/page")

	want := "website: https://example.com/page"
	if content != want {
		t.Errorf("content = %q, want %q", content, want)
	}
}

// TestFetchContentProxyError tests degradation on a non-200 proxy response
func TestFetchContentProxyError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	a := newTestAnalyzer(server.URL)
	content := a.FetchContent(context.Background(), "https://example.com/page")

	want := "website: https://example.com/page"
	if content != want {
		t.Errorf("content = %q, want %q", content, want)
	}
}

// TestFetchContentBadEnvelope tests degradation when the proxy returns
// something other than the expected JSON envelope
func TestFetchContentBadEnvelope(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>raw page, no envelope</html>"},
		{"empty contents", `{"contents": ""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			a := newTestAnalyzer(server.URL)
			content := a.FetchContent(context.Background(), "https://example.com/page")

			want := "website: https://example.com/page"
			if content != want {
				t.Errorf("content = %q, want %q", content, want)
			}
		})
	}
}

// TestFetchContentEncodesTargetURL tests that the target URL is passed
// to the proxy URL-encoded
func TestFetchContentEncodesTargetURL(t *testing.T) {
	var gotRaw string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRaw = r.URL.RawQuery
		fmt.Fprint(w, `{"contents": "<html><body>ok page</body></html>"}`)
	}))
	defer server.Close()

	a := newTestAnalyzer(server.URL)
	a.FetchContent(context.Background(), "https://example.com/path?a=1&b=2")

	if !strings.Contains(gotRaw, "url=https%3A%2F%2Fexample.com%2Fpath%3Fa%3D1%26b%3D2") {
		t.Errorf("target URL not encoded in proxy query: %q", gotRaw)
	}
}
