package websearch

import (
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

const (
	// maxContentChars bounds the page-content excerpt per result.
	maxContentChars = 1200
	// maxRenderChars bounds the whole rendered block handed back to the model.
	maxRenderChars = 8000
)

// RenderResults formats a result list, including an empty one, into the
// bounded textual form consumed by the tool-result message. HTML page content
// is converted to markdown before truncation.
func RenderResults(query string, results []Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("No search results found for %q.", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search results for %q:\n", query)

	for i, r := range results {
		fmt.Fprintf(&b, "\n%d. %s\n   %s\n", i+1, r.Title, r.URL)
		if r.Description != "" {
			fmt.Fprintf(&b, "   %s\n", r.Description)
		}
		if r.Content != "" {
			content := r.Content
			if looksLikeHTML(content) {
				if markdown, err := htmltomarkdown.ConvertString(content); err == nil {
					content = markdown
				}
			}
			fmt.Fprintf(&b, "   %s\n", truncate(strings.TrimSpace(content), maxContentChars))
		}
		if b.Len() >= maxRenderChars {
			break
		}
	}

	return truncate(b.String(), maxRenderChars)
}

func looksLikeHTML(s string) bool {
	return strings.Contains(s, "</") || strings.Contains(s, "/>") || strings.Contains(s, "<p>") || strings.Contains(s, "<div")
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}
