package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Result is one search hit. Content optionally carries the fetched page body,
// possibly as HTML.
type Result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Content     string `json:"content,omitempty"`
}

// Searcher is the external search capability the engine invokes through a
// fixed contract. Implementations own crawling and indexing entirely.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// Client queries an HTTP search API that exposes a JSON results endpoint.
type Client struct {
	apiBase string
	client  *http.Client
}

// NewClient creates a search client for the given API base URL.
func NewClient(apiBase string) *Client {
	return &Client{
		apiBase: strings.TrimRight(apiBase, "/"),
		client:  &http.Client{},
	}
}

func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	params := url.Values{}
	params.Add("q", query)
	params.Add("format", "json")
	params.Add("max_results", strconv.Itoa(maxResults))

	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.apiBase+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var envelope struct {
		Results []Result `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	results := envelope.Results
	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}
