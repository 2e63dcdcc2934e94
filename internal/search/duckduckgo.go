// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/omnichat-tui/internal/util"
)

// Pre-compiled regex for DuckDuckGo HTML parsing (compiled once at startup).
var (
	ddgTitleRegex   = regexp.MustCompile(`(?s)<a[^>]+class="result__a"[^>]+href="([^"]+)"[^>]*>(.+?)</a>`)
	ddgSnippetRegex = regexp.MustCompile(`(?s)<a[^>]+class="result__snippet"[^>]*>(.+?)</a>`)

	htmlTagRegex        = regexp.MustCompile(`<[^>]*>`)
	htmlWhitespaceRegex = regexp.MustCompile(`\s+`)
)

// ErrorPrefix marks a search result string that actually describes a
// provider failure. Callers treat the marked string as search context
// anyway; the marker is the only way to tell failure from "no results".
const ErrorPrefix = "Search error: "

// FormatError converts a provider failure into the textual convention
// the prompt assembler consumes.
func FormatError(err error) string {
	return ErrorPrefix + err.Error()
}

// =============================================================================
// DUCKDUCKGO CLIENT
// =============================================================================

// DuckDuckGoClient performs web search against DuckDuckGo's HTML
// endpoint. The zero value is usable; defaults are filled on first use.
type DuckDuckGoClient struct {
	// BaseURL is the DuckDuckGo HTML search endpoint
	BaseURL string

	// MaxResults caps results returned (default: 5, max: 10)
	MaxResults int

	// Timeout is the maximum time for one request (default: 15s)
	Timeout time.Duration

	// UserAgent is the User-Agent header to send
	UserAgent string

	// Limiter throttles outgoing searches so bursts of auto-triggered
	// turns don't hammer the endpoint (default: 1 req/s, burst 3)
	Limiter *rate.Limiter
}

// NewDuckDuckGoClient creates a client with defaults.
func NewDuckDuckGoClient() *DuckDuckGoClient {
	return &DuckDuckGoClient{
		BaseURL:    "https://html.duckduckgo.com/html/",
		MaxResults: 5,
		Timeout:    15 * time.Second,
		UserAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Limiter:    rate.NewLimiter(rate.Every(time.Second), 3),
	}
}

// Result represents a single search result.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// Search runs one query and returns a formatted text blob of results.
// A single attempt, no retry: search is best-effort context enrichment,
// and a failed search degrades to an unaugmented model answer.
func (c *DuckDuckGoClient) Search(ctx context.Context, query string) (string, error) {
	c.fillDefaults()

	if strings.TrimSpace(query) == "" {
		return "", errors.New("empty search query")
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	results, err := c.fetch(ctx, query)
	if err != nil {
		return "", err
	}

	if len(results) > c.MaxResults {
		results = results[:c.MaxResults]
	}

	return formatResults(query, results), nil
}

func (c *DuckDuckGoClient) fillDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://html.duckduckgo.com/html/"
	}
	if c.MaxResults < 1 {
		c.MaxResults = 5
	}
	if c.MaxResults > 10 {
		c.MaxResults = 10
	}
	if c.Timeout == 0 {
		c.Timeout = 15 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
}

// fetch performs the HTTP request and parses the result page.
func (c *DuckDuckGoClient) fetch(ctx context.Context, query string) ([]Result, error) {
	searchURL := c.BaseURL + "?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}

	// Don't set Accept-Encoding manually: Go's http.Client negotiates
	// gzip and transparently decompresses only when it set the header.
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	client := &http.Client{
		Timeout: c.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return errors.New("too many redirects")
			}
			return nil
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	// Cap the body read at 5MB
	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, err
	}

	return parseHTML(string(body)), nil
}

// parseHTML extracts search results from DuckDuckGo's HTML page.
//
// Page structure (2024+):
//
//	<h2 class="result__title">
//	  <a rel="nofollow" class="result__a" href="//duckduckgo.com/l/?uddg=URL">Title</a>
//	</h2>
//	<a class="result__snippet" href="...">Snippet text</a>
func parseHTML(html string) []Result {
	var results []Result

	titleMatches := ddgTitleRegex.FindAllStringSubmatch(html, 30)
	snippetMatches := ddgSnippetRegex.FindAllStringSubmatch(html, 30)

	for i, match := range titleMatches {
		if len(match) < 3 {
			continue
		}

		rawURL := strings.ReplaceAll(match[1], "&amp;", "&")
		actualURL := extractActualURL(rawURL)
		if actualURL == "" {
			continue
		}

		title := strings.TrimSpace(cleanHTML(match[2]))
		if title == "" {
			continue
		}

		snippet := ""
		if i < len(snippetMatches) && len(snippetMatches[i]) >= 2 {
			snippet = strings.TrimSpace(cleanHTML(snippetMatches[i][1]))
		}

		results = append(results, Result{
			Title:   title,
			URL:     actualURL,
			Snippet: snippet,
		})

		if len(results) >= 20 {
			break
		}
	}

	return results
}

// extractActualURL unwraps DuckDuckGo's redirect URL format:
// //duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com
func extractActualURL(ddgURL string) string {
	if strings.Contains(ddgURL, "uddg=") {
		if strings.HasPrefix(ddgURL, "//") {
			ddgURL = "https:" + ddgURL
		}
		parsed, err := url.Parse(ddgURL)
		if err != nil {
			return ""
		}
		if target := parsed.Query().Get("uddg"); target != "" {
			return target
		}
	}

	if strings.HasPrefix(ddgURL, "http://") || strings.HasPrefix(ddgURL, "https://") {
		return ddgURL
	}

	return ""
}

// cleanHTML removes tags, decodes common entities, and collapses
// whitespace.
func cleanHTML(html string) string {
	text := htmlTagRegex.ReplaceAllString(html, "")
	text = decodeHTMLEntities(text)
	text = htmlWhitespaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

var htmlEntities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#x27;", "'",
	"&#39;", "'",
	"&nbsp;", " ",
)

func decodeHTMLEntities(s string) string {
	return htmlEntities.Replace(s)
}

// formatResults renders results as the text blob injected into the
// model prompt.
func formatResults(query string, results []Result) string {
	var output strings.Builder

	output.WriteString(fmt.Sprintf("Web search results for: %s\n", query))
	output.WriteString(fmt.Sprintf("Found %d results\n\n", len(results)))

	if len(results) == 0 {
		output.WriteString("No results found.\n")
		return output.String()
	}

	for i, result := range results {
		output.WriteString(fmt.Sprintf("[%d] %s\n", i+1, result.Title))
		output.WriteString(fmt.Sprintf("    URL: %s\n", result.URL))
		if result.Snippet != "" {
			output.WriteString(fmt.Sprintf("    %s\n", util.TruncateRunes(result.Snippet, 300)))
		}
		output.WriteString("\n")
	}

	return output.String()
}
