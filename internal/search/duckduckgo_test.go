// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const ddgFixture = `
<div class="result">
  <h2 class="result__title">
    <a rel="nofollow" class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fgo&amp;rut=abc">The <b>Go</b> Programming Language</a>
  </h2>
  <a class="result__snippet" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fgo">Go is an open source language &amp; toolchain.</a>
</div>
<div class="result">
  <h2 class="result__title">
    <a rel="nofollow" class="result__a" href="https://example.org/direct">Direct link</a>
  </h2>
  <a class="result__snippet" href="https://example.org/direct">Second snippet</a>
</div>
`

func TestParseHTML(t *testing.T) {
	results := parseHTML(ddgFixture)
	if len(results) != 2 {
		t.Fatalf("parseHTML returned %d results, want 2", len(results))
	}

	if results[0].Title != "The Go Programming Language" {
		t.Errorf("title = %q", results[0].Title)
	}
	if results[0].URL != "https://example.com/go" {
		t.Errorf("URL not unwrapped from uddg redirect: %q", results[0].URL)
	}
	if results[0].Snippet != "Go is an open source language & toolchain." {
		t.Errorf("snippet = %q", results[0].Snippet)
	}

	if results[1].URL != "https://example.org/direct" {
		t.Errorf("direct URL mangled: %q", results[1].URL)
	}
}

func TestExtractActualURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fpage", "https://example.com/page"},
		{"https://example.com/plain", "https://example.com/plain"},
		{"javascript:void(0)", ""},
		{"/relative/path", ""},
	}
	for _, tt := range tests {
		if got := extractActualURL(tt.in); got != tt.want {
			t.Errorf("extractActualURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanHTML(t *testing.T) {
	in := `  <b>Bold</b> &amp; <i>italic</i>,&nbsp;with&#x27;quote   and
	newlines  `
	got := cleanHTML(in)
	want := "Bold & italic, with'quote and newlines"
	if got != want {
		t.Errorf("cleanHTML = %q, want %q", got, want)
	}
}

func TestSearchFormatsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "go language" {
			t.Errorf("query param = %q", got)
		}
		w.Write([]byte(ddgFixture))
	}))
	defer srv.Close()

	client := NewDuckDuckGoClient()
	client.BaseURL = srv.URL + "/"
	client.Limiter = nil

	out, err := client.Search(context.Background(), "go language")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if !strings.Contains(out, "Web search results for: go language") {
		t.Errorf("missing header in:\n%s", out)
	}
	if !strings.Contains(out, "Found 2 results") {
		t.Errorf("missing count in:\n%s", out)
	}
	if !strings.Contains(out, "[1] The Go Programming Language") {
		t.Errorf("missing first result in:\n%s", out)
	}
	if !strings.Contains(out, "URL: https://example.com/go") {
		t.Errorf("missing unwrapped URL in:\n%s", out)
	}
}

func TestSearchMaxResults(t *testing.T) {
	var page strings.Builder
	for i := 0; i < 8; i++ {
		page.WriteString(`<a class="result__a" href="https://example.com/page">Title here</a>`)
		page.WriteString(`<a class="result__snippet" href="#">snippet</a>`)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page.String()))
	}))
	defer srv.Close()

	client := NewDuckDuckGoClient()
	client.BaseURL = srv.URL + "/"
	client.MaxResults = 3
	client.Limiter = nil

	out, err := client.Search(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !strings.Contains(out, "Found 3 results") {
		t.Errorf("MaxResults not applied:\n%s", out)
	}
}

func TestSearchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewDuckDuckGoClient()
	client.BaseURL = srv.URL + "/"
	client.Limiter = nil

	if _, err := client.Search(context.Background(), "anything"); err == nil {
		t.Error("expected error on HTTP 429")
	}

	if _, err := client.Search(context.Background(), "   "); err == nil {
		t.Error("expected error on empty query")
	}
}

func TestFormatError(t *testing.T) {
	msg := FormatError(context.DeadlineExceeded)
	if !strings.HasPrefix(msg, ErrorPrefix) {
		t.Errorf("FormatError missing prefix: %q", msg)
	}
}
