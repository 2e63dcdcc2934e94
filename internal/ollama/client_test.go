// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testClient(url string) *Client {
	return NewClientWithConfig(&ClientConfig{BaseURL: url, Timeout: 5 * time.Second})
}

func TestNewClientWithConfigDefaults(t *testing.T) {
	c := NewClientWithConfig(nil)
	if c.GetConfig().BaseURL != "http://127.0.0.1:11434" {
		t.Errorf("BaseURL = %q", c.GetConfig().BaseURL)
	}
	if c.DefaultModel() != "qwen2.5:0.5b" {
		t.Errorf("DefaultModel = %q", c.DefaultModel())
	}

	c = NewClientWithConfig(&ClientConfig{BaseURL: "http://example:1234"})
	if c.GetConfig().Timeout != 30*time.Second {
		t.Errorf("zero timeout not defaulted: %v", c.GetConfig().Timeout)
	}
}

func TestCheckRunning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Ollama is running"))
	}))
	defer srv.Close()

	if err := testClient(srv.URL).CheckRunning(context.Background()); err != nil {
		t.Errorf("CheckRunning: %v", err)
	}
}

func TestCheckRunningDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	err := testClient(srv.URL).CheckRunning(context.Background())
	if !IsNotRunning(err) {
		t.Errorf("err = %v, want not-running", err)
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(ListModelsResponse{Models: []ModelInfo{
			{Name: "qwen2.5:0.5b"},
			{Name: "llama3.2:1b"},
		}})
	}))
	defer srv.Close()

	models, err := testClient(srv.URL).ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 || models[0].Name != "qwen2.5:0.5b" {
		t.Errorf("models = %+v", models)
	}
}

func TestChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Stream {
			t.Error("non-streaming chat sent stream=true")
		}
		if req.Model != "llama3.2:1b" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Messages) != 1 || req.Messages[0].Content != "hi" {
			t.Errorf("messages = %+v", req.Messages)
		}
		json.NewEncoder(w).Encode(ChatResponse{
			Model:   req.Model,
			Message: Message{Role: RoleAssistant, Content: "hello!"},
			Done:    true,
		})
	}))
	defer srv.Close()

	resp, err := testClient(srv.URL).Chat(context.Background(), "llama3.2:1b", []Message{NewUserMessage("hi")}, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Message.Content != "hello!" {
		t.Errorf("content = %q", resp.Message.Content)
	}
}

func TestChatUsesDefaultModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "qwen2.5:0.5b" {
			t.Errorf("model = %q, want client default", req.Model)
		}
		json.NewEncoder(w).Encode(ChatResponse{Done: true})
	}))
	defer srv.Close()

	if _, err := testClient(srv.URL).Chat(context.Background(), "", []Message{NewUserMessage("hi")}, nil); err != nil {
		t.Fatal(err)
	}
}

func TestChatModelNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model 'nope' not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Chat(context.Background(), "nope", nil, nil)
	if !IsModelNotFound(err) {
		t.Errorf("err = %v, want model-not-found", err)
	}
}

func TestChatServerErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"out of memory"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Chat(context.Background(), "m", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "out of memory") {
		t.Errorf("server error message not surfaced: %v", err)
	}
}

// =============================================================================
// STREAMING
// =============================================================================

func ndjson(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func TestChatStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if !req.Stream {
			t.Error("streaming chat sent stream=false")
		}
		w.Write([]byte(ndjson(
			`{"model":"m","message":{"role":"assistant","content":"Hel"},"done":false}`,
			`{"model":"m","message":{"role":"assistant","content":"lo"},"done":false}`,
			`{"model":"m","message":{"role":"assistant","content":""},"done":true,"done_reason":"stop","eval_count":12,"eval_duration":1000000000}`,
		)))
	}))
	defer srv.Close()

	var chunks []StreamChunk
	err := testClient(srv.URL).ChatStream(context.Background(), "m", []Message{NewUserMessage("hi")}, nil, func(c StreamChunk) {
		chunks = append(chunks, c)
	})
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}

	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if chunks[0].Content+chunks[1].Content != "Hello" {
		t.Errorf("content = %q + %q", chunks[0].Content, chunks[1].Content)
	}
	final := chunks[2]
	if !final.Done || final.DoneReason != "stop" {
		t.Errorf("final chunk = %+v", final)
	}
	if final.CompletionTokens != 12 {
		t.Errorf("CompletionTokens = %d", final.CompletionTokens)
	}
	if final.EvalDuration != time.Second {
		t.Errorf("EvalDuration = %v", final.EvalDuration)
	}
}

func TestChatStreamSkipsMalformedLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(ndjson(
			`{"model":"m","message":{"content":"ok"},"done":false}`,
			`this is not json`,
			`{"model":"m","message":{"content":""},"done":true}`,
		)))
	}))
	defer srv.Close()

	var contents []string
	err := testClient(srv.URL).ChatStream(context.Background(), "m", nil, nil, func(c StreamChunk) {
		contents = append(contents, c.Content)
	})
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}
	if len(contents) != 2 || contents[0] != "ok" {
		t.Errorf("contents = %q (malformed line should be dropped)", contents)
	}
}

func TestChatStreamCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"model":"m","message":{"content":"a"},"done":false}` + "\n"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- testClient(srv.URL).ChatStream(ctx, "m", nil, nil, func(c StreamChunk) {
			cancel()
		})
	}()

	select {
	case err := <-errCh:
		if err == nil {
			t.Error("cancelled stream should return an error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not stop after cancellation")
	}
}

func TestChatStreamChanDeliversError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	var last StreamChunk
	for chunk := range testClient(srv.URL).ChatStreamChan(context.Background(), "m", nil, nil) {
		last = chunk
	}
	if last.Error == nil {
		t.Error("error chunk not delivered")
	}
	if !last.Done {
		t.Error("error chunk should be marked done")
	}
}

// =============================================================================
// STREAM READER
// =============================================================================

func TestStreamReaderAccumulates(t *testing.T) {
	input := ndjson(
		`{"model":"m","message":{"content":"one "},"done":false}`,
		`{"model":"m","message":{"content":"two"},"done":false}`,
		`{"model":"m","message":{"content":""},"done":true}`,
	)
	sr := NewStreamReader(strings.NewReader(input))
	if err := sr.Process(context.Background(), func(StreamChunk) {}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if sr.Accumulated() != "one two" {
		t.Errorf("Accumulated = %q", sr.Accumulated())
	}
	if sr.ChunkCount() != 2 {
		t.Errorf("ChunkCount = %d", sr.ChunkCount())
	}
}

func TestStreamReaderEOFWithoutDone(t *testing.T) {
	input := `{"model":"m","message":{"content":"partial"},"done":false}` + "\n"
	sr := NewStreamReader(strings.NewReader(input))
	if err := sr.Process(context.Background(), func(StreamChunk) {}); err != nil {
		t.Errorf("EOF without done marker should end cleanly, got %v", err)
	}
}

// =============================================================================
// ACCUMULATOR + CATALOG
// =============================================================================

func TestStreamAccumulator(t *testing.T) {
	a := NewStreamAccumulator()
	a.Add(StreamChunk{Content: "foo "})
	a.Add(StreamChunk{Content: "bar"})
	a.Add(StreamChunk{Done: true, CompletionTokens: 20, EvalDuration: 2 * time.Second})

	if a.Content() != "foo bar" {
		t.Errorf("Content = %q", a.Content())
	}
	if !a.Done {
		t.Error("Done not set")
	}
	if got := a.TokensPerSecond(); got != 10 {
		t.Errorf("TokensPerSecond = %v", got)
	}
}

func TestCatalogLookup(t *testing.T) {
	entry := CatalogLookup("llama3.2:1b")
	if entry == nil {
		t.Fatal("known model not found in catalog")
	}
	if entry.Label != "Moderate (llama3.2:1b)" {
		t.Errorf("Label = %q", entry.Label)
	}
	if CatalogLookup("gpt-oss:latest") != nil {
		t.Error("unknown model should return nil")
	}
}
