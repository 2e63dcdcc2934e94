// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package turn

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/omnichat-tui/internal/ollama"
	"github.com/jeranaias/omnichat-tui/internal/search"
)

// =============================================================================
// FAKES
// =============================================================================

// fakeStreamer replays a fixed fragment sequence through the callback,
// honoring context cancellation between fragments.
type fakeStreamer struct {
	fragments []string
	// repeatForever re-delivers the fragment list until cancelled.
	repeatForever bool
	// err is returned after delivery (simulated inference failure).
	err error

	gotMessages []ollama.Message
	gotModel    string
}

func (f *fakeStreamer) ChatStream(ctx context.Context, model string, messages []ollama.Message, opts *ollama.Options, callback ollama.StreamCallback) error {
	f.gotMessages = messages
	f.gotModel = model

	deliver := func() error {
		for _, frag := range f.fragments {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			callback(ollama.StreamChunk{Content: frag, Model: model})
		}
		return nil
	}

	if f.repeatForever {
		for {
			if err := deliver(); err != nil {
				return err
			}
		}
	}
	if err := deliver(); err != nil {
		return err
	}
	return f.err
}

type fakeSearcher struct {
	result string
	err    error

	calls   int
	queries []string
}

func (f *fakeSearcher) Search(ctx context.Context, query string) (string, error) {
	f.calls++
	f.queries = append(f.queries, query)
	return f.result, f.err
}

func collect(t *testing.T, turn *Turn) []Chunk {
	t.Helper()
	var chunks []Chunk
	done := make(chan struct{})
	go func() {
		defer close(done)
		for chunk := range turn.Chunks() {
			chunks = append(chunks, chunk)
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("turn did not terminate")
	}
	return chunks
}

func userHistory(content string) []ollama.Message {
	return []ollama.Message{ollama.NewUserMessage(content)}
}

// =============================================================================
// STREAMING
// =============================================================================

func TestStreamTurnDeliversFragments(t *testing.T) {
	streamer := &fakeStreamer{fragments: []string{"Hel", "lo", " world"}}
	o := NewOrchestrator(streamer, nil, 0)

	turn := o.StreamTurn(context.Background(), Request{History: userHistory("hi there friend")})
	chunks := collect(t, turn)

	var sb strings.Builder
	for _, c := range chunks {
		sb.WriteString(c.Content)
	}
	if sb.String() != "Hello world" {
		t.Errorf("assembled answer = %q", sb.String())
	}
	if turn.Err() != nil {
		t.Errorf("unexpected error: %v", turn.Err())
	}
	if turn.SearchUsed() {
		t.Error("search should not have run")
	}
}

func TestStreamTurnSkipsEmptyFragments(t *testing.T) {
	streamer := &fakeStreamer{fragments: []string{"", "a", "", "b"}}
	o := NewOrchestrator(streamer, nil, 0)

	chunks := collect(t, o.StreamTurn(context.Background(), Request{History: userHistory("hi")}))
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
}

func TestStreamTurnInferenceError(t *testing.T) {
	wantErr := errors.New("model exploded")
	streamer := &fakeStreamer{fragments: []string{"partial"}, err: wantErr}
	o := NewOrchestrator(streamer, nil, 0)

	turn := o.StreamTurn(context.Background(), Request{History: userHistory("hi")})
	collect(t, turn)

	if !errors.Is(turn.Err(), wantErr) {
		t.Errorf("Err() = %v, want %v", turn.Err(), wantErr)
	}
}

func TestStreamTurnCloseAbandons(t *testing.T) {
	streamer := &fakeStreamer{fragments: []string{strings.Repeat("x", 5)}, repeatForever: true}
	o := NewOrchestrator(streamer, nil, 0)

	turn := o.StreamTurn(context.Background(), Request{History: userHistory("hi")})

	// Take a couple of fragments, then walk away.
	<-turn.Chunks()
	<-turn.Chunks()
	turn.Close()

	collect(t, turn)
	if turn.Err() != nil {
		t.Errorf("abandoned turn should not report an error, got %v", turn.Err())
	}
}

// =============================================================================
// GUARDS
// =============================================================================

// A fragment that makes the joined window read as the same text twice
// must end the stream before that fragment is yielded.
func TestStreamTurnStopsOnRepetition(t *testing.T) {
	block := strings.Repeat("abcdef", 5) // 30 chars; two blocks exceed the 50-char gate
	streamer := &fakeStreamer{fragments: []string{block, block, "never seen"}}
	o := NewOrchestrator(streamer, nil, 0)

	chunks := collect(t, o.StreamTurn(context.Background(), Request{History: userHistory("hi")}))

	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1 (second block completes the loop)", len(chunks))
	}
	if chunks[0].Content != block {
		t.Errorf("first block mangled: %q", chunks[0].Content)
	}
}

func TestStreamTurnShortEchoesAllowed(t *testing.T) {
	// Window stays at or under 50 chars, so identical halves are fine.
	streamer := &fakeStreamer{fragments: []string{"yes. ", "yes. ", "yes. ", "done"}}
	o := NewOrchestrator(streamer, nil, 0)

	chunks := collect(t, o.StreamTurn(context.Background(), Request{History: userHistory("hi")}))
	if len(chunks) != 4 {
		t.Errorf("got %d chunks, want all 4", len(chunks))
	}
}

func TestStreamTurnLengthCap(t *testing.T) {
	streamer := &fakeStreamer{fragments: []string{"tick "}, repeatForever: true}
	o := NewOrchestrator(streamer, nil, 7)

	chunks := collect(t, o.StreamTurn(context.Background(), Request{History: userHistory("hi")}))
	if len(chunks) != 7 {
		t.Errorf("got %d chunks, want exactly the cap of 7", len(chunks))
	}
}

func TestStreamGuardAdmit(t *testing.T) {
	g := newStreamGuard(3)
	for i := 0; i < 3; i++ {
		if !g.admit("x") {
			t.Fatalf("fragment %d rejected before cap", i)
		}
	}
	if g.admit("x") {
		t.Error("fragment beyond cap admitted")
	}
}

// =============================================================================
// SEARCH DECISION
// =============================================================================

func TestStreamTurnAutoSearch(t *testing.T) {
	streamer := &fakeStreamer{fragments: []string{"answer"}}
	searcher := &fakeSearcher{result: "Web search results for: go release\nFound 1 results\n"}
	o := NewOrchestrator(streamer, searcher, 0)

	turn := o.StreamTurn(context.Background(), Request{
		History:    userHistory("What is the latest Go release?"),
		AutoSearch: true,
	})
	chunks := collect(t, turn)

	if searcher.calls != 1 {
		t.Fatalf("searcher called %d times, want 1", searcher.calls)
	}
	if searcher.queries[0] != "the latest go release" {
		t.Errorf("query = %q", searcher.queries[0])
	}
	if !turn.SearchUsed() {
		t.Error("SearchUsed should be true")
	}
	for _, c := range chunks {
		if !c.SearchUsed {
			t.Error("chunk SearchUsed flag not set")
		}
	}

	// The prompt handed to the streamer carries the injected context.
	found := false
	for _, msg := range streamer.gotMessages {
		if msg.Role == ollama.RoleSystem && strings.Contains(msg.Content, "Web search results") {
			found = true
		}
	}
	if !found {
		t.Error("search context not injected into prompt")
	}
}

func TestStreamTurnAutoSearchNotTriggered(t *testing.T) {
	streamer := &fakeStreamer{fragments: []string{"answer"}}
	searcher := &fakeSearcher{result: "results"}
	o := NewOrchestrator(streamer, searcher, 0)

	turn := o.StreamTurn(context.Background(), Request{
		History:    userHistory("my cat sleeps all day"),
		AutoSearch: true,
	})
	collect(t, turn)

	if searcher.calls != 0 {
		t.Errorf("searcher called %d times, want 0", searcher.calls)
	}
	if turn.SearchUsed() {
		t.Error("SearchUsed should be false")
	}
}

func TestStreamTurnForceSearch(t *testing.T) {
	streamer := &fakeStreamer{fragments: []string{"answer"}}
	searcher := &fakeSearcher{result: "results"}
	o := NewOrchestrator(streamer, searcher, 0)

	turn := o.StreamTurn(context.Background(), Request{
		History:     userHistory("my cat sleeps all day"),
		ForceSearch: true,
	})
	collect(t, turn)

	if searcher.calls != 1 {
		t.Errorf("searcher called %d times, want 1", searcher.calls)
	}
	if !turn.SearchUsed() {
		t.Error("SearchUsed should be true when forced")
	}
}

// A history with no user message never searches, even when forced.
func TestStreamTurnNoUserMessageSkipsSearch(t *testing.T) {
	streamer := &fakeStreamer{fragments: []string{"answer"}}
	searcher := &fakeSearcher{result: "results"}
	o := NewOrchestrator(streamer, searcher, 0)

	turn := o.StreamTurn(context.Background(), Request{
		History:     []ollama.Message{ollama.NewSystemMessage("be nice")},
		ForceSearch: true,
	})
	collect(t, turn)

	if searcher.calls != 0 {
		t.Errorf("searcher called %d times, want 0", searcher.calls)
	}
	if turn.SearchUsed() {
		t.Error("SearchUsed should be false with no user message")
	}
}

// Search failure degrades to marker text in the prompt; the turn runs.
func TestStreamTurnSearchFailure(t *testing.T) {
	streamer := &fakeStreamer{fragments: []string{"answer"}}
	searcher := &fakeSearcher{err: errors.New("connection refused")}
	o := NewOrchestrator(streamer, searcher, 0)

	turn := o.StreamTurn(context.Background(), Request{
		History:     userHistory("anything at all"),
		ForceSearch: true,
	})
	chunks := collect(t, turn)

	if len(chunks) != 1 || chunks[0].Content != "answer" {
		t.Fatalf("turn did not proceed after search failure: %+v", chunks)
	}
	if !turn.SearchUsed() {
		t.Error("failed search still counts as search used")
	}
	if turn.Err() != nil {
		t.Errorf("search failure must not surface as turn error: %v", turn.Err())
	}

	found := false
	for _, msg := range streamer.gotMessages {
		if msg.Role == ollama.RoleSystem && strings.Contains(msg.Content, search.ErrorPrefix+"connection refused") {
			found = true
		}
	}
	if !found {
		t.Error("failure marker text not injected into prompt")
	}
}

// =============================================================================
// BUFFERED EXECUTION
// =============================================================================

func TestRunTurn(t *testing.T) {
	streamer := &fakeStreamer{fragments: []string{"one ", "two"}}
	o := NewOrchestrator(streamer, nil, 0)

	answer, searchUsed, err := o.RunTurn(context.Background(), Request{History: userHistory("hi")})
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if answer != "one two" {
		t.Errorf("answer = %q", answer)
	}
	if searchUsed {
		t.Error("searchUsed should be false")
	}
}
