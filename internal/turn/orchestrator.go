// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package turn

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jeranaias/omnichat-tui/internal/ollama"
	"github.com/jeranaias/omnichat-tui/internal/search"
)

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// Streamer is the model inference provider: it streams chat completions
// for an assembled prompt. *ollama.Client satisfies this.
type Streamer interface {
	ChatStream(ctx context.Context, model string, messages []ollama.Message, opts *ollama.Options, callback ollama.StreamCallback) error
}

// Searcher is the web search provider. *search.DuckDuckGoClient
// satisfies this.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

const (
	// temperature is pinned for all turns; answers grounded in search
	// results want low sampling randomness.
	temperature = 0.3

	// DefaultMaxChunks caps fragments per turn against runaway
	// generations.
	DefaultMaxChunks = 2000

	// loopBufferSize is how many recent fragments are retained.
	loopBufferSize = 20

	// loopWindow is how many buffered fragments the repetition check
	// concatenates.
	loopWindow = 10

	// loopCheckMinLen: the half-vs-half comparison only runs once the
	// window text is longer than this, so short echoes don't trip it.
	loopCheckMinLen = 50
)

// Orchestrator runs chat turns against a model streamer, optionally
// augmented by a web searcher. It holds no per-turn state; each
// StreamTurn call is independent.
type Orchestrator struct {
	streamer  Streamer
	searcher  Searcher
	maxChunks int
}

// NewOrchestrator creates an orchestrator. maxChunks <= 0 selects
// DefaultMaxChunks.
func NewOrchestrator(streamer Streamer, searcher Searcher, maxChunks int) *Orchestrator {
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunks
	}
	return &Orchestrator{
		streamer:  streamer,
		searcher:  searcher,
		maxChunks: maxChunks,
	}
}

// Request describes one chat turn.
type Request struct {
	// History is the full ordered message sequence up to and including
	// the newest user message.
	History []ollama.Message

	// Model is the Ollama model tag ("" uses the client default).
	Model string

	// ForceSearch runs the web search regardless of content.
	ForceSearch bool

	// AutoSearch enables the keyword/temporal classifier.
	AutoSearch bool

	// MaxChunks overrides the orchestrator cap when > 0.
	MaxChunks int
}

// Chunk is one streamed fragment of the assistant's answer.
type Chunk struct {
	// Content is the incremental text.
	Content string

	// Model is the model that produced the fragment.
	Model string

	// SearchUsed reports whether this turn's prompt was augmented with
	// web search context (including failed-search marker text).
	SearchUsed bool
}

// =============================================================================
// TURN STREAM
// =============================================================================

// Turn is the lazily produced fragment sequence for one chat turn.
// Range over Chunks(); when it closes, consult Err(). Close() abandons
// the turn and releases the underlying model connection.
//
// Termination by natural completion, repetition detection, and the
// fragment cap are indistinguishable to the caller: the sequence simply
// ends with a nil Err.
type Turn struct {
	ch         chan Chunk
	cancel     context.CancelFunc
	searchUsed bool

	mu  sync.Mutex
	err error

	closeOnce sync.Once
}

// Chunks returns the fragment channel. It is closed when the turn ends
// for any reason.
func (t *Turn) Chunks() <-chan Chunk {
	return t.ch
}

// SearchUsed reports whether web search context was injected this turn.
func (t *Turn) SearchUsed() bool {
	return t.searchUsed
}

// Err returns the inference failure, if any. Only meaningful after
// Chunks() has closed. Guard-triggered and natural terminations return
// nil.
func (t *Turn) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *Turn) setErr(err error) {
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
}

// Close abandons the turn. Safe to call multiple times and after the
// stream has already ended.
func (t *Turn) Close() {
	t.closeOnce.Do(t.cancel)
}

// =============================================================================
// TURN EXECUTION
// =============================================================================

// StreamTurn runs one chat turn. The search phase (if any) completes
// synchronously before this returns; the model stream is then consumed
// through the returned Turn.
//
// Exactly one search decision is made and at most one search executed
// per call; its result is injected into the prompt exactly once,
// immediately before the newest user message.
func (o *Orchestrator) StreamTurn(ctx context.Context, req Request) *Turn {
	outcome := o.runSearch(ctx, req)
	prompt := Assemble(req.History, outcome)

	maxChunks := req.MaxChunks
	if maxChunks <= 0 {
		maxChunks = o.maxChunks
	}

	streamCtx, cancel := context.WithCancel(ctx)
	t := &Turn{
		ch:         make(chan Chunk),
		cancel:     cancel,
		searchUsed: outcome.Used(),
	}

	go func() {
		defer close(t.ch)

		guard := newStreamGuard(maxChunks)
		stopped := false

		err := o.streamer.ChatStream(streamCtx, req.Model, prompt, &ollama.Options{Temperature: temperature},
			func(chunk ollama.StreamChunk) {
				if stopped || chunk.Content == "" {
					return
				}

				// Degenerate or runaway generation: stop silently and
				// drop the offending fragment.
				if !guard.admit(chunk.Content) {
					stopped = true
					cancel()
					return
				}

				select {
				case t.ch <- Chunk{Content: chunk.Content, Model: chunk.Model, SearchUsed: t.searchUsed}:
				case <-streamCtx.Done():
					stopped = true
				}
			})

		// Cancellation is the normal end for guard stops and abandoned
		// turns; only real inference failures surface.
		if err != nil && !errors.Is(err, context.Canceled) {
			t.setErr(err)
		}
	}()

	return t
}

// runSearch makes the single per-turn search decision and executes at
// most one search against the most recent user message.
func (o *Orchestrator) runSearch(ctx context.Context, req Request) SearchOutcome {
	utterance, found := lastUserMessage(req.History)
	if !found {
		// No user turn to classify or search against: never an error.
		return Skipped()
	}

	needed := req.ForceSearch
	if !needed && req.AutoSearch {
		needed = search.NeedsSearch(utterance, false)
	}
	if !needed || o.searcher == nil {
		return Skipped()
	}

	query := search.ExtractQuery(utterance)
	text, err := o.searcher.Search(ctx, query)
	if err != nil {
		// The turn proceeds with the marker text as search context.
		return Failed(search.FormatError(err))
	}
	return OK(text)
}

// lastUserMessage scans history backwards for the newest user turn.
func lastUserMessage(history []ollama.Message) (string, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == ollama.RoleUser {
			return history[i].Content, true
		}
	}
	return "", false
}

// =============================================================================
// STREAM GUARDS
// =============================================================================

// streamGuard tracks recent fragments for the repetition check and
// counts yielded fragments against the cap.
type streamGuard struct {
	recent    []string
	yielded   int
	maxChunks int
}

func newStreamGuard(maxChunks int) *streamGuard {
	return &streamGuard{
		recent:    make([]string, 0, loopBufferSize),
		maxChunks: maxChunks,
	}
}

// admit records a fragment and reports whether it may be yielded.
// It returns false when the fragment would exceed the cap or completes
// a detected repetition loop.
func (g *streamGuard) admit(fragment string) bool {
	g.recent = append(g.recent, fragment)
	if len(g.recent) > loopBufferSize {
		g.recent = g.recent[1:]
	}

	if g.looping() {
		return false
	}

	if g.yielded >= g.maxChunks {
		return false
	}
	g.yielded++
	return true
}

// looping joins the last loopWindow fragments and, once the window is
// long enough, compares its two halves character-for-character. Equal
// halves mean the model is emitting the same text back to back.
func (g *streamGuard) looping() bool {
	window := g.recent
	if len(window) > loopWindow {
		window = window[len(window)-loopWindow:]
	}

	joined := strings.Join(window, "")
	if len(joined) <= loopCheckMinLen {
		return false
	}

	// Odd lengths split into unequal halves and never compare equal,
	// matching the original midpoint-split behavior.
	half := len(joined) / 2
	return joined[:half] == joined[half:]
}

// =============================================================================
// BUFFERED EXECUTION
// =============================================================================

// RunTurn executes a turn to completion and returns the full answer
// text plus the search-used flag. Used by the one-shot CLI paths.
func (o *Orchestrator) RunTurn(ctx context.Context, req Request) (string, bool, error) {
	t := o.StreamTurn(ctx, req)
	defer t.Close()

	var sb strings.Builder
	for chunk := range t.Chunks() {
		sb.WriteString(chunk.Content)
	}
	if err := t.Err(); err != nil {
		return "", t.SearchUsed(), err
	}
	return sb.String(), t.SearchUsed(), nil
}
