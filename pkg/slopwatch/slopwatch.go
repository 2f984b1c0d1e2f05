// Package slopwatch detects repetitive phrasing in streams of generated
// prose and synthesizes find/replace rules to suppress it.
//
// An Engine owns one conversation's frequency table and candidate set.
// Observe is cheap and synchronous; Synthesize and Reanalyze block on
// external work and honor their context.
package slopwatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/cognicore/slopwatch/pkg/slopwatch/bulk"
	"github.com/cognicore/slopwatch/pkg/slopwatch/config"
	"github.com/cognicore/slopwatch/pkg/slopwatch/ingest"
	"github.com/cognicore/slopwatch/pkg/slopwatch/internalerr"
	"github.com/cognicore/slopwatch/pkg/slopwatch/merge"
	"github.com/cognicore/slopwatch/pkg/slopwatch/ngram"
	"github.com/cognicore/slopwatch/pkg/slopwatch/rules"
	"github.com/cognicore/slopwatch/pkg/slopwatch/snapshot"
	"github.com/cognicore/slopwatch/pkg/slopwatch/stoplist"
	"github.com/cognicore/slopwatch/pkg/slopwatch/store"
	"github.com/cognicore/slopwatch/pkg/slopwatch/synth"
)

// Engine is the per-conversation facade.
type Engine struct {
	id     string
	logger zerolog.Logger

	mu       sync.Mutex
	tracker  *ngram.Tracker
	accepted []rules.Rule

	trackerOpts       ngram.Options
	matcher           *rules.Matcher
	mergeOpts         merge.Options
	pipeline          *synth.Pipeline
	snapshots         *snapshot.Manager
	bulkPruneInterval int

	synthesizing atomic.Bool
	observers    observers
}

// Options configures an Engine. Only ConversationID is required; missing
// text components fall back to empty defaults, a nil Generator disables
// Synthesize, and a nil Store disables Save and Load.
type Options struct {
	ConversationID string

	Tracker    ngram.Config
	Merge      merge.Options
	Synth      synth.Config
	Normalizer *ingest.Normalizer
	Tokenizer  *ingest.Tokenizer
	Stoplist   *stoplist.Manager

	Generator synth.Generator
	Prompts   synth.Prompts
	Store     store.BlobStore
	Rules     []rules.Rule

	BulkPruneInterval int
	Logger            zerolog.Logger
}

// New creates an engine with the given dependencies.
func New(opts Options) (*Engine, error) {
	if opts.ConversationID == "" {
		return nil, fmt.Errorf("%w: conversation id required", internalerr.ErrInvalidInput)
	}
	logger := opts.Logger.With().Str("conversation", opts.ConversationID).Logger()

	e := &Engine{
		id:                opts.ConversationID,
		logger:            logger,
		matcher:           rules.NewMatcher(),
		mergeOpts:         opts.Merge,
		bulkPruneInterval: opts.BulkPruneInterval,
	}
	for _, r := range opts.Rules {
		if err := e.matcher.Add(r); err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		e.accepted = append(e.accepted, r)
	}

	e.trackerOpts = ngram.Options{
		Config:     opts.Tracker,
		Normalizer: opts.Normalizer,
		Tokenizer:  opts.Tokenizer,
		Stoplist:   opts.Stoplist,
		Skipper:    e.matcher,
		Logger:     logger,
	}
	e.tracker = ngram.New(e.trackerOpts)

	if opts.Generator != nil {
		p, err := synth.New(synth.Options{
			Generator: opts.Generator,
			Config:    opts.Synth,
			Prompts:   opts.Prompts,
			Logger:    logger,
		})
		if err != nil {
			return nil, err
		}
		e.pipeline = p
	}
	if opts.Store != nil {
		e.snapshots = snapshot.NewManager(opts.Store, logger)
	}
	return e, nil
}

// NewFromConfig builds an engine from a loaded configuration.
func NewFromConfig(id string, cfg config.Config, gen synth.Generator, st store.BlobStore, logger zerolog.Logger) (*Engine, error) {
	comp, err := (&config.Loader{Config: cfg}).Load()
	if err != nil {
		return nil, err
	}
	return New(Options{
		ConversationID:    id,
		Tracker:           cfg.Tracker(),
		Merge:             cfg.MergeOptions(),
		Synth:             cfg.Synth(),
		Normalizer:        comp.Normalizer,
		Tokenizer:         comp.Tokenizer,
		Stoplist:          comp.Stoplist,
		Generator:         gen,
		Store:             st,
		BulkPruneInterval: cfg.Prune.BulkInterval,
		Logger:            logger,
	})
}

// ConversationID returns the conversation this engine tracks.
func (e *Engine) ConversationID() string { return e.id }

// Subscribe registers an observer and returns a function that removes it.
func (e *Engine) Subscribe(fn Observer) (unsubscribe func()) {
	return e.observers.add(fn)
}

// Observe analyzes one generated message. User-authored messages should not
// be passed in.
func (e *Engine) Observe(text string) ngram.ObserveResult {
	e.mu.Lock()
	res := e.tracker.Observe(text)
	e.mu.Unlock()

	for _, p := range res.Promoted {
		e.observers.emit(Event{Kind: CandidatePromoted, Phrase: p})
	}
	if res.Pruned > 0 {
		e.observers.emit(Event{Kind: Pruned, Count: res.Pruned})
	}
	return res
}

// Prune runs the steady-state prune against the current message index.
func (e *Engine) Prune() int {
	e.mu.Lock()
	n := e.tracker.Prune(e.tracker.MessageCount())
	e.mu.Unlock()

	if n > 0 {
		e.observers.emit(Event{Kind: Pruned, Count: n})
	}
	return n
}

// Leaderboard merges every record at or above the slop threshold into
// patterns and remaining phrases.
func (e *Engine) Leaderboard() merge.Leaderboard {
	e.mu.Lock()
	entries := e.tracker.Entries()
	threshold := e.tracker.Config().SlopThreshold
	e.mu.Unlock()

	slop := entries[:0]
	for _, en := range entries {
		if en.Score >= threshold {
			slop = append(slop, en)
		}
	}
	return merge.Merge(slop, e.mergeOpts)
}

// Synthesize runs the rule synthesis pipeline over the current leaderboard.
// Accepted rules are recorded and their source phrases zeroed only after the
// pipeline succeeds; a failed or cancelled run leaves the tracker untouched.
// A second call while one is running returns ErrSynthesisInProgress.
func (e *Engine) Synthesize(ctx context.Context) (synth.Result, error) {
	if e.pipeline == nil {
		return synth.Result{}, fmt.Errorf("%w: no generator configured", internalerr.ErrInvalidInput)
	}
	if !e.synthesizing.CompareAndSwap(false, true) {
		return synth.Result{}, internalerr.ErrSynthesisInProgress
	}
	defer e.synthesizing.Store(false)

	res, err := e.pipeline.Run(ctx, e.Leaderboard())
	if err != nil {
		return res, err
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	e.mu.Lock()
	consumed := 0
	for _, r := range res.Accepted {
		if err := e.matcher.Add(r); err != nil {
			// validation compiled it already
			e.logger.Error().Err(err).Str("rule", r.Name).Msg("accepted rule failed to compile")
			continue
		}
		e.accepted = append(e.accepted, r)
		consumed += e.tracker.Consume(r.Sources)
	}
	e.mu.Unlock()

	e.logger.Debug().Int("consumed", consumed).Msg("synthesis applied")
	for i := range res.Accepted {
		r := res.Accepted[i]
		e.observers.emit(Event{Kind: RuleAccepted, Rule: &r, Phrase: r.Name, Count: len(r.Sources)})
	}
	for _, rej := range res.Rejected {
		e.observers.emit(Event{Kind: RuleRejected, Phrase: rej.Name, Reason: rej.Reason})
	}
	return res, nil
}

// Synthesizing reports whether a synthesis run is in progress.
func (e *Engine) Synthesizing() bool { return e.synthesizing.Load() }

// Reanalyze rebuilds the tracker from a full transcript of generated
// messages on a background task and swaps the result in when it completes.
// Progress updates are passed to progress if it is non-nil. A cancelled run
// changes nothing. Reanalyze returns ErrSynthesisInProgress, discarding its
// result, if a synthesis run is active when it starts or when the new state
// would be swapped in.
func (e *Engine) Reanalyze(ctx context.Context, messages []string, progress func(bulk.Progress)) (bulk.Result, error) {
	if e.synthesizing.Load() {
		return bulk.Result{}, internalerr.ErrSynthesisInProgress
	}
	task := bulk.Start(ctx, messages, bulk.Options{
		Tracker:       e.trackerOpts,
		PruneInterval: e.bulkPruneInterval,
		Logger:        e.logger,
	})
	for p := range task.Progress() {
		if progress != nil {
			progress(p)
		}
	}
	res, err := task.Wait()
	if err != nil {
		return res, err
	}

	// hold the synthesis guard so no run consumes against the old state
	if !e.synthesizing.CompareAndSwap(false, true) {
		return bulk.Result{}, internalerr.ErrSynthesisInProgress
	}
	e.mu.Lock()
	e.tracker.Restore(res.State)
	e.mu.Unlock()
	e.synthesizing.Store(false)

	e.observers.emit(Event{Kind: StateReplaced, Count: res.Processed})
	return res, nil
}

// Save writes the tracker state, accepted rules and current leaderboard to
// the blob store.
func (e *Engine) Save(ctx context.Context) error {
	if e.snapshots == nil {
		return fmt.Errorf("%w: no store configured", internalerr.ErrStoreUnavailable)
	}
	board := e.Leaderboard()

	e.mu.Lock()
	snap := snapshot.Snapshot{
		ConversationID: e.id,
		State:          e.tracker.State(),
		Rules:          append([]rules.Rule(nil), e.accepted...),
		Leaderboard:    &board,
	}
	e.mu.Unlock()

	return e.snapshots.Save(ctx, snap)
}

// Load replaces the engine state with the stored snapshot. It reports
// false when no usable snapshot exists: a missing snapshot leaves the engine
// as it was, a corrupt one empties the tracker. Accepted rules are kept in
// the corrupt case.
func (e *Engine) Load(ctx context.Context) (bool, error) {
	if e.snapshots == nil {
		return false, fmt.Errorf("%w: no store configured", internalerr.ErrStoreUnavailable)
	}
	snap, status, err := e.snapshots.Read(ctx, e.id)
	if err != nil {
		return false, err
	}
	switch status {
	case snapshot.Missing:
		return false, nil
	case snapshot.Corrupt:
		e.mu.Lock()
		e.tracker.Restore(ngram.State{})
		e.mu.Unlock()
		e.observers.emit(Event{Kind: StateReplaced})
		return false, nil
	}

	e.mu.Lock()
	e.tracker.Restore(snap.State)
	e.accepted = append([]rules.Rule(nil), snap.Rules...)
	e.matcher.Reset(e.accepted)
	e.mu.Unlock()

	e.observers.emit(Event{Kind: StateReplaced, Count: snap.State.MessageCount})
	return true, nil
}

// AcceptedRules returns the rules accepted so far.
func (e *Engine) AcceptedRules() []rules.Rule {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]rules.Rule(nil), e.accepted...)
}

// ExportRules writes the accepted rules through w.
func (e *Engine) ExportRules(ctx context.Context, w rules.RuleWriter) error {
	exp := rules.Exporter{Writer: w}
	return exp.Export(ctx, e.AcceptedRules())
}

// Candidates returns the current candidate phrases, sorted.
func (e *Engine) Candidates() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.Candidates().Members()
}

// Lookup returns the record for a lemmatized phrase.
func (e *Engine) Lookup(key string) (ngram.Record, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.Lookup(key)
}

// Stats summarizes engine state.
type Stats struct {
	Messages   int
	Records    int
	Candidates int
	Rules      int
}

// Stats returns counters for the tracked conversation.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		Messages:   e.tracker.MessageCount(),
		Records:    e.tracker.Len(),
		Candidates: e.tracker.Candidates().Len(),
		Rules:      len(e.accepted),
	}
}
