// Package bulk re-analyzes a whole conversation off the caller's goroutine.
//
// A Task builds its own tracker from scratch and hands back the final state
// as a value; nothing is shared with a live engine, and a cancelled task
// returns no state at all.
package bulk

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/cognicore/slopwatch/pkg/slopwatch/ngram"
)

// DefaultPruneInterval is how many messages pass between aggressive prunes.
const DefaultPruneInterval = 500

// Progress reports how far a task has got.
type Progress struct {
	Processed int
	Total     int
}

// Options configures a task.
type Options struct {
	// Tracker configures the task's private tracker. OnPromote is ignored and
	// steady-state pruning is replaced by the aggressive policy.
	Tracker       ngram.Options
	PruneInterval int
	Logger        zerolog.Logger
}

// Result is the owned outcome of a finished task.
type Result struct {
	State     ngram.State
	Processed int
	Pruned    int
	Elapsed   time.Duration
}

// Task is a running re-analysis.
type Task struct {
	progress chan Progress
	done     chan struct{}
	cancel   context.CancelFunc

	result Result
	err    error
}

// Start launches re-analysis of messages. The slice is not retained past
// the task's lifetime and must not be modified while it runs.
func Start(ctx context.Context, messages []string, opts Options) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		progress: make(chan Progress, 1),
		done:     make(chan struct{}),
		cancel:   cancel,
	}
	go t.run(ctx, messages, opts)
	return t
}

// Progress returns a channel of progress updates. Slow readers only see the
// latest update. The channel closes when the task finishes.
func (t *Task) Progress() <-chan Progress { return t.progress }

// Done is closed when the task finishes.
func (t *Task) Done() <-chan struct{} { return t.done }

// Cancel stops the task; Wait then returns the context error.
func (t *Task) Cancel() { t.cancel() }

// Wait blocks until the task finishes.
func (t *Task) Wait() (Result, error) {
	<-t.done
	return t.result, t.err
}

func (t *Task) run(ctx context.Context, messages []string, opts Options) {
	defer close(t.done)
	defer close(t.progress)
	defer t.cancel()

	started := time.Now()
	interval := opts.PruneInterval
	if interval <= 0 {
		interval = DefaultPruneInterval
	}

	trOpts := opts.Tracker
	trOpts.OnPromote = nil
	trOpts.Logger = opts.Logger
	cfg := trOpts.Config
	if cfg.MinN <= 0 {
		cfg = ngram.DefaultConfig()
	}
	cfg.PruneInterval = 0
	trOpts.Config = cfg
	tr := ngram.New(trOpts)

	var pruned int
	total := len(messages)
	for i, msg := range messages {
		if err := ctx.Err(); err != nil {
			opts.Logger.Debug().Int("processed", i).Int("total", total).Msg("bulk analysis cancelled")
			t.err = err
			return
		}
		tr.Observe(msg)
		if (i+1)%interval == 0 {
			pruned += tr.PruneAggressive()
		}
		t.report(Progress{Processed: i + 1, Total: total})
	}
	pruned += tr.PruneAggressive()

	t.result = Result{
		State:     tr.State(),
		Processed: total,
		Pruned:    pruned,
		Elapsed:   time.Since(started),
	}
	opts.Logger.Debug().Int("messages", total).Int("records", tr.Len()).Int("pruned", pruned).Msg("bulk analysis finished")
}

// report replaces any unread update with p.
func (t *Task) report(p Progress) {
	select {
	case t.progress <- p:
		return
	default:
	}
	select {
	case <-t.progress:
	default:
	}
	t.progress <- p
}
