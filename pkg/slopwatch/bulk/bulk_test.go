package bulk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cognicore/slopwatch/pkg/slopwatch/ingest"
	"github.com/cognicore/slopwatch/pkg/slopwatch/lexicon"
	"github.com/cognicore/slopwatch/pkg/slopwatch/ngram"
	"github.com/cognicore/slopwatch/pkg/slopwatch/stoplist"
)

func transcript(n int) []string {
	msgs := make([]string, n)
	for i := range msgs {
		if i%2 == 0 {
			msgs[i] = "He felt a wave of sadness wash over him."
		} else {
			msgs[i] = "The lantern flickered once and went dark."
		}
	}
	return msgs
}

func TestTaskBuildsOwnState(t *testing.T) {
	msgs := transcript(10)
	task := Start(context.Background(), msgs, Options{})

	var last Progress
	for p := range task.Progress() {
		require.LessOrEqual(t, last.Processed, p.Processed)
		last = p
	}
	require.Equal(t, Progress{Processed: 10, Total: 10}, last)

	res, err := task.Wait()
	require.NoError(t, err)
	require.Equal(t, 10, res.Processed)
	require.Equal(t, 10, res.State.MessageCount)

	rec, ok := res.State.Records["felt a wave of"]
	require.True(t, ok)
	require.Equal(t, 5, rec.Count)

	// the sequential equivalent: observe everything, prune aggressively once
	cfg := ngram.DefaultConfig()
	cfg.PruneInterval = 0
	tr := ngram.New(ngram.Options{Config: cfg})
	for _, m := range msgs {
		tr.Observe(m)
	}
	tr.PruneAggressive()
	require.Equal(t, tr.State(), res.State)
}

func TestAggressivePruneDropsOneOffs(t *testing.T) {
	lex := lexicon.New()
	lex.AddCommon("it", "was", "in", "the")
	opts := Options{
		PruneInterval: 2,
		Tracker: ngram.Options{
			Tokenizer: ingest.NewTokenizer(lex),
			Stoplist:  stoplist.NewManager(lex, nil, nil),
		},
	}

	msgs := append(transcript(4), "It was in the rain.")
	res, err := Start(context.Background(), msgs, opts).Wait()
	require.NoError(t, err)

	// 1.875 after one sighting: below both bulk thresholds
	_, ok := res.State.Records["in the rain"]
	require.False(t, ok)
	_, ok = res.State.Records["was in the rain"]
	require.True(t, ok)
	require.Positive(t, res.Pruned)

	_, ok = res.State.Records["felt a wave of"]
	require.True(t, ok)
}

func TestCancelledTaskDiscardsState(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	task := Start(ctx, transcript(1000), Options{})
	res, err := task.Wait()
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, res.State.Records)

	_, open := <-task.Progress()
	require.False(t, open)
}

func TestCancelMidRun(t *testing.T) {
	task := Start(context.Background(), transcript(20000), Options{})
	<-task.Progress()
	task.Cancel()

	res, err := task.Wait()
	if err == nil {
		// finished before the cancel landed
		require.Equal(t, 20000, res.Processed)
		return
	}
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, res.Processed)
}
