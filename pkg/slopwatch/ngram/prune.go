package ngram

// Prune ages out records not seen for more than PruneWindow messages.
// Stale records still below the slop threshold are deleted (and leave the
// candidate set); stale records at or above it decay by DecayFactor.
// It returns the number of deleted records.
func (t *Tracker) Prune(current int) int {
	pruned, decayed := 0, 0
	for key, rec := range t.table {
		if current-rec.LastSeen <= t.cfg.PruneWindow {
			continue
		}
		if rec.Score < t.cfg.SlopThreshold {
			delete(t.table, key)
			t.candidates.Remove(key)
			pruned++
			continue
		}
		rec.Score *= t.cfg.DecayFactor
		decayed++
	}

	t.logger.Debug().
		Int("message", current).
		Int("pruned", pruned).
		Int("decayed", decayed).
		Int("remaining", len(t.table)).
		Msg("ngram prune")
	return pruned
}

// PruneAggressive deletes every record whose score is below BulkMaxScore and
// whose count is below BulkMaxCount, regardless of age. It suits one-shot
// batch passes over a whole history.
func (t *Tracker) PruneAggressive() int {
	pruned := 0
	for key, rec := range t.table {
		if rec.Score < t.cfg.BulkMaxScore && rec.Count < t.cfg.BulkMaxCount {
			delete(t.table, key)
			t.candidates.Remove(key)
			pruned++
		}
	}
	t.logger.Debug().Int("pruned", pruned).Int("remaining", len(t.table)).Msg("ngram aggressive prune")
	return pruned
}
