package ngram

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/cognicore/slopwatch/pkg/slopwatch/ingest"
	"github.com/cognicore/slopwatch/pkg/slopwatch/stoplist"
)

// Record is the frequency entry of one lemmatized n-gram.
type Record struct {
	Count        int     `json:"count"`
	Score        float64 `json:"score"`
	LastSeen     int     `json:"last_seen"`
	OriginalForm string  `json:"original_form"`
	Context      string  `json:"context"`
}

// Entry pairs a record with its lemmatized key.
type Entry struct {
	Key string `json:"key"`
	Record
}

// Config controls n-gram generation, scoring and pruning.
type Config struct {
	MinN int
	MaxN int

	SlopThreshold       float64
	LengthBonus         float64 // per word beyond MinN
	DistinctBonus       float64 // per non-whitelisted word
	NarrationMultiplier float64

	// PruneInterval runs the steady-state pruner every N observed messages (0 disables).
	PruneInterval int
	// PruneWindow is how many messages a record may go unseen before it is stale.
	PruneWindow int
	DecayFactor float64

	// Bulk policy: records below both limits are deleted outright.
	BulkMaxScore float64
	BulkMaxCount int
}

// DefaultConfig returns the standard scoring and pruning parameters.
func DefaultConfig() Config {
	return Config{
		MinN:                3,
		MaxN:                10,
		SlopThreshold:       3.0,
		LengthBonus:         0.2,
		DistinctBonus:       0.5,
		NarrationMultiplier: 1.25,
		PruneInterval:       20,
		PruneWindow:         20,
		DecayFactor:         0.9,
		BulkMaxScore:        2,
		BulkMaxCount:        2,
	}
}

// Skipper decides whether an n-gram is already handled by an accepted rule.
type Skipper interface {
	Skip(surface, lemma string) bool
}

// Options configures a Tracker.
type Options struct {
	Config     Config
	Normalizer *ingest.Normalizer
	Tokenizer  *ingest.Tokenizer
	Stoplist   *stoplist.Manager
	Skipper    Skipper
	// OnPromote is called with the lemmatized key each time a record crosses
	// the slop threshold and enters the candidate set.
	OnPromote func(key string)
	Logger    zerolog.Logger
}

// Tracker owns the n-gram frequency table and the candidate set of one
// conversation. It is not safe for concurrent use.
type Tracker struct {
	cfg        Config
	normalizer *ingest.Normalizer
	tokenizer  *ingest.Tokenizer
	words      *stoplist.Manager
	skip       Skipper
	onPromote  func(string)
	logger     zerolog.Logger

	table      map[string]*Record
	candidates *CandidateSet
	messages   int
}

// New creates a tracker. Missing collaborators get empty defaults.
func New(opts Options) *Tracker {
	cfg := opts.Config
	if cfg.MinN <= 0 {
		cfg = DefaultConfig()
	}
	t := &Tracker{
		cfg:        cfg,
		normalizer: opts.Normalizer,
		tokenizer:  opts.Tokenizer,
		words:      opts.Stoplist,
		skip:       opts.Skipper,
		onPromote:  opts.OnPromote,
		logger:     opts.Logger,
		table:      make(map[string]*Record),
		candidates: NewCandidateSet(),
	}
	if t.normalizer == nil {
		t.normalizer = ingest.NewNormalizer(nil)
	}
	if t.tokenizer == nil {
		t.tokenizer = ingest.NewTokenizer(nil)
	}
	if t.words == nil {
		t.words = stoplist.NewManager(nil, nil, nil)
	}
	return t
}

// Config returns the tracker's configuration.
func (t *Tracker) Config() Config { return t.cfg }

// SetSkipper replaces the accepted-rule matcher.
func (t *Tracker) SetSkipper(s Skipper) { t.skip = s }

// ObserveResult reports what one observed message changed.
type ObserveResult struct {
	Index    int
	Promoted []string
	Pruned   int
}

// Observe analyzes one generated message. The message counter advances even
// when the message has no words.
func (t *Tracker) Observe(text string) ObserveResult {
	t.messages++
	res := ObserveResult{Index: t.messages}

	for _, sentence := range t.normalizer.Normalize(text) {
		res.Promoted = append(res.Promoted, t.observeSentence(sentence)...)
	}

	if t.cfg.PruneInterval > 0 && t.messages%t.cfg.PruneInterval == 0 {
		res.Pruned = t.Prune(t.messages)
	}
	return res
}

// observeSentence upserts every n-gram of one sentence. N-grams never cross
// sentence boundaries because each sentence is tokenized on its own.
func (t *Tracker) observeSentence(sentence string) []string {
	tokens := t.tokenizer.Tokenize(sentence)
	if tokens.Len() < t.cfg.MinN {
		return nil
	}

	multiplier := 1.0
	if ingest.Classify(sentence) == ingest.Narration {
		multiplier = t.cfg.NarrationMultiplier
	}

	var promoted []string
	for n := t.cfg.MinN; n <= t.cfg.MaxN && n <= tokens.Len(); n++ {
		for i := 0; i+n <= tokens.Len(); i++ {
			words := tokens.Words[i : i+n]
			surface := strings.Join(words, " ")
			key := strings.Join(tokens.Lemmas[i:i+n], " ")

			if t.skip != nil && t.skip.Skip(surface, key) {
				continue
			}
			if t.lowQuality(words) {
				continue
			}

			inc := t.score(n, words, surface) * multiplier
			if t.upsert(key, surface, sentence, inc) {
				promoted = append(promoted, key)
			}
		}
	}
	return promoted
}

func (t *Tracker) lowQuality(words []string) bool {
	return len(words) < t.cfg.MinN || t.words.AllWhitelisted(words)
}

// score computes the unmultiplied increment for one n-gram occurrence.
func (t *Tracker) score(n int, words []string, surface string) float64 {
	s := 1.0
	s += t.cfg.LengthBonus * float64(n-t.cfg.MinN)
	s += t.cfg.DistinctBonus * float64(t.words.Distinctive(words))
	s += t.words.BlacklistWeight(surface)
	return s
}

// upsert applies one observation and reports whether it promoted the key
// into the candidate set.
func (t *Tracker) upsert(key, surface, sentence string, inc float64) bool {
	rec, ok := t.table[key]
	if !ok {
		rec = &Record{}
		t.table[key] = rec
	}
	before := rec.Score
	rec.Count++
	rec.Score += inc
	rec.LastSeen = t.messages
	rec.OriginalForm = surface
	rec.Context = sentence

	if before >= t.cfg.SlopThreshold || rec.Score < t.cfg.SlopThreshold {
		return false
	}
	if !t.candidates.Insert(key) {
		return false
	}
	if t.onPromote != nil {
		t.onPromote(key)
	}
	return true
}

// Consume zeroes the records matching the given phrases and drops them from
// the candidate set. A record matches when its lemmatized key or its surface
// form equals a phrase or is a sub-phrase of one, so the shorter n-grams a
// phrase was built from do not resurface once it is handled. Records are kept
// so their last-seen bookkeeping still drives pruning.
func (t *Tracker) Consume(phrases []string) int {
	var sources []string
	for _, p := range phrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			sources = append(sources, p)
		}
	}
	if len(sources) == 0 {
		return 0
	}

	n := 0
	for key, rec := range t.table {
		if !coveredBy(sources, key) && !coveredBy(sources, rec.OriginalForm) {
			continue
		}
		rec.Score = 0
		t.candidates.Remove(key)
		n++
	}
	return n
}

func coveredBy(sources []string, phrase string) bool {
	for _, src := range sources {
		if ContainsPhrase(src, phrase) {
			return true
		}
	}
	return false
}

// Lookup returns a copy of the record for a lemmatized key.
func (t *Tracker) Lookup(key string) (Record, bool) {
	rec, ok := t.table[key]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Entries returns a copy of the table.
func (t *Tracker) Entries() []Entry {
	out := make([]Entry, 0, len(t.table))
	for key, rec := range t.table {
		out = append(out, Entry{Key: key, Record: *rec})
	}
	return out
}

// Len returns the number of records.
func (t *Tracker) Len() int { return len(t.table) }

// Candidates returns the candidate set. Callers must not mutate it.
func (t *Tracker) Candidates() *CandidateSet { return t.candidates }

// MessageCount returns how many messages have been observed.
func (t *Tracker) MessageCount() int { return t.messages }

// State is the serializable form of a tracker.
type State struct {
	Records      map[string]Record `json:"records"`
	Candidates   []string          `json:"candidates"`
	MessageCount int               `json:"message_count"`
}

// State returns a deep copy of the tracker's table, candidates and counter.
func (t *Tracker) State() State {
	records := make(map[string]Record, len(t.table))
	for key, rec := range t.table {
		records[key] = *rec
	}
	return State{
		Records:      records,
		Candidates:   t.candidates.Members(),
		MessageCount: t.messages,
	}
}

// Restore replaces the tracker's state. Candidates are re-inserted so the
// dominance invariant holds even for hand-edited state.
func (t *Tracker) Restore(s State) {
	t.table = make(map[string]*Record, len(s.Records))
	for key, rec := range s.Records {
		r := rec
		t.table[key] = &r
	}
	t.candidates = NewCandidateSet()
	for _, c := range s.Candidates {
		t.candidates.Insert(c)
	}
	t.messages = s.MessageCount
}
