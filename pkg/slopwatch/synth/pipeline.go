package synth

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cognicore/slopwatch/pkg/slopwatch/internalerr"
	"github.com/cognicore/slopwatch/pkg/slopwatch/merge"
	"github.com/cognicore/slopwatch/pkg/slopwatch/rules"
)

// Generator is the external text-generation capability.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, system, user string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}

// Method selects the synthesis protocol.
type Method string

const (
	MethodSinglePass Method = "single"
	MethodIterative  Method = "iterative"
)

// ParseMethod maps a config or flag value to a Method.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case "", MethodSinglePass, "single-pass":
		return MethodSinglePass, nil
	case MethodIterative, "two-role":
		return MethodIterative, nil
	}
	return "", fmt.Errorf("%w: unknown synthesis method %q", internalerr.ErrInvalidInput, s)
}

// Config controls batch sizes and the protocol.
type Config struct {
	Method             Method
	PreScreen          bool
	PreScreenBatchSize int
	SynthesisBatchSize int
	MinAlternatives    int
	Cycles             int
}

// DefaultConfig returns the standard pipeline settings.
func DefaultConfig() Config {
	return Config{
		Method:             MethodSinglePass,
		PreScreen:          true,
		PreScreenBatchSize: 50,
		SynthesisBatchSize: 15,
		MinAlternatives:    rules.DefaultMinAlternatives,
		Cycles:             2,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Method == "" {
		c.Method = d.Method
	}
	if c.PreScreenBatchSize <= 0 {
		c.PreScreenBatchSize = d.PreScreenBatchSize
	}
	if c.SynthesisBatchSize <= 0 {
		c.SynthesisBatchSize = d.SynthesisBatchSize
	}
	if c.MinAlternatives <= 0 {
		c.MinAlternatives = d.MinAlternatives
	}
	if c.Cycles <= 0 {
		c.Cycles = d.Cycles
	}
	return c
}

// Candidate is one leaderboard entry offered for synthesis. Members lists the
// surface phrases it stands for.
type Candidate struct {
	Phrase  string   `json:"candidate"`
	Context string   `json:"context,omitempty"`
	Score   float64  `json:"score"`
	Members []string `json:"members,omitempty"`
}

// Flatten merges patterns and remaining phrases into one list sorted by
// descending score.
func Flatten(board merge.Leaderboard) []Candidate {
	out := make([]Candidate, 0, board.Len())
	for _, p := range board.Merged {
		out = append(out, Candidate{Phrase: p.Text, Context: p.Context, Score: p.Score, Members: append([]string(nil), p.Members...)})
	}
	for _, p := range board.Remaining {
		out = append(out, Candidate{Phrase: p.Text, Context: p.Context, Score: p.Score, Members: []string{p.Text}})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Rejection records a proposed rule that failed validation.
type Rejection struct {
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
	Reason  string `json:"reason"`
}

// Result is the outcome of one synthesis run.
type Result struct {
	RunID    string
	Batch    []Candidate
	Screened int
	Accepted []rules.Rule
	Rejected []Rejection
}

// Options configures a Pipeline.
type Options struct {
	Generator Generator
	Config    Config
	Prompts   Prompts
	Logger    zerolog.Logger
	Now       func() time.Time
}

// Pipeline turns leaderboard entries into validated rules.
type Pipeline struct {
	gen       Generator
	cfg       Config
	prompts   Prompts
	validator rules.Validator
	logger    zerolog.Logger
}

// New builds a pipeline. A generator is required.
func New(opts Options) (*Pipeline, error) {
	if opts.Generator == nil {
		return nil, fmt.Errorf("%w: synthesis requires a generator", internalerr.ErrInvalidInput)
	}
	cfg := opts.Config.withDefaults()
	if _, err := ParseMethod(string(cfg.Method)); err != nil {
		return nil, err
	}
	return &Pipeline{
		gen:       opts.Generator,
		cfg:       cfg,
		prompts:   opts.Prompts.withDefaults(),
		validator: rules.Validator{MinAlternatives: cfg.MinAlternatives, Now: opts.Now},
		logger:    opts.Logger,
	}, nil
}

// Config returns the effective settings.
func (p *Pipeline) Config() Config { return p.cfg }

// Run synthesizes rules for the top of the leaderboard. Transport failures
// are returned wrapped in internalerr.ErrGeneration; malformed output and
// invalid rules are logged and yield fewer rules instead.
func (p *Pipeline) Run(ctx context.Context, board merge.Leaderboard) (Result, error) {
	res := Result{RunID: rules.NewID()}
	log := p.logger.With().Str("run", res.RunID).Logger()

	cands := Flatten(board)
	if len(cands) > p.cfg.PreScreenBatchSize {
		cands = cands[:p.cfg.PreScreenBatchSize]
	}
	if len(cands) == 0 {
		return res, nil
	}

	if p.cfg.PreScreen {
		kept, err := p.prescreen(ctx, log, cands)
		if err != nil {
			return res, err
		}
		res.Screened = len(cands) - len(kept)
		cands = kept
	}
	if len(cands) > p.cfg.SynthesisBatchSize {
		cands = cands[:p.cfg.SynthesisBatchSize]
	}
	res.Batch = cands
	if len(cands) == 0 {
		return res, nil
	}

	var (
		props []proposal
		err   error
	)
	switch p.cfg.Method {
	case MethodIterative:
		props, err = p.iterative(ctx, log, cands)
	default:
		props, err = p.singlePass(ctx, log, cands)
	}
	if err != nil {
		return res, err
	}

	for _, prop := range props {
		rule, verr := p.validator.Validate(prop.rule())
		if verr != nil {
			rej := Rejection{Name: prop.name(), Pattern: prop.pattern(), Reason: verr.Error()}
			var ve *rules.ValidationError
			if errors.As(verr, &ve) {
				rej.Reason = ve.Reason
			}
			log.Warn().Str("rule", rej.Name).Str("pattern", rej.Pattern).Str("reason", rej.Reason).Msg("rule discarded")
			res.Rejected = append(res.Rejected, rej)
			continue
		}
		rule.Sources = resolveSources(prop, rule, cands)
		res.Accepted = append(res.Accepted, rule)
	}
	log.Info().Int("batch", len(cands)).Int("accepted", len(res.Accepted)).Int("rejected", len(res.Rejected)).Msg("synthesis finished")
	return res, nil
}

type verdict struct {
	Candidate         string `json:"candidate"`
	ValidForSynthesis *bool  `json:"validForSynthesis"`
	EnhancedContext   string `json:"enhancedContext"`
	Reason            string `json:"reason"`
}

// prescreen drops candidates the screener marks invalid. Any failure short of
// cancellation keeps the whole batch.
func (p *Pipeline) prescreen(ctx context.Context, log zerolog.Logger, cands []Candidate) ([]Candidate, error) {
	raw, err := p.gen.Generate(ctx, p.prompts.Screen, screenPrompt(cands))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Warn().Err(err).Msg("pre-screen failed, accepting all candidates")
		return cands, nil
	}
	verdicts, ok := decodeList[verdict](raw)
	if !ok {
		log.Warn().Msg("pre-screen response unparsable, accepting all candidates")
		return cands, nil
	}

	byPhrase := make(map[string]verdict, len(verdicts))
	for _, v := range verdicts {
		byPhrase[normalizePhrase(v.Candidate)] = v
	}

	kept := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		v, found := byPhrase[normalizePhrase(c.Phrase)]
		if found && v.ValidForSynthesis != nil && !*v.ValidForSynthesis {
			log.Debug().Str("candidate", c.Phrase).Str("reason", v.Reason).Msg("candidate screened out")
			continue
		}
		if found && strings.TrimSpace(v.EnhancedContext) != "" {
			c.Context = strings.TrimSpace(v.EnhancedContext)
		}
		kept = append(kept, c)
	}
	return kept, nil
}

func (p *Pipeline) singlePass(ctx context.Context, log zerolog.Logger, cands []Candidate) ([]proposal, error) {
	raw, err := p.gen.Generate(ctx, p.system(p.prompts.Single), singlePrompt(cands, p.cfg.MinAlternatives))
	if err != nil {
		return nil, generationError(ctx, err)
	}
	props, ok := decodeList[proposal](raw)
	if !ok {
		log.Warn().Int("bytes", len(raw)).Msg("synthesis response unparsable")
		return nil, nil
	}
	return props, nil
}

// iterative alternates creative and technical calls per candidate. A failed
// call skips its candidate; the run fails only when every candidate failed.
func (p *Pipeline) iterative(ctx context.Context, log zerolog.Logger, cands []Candidate) ([]proposal, error) {
	var (
		props   []proposal
		lastErr error
		failed  int
	)
	for _, c := range cands {
		if err := ctx.Err(); err != nil {
			return nil, generationError(ctx, err)
		}
		prop, ok, err := p.refine(ctx, c)
		if err != nil {
			if ctx.Err() != nil {
				return nil, generationError(ctx, err)
			}
			log.Warn().Err(err).Str("candidate", c.Phrase).Msg("iterative synthesis failed for candidate")
			lastErr = err
			failed++
			continue
		}
		if !ok {
			log.Warn().Str("candidate", c.Phrase).Msg("final technical response unparsable")
			continue
		}
		props = append(props, prop)
	}
	if failed == len(cands) && lastErr != nil {
		return nil, generationError(ctx, lastErr)
	}
	return props, nil
}

func (p *Pipeline) refine(ctx context.Context, c Candidate) (proposal, bool, error) {
	var creative, technical string
	for cycle := 1; cycle <= p.cfg.Cycles; cycle++ {
		var err error
		creative, err = p.gen.Generate(ctx, p.system(p.prompts.Creative), creativePrompt(c, technical, cycle, p.cfg.MinAlternatives))
		if err != nil {
			return proposal{}, false, err
		}
		final := cycle == p.cfg.Cycles
		technical, err = p.gen.Generate(ctx, p.system(p.prompts.Technical), technicalPrompt(c, creative, cycle, final, p.cfg.MinAlternatives))
		if err != nil {
			return proposal{}, false, err
		}
	}
	props, ok := decodeList[proposal](technical)
	if !ok || len(props) == 0 {
		return proposal{}, false, nil
	}
	prop := props[0]
	if len(prop.Sources) == 0 {
		prop.Sources = append([]string(nil), c.Members...)
	}
	return prop, true, nil
}

func (p *Pipeline) system(tmpl string) string {
	if strings.Contains(tmpl, "%d") {
		return fmt.Sprintf(tmpl, p.cfg.MinAlternatives)
	}
	return tmpl
}

func generationError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = fmt.Errorf("%v: %w", err, ctxErr)
	}
	return fmt.Errorf("%w: %w", internalerr.ErrGeneration, err)
}

func normalizePhrase(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.Trim(s, "\"' "))), " ")
}
