package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/slopwatch/pkg/slopwatch/bulk"
	"github.com/cognicore/slopwatch/pkg/slopwatch/internalerr"
	"github.com/cognicore/slopwatch/pkg/slopwatch/merge"
	"github.com/cognicore/slopwatch/pkg/slopwatch/ngram"
	"github.com/cognicore/slopwatch/pkg/slopwatch/synth"
)

// APIKeyEnv overrides llm.api_key when the file leaves it empty.
const APIKeyEnv = "SLOPWATCH_API_KEY"

// Config is the full engine configuration.
type Config struct {
	NGram      NGram      `yaml:"ngram"`
	Prune      Prune      `yaml:"prune"`
	Merge      Merge      `yaml:"merge"`
	Synthesis  Synthesis  `yaml:"synthesis"`
	Normalizer Normalizer `yaml:"normalizer"`
	Words      Words      `yaml:"words"`
	Store      Store      `yaml:"store"`
	LLM        LLM        `yaml:"llm"`
}

// NGram controls n-gram generation and scoring.
type NGram struct {
	Min                 int     `yaml:"min"`
	Max                 int     `yaml:"max"`
	SlopThreshold       float64 `yaml:"slop_threshold"`
	LengthBonus         float64 `yaml:"length_bonus"`
	DistinctBonus       float64 `yaml:"distinct_bonus"`
	NarrationMultiplier float64 `yaml:"narration_multiplier"`
}

// Prune controls both pruning policies.
type Prune struct {
	Interval     int     `yaml:"interval"`
	Window       int     `yaml:"window"`
	DecayFactor  float64 `yaml:"decay_factor"`
	BulkMaxScore float64 `yaml:"bulk_max_score"`
	BulkMaxCount int     `yaml:"bulk_max_count"`
	BulkInterval int     `yaml:"bulk_prune_interval"`
}

// Merge controls the pattern merger.
type Merge struct {
	MinCommonWords int `yaml:"min_common_words"`
	CandidateLimit int `yaml:"candidate_limit"`
}

// Synthesis controls the rule synthesis pipeline.
type Synthesis struct {
	Method             string `yaml:"method"`
	PreScreen          bool   `yaml:"prescreen"`
	PreScreenBatchSize int    `yaml:"prescreen_batch_size"`
	BatchSize          int    `yaml:"batch_size"`
	MinAlternatives    int    `yaml:"min_alternatives"`
	Cycles             int    `yaml:"cycles"`
}

// Normalizer lists the tags whose content is dropped.
type Normalizer struct {
	StripTags []string `yaml:"strip_tags"`
}

// Words holds the lexicon location and user word lists.
type Words struct {
	LexiconPath string             `yaml:"lexicon"`
	Whitelist   []string           `yaml:"whitelist"`
	Blacklist   map[string]float64 `yaml:"blacklist"`
}

// Store selects the snapshot backend.
type Store struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// LLM selects the generation backend.
type LLM struct {
	Provider       string `yaml:"provider"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"api_key"`
	MaxTokens      int    `yaml:"max_tokens"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Default returns the standard configuration.
func Default() Config {
	ng := ngram.DefaultConfig()
	sy := synth.DefaultConfig()
	return Config{
		NGram: NGram{
			Min:                 ng.MinN,
			Max:                 ng.MaxN,
			SlopThreshold:       ng.SlopThreshold,
			LengthBonus:         ng.LengthBonus,
			DistinctBonus:       ng.DistinctBonus,
			NarrationMultiplier: ng.NarrationMultiplier,
		},
		Prune: Prune{
			Interval:     ng.PruneInterval,
			Window:       ng.PruneWindow,
			DecayFactor:  ng.DecayFactor,
			BulkMaxScore: ng.BulkMaxScore,
			BulkMaxCount: ng.BulkMaxCount,
			BulkInterval: bulk.DefaultPruneInterval,
		},
		Merge: Merge{
			MinCommonWords: merge.DefaultMinCommonWords,
			CandidateLimit: merge.DefaultCandidateLimit,
		},
		Synthesis: Synthesis{
			Method:             string(sy.Method),
			PreScreen:          sy.PreScreen,
			PreScreenBatchSize: sy.PreScreenBatchSize,
			BatchSize:          sy.SynthesisBatchSize,
			MinAlternatives:    sy.MinAlternatives,
			Cycles:             sy.Cycles,
		},
		Store: Store{Driver: "memory"},
		LLM: LLM{
			Provider:       "openai",
			Model:          "gpt-4o-mini",
			MaxTokens:      4096,
			TimeoutSeconds: 120,
		},
	}
}

// Load reads a YAML file over the defaults, applies the API key from the
// environment if the file has none, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: parse %s: %v", internalerr.ErrInvalidConfig, path, err)
		}
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv(APIKeyEnv)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects inconsistent settings.
func (c Config) Validate() error {
	var problems []string
	check := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	check(c.NGram.Min >= 1, "ngram.min must be at least 1")
	check(c.NGram.Max >= c.NGram.Min, "ngram.max must not be below ngram.min")
	check(c.NGram.SlopThreshold > 0, "ngram.slop_threshold must be positive")
	check(c.NGram.LengthBonus >= 0 && c.NGram.DistinctBonus >= 0, "ngram bonuses must not be negative")
	check(c.NGram.NarrationMultiplier > 0, "ngram.narration_multiplier must be positive")
	check(c.Prune.Interval >= 0, "prune.interval must not be negative")
	check(c.Prune.Window >= 0, "prune.window must not be negative")
	check(c.Prune.DecayFactor > 0 && c.Prune.DecayFactor <= 1, "prune.decay_factor must be in (0, 1]")
	check(c.Prune.BulkInterval >= 0, "prune.bulk_prune_interval must not be negative")
	check(c.Merge.MinCommonWords >= 1, "merge.min_common_words must be at least 1")
	check(c.Merge.CandidateLimit >= 1, "merge.candidate_limit must be at least 1")
	check(c.Synthesis.PreScreenBatchSize >= 1 && c.Synthesis.BatchSize >= 1, "synthesis batch sizes must be positive")
	check(c.Synthesis.MinAlternatives >= 1, "synthesis.min_alternatives must be at least 1")
	check(c.Synthesis.Cycles >= 1, "synthesis.cycles must be at least 1")
	if _, err := synth.ParseMethod(c.Synthesis.Method); err != nil {
		problems = append(problems, "synthesis.method must be single or iterative")
	}
	for term, w := range c.Words.Blacklist {
		check(w >= 0, fmt.Sprintf("blacklist weight for %q must not be negative", term))
	}
	switch c.Store.Driver {
	case "", "memory", "sqlite", "postgres", "pgx":
	default:
		problems = append(problems, fmt.Sprintf("unknown store.driver %q", c.Store.Driver))
	}
	switch c.LLM.Provider {
	case "", "openai", "anthropic", "http":
	default:
		problems = append(problems, fmt.Sprintf("unknown llm.provider %q", c.LLM.Provider))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", internalerr.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Tracker returns the n-gram tracker settings.
func (c Config) Tracker() ngram.Config {
	return ngram.Config{
		MinN:                c.NGram.Min,
		MaxN:                c.NGram.Max,
		SlopThreshold:       c.NGram.SlopThreshold,
		LengthBonus:         c.NGram.LengthBonus,
		DistinctBonus:       c.NGram.DistinctBonus,
		NarrationMultiplier: c.NGram.NarrationMultiplier,
		PruneInterval:       c.Prune.Interval,
		PruneWindow:         c.Prune.Window,
		DecayFactor:         c.Prune.DecayFactor,
		BulkMaxScore:        c.Prune.BulkMaxScore,
		BulkMaxCount:        c.Prune.BulkMaxCount,
	}
}

// MergeOptions returns the merger settings.
func (c Config) MergeOptions() merge.Options {
	return merge.Options{
		MinCommonWords: c.Merge.MinCommonWords,
		CandidateLimit: c.Merge.CandidateLimit,
	}
}

// Synth returns the pipeline settings.
func (c Config) Synth() synth.Config {
	method, _ := synth.ParseMethod(c.Synthesis.Method)
	return synth.Config{
		Method:             method,
		PreScreen:          c.Synthesis.PreScreen,
		PreScreenBatchSize: c.Synthesis.PreScreenBatchSize,
		SynthesisBatchSize: c.Synthesis.BatchSize,
		MinAlternatives:    c.Synthesis.MinAlternatives,
		Cycles:             c.Synthesis.Cycles,
	}
}
