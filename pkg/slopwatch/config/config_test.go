package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cognicore/slopwatch/pkg/slopwatch/internalerr"
	"github.com/cognicore/slopwatch/pkg/slopwatch/ngram"
	"github.com/cognicore/slopwatch/pkg/slopwatch/synth"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultMatchesComponentDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, ngram.DefaultConfig(), cfg.Tracker())
	require.Equal(t, synth.DefaultConfig(), cfg.Synth())
	require.Equal(t, 3, cfg.MergeOptions().MinCommonWords)
	require.Equal(t, 2000, cfg.MergeOptions().CandidateLimit)
	require.Equal(t, 500, cfg.Prune.BulkInterval)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	t.Setenv(APIKeyEnv, "from-env")
	path := writeFile(t, "slopwatch.yaml", `
ngram:
  max: 6
  slop_threshold: 4.5
prune:
  bulk_max_score: 1.5
synthesis:
  method: iterative
  prescreen: false
words:
  whitelist: [elara]
  blacklist:
    "shivers down": 2
store:
  driver: sqlite
  dsn: /tmp/slop.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.NGram.Min)
	require.Equal(t, 6, cfg.NGram.Max)
	require.Equal(t, 4.5, cfg.NGram.SlopThreshold)
	require.Equal(t, 1.5, cfg.Tracker().BulkMaxScore)
	require.Equal(t, 2, cfg.Tracker().BulkMaxCount)
	require.Equal(t, synth.MethodIterative, cfg.Synth().Method)
	require.False(t, cfg.Synth().PreScreen)
	require.Equal(t, []string{"elara"}, cfg.Words.Whitelist)
	require.Equal(t, 2.0, cfg.Words.Blacklist["shivers down"])
	require.Equal(t, "sqlite", cfg.Store.Driver)
	require.Equal(t, "from-env", cfg.LLM.APIKey)
}

func TestLoadKeepsFileAPIKey(t *testing.T) {
	t.Setenv(APIKeyEnv, "from-env")
	cfg, err := Load(writeFile(t, "c.yaml", "llm:\n  api_key: from-file\n"))
	require.NoError(t, err)
	require.Equal(t, "from-file", cfg.LLM.APIKey)
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load(writeFile(t, "bad.yaml", "ngram:\n  min: 5\n  max: 3\n"))
	require.ErrorIs(t, err, internalerr.ErrInvalidConfig)

	_, err = Load(writeFile(t, "broken.yaml", "ngram: [unclosed"))
	require.ErrorIs(t, err, internalerr.ErrInvalidConfig)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"decay zero":      func(c *Config) { c.Prune.DecayFactor = 0 },
		"decay above one": func(c *Config) { c.Prune.DecayFactor = 1.5 },
		"min zero":        func(c *Config) { c.NGram.Min = 0 },
		"method":          func(c *Config) { c.Synthesis.Method = "vibes" },
		"store":           func(c *Config) { c.Store.Driver = "redis" },
		"provider":        func(c *Config) { c.LLM.Provider = "carrier-pigeon" },
		"negative weight": func(c *Config) { c.Words.Blacklist = map[string]float64{"x": -1} },
		"cycles":          func(c *Config) { c.Synthesis.Cycles = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), internalerr.ErrInvalidConfig)
		})
	}
}

func TestLoaderBuildsComponents(t *testing.T) {
	cfg := Default()
	cfg.Words.Whitelist = []string{"elara"}
	cfg.Words.Blacklist = map[string]float64{"barely above a whisper": 2}

	comp, err := (&Loader{Config: cfg}).Load()
	require.NoError(t, err)
	require.Equal(t, "feel", comp.Lexicon.Lemma("felt"))
	require.True(t, comp.Stoplist.IsWhitelisted("elara"))
	require.Equal(t, 2.0, comp.Stoplist.BlacklistWeight("her voice barely above a whisper"))
	require.Equal(t, []string{"Hello there."}, comp.Normalizer.Normalize("<think>hidden</think>Hello there."))
	require.Equal(t, []string{"she", "feel"}, comp.Tokenizer.Tokenize("She felt").Lemmas)
}

func TestLoaderReadsLexiconFile(t *testing.T) {
	path := writeFile(t, "lexicon.yaml", `
lemmas:
  - lemma: glance
    forms: [glanced, glancing]
common: [the]
names: [elara]
`)
	cfg := Default()
	cfg.Words.LexiconPath = path

	comp, err := (&Loader{Config: cfg}).Load()
	require.NoError(t, err)
	require.Equal(t, "glance", comp.Lexicon.Lemma("glanced"))
	require.True(t, comp.Stoplist.IsWhitelisted("elara"))

	cfg.Words.LexiconPath = filepath.Join(t.TempDir(), "nope.yaml")
	_, err = (&Loader{Config: cfg}).Load()
	require.Error(t, err)
}
