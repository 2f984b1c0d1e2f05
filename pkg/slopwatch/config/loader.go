package config

import (
	"fmt"

	"github.com/cognicore/slopwatch/pkg/slopwatch/ingest"
	"github.com/cognicore/slopwatch/pkg/slopwatch/lexicon"
	"github.com/cognicore/slopwatch/pkg/slopwatch/stoplist"
)

// Loader loads the word tables a config points at and constructs components
type Loader struct {
	Config Config
}

// Components holds the text-processing components built from a config
type Components struct {
	Lexicon    *lexicon.Lexicon
	Stoplist   *stoplist.Manager
	Normalizer *ingest.Normalizer
	Tokenizer  *ingest.Tokenizer
}

// Load reads the lexicon (embedded default when no path is set) and returns
// initialized components
func (l *Loader) Load() (*Components, error) {
	comp := &Components{}

	if path := l.Config.Words.LexiconPath; path != "" {
		lex, err := lexicon.LoadFromYAML(path)
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
		comp.Lexicon = lex
	} else {
		comp.Lexicon = lexicon.Default()
	}

	comp.Stoplist = stoplist.NewManager(comp.Lexicon, l.Config.Words.Whitelist, l.Config.Words.Blacklist)
	comp.Normalizer = ingest.NewNormalizer(l.Config.Normalizer.StripTags)
	comp.Tokenizer = ingest.NewTokenizer(comp.Lexicon)
	return comp, nil
}
