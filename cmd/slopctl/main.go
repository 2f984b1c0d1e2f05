// Command slopctl analyzes chat transcripts for repeated phrasing and
// synthesizes replacement rules from the results.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cognicore/slopwatch/internal/llm"
	"github.com/cognicore/slopwatch/pkg/slopwatch"
	"github.com/cognicore/slopwatch/pkg/slopwatch/config"
	"github.com/cognicore/slopwatch/pkg/slopwatch/store"
	"github.com/cognicore/slopwatch/pkg/slopwatch/synth"
)

// GeneratorFactory builds the generation backend from configuration.
type GeneratorFactory func(cfg config.LLM) (synth.Generator, error)

// DefaultGeneratorFactory selects an internal/llm backend.
func DefaultGeneratorFactory(cfg config.LLM) (synth.Generator, error) {
	if cfg.APIKey == "" && cfg.Provider != "http" {
		return nil, fmt.Errorf("API key not set. Put llm.api_key in the config file or set %s", config.APIKeyEnv)
	}
	return llm.New(llm.Config{
		Provider:  cfg.Provider,
		BaseURL:   cfg.BaseURL,
		Model:     cfg.Model,
		APIKey:    cfg.APIKey,
		MaxTokens: cfg.MaxTokens,
		Timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
	})
}

// app holds global flags and injectable dependencies.
type app struct {
	configPath   string
	conversation string
	logLevel     string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	generators GeneratorFactory
	logger     zerolog.Logger
}

func newApp() *app {
	return &app{
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		generators: DefaultGeneratorFactory,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "slopctl",
		Short:         "slopctl - detect repeated prose and synthesize replacement rules",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setupLogger()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	root.PersistentFlags().StringVar(&a.conversation, "conversation", "default", "Conversation id")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newAnalyzeCmd(a),
		newLeaderboardCmd(a),
		newSynthesizeCmd(a),
		newWatchCmd(a),
	)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	return root
}

func (a *app) setupLogger() error {
	level, err := zerolog.ParseLevel(a.logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", a.logLevel, err)
	}
	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: a.stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
	return nil
}

// buildEngine loads configuration, opens the snapshot store and creates an
// engine for the selected conversation. withGenerator also builds the
// generation backend.
func (a *app) buildEngine(ctx context.Context, cfg config.Config, withGenerator bool) (*slopwatch.Engine, func(), error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	cleanup := func() {
		if err := st.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("close store")
		}
	}
	if cfg.Store.Driver == "" || cfg.Store.Driver == "memory" {
		a.logger.Warn().Msg("memory store selected; snapshots will not outlive this process")
	}

	var gen synth.Generator
	if withGenerator {
		if gen, err = a.generators(cfg.LLM); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	engine, err := slopwatch.NewFromConfig(a.conversation, cfg, gen, st, a.logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return engine, cleanup, nil
}

func (a *app) loadConfig() (config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := newApp()
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
