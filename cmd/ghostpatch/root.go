package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tsellier/ghostpatch/config"
	"github.com/tsellier/ghostpatch/engine"
	"github.com/tsellier/ghostpatch/engine/save"
	"github.com/tsellier/ghostpatch/loader"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFile    string
	contentDir string
	seed       int64
)

var rootCmd = &cobra.Command{
	Use:   "ghostpatch",
	Short: "A narrative debugging game: lay the ghosts of a haunted codebase to rest",
	Long: `ghostpatch drops you into a haunted codebase where every ghost is a
software anti-pattern. Talk to them, generate patches, and decide what to
apply — keeping the system stable while your insight grows.

Commands:
  play      Play in the terminal (TUI, plain, or scripted)
  serve     Serve the game to browser clients over a websocket
  simulate  Run one patch through the simulation pipeline
  validate  Load and validate a content directory
  version   Show version information`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "ghostpatch.toml", "Config file path")
	rootCmd.PersistentFlags().StringVar(&contentDir, "content", "", "Content directory (overrides config)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "Ambience seed (0 = time-based)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ghostpatch %s (commit %s, built %s)\n", version, commit, date)
	},
}

// loadSetup resolves config, logger, and compiled content for a subcommand.
func loadSetup() (config.Config, zerolog.Logger, *loader.Defs, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, zerolog.Nop(), nil, err
	}
	if contentDir != "" {
		cfg.ContentDir = contentDir
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger()

	defs, err := loader.Load(cfg.ContentDir)
	if err != nil {
		return config.Config{}, zerolog.Nop(), nil, fmt.Errorf("loading content: %w", err)
	}
	return cfg, log, defs, nil
}

// buildEngine assembles an engine from resolved config and content.
func buildEngine(cfg config.Config, defs *loader.Defs, log zerolog.Logger) *engine.Engine {
	s := seed
	if s == 0 {
		s = timeSeed()
	}
	return engine.New(defs, engine.Options{
		Accessibility: cfg.Accessibility,
		Performance:   cfg.Performance,
		Store:         save.DirStore{Dir: cfg.SaveDir},
		Seed:          s,
	}, log)
}
