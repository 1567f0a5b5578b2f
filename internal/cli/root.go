// Package cli implements the memoir CLI commands.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/memoir-dev/memoir/internal/confidence"
	"github.com/memoir-dev/memoir/internal/config"
	"github.com/memoir-dev/memoir/internal/logging"
	"github.com/memoir-dev/memoir/internal/promote"
	"github.com/memoir-dev/memoir/internal/store"
)

var (
	storeFlag  string
	docFlag    string
	configFlag string
	verbose    bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "memoir",
	Short: "Confidence-tracked memory records with document promotion",
	Long: "memoir keeps memory records on disk, adjusts their confidence from\n" +
		"feedback, decays stale ones, and promotes proven records into a\n" +
		"markdown document after review.",
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&storeFlag, "store", "s", "", "Store directory (default: $MEMOIR_STORE_ROOT or ~/.memoir)")
	RootCmd.PersistentFlags().StringVar(&docFlag, "doc", "", "Global target document (default: ~/.claude/CLAUDE.md)")
	RootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Config file (default: ~/.memoir/config.yaml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

func loadConfig() *config.Config {
	cfg, err := config.Load(configFlag)
	if err != nil {
		exitErr("load config", err)
	}
	if storeFlag != "" {
		cfg.StoreRoot = storeFlag
	}
	if docFlag != "" {
		cfg.TargetDoc = docFlag
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg
}

func newLogger(cfg *config.Config) *zap.Logger {
	return logging.New(cfg.LogLevel, cfg.LogFormat)
}

func openStore(cfg *config.Config, logger *zap.Logger) *store.Store {
	s, err := store.Open(cfg.StoreRoot, logger)
	if err != nil {
		exitErr("open store", err)
	}
	return s
}

func newEngine(s *store.Store, cfg *config.Config, logger *zap.Logger) *confidence.Engine {
	return confidence.NewEngine(s, confidence.Config{
		Floor:                cfg.MinConfidence,
		CorrectionConfidence: cfg.CorrectionConfidence,
	}, logger)
}

func newWorkflow(s *store.Store, cfg *config.Config, decider promote.Decider, logger *zap.Logger) *promote.Workflow {
	return promote.NewWorkflow(s, promote.Config{
		GlobalDoc:        cfg.TargetDoc,
		KeepCooldown:     time.Duration(cfg.KeepCooldownDays) * 24 * time.Hour,
		MinConfidence:    cfg.PromoteConfidence,
		MinPositiveRatio: cfg.PromotePositiveRatio,
	}, decider, logger)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
