package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Process new entries from the feedback log",
		Long:  "Apply feedback log entries recorded since the last run, advancing the watermark.",
		Run:   runFeedback,
	}

	RootCmd.AddCommand(cmd)
}

func runFeedback(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()
	s := openStore(cfg, logger)

	stats, err := newEngine(s, cfg, logger).ProcessFeedback()
	if err != nil {
		exitErr("feedback", err)
	}

	fmt.Printf("processed %d entries: %d errors, %d corrections created\n",
		stats.Processed, stats.Errors, stats.CorrectionsCreated)
}
