package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "decay",
		Short: "Apply time decay to all records",
		Run:   runDecay,
	}

	cmd.Flags().Bool("dry-run", false, "Report what would change without writing")

	RootCmd.AddCommand(cmd)
}

func runDecay(cmd *cobra.Command, args []string) {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()
	s := openStore(cfg, logger)

	stats, err := newEngine(s, cfg, logger).Decay(dryRun)
	if err != nil {
		exitErr("decay", err)
	}

	prefix := ""
	if dryRun {
		prefix = "[dry-run] "
	}
	fmt.Printf("%sprocessed %d: %d decayed, %d archived, %d unchanged, %d errors\n",
		prefix, stats.Processed, stats.Decayed, stats.Archived, stats.Unchanged, stats.Errors)
}
