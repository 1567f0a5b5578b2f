package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "maintain",
		Short: "Run full maintenance: feedback processing, then decay",
		Run:   runMaintain,
	}

	cmd.Flags().Bool("dry-run", false, "Report decay changes without writing")

	RootCmd.AddCommand(cmd)
}

func runMaintain(cmd *cobra.Command, args []string) {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()
	s := openStore(cfg, logger)
	eng := newEngine(s, cfg, logger)

	fb, err := eng.ProcessFeedback()
	if err != nil {
		exitErr("maintain: feedback", err)
	}
	fmt.Printf("feedback: %d entries, %d errors, %d corrections\n",
		fb.Processed, fb.Errors, fb.CorrectionsCreated)

	dc, err := eng.Decay(dryRun)
	if err != nil {
		exitErr("maintain: decay", err)
	}
	prefix := ""
	if dryRun {
		prefix = "[dry-run] "
	}
	fmt.Printf("%sdecay: %d processed, %d decayed, %d archived, %d unchanged, %d errors\n",
		prefix, dc.Processed, dc.Decayed, dc.Archived, dc.Unchanged, dc.Errors)
}
