package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/memoir-dev/memoir/internal/promote"
)

func init() {
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Review promotion candidates and merge approved ones into the document",
		Run:   runPromote,
	}

	cmd.Flags().Bool("dry-run", false, "Walk the review without writing anything")
	cmd.Flags().Bool("auto", false, "Add clean candidates without prompting; leave the rest")
	cmd.Flags().String("scope", "", "Filter by scope: global or project")
	cmd.Flags().String("project", "", "Project path (with --scope project)")

	RootCmd.AddCommand(cmd)
}

func runPromote(cmd *cobra.Command, args []string) {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	auto, _ := cmd.Flags().GetBool("auto")
	scope, project := scopeArgs(cmd)

	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()
	s := openStore(cfg, logger)

	decider := newStdinDecider(cmd.InOrStdin(), cmd.OutOrStdout())
	wf := newWorkflow(s, cfg, decider, logger)

	res, err := wf.Run(promote.Options{
		Scope:       scope,
		ProjectPath: project,
		DryRun:      dryRun,
		Auto:        auto,
	})
	if err != nil {
		exitErr("promote", err)
	}

	switch res.Outcome {
	case promote.OutcomeNoCandidates:
		fmt.Println("no promotion candidates")
	case promote.OutcomeQuit:
		fmt.Printf("stopped: %d added (%d developed), %d denied, %d kept, %d errors, %d remaining\n",
			res.Added, res.Developed, res.Denied, res.Kept, res.Errors, res.Remaining)
		os.Exit(3)
	default:
		fmt.Printf("done: %d added (%d developed), %d denied, %d kept, %d errors\n",
			res.Added, res.Developed, res.Denied, res.Kept, res.Errors)
	}
}
