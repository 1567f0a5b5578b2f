package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Exit 1 if promotion candidates exist",
		Long:  "Quiet probe for scripting: prints the candidate count and exits 1 when any exist, 0 otherwise.",
		Run:   runCheck,
	}

	cmd.Flags().String("scope", "", "Filter by scope: global or project")
	cmd.Flags().String("project", "", "Project path (with --scope project)")

	RootCmd.AddCommand(cmd)
}

func runCheck(cmd *cobra.Command, args []string) {
	scope, project := scopeArgs(cmd)

	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()
	s := openStore(cfg, logger)

	cands, err := newWorkflow(s, cfg, nil, logger).Candidates(scope, project)
	if err != nil {
		exitErr("check", err)
	}

	fmt.Printf("%d candidate(s)\n", len(cands))
	if len(cands) > 0 {
		os.Exit(1)
	}
}
