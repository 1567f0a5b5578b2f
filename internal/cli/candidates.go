package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/memoir-dev/memoir/internal/merge"
	"github.com/memoir-dev/memoir/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "List records eligible for promotion",
		Run:   runCandidates,
	}

	cmd.Flags().String("scope", "", "Filter by scope: global or project")
	cmd.Flags().String("project", "", "Project path (with --scope project)")

	RootCmd.AddCommand(cmd)
}

func scopeArgs(cmd *cobra.Command) (model.ScopeType, string) {
	scope, _ := cmd.Flags().GetString("scope")
	project, _ := cmd.Flags().GetString("project")
	return model.ScopeType(scope), project
}

func runCandidates(cmd *cobra.Command, args []string) {
	scope, project := scopeArgs(cmd)

	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()
	s := openStore(cfg, logger)
	wf := newWorkflow(s, cfg, nil, logger)

	cands, err := wf.Candidates(scope, project)
	if err != nil {
		exitErr("candidates", err)
	}
	if len(cands) == 0 {
		fmt.Println("no promotion candidates")
		return
	}

	fmt.Printf("%d promotion candidate(s):\n\n", len(cands))
	for _, m := range cands {
		c := wf.Preview(m)
		fmt.Printf("  %s  [%s] %s\n", m.ID, m.Type, m.Content.Title)
		fmt.Printf("      confidence %.2f, ratio %.2f -> %s\n",
			m.Metadata.Confidence, m.PositiveRatio(), c.TargetPath)
		if c.Duplicate.Kind != merge.MatchNew {
			fmt.Printf("      warning: %s duplicate of %q\n", c.Duplicate.Kind, c.Duplicate.Title)
		}
		for _, o := range c.Overlaps {
			fmt.Printf("      overlaps %q (%s)\n", o.Section, strings.Join(o.Keywords, ", "))
		}
	}
}
