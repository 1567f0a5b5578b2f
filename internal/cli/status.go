package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/memoir-dev/memoir/internal/document"
	"github.com/memoir-dev/memoir/internal/model"
	"github.com/memoir-dev/memoir/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Summarize the store and the target document",
		Run:   runStatus,
	}

	RootCmd.AddCommand(cmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()
	s := openStore(cfg, logger)

	records, err := s.List(store.ListParams{})
	if err != nil {
		exitErr("status", err)
	}

	byStatus := map[model.Status]int{}
	projects := map[string]bool{}
	for _, m := range records {
		byStatus[m.Metadata.Status]++
		if m.Scope.Type == model.ScopeProject {
			projects[m.Scope.Path] = true
		}
	}

	fmt.Printf("store: %s\n", s.Root())
	fmt.Printf("  %d record(s), %d project(s)\n", len(records), len(projects))
	for _, st := range []model.Status{model.StatusActive, model.StatusUnderReview, model.StatusArchived, model.StatusSuperseded} {
		if n := byStatus[st]; n > 0 {
			fmt.Printf("  %-12s %d\n", st, n)
		}
	}

	cands, err := newWorkflow(s, cfg, nil, logger).Candidates("", "")
	if err != nil {
		exitErr("status", err)
	}
	fmt.Printf("  %d promotion candidate(s)\n", len(cands))

	fmt.Printf("document: %s\n", cfg.TargetDoc)
	raw, err := os.ReadFile(cfg.TargetDoc)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("  not created yet")
			return
		}
		exitErr("status", err)
	}
	doc := document.New(string(raw))
	fmt.Printf("  %d section(s)", len(doc.Sections()))
	if n := len(doc.ManagedRegions()); n > 0 {
		fmt.Printf(", %d legacy managed region(s)", n)
	}
	fmt.Println()
}
