package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/memoir-dev/memoir/internal/document"
	"github.com/memoir-dev/memoir/internal/importer"
	"github.com/memoir-dev/memoir/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import [document]",
		Short: "Import rules from a markdown document as memory records",
		Long:  "Extract top-level bullet rules from a document's manual content and store them as records. Defaults to the global target document.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runImport,
	}

	cmd.Flags().Bool("dry-run", false, "Show what would be imported without writing")
	cmd.Flags().String("project", "", "Import into this project's scope instead of global")

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	project, _ := cmd.Flags().GetString("project")

	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()

	path := cfg.TargetDoc
	if len(args) > 0 {
		path = args[0]
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		exitErr("import", err)
	}

	scope := model.Scope{Type: model.ScopeGlobal}
	if project != "" {
		scope = model.Scope{Type: model.ScopeProject, Path: project}
	}

	records := importer.Records(document.New(string(raw)), path, scope, cfg.ImportConfidence)
	if len(records) == 0 {
		fmt.Println("no importable rules found")
		return
	}

	if dryRun {
		fmt.Printf("[dry-run] would import %d record(s) from %s:\n", len(records), path)
		for _, m := range records {
			fmt.Printf("  [%s] %s\n", m.Type, m.Content.Title)
		}
		return
	}

	s := openStore(cfg, logger)
	created := 0
	for _, m := range records {
		if err := s.Create(m); err != nil {
			logger.Warn("import skipped record", zap.Error(err))
			continue
		}
		created++
	}
	fmt.Printf("imported %d of %d record(s) from %s\n", created, len(records), path)
}
