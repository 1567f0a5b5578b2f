package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "decisions",
		Short: "Show promotion decision history",
		Run:   runDecisions,
	}

	cmd.Flags().IntP("limit", "l", 20, "Max entries, most recent first")

	RootCmd.AddCommand(cmd)
}

func runDecisions(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()
	s := openStore(cfg, logger)

	all, err := s.Decisions()
	if err != nil {
		exitErr("decisions", err)
	}
	if len(all) == 0 {
		fmt.Println("no decisions recorded")
		return
	}

	shown := 0
	for i := len(all) - 1; i >= 0 && shown < limit; i-- {
		d := all[i]
		line := fmt.Sprintf("%s  %-14s %s", d.Timestamp.Format("2006-01-02 15:04"), d.Decision, d.MemoryID)
		if d.Developed {
			line += " (developed)"
		}
		if d.Reason != "" {
			line += "  " + d.Reason
		}
		fmt.Println(line)
		shown++
	}
}
