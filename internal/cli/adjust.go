package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/memoir-dev/memoir/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "adjust <memory-id> <outcome>",
		Short: "Adjust a record's confidence for one outcome",
		Long:  "Apply an outcome (accepted, rejected, superseded) to a record, with an optional extra delta.",
		Args:  cobra.ExactArgs(2),
		Run:   runAdjust,
	}

	cmd.Flags().Float64("delta", 0, "Additional confidence delta applied after the outcome")

	RootCmd.AddCommand(cmd)
}

func runAdjust(cmd *cobra.Command, args []string) {
	delta, _ := cmd.Flags().GetFloat64("delta")
	outcome := model.Outcome(args[1])
	if !model.ValidOutcomes[outcome] {
		exitErr("adjust", fmt.Errorf("unknown outcome %q", args[1]))
	}

	cfg := loadConfig()
	logger := newLogger(cfg)
	defer logger.Sync()
	s := openStore(cfg, logger)

	m, err := newEngine(s, cfg, logger).Adjust(args[0], outcome, delta)
	if err != nil {
		exitErr("adjust", err)
	}

	b, _ := json.MarshalIndent(m, "", "  ")
	fmt.Println(string(b))
}
