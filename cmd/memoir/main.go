package main

import (
	"os"

	"github.com/memoir-dev/memoir/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
