package main

import (
	"os"

	"github.com/Grasinga/TimeTracker/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
