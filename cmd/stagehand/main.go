package main

import (
	"os"

	"github.com/stagehand-sh/stagehand/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
