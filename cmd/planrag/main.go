package main

import (
	"fmt"
	"os"

	"github.com/clearplan/planrag/cmd/planrag/commands"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	root := commands.NewRootCmd(version, buildTime)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
