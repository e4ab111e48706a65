package commands

import (
	"github.com/spf13/cobra"

	"github.com/clearplan/planrag/internal/storage"
)

func newVersionCmd(version, buildTime string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("planrag %s\n", version)
			cmd.Printf("Built: %s\n", buildTime)
			cmd.Printf("Build mode: %s (driver: %s)\n", storage.BuildMode, storage.DriverName)
			if storage.VectorExtensionAvailable {
				cmd.Println("Vector search: native (sqlite-vec)")
			} else {
				cmd.Println("Vector search: in-process scan")
			}
		},
	}
}
