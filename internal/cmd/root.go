package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "metadata",
		Short: "Metadata ingestion for the catalog server",
		Long: `metadata extracts metadata from data sources and publishes it
to a catalog server, and manages the local docker stack.`,
	}

	cmd.AddCommand(newIngestCommand())
	cmd.AddCommand(newDockerCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
