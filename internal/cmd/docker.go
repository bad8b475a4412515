package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mis-esta/OpenMetadata/internal/docker"
)

func newDockerCommand() *cobra.Command {
	var (
		start       bool
		stop        bool
		clean       bool
		composeFile string
	)

	cmd := &cobra.Command{
		Use:   "docker",
		Short: "Manages the local catalog docker stack",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger, _ := zap.NewDevelopment()
			defer logger.Sync()
			l := logger.Named("metadata.docker")

			compose := docker.New(
				docker.WithFile(composeFile),
				docker.WithLogger(l),
			)

			switch {
			case start:
				if err := compose.Start(ctx); err != nil {
					return err
				}
				fmt.Println("Catalog UI: http://localhost:8585 (admin/admin)")
				fmt.Println("Orchestration UI: http://localhost:8080")
				return nil
			case stop:
				return compose.Stop(ctx)
			case clean:
				return compose.Clean(ctx)
			default:
				return fmt.Errorf("one of --start, --stop or --clean is required")
			}
		},
	}

	cmd.Flags().BoolVar(&start, "start", false, "Start the docker stack and wait for the server")
	cmd.Flags().BoolVar(&stop, "stop", false, "Stop the docker stack")
	cmd.Flags().BoolVar(&clean, "clean", false, "Stop the stack and remove volumes")
	cmd.Flags().StringVarP(&composeFile, "file", "f", "", "Path to compose file")
	cmd.MarkFlagsMutuallyExclusive("start", "stop", "clean")

	return cmd
}
