package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mis-esta/OpenMetadata/internal/config"
	"github.com/mis-esta/OpenMetadata/internal/workflow"
)

func newIngestCommand() *cobra.Command {
	var configPath string
	var reportAddr string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Runs an ingestion workflow. Metadata is read from the source and published to the sink.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger, _ := zap.NewDevelopment()
			defer logger.Sync()
			l := logger.Named("metadata.ingest")

			c, err := config.NewWorkflowFromFile(configPath)
			if err != nil {
				return err
			}

			wf, err := config.InitializeWorkflow(c, l)
			if err != nil {
				return err
			}

			if reportAddr == "" {
				reportAddr = c.ReportAddr
			}
			if reportAddr != "" {
				server := workflow.NewServer(l.Named("server"))
				server.Register(wf)
				go func() {
					if err := server.Start(ctx, reportAddr); err != nil {
						l.Error("status server failed", zap.Error(err))
					}
				}()
			}

			if err := wf.Run(ctx); err != nil {
				return err
			}

			report := wf.Report()
			fmt.Print(report.Summary())

			if report.Failed() {
				return fmt.Errorf("workflow finished with failures")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to workflow config file")
	cmd.Flags().StringVar(&reportAddr, "report-addr", "", "Serve live workflow status on this address while ingesting")
	cmd.MarkFlagRequired("config")

	return cmd
}
