package cmd

import (
	"context"
	"fmt"

	"placement-excluder/core/bus"
	"placement-excluder/core/config"
	"placement-excluder/core/logger"
	"placement-excluder/feature/pipeline"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runSheetID string

// runCmd dispatches one pipeline run and exits. The run itself executes on
// the service started with 'start'.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Trigger a pipeline run",
	Long: `Publishes the accounts stage message for a configuration sheet.

The sheet id comes from --sheet-id or, when omitted, from the
PIPELINE_SHEET_ID configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		l, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer l.Sync()

		sheetID := runSheetID
		if sheetID == "" {
			sheetID = cfg.Pipeline.SheetID
		}
		if sheetID == "" {
			return fmt.Errorf("no sheet id: pass --sheet-id or set PIPELINE_SHEET_ID")
		}

		messageBus, err := bus.New(cfg.Bus, l)
		if err != nil {
			return fmt.Errorf("failed to connect to message bus: %w", err)
		}
		defer messageBus.Close()

		msg := pipeline.Message{
			Stage:   pipeline.StageAccounts,
			RunID:   uuid.New().String(),
			SheetID: sheetID,
		}
		if err := messageBus.Publish(context.Background(), pipeline.StageAccounts.Topic(), msg); err != nil {
			return fmt.Errorf("failed to dispatch run: %w", err)
		}

		l.Info("Dispatched pipeline run",
			zap.String("run_id", msg.RunID),
			zap.String("sheet_id", sheetID))
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runSheetID, "sheet-id", "", "Configuration sheet to run")
	RootCmd.AddCommand(runCmd)
}
