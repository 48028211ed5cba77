package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"placement-excluder/core/config"
	"placement-excluder/core/logger"
	"placement-excluder/core/storage"
	"placement-excluder/core/warehouse"
	"placement-excluder/feature/ads"
	"placement-excluder/feature/filter"
	"placement-excluder/feature/reconcile"
	"placement-excluder/feature/sheets"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the exclude command
	excludeCustomerID string
	excludeSheetID    string
	dryRunExclude     bool
	yesConfirm        bool
)

// excludeCmd runs the terminal stage directly for one account: reconcile,
// apply, record. Useful for operating on a single account without a full run.
var excludeCmd = &cobra.Command{
	Use:   "exclude",
	Short: "Reconcile and exclude spam placements for one account",
	Long: `Reconcile the account's placement report against the exclusion history
and add the strictly-new spam placements to the shared exclusion list.

Examples:
  # Report only (dry-run)
  exclude --customer-id 1234567890 --sheet-id config-prod --dry-run

  # Apply with interactive confirmation
  exclude --customer-id 1234567890 --sheet-id config-prod

  # Apply with auto-confirm (non-interactive)
  exclude --customer-id 1234567890 --sheet-id config-prod --yes`,
	RunE: runExclude,
}

func init() {
	excludeCmd.Flags().StringVar(&excludeCustomerID, "customer-id", "", "Account to reconcile (required)")
	excludeCmd.Flags().StringVar(&excludeSheetID, "sheet-id", "", "Configuration sheet holding the exclusion filters")
	excludeCmd.Flags().BoolVar(&dryRunExclude, "dry-run", false, "Report the batch without applying it")
	excludeCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm the exclusion (non-interactive)")
	_ = excludeCmd.MarkFlagRequired("customer-id")

	RootCmd.AddCommand(excludeCmd)
}

func runExclude(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	sheetID := excludeSheetID
	if sheetID == "" {
		sheetID = cfg.Pipeline.SheetID
	}
	if sheetID == "" {
		return fmt.Errorf("no sheet id: pass --sheet-id or set PIPELINE_SHEET_ID")
	}

	l.Info("Starting exclusion reconciliation",
		zap.String("customer_id", excludeCustomerID))

	// Connect to storage and warehouse
	store, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}
	wh, err := warehouse.Connect(cfg.Warehouse)
	if err != nil {
		return fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	defer wh.Close()

	// Compile the exclusion filters from the configuration sheet
	source := sheets.NewObjectSource(store, cfg.Storage.Bucket)
	rows, err := source.Rows(ctx, sheetID, sheets.RangeExclusionFilters)
	if err != nil {
		return fmt.Errorf("failed to read exclusion filters: %w", err)
	}
	predicate := filter.Compile(rows)

	// Step 1: Reconcile (always runs)
	engine := reconcile.NewEngine(wh, l)
	placements, err := engine.NewExclusions(ctx, excludeCustomerID, predicate)
	if errors.Is(err, reconcile.ErrNothingToUpdate) {
		l.Info("No new spam placements. Nothing to do.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	// Step 2: Print the batch
	printExclusionBatch(l, placements)

	if dryRunExclude {
		l.Info("Dry-run mode: No changes were made.")
		return nil
	}

	// Step 3: Confirm
	if !confirmDestructiveAction() {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	// Step 4: Apply, then record history
	adsClient := ads.NewClient(cfg.Ads)
	result, err := adsClient.ApplyExclusions(ctx, excludeCustomerID, placements)
	if err != nil {
		return fmt.Errorf("failed to apply exclusions: %w", err)
	}
	if result.ValidateOnly {
		l.Info("Validate-only mode: exclusions validated, history untouched",
			zap.Int("placements", result.Applied))
		return nil
	}

	cid, err := reconcile.ValidateCustomerID(excludeCustomerID)
	if err != nil {
		return err
	}
	excludedAt := time.Now()
	records := make([]reconcile.ExclusionRecord, 0, len(placements))
	for _, placement := range placements {
		records = append(records, reconcile.ExclusionRecord{
			CustomerID: cid,
			Placement:  placement,
			ExcludedAt: excludedAt,
		})
	}
	if err := wh.Append(ctx, reconcile.HistoryTable, reconcile.HistoryColumns, reconcile.HistoryRows(records)); err != nil {
		return fmt.Errorf("failed to record exclusion history: %w", err)
	}

	l.Info("Successfully excluded placements", zap.Int("count", len(placements)))
	return nil
}

// printExclusionBatch prints the batch using the logger, sampling at most 5
// placements.
func printExclusionBatch(l *zap.Logger, placements []string) {
	l.Info("Exclusion batch", zap.Int("placements", len(placements)))

	maxShow := 5
	if len(placements) < maxShow {
		maxShow = len(placements)
	}
	for i := 0; i < maxShow; i++ {
		l.Info("Sample placement", zap.String("placement", placements[i]))
	}
	if len(placements) > maxShow {
		l.Info("Additional placements not shown", zap.Int("count", len(placements)-maxShow))
	}
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to confirm the exclusion: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(response)
	return response == "yes"
}
