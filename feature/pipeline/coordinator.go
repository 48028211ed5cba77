package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"placement-excluder/core/storage"
	"placement-excluder/core/tracking"
	"placement-excluder/core/warehouse"
	"placement-excluder/feature/ads"
	"placement-excluder/feature/enrich"
	"placement-excluder/feature/filter"
	"placement-excluder/feature/reconcile"
	"placement-excluder/feature/sheets"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// DefaultLookbackDays is used when the configuration sheet does not set a
// report window.
const DefaultLookbackDays = 30

// MessageBus publishes stage messages. Satisfied by core/bus.
type MessageBus interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Deps are the collaborators a coordinator drives. Reporter and Mutator are
// separate so tests can fail one side independently.
type Deps struct {
	Bus       MessageBus
	Sheets    sheets.Source
	Warehouse *warehouse.Client
	Storage   storage.Client
	Bucket    string
	Fetcher   *enrich.Fetcher
	Engine    *reconcile.Engine
	Reporter  ads.Reporter
	Mutator   ads.Mutator
	Tracker   *tracking.Recorder
	Logger    *zap.Logger

	// Now is the clock for report windows and history timestamps. Nil means
	// time.Now.
	Now func() time.Time
}

// Coordinator runs the pipeline stages. Each stage is a bus handler: it
// executes from its message alone and publishes the message for the next
// stage, so a crash at any point is recovered by redelivery.
type Coordinator struct {
	deps Deps
}

// NewCoordinator wires a coordinator.
func NewCoordinator(deps Deps) *Coordinator {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Coordinator{deps: deps}
}

// Handler returns the bus handler for one stage. Configuration errors are
// fatal for that account's run and are swallowed after logging: redelivery
// cannot fix a bad customer id or an empty filter set. Every other error is
// returned so the bus re-delivers.
func (c *Coordinator) Handler(stage Stage) func(ctx context.Context, payload []byte) error {
	return func(ctx context.Context, payload []byte) error {
		msg, err := DecodeMessage(payload)
		if err != nil {
			c.deps.Logger.Error("Dropping invalid stage message",
				zap.String("stage", string(stage)), zap.Error(err))
			return nil
		}
		if msg.Stage != stage {
			c.deps.Logger.Error("Dropping message routed to wrong stage",
				zap.String("expected", string(stage)),
				zap.String("got", string(msg.Stage)))
			return nil
		}

		err = c.run(ctx, msg)
		if err == nil {
			return nil
		}
		if reconcile.IsConfigurationError(err) {
			c.deps.Logger.Error("Halting run for account, configuration is unrunnable",
				zap.String("stage", string(stage)),
				zap.String("customer_id", msg.CustomerID),
				zap.Error(err))
			c.record(ctx, msg, tracking.StatusFailed, err.Error(), 0)
			return nil
		}
		c.record(ctx, msg, tracking.StatusFailed, err.Error(), 0)
		return err
	}
}

func (c *Coordinator) run(ctx context.Context, msg Message) error {
	switch msg.Stage {
	case StageAccounts:
		return c.runAccounts(ctx, msg)
	case StageReport:
		return c.runReport(ctx, msg)
	case StageEnrich:
		return c.runEnrich(ctx, msg)
	case StageExclude:
		return c.runExclude(ctx, msg)
	default:
		return fmt.Errorf("unknown stage %q", msg.Stage)
	}
}

// runAccounts reads the configuration sheet, compiles both filter sets once,
// and fans out one report message per enabled account. Accounts are
// independent from here on: a failure in one run never touches another.
func (c *Coordinator) runAccounts(ctx context.Context, msg Message) error {
	if msg.RunID == "" {
		msg.RunID = uuid.New().String()
	}
	l := c.deps.Logger.With(zap.String("run_id", msg.RunID))

	accountRows, err := c.deps.Sheets.Rows(ctx, msg.SheetID, sheets.RangeCustomerIDs)
	if err != nil {
		return err
	}

	reportRows, err := c.deps.Sheets.Rows(ctx, msg.SheetID, sheets.RangeReportFilters)
	if err != nil {
		return err
	}
	exclusionRows, err := c.deps.Sheets.Rows(ctx, msg.SheetID, sheets.RangeExclusionFilters)
	if err != nil {
		return err
	}
	msg.ReportFilters = string(filter.Compile(reportRows))
	msg.ExclusionFilters = string(filter.Compile(exclusionRows))
	msg.LookbackDays = c.lookbackDays(ctx, msg.SheetID)

	customerIDs := enabledAccounts(accountRows)
	l.Info("Fanning out report stage",
		zap.Int("accounts", len(customerIDs)),
		zap.Int("skipped", len(accountRows)-len(customerIDs)),
		zap.Int("lookback_days", msg.LookbackDays))

	for _, customerID := range customerIDs {
		next := msg.Next(StageReport)
		next.CustomerID = customerID
		if err := c.deps.Bus.Publish(ctx, StageReport.Topic(), next); err != nil {
			return fmt.Errorf("failed to dispatch report stage for customer %s: %w", customerID, err)
		}
	}

	c.record(ctx, msg, tracking.StatusSucceeded, "", len(customerIDs))
	return nil
}

// runReport pulls the placement performance report and replaces the
// customer's report table with it. A report with zero rows ends the run for
// this account: there is nothing to enrich or exclude.
func (c *Coordinator) runReport(ctx context.Context, msg Message) error {
	cid, err := reconcile.ValidateCustomerID(msg.CustomerID)
	if err != nil {
		return err
	}
	l := c.deps.Logger.With(
		zap.String("run_id", msg.RunID),
		zap.Int64("customer_id", cid))

	now := c.deps.Now()
	from, to := ads.QueryDates(msg.LookbackDays, now)
	query := ads.ReportQuery(filter.Predicate(msg.ReportFilters), from, to)

	records, err := c.deps.Reporter.PlacementReport(ctx, msg.CustomerID, query)
	if err != nil {
		return fmt.Errorf("report download failed for customer %d: %w", cid, err)
	}

	if len(records) == 0 {
		l.Info("Report is empty, run complete for account")
		c.record(ctx, msg, tracking.StatusSkipped, "empty report", 0)
		return nil
	}

	table := reconcile.ReportTable(cid)
	if err := c.deps.Warehouse.Replace(ctx, table, reconcile.ReportColumns, reportRows(records, now)); err != nil {
		return err
	}
	l.Info("Replaced placement report", zap.Int("rows", len(records)))

	c.snapshotReport(ctx, msg, records, now)

	c.record(ctx, msg, tracking.StatusSucceeded, "", len(records))
	return c.deps.Bus.Publish(ctx, StageEnrich.Topic(), msg.Next(StageEnrich))
}

// runEnrich looks up metadata for report placements the metadata table does
// not know yet and appends it. The exclude message is published even when
// nothing was pending, since exclusion depends on the report and the
// accumulated metadata, not on this run's additions.
func (c *Coordinator) runEnrich(ctx context.Context, msg Message) error {
	l := c.deps.Logger.With(
		zap.String("run_id", msg.RunID),
		zap.String("customer_id", msg.CustomerID))

	pending, err := c.deps.Engine.PendingMetadata(ctx, msg.CustomerID)
	if err != nil {
		return err
	}

	if len(pending) == 0 {
		l.Info("No placements pending metadata")
	} else {
		metadata, err := c.deps.Fetcher.Fetch(ctx, pending, c.translateTitles(ctx, msg.SheetID))
		if err != nil {
			return fmt.Errorf("metadata lookup failed for customer %s: %w", msg.CustomerID, err)
		}
		now := c.deps.Now()
		if err := c.deps.Warehouse.Append(ctx, reconcile.MetadataTable, reconcile.MetadataColumns, metadataRows(metadata, now)); err != nil {
			return err
		}
		l.Info("Appended channel metadata", zap.Int("rows", len(metadata)))
	}

	c.record(ctx, msg, tracking.StatusSucceeded, "", len(pending))
	return c.deps.Bus.Publish(ctx, StageExclude.Topic(), msg.Next(StageExclude))
}

// runExclude reconciles the report against the exclusion history, applies
// the strictly-new batch to the ad platform, and only after that call
// succeeds appends the batch to history. A crash between the two leaves
// history behind the platform; the retry re-applies (harmlessly) and then
// writes history, so history never claims an exclusion that did not happen.
func (c *Coordinator) runExclude(ctx context.Context, msg Message) error {
	cid, err := reconcile.ValidateCustomerID(msg.CustomerID)
	if err != nil {
		return err
	}
	l := c.deps.Logger.With(
		zap.String("run_id", msg.RunID),
		zap.Int64("customer_id", cid))

	placements, err := c.deps.Engine.NewExclusions(ctx, msg.CustomerID, filter.Predicate(msg.ExclusionFilters))
	if errors.Is(err, reconcile.ErrNothingToUpdate) {
		l.Info("No new spam placements, run complete for account")
		c.record(ctx, msg, tracking.StatusSkipped, "nothing to update", 0)
		return nil
	}
	if err != nil {
		return err
	}

	result, err := c.deps.Mutator.ApplyExclusions(ctx, msg.CustomerID, placements)
	if err != nil {
		return fmt.Errorf("exclusion mutate failed for customer %d: %w", cid, err)
	}

	if result.ValidateOnly {
		l.Info("Validate-only run, history untouched", zap.Int("placements", result.Applied))
		c.record(ctx, msg, tracking.StatusSucceeded, "validate only", result.Applied)
		return nil
	}

	excludedAt := c.deps.Now()
	records := make([]reconcile.ExclusionRecord, 0, len(placements))
	for _, placement := range placements {
		records = append(records, reconcile.ExclusionRecord{
			CustomerID: cid,
			Placement:  placement,
			ExcludedAt: excludedAt,
		})
	}
	if err := c.deps.Warehouse.Append(ctx, reconcile.HistoryTable, reconcile.HistoryColumns, reconcile.HistoryRows(records)); err != nil {
		return err
	}

	l.Info("Excluded spam placements", zap.Int("placements", len(placements)))
	c.record(ctx, msg, tracking.StatusSucceeded, "", len(placements))
	return nil
}

// lookbackDays reads the report window from the sheet, falling back to the
// default when the range is missing or malformed. A bad window is not worth
// failing the whole run over.
func (c *Coordinator) lookbackDays(ctx context.Context, sheetID string) int {
	rows, err := c.deps.Sheets.Rows(ctx, sheetID, sheets.RangeLookbackDays)
	if err != nil || len(rows) == 0 || len(rows[0]) == 0 {
		return DefaultLookbackDays
	}
	days, err := strconv.Atoi(strings.TrimSpace(rows[0][0]))
	if err != nil || days <= 0 {
		c.deps.Logger.Warn("Ignoring invalid lookback_days value",
			zap.String("value", rows[0][0]))
		return DefaultLookbackDays
	}
	return days
}

// translateTitles reads the title translation flag from the sheet. Absent or
// unreadable means off.
func (c *Coordinator) translateTitles(ctx context.Context, sheetID string) bool {
	rows, err := c.deps.Sheets.Rows(ctx, sheetID, sheets.RangeTranslateTitles)
	if err != nil || len(rows) == 0 || len(rows[0]) == 0 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(rows[0][0]), "true")
}

// snapshotReport writes the report as a CSV object for offline inspection.
// Best effort: the warehouse copy is the source of truth.
func (c *Coordinator) snapshotReport(ctx context.Context, msg Message, records []ads.PlacementRecord, now time.Time) {
	if c.deps.Storage == nil {
		return
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(reconcile.ReportColumns)
	for _, row := range reportRows(records, now) {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprint(v)
		}
		_ = w.Write(cells)
	}
	w.Flush()

	objectName := path.Join("reports", msg.CustomerID, now.Format("2006-01-02")+".csv")
	_, err := c.deps.Storage.PutObject(ctx, c.deps.Bucket, objectName,
		bytes.NewReader(buf.Bytes()), int64(buf.Len()),
		minio.PutObjectOptions{ContentType: "text/csv"})
	if err != nil {
		c.deps.Logger.Warn("Failed to snapshot report",
			zap.String("object", objectName), zap.Error(err))
	}
}

func (c *Coordinator) record(ctx context.Context, msg Message, status, message string, rows int) {
	if c.deps.Tracker == nil {
		return
	}
	c.deps.Tracker.Record(ctx, tracking.StageRun{
		RunID:      msg.RunID,
		Stage:      string(msg.Stage),
		CustomerID: msg.CustomerID,
		Status:     status,
		Message:    message,
		RowCount:   rows,
	})
}

// enabledAccounts extracts customer ids from account rows. A row opts in with
// a second cell of exactly "Enabled"; anything else is skipped.
func enabledAccounts(rows [][]string) []string {
	var ids []string
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		id := strings.TrimSpace(row[0])
		if id == "" || strings.TrimSpace(row[1]) != "Enabled" {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// reportRows renders report records as warehouse rows matching
// reconcile.ReportColumns.
func reportRows(records []ads.PlacementRecord, now time.Time) [][]any {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{
			now,
			r.CustomerID,
			r.Placement,
			r.TargetURL,
			r.Impressions,
			r.CostMicros,
			r.Conversions,
			r.VideoViewRate,
			r.VideoViews,
			r.Clicks,
			r.AverageCPM,
			r.CTR,
			r.InteractionConversionRate,
		})
	}
	return rows
}

// metadataRows renders channel metadata as warehouse rows matching
// reconcile.MetadataColumns. Nil counts pass through as SQL NULLs.
func metadataRows(metadata []enrich.ChannelMetadata, now time.Time) [][]any {
	rows := make([][]any, 0, len(metadata))
	for _, m := range metadata {
		rows = append(rows, []any{
			m.Placement,
			nullableInt(m.ViewCount),
			nullableInt(m.SubscriberCount),
			nullableInt(m.VideoCount),
			m.Title,
			m.TitleLanguage,
			m.TitleLanguageConfidence,
			m.Country,
			m.DefaultLanguage,
			m.BrandDefaultLanguage,
			now,
		})
	}
	return rows
}

func nullableInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
