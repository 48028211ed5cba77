package reconcile

import "time"

// Warehouse tables owned by the pipeline. The placement report is stored per
// customer so runs for different accounts never contend; channel metadata and
// exclusion history are shared across accounts.
//
// "placement" is the canonical identifier column everywhere. A placement is a
// channel id, but the report, metadata, and history tables all join on the
// same name.
const (
	MetadataTable     = "youtube_channels"
	HistoryTable      = "excluded_placements"
	reportTablePrefix = "ads_placement_report_"
)

// ReportTable returns the per-customer report table name. The customer id
// must already be validated as numeric (see ValidateCustomerID) since it is
// embedded in the identifier.
func ReportTable(customerID int64) string {
	return reportTablePrefix + itoa(customerID)
}

// ReportColumns is the schema of the per-customer placement report table,
// replaced wholesale on every report run.
var ReportColumns = []string{
	"datetime_updated",
	"customer_id",
	"placement",
	"target_url",
	"impressions",
	"cost_micros",
	"conversions",
	"video_view_rate",
	"video_views",
	"clicks",
	"average_cpm",
	"ctr",
	"interaction_conversion_rate",
}

// MetadataColumns is the schema of the shared channel metadata table,
// appended to by the enrich stage.
var MetadataColumns = []string{
	"placement",
	"view_count",
	"subscriber_count",
	"video_count",
	"title",
	"title_language",
	"title_language_confidence",
	"country",
	"default_language",
	"brand_default_language",
	"datetime_updated",
}

// HistoryColumns is the schema of the exclusion history table. The table is
// append-only and immutable; it is the durable record that makes re-runs
// idempotent.
var HistoryColumns = []string{
	"customer_id",
	"placement",
	"excluded_at",
}

// ExclusionRecord is one durable history entry: this placement was excluded
// for this customer at this time. Records are written once and never
// mutated or deleted.
type ExclusionRecord struct {
	CustomerID int64
	Placement  string
	ExcludedAt time.Time
}

// HistoryRows renders exclusion records as warehouse rows matching
// HistoryColumns.
func HistoryRows(records []ExclusionRecord) [][]any {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{r.CustomerID, r.Placement, r.ExcludedAt})
	}
	return rows
}
