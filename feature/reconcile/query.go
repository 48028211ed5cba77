package reconcile

import (
	"strconv"
	"strings"

	"placement-excluder/feature/filter"
)

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

// newExclusionsQuery builds the anti-join that yields placements present in
// the customer's report and channel metadata but absent from the exclusion
// history. The predicate is appended verbatim as additional WHERE conditions.
func newExclusionsQuery(customerID int64, predicate filter.Predicate) string {
	cid := itoa(customerID)
	var sb strings.Builder
	sb.WriteString("WITH excluded AS (\n")
	sb.WriteString("  SELECT placement, excluded_at\n")
	sb.WriteString("  FROM " + HistoryTable + "\n")
	sb.WriteString("  WHERE customer_id = " + cid + "\n")
	sb.WriteString(")\n")
	sb.WriteString("SELECT DISTINCT ads.placement\n")
	sb.WriteString("FROM " + ReportTable(customerID) + " AS ads\n")
	sb.WriteString("LEFT JOIN " + MetadataTable + " AS yt USING (placement)\n")
	sb.WriteString("LEFT JOIN excluded USING (placement)\n")
	sb.WriteString("WHERE excluded.excluded_at IS NULL\n")
	sb.WriteString("  AND yt.placement IS NOT NULL\n")
	sb.WriteString("  AND " + predicate.String())
	return sb.String()
}

// pendingMetadataQuery builds the query for placements in the customer's
// report that have no row in the metadata table yet. These are the ids the
// enrich stage must look up.
func pendingMetadataQuery(customerID int64) string {
	var sb strings.Builder
	sb.WriteString("SELECT DISTINCT ads.placement\n")
	sb.WriteString("FROM " + ReportTable(customerID) + " AS ads\n")
	sb.WriteString("LEFT JOIN " + MetadataTable + " AS yt USING (placement)\n")
	sb.WriteString("WHERE yt.placement IS NULL")
	return sb.String()
}
