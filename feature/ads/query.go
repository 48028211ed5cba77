package ads

import (
	"time"

	"placement-excluder/feature/filter"
)

const dateFormat = "2006-01-02"

// QueryDates returns the report window as formatted dates: lookbackDays
// before today through today. The window end is always the run time.
func QueryDates(lookbackDays int, today time.Time) (from, to string) {
	return today.AddDate(0, 0, -lookbackDays).Format(dateFormat),
		today.Format(dateFormat)
}

// ReportQuery builds the placement performance report query for the given
// window. An empty predicate yields a query with no extra conditions and,
// in particular, no dangling AND.
func ReportQuery(predicate filter.Predicate, from, to string) string {
	query := `SELECT
  customer.id,
  group_placement_view.placement,
  group_placement_view.target_url,
  metrics.impressions,
  metrics.cost_micros,
  metrics.conversions,
  metrics.video_views,
  metrics.video_view_rate,
  metrics.clicks,
  metrics.average_cpm,
  metrics.ctr,
  metrics.all_conversions_from_interactions_rate
FROM group_placement_view
WHERE group_placement_view.placement_type = "YOUTUBE_CHANNEL"
  AND campaign.advertising_channel_type = "VIDEO"
  AND segments.date BETWEEN "` + from + `" AND "` + to + `"`
	if !predicate.IsEmpty() {
		query += "\n  AND " + predicate.String()
	}
	return query
}
