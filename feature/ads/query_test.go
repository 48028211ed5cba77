package ads

import (
	"strings"
	"testing"
	"time"

	"placement-excluder/feature/filter"

	"github.com/stretchr/testify/assert"
)

func TestQueryDates(t *testing.T) {
	today := time.Date(2022, 7, 1, 10, 30, 0, 0, time.UTC)

	from, to := QueryDates(90, today)
	assert.Equal(t, "2022-04-02", from)
	assert.Equal(t, "2022-07-01", to)

	from, to = QueryDates(0, today)
	assert.Equal(t, "2022-07-01", from)
	assert.Equal(t, "2022-07-01", to)
}

func TestReportQuery_WithPredicate(t *testing.T) {
	predicate := filter.Compile([][]string{{"metrics.impressions", ">", "100"}})
	query := ReportQuery(predicate, "2022-04-02", "2022-07-01")

	assert.Contains(t, query, `segments.date BETWEEN "2022-04-02" AND "2022-07-01"`)
	assert.Contains(t, query, "AND metrics.impressions > 100")
	assert.Contains(t, query, `group_placement_view.placement_type = "YOUTUBE_CHANNEL"`)
}

func TestReportQuery_EmptyPredicateHasNoDanglingAND(t *testing.T) {
	query := ReportQuery(filter.Compile(nil), "2022-04-02", "2022-07-01")

	trimmed := strings.TrimSpace(query)
	assert.False(t, strings.HasSuffix(trimmed, "AND"))
	assert.True(t, strings.HasSuffix(trimmed, `"2022-07-01"`))
}
