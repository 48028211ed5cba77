package sheets

import (
	"context"
	"encoding/csv"
	"fmt"
	"path"

	"placement-excluder/core/storage"

	"github.com/minio/minio-go/v7"
)

// Well-known range keys in the configuration sheet.
const (
	RangeCustomerIDs      = "customer_ids"
	RangeReportFilters    = "report_filters"
	RangeExclusionFilters = "exclusion_filters"
	RangeLookbackDays     = "lookback_days"
	RangeTranslateTitles  = "translate_titles"
)

// Source provides ordered rows of ordered cells for a named range of a
// configuration sheet. Implementations must preserve row and cell order.
type Source interface {
	Rows(ctx context.Context, sheetID, rangeKey string) ([][]string, error)
}

// ObjectSource reads sheet ranges exported as CSV objects in the storage
// bucket, one object per range at config/<sheetID>/<rangeKey>.csv.
type ObjectSource struct {
	client storage.Client
	bucket string
}

// NewObjectSource creates a CSV-backed configuration source.
func NewObjectSource(client storage.Client, bucket string) *ObjectSource {
	return &ObjectSource{client: client, bucket: bucket}
}

// Rows fetches and parses one range. Ragged rows are allowed; the filter
// compiler and account parser decide what to do with short rows.
func (s *ObjectSource) Rows(ctx context.Context, sheetID, rangeKey string) ([][]string, error) {
	objectName := path.Join("config", sheetID, rangeKey+".csv")

	obj, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch config range %s: %w", rangeKey, err)
	}
	defer obj.Close()

	reader := csv.NewReader(obj)
	reader.FieldsPerRecord = -1 // ranges are ragged by design
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse config range %s: %w", rangeKey, err)
	}
	return rows, nil
}
