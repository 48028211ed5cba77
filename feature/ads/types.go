package ads

import "context"

// PlacementRecord is one row of the placement performance report: a
// placement's metrics within one customer account. Placement ids are unique
// per customer, not globally.
type PlacementRecord struct {
	CustomerID                string
	Placement                 string
	TargetURL                 string
	Impressions               int64
	CostMicros                int64
	Conversions               float64
	VideoViews                int64
	VideoViewRate             float64
	Clicks                    int64
	AverageCPM                float64
	CTR                       float64
	InteractionConversionRate float64
}

// Reporter retrieves the placement performance report for a customer.
type Reporter interface {
	PlacementReport(ctx context.Context, customerID, query string) ([]PlacementRecord, error)
}

// MutateResult summarizes one exclusion batch application.
type MutateResult struct {
	// Applied is the number of placements in the batch.
	Applied int
	// ValidateOnly reports whether the batch was validated without being
	// committed.
	ValidateOnly bool
}

// Mutator applies a batch of placement exclusions to the shared exclusion
// list of a customer account. The operation is irreversible when committed,
// but re-submitting an already excluded placement is harmless, which is what
// makes crash-retry of the exclude stage safe.
type Mutator interface {
	ApplyExclusions(ctx context.Context, customerID string, placements []string) (MutateResult, error)
}
