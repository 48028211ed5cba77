package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"placement-excluder/core/warehouse"
	"placement-excluder/feature/filter"

	"go.uber.org/zap"
)

// ErrNothingToUpdate signals that no report rows matched the predicate at
// all. It is a benign terminal outcome, not a failure: the pipeline
// short-circuits the remaining work for the run.
var ErrNothingToUpdate = errors.New("nothing to update")

// ConfigurationError marks a run as unrunnable for one account: missing
// filters, malformed customer id. It is fatal for that account's run but
// must not crash the process or affect other accounts.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// IsConfigurationError reports whether err is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// ValidateCustomerID checks that a customer id string is representable as a
// positive integer before it is embedded in generated SQL or persisted.
// Account ids arrive from configuration with possible formatting accidents;
// a malformed id must never reach the history table.
func ValidateCustomerID(customerID string) (int64, error) {
	id, err := strconv.ParseInt(customerID, 10, 64)
	if err != nil || id <= 0 {
		return 0, &ConfigurationError{Reason: fmt.Sprintf("invalid customer id %q", customerID)}
	}
	return id, nil
}

// Engine computes the set of strictly-new exclusions for a customer: report
// placements that satisfy the spam predicate, have channel metadata, and are
// not yet present in the exclusion history.
type Engine struct {
	wh     *warehouse.Client
	logger *zap.Logger
}

// NewEngine creates a reconciliation engine over the warehouse.
func NewEngine(wh *warehouse.Client, logger *zap.Logger) *Engine {
	return &Engine{wh: wh, logger: logger}
}

// NewExclusions returns placements never excluded before for this customer.
// Running it again with unchanged data and updated history yields
// ErrNothingToUpdate; the anti-join against history is what makes repeated
// runs safe.
func (e *Engine) NewExclusions(ctx context.Context, customerID string, predicate filter.Predicate) ([]string, error) {
	cid, err := ValidateCustomerID(customerID)
	if err != nil {
		return nil, err
	}
	if predicate.IsEmpty() {
		return nil, &ConfigurationError{Reason: "no filters defined"}
	}

	query := newExclusionsQuery(cid, predicate)
	e.logger.Debug("Running reconciliation query", zap.String("query", query))

	placements, err := e.wh.QueryStrings(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("reconciliation query failed for customer %d: %w", cid, err)
	}

	if len(placements) == 0 {
		return nil, ErrNothingToUpdate
	}

	e.logger.Info("Found new spam placements",
		zap.Int64("customer_id", cid),
		zap.Int("count", len(placements)))
	return placements, nil
}

// PendingMetadata returns report placements with no metadata row yet. An
// empty result is normal: every placement was already enriched on an
// earlier run.
func (e *Engine) PendingMetadata(ctx context.Context, customerID string) ([]string, error) {
	cid, err := ValidateCustomerID(customerID)
	if err != nil {
		return nil, err
	}

	placements, err := e.wh.QueryStrings(ctx, pendingMetadataQuery(cid))
	if err != nil {
		return nil, fmt.Errorf("pending metadata query failed for customer %d: %w", cid, err)
	}
	return placements, nil
}
