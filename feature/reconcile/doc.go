// Package reconcile computes which placements to exclude next.
//
// The reconciliation is a single warehouse anti-join per account: placements
// in the account's report that satisfy the exclusion predicate, have channel
// metadata, and are absent from the append-only exclusion history. Because
// the history is the join's exclusion side, re-running with unchanged data
// yields an empty batch; the engine reports that as ErrNothingToUpdate.
//
// Account-level misconfiguration (malformed customer id, no filters) is a
// ConfigurationError: fatal for that account's run, harmless to every other
// account, and pointless to retry.
package reconcile
