// Package pipeline coordinates the placement exclusion run.
//
// A run moves through four stages, each a message handler on the bus:
//
//   - accounts: reads the configuration sheet, compiles the report and
//     exclusion filters once, and fans out one message per enabled account.
//   - report: downloads the placement performance report for one account and
//     replaces that account's report table in the warehouse.
//   - enrich: looks up channel metadata for report placements the shared
//     metadata table does not know yet and appends it.
//   - exclude: reconciles the report against the exclusion history, applies
//     the strictly-new batch to the ad platform, then appends it to history.
//
// Messages are self-describing: every stage executes from its message alone.
// Delivery is at least once, so stage handlers are idempotent. Report
// replacement, metadata append, and the mutate-before-history ordering of the
// exclude stage make redelivery after a crash converge on the same state.
//
// # HTTP Endpoints
//
//   - POST /pipeline/run : Starts a run for a configuration sheet.
//   - POST /pipeline/event : Ingests one pushed stage event and runs it inline.
//   - GET /runs : Returns recent stage runs from the tracking ledger.
package pipeline
