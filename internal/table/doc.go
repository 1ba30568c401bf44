// Package table provides the state-management core for interactive tabular
// data views.
//
// This package is the heart of the repository, containing all domain logic
// independent of any UI or transport layer. It can be used by web handlers,
// CLI tools, or tests without modification.
//
// # Architecture
//
// The package is organized around three cooperating components:
//
//   - FilterEngine: typed per-column predicates, boolean filter groups, and
//     named presets. In client mode it produces the filtered row set; in
//     server mode the filter values are forwarded to the data source.
//   - Visibility: per-column show/hide state, reconciled against a changing
//     column set and persisted through a [persist.Store].
//   - Table: the orchestrator composing filtering, sorting, pagination, row
//     selection, and row expansion into one consistent [ViewModel].
//
// # Client vs server mode
//
// Each concern (filtering, sorting, pagination) is independently either
// computed locally or delegated to an injected [DataSource]. When any
// delegated parameter changes, the orchestrator issues a single fetch carrying
// the current page, sort, filter, and search state. Only the most recently
// requested fetch may update state: responses carrying a stale request token
// are discarded, and a failed fetch leaves the last good row set visible.
//
// # State transitions
//
// Changing any filter value, the grouped filters, the global search text, or
// the page size resets the page index to zero. Selection and expansion are
// keyed by canonical record id (see [RecordID]) and survive filter, sort, and
// page changes until explicitly cleared.
//
// # Persistence
//
// Column visibility and filter presets persist through the [persist.Store]
// contract as JSON strings. Store failures never
// roll back an in-memory state change; corrupt stored values are treated as
// "no persisted state".
package table
