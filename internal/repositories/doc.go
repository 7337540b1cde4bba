// Package repositories implements SQLite persistence for match history.
//
// [MatchRepository] handles CRUD operations with atomic sequence generation for human-readable ordering.
// Records support soft deletes via deleted_at timestamps and deleted records are excluded from queries by default.
//
// [MatchRecorder] adapts the repository to the resolver's recorder hook, keeping one live record per catalog track.
//
// Sequence numbers provide stable ordering (e.g. match #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
