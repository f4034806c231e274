// Package storage and its sqlite subpackage form the echo store / ledger:
// the durable record of events, echoes, lineage, statuses, and the audit
// trail. The ledger is the sole owner of echo identity; its uniqueness
// constraint on (parent_id, embassy_id) is the propagation pipeline's only
// synchronization point.
package storage
