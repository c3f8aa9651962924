// Package relay provides the bounded channels that connect homedash's
// watchers, aggregator and presentation layer.
//
// # Overview
//
// Every producer in homedash must stay responsive when its consumer is slow
// or gone, so producers never block on a send. A plain Go channel only
// offers "blocks" or "drops silently"; relay adds an explicit result for each
// send so the caller can log and react:
//
//	Sent        value buffered
//	Superseded  value buffered after discarding older unread values (Overwrite)
//	Full        buffer full, value dropped (TrySend)
//	Closed      receiver hung up, value dropped
//
// # Ownership
//
// A channel is created with New and has exactly two owners:
//
//	┌──────────┐  TrySend / Overwrite   ┌────────────┐
//	│  Sender  │───────────────────────>│  Receiver  │
//	│          │<───────── Done ────────│            │
//	└──────────┘                        └────────────┘
//	   Close(): no more values            Close(): hang up
//
// Closing either end is how a component tells its partner it has exited.
// The sender closes when it stops producing; the receiver sees its channel
// close after draining what was buffered. The receiver closes when it stops
// consuming; the sender's next send reports Closed and Done fires.
//
// # Latest wins
//
// Overwrite is used for snapshot publication: a consumer that falls behind
// never reads a queue of stale snapshots, only the newest one. Drain is the
// matching consumer-side helper that keeps only the last buffered value.
//
// # Other helpers
//
//   - Signal: a capacity-one wakeup used for redraw requests; Notify never blocks.
//   - LastValue: a per-producer "last emitted" cell for change detection.
package relay
