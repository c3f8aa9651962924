// Package state holds the dashboard Snapshot and the Aggregator that builds
// it.
//
// # Ownership
//
// The Aggregator is the only writer of the Snapshot. Watchers send partial
// updates on their own channels; the Aggregator applies each one to its
// private copy and publishes a deep copy to the presentation:
//
//	bluetooth ──┐
//	weather   ──┼──> Aggregator ──(latest wins)──> presentation
//	display   ──┘         │
//	                      └──> redraw
//
// No locks are involved. The presentation only ever sees copies.
//
// # Publishing
//
// The snapshot channel holds a single value. When the presentation has not
// read the previous snapshot it is replaced, so the presentation always
// reads the newest state and the Aggregator never blocks. Every publish is
// followed by a redraw notification.
//
// # Shutdown
//
// Run returns when the presentation hangs up, when ctx is done, or when all
// three sources have closed. A closed source is dropped from the select
// and the others keep flowing. On return the snapshot channel is closed,
// one last redraw is requested so the presentation notices, and the source
// receivers are hung up so the watchers stop.
package state
