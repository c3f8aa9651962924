// Package app provides the orchestration layer for homedash.
//
// # Overview
//
// This package wires together configuration, logging, the watchers, the
// aggregator and the UI. It is the composition root where every dependency
// is initialized and connected.
//
// # Startup
//
//  1. Load ~/.config/homedash/config.toml (plus .env secrets)
//  2. Open the zap file logger
//  3. Initialize Bluetooth: connect to the system bus and resolve every
//     configured device. Failure here aborts startup.
//  4. Start the Bluetooth, weather and display watchers, the command loop
//     and the presentation as supervised tasks
//  5. Run the aggregator on the calling goroutine until it stops
//
// # Data Flow
//
//	bluetooth ──┐
//	weather ────┼──> aggregator ──snapshot──> ui
//	display ────┘         │                   │
//	    ^                 └──redraw──────────>│
//	    │                                     │
//	    └──── display requests <── commands <─┘
//	bluetooth <── connect/disconnect ─────────┘
//
// Every channel is bounded. Watchers and the command loop never block on a
// full channel: the update is dropped and logged. The snapshot channel holds
// one value and the newest snapshot replaces an unread one.
//
// # Failure Isolation
//
// Each task runs under a supervisor that recovers panics. A failed or
// panicking watcher closes its channel and the aggregator keeps serving the
// last values of that source. Only a Bluetooth initialization failure or a
// presentation error is returned from Run.
//
// # Shutdown
//
// The presentation exiting hangs up the snapshot and command channels. The
// aggregator notices, stops, and the shared context is cancelled. Tasks get
// five seconds to return before Run gives up waiting.
package app
