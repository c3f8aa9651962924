// Package ui provides the terminal dashboard for homedash.
//
// The UI is a Bubble Tea program. It never polls: a command blocks on the
// redraw signal raised by the aggregator, drains the snapshot channel and
// hands the newest snapshot to the model. Snapshots published while the
// previous frame was still rendering are skipped. When the snapshot channel
// closes the program quits.
//
// Key presses become commands sent without blocking on the command channel.
// A full channel drops the command and shows a note in the footer.
//
// # Key Bindings
//
//   - 1-9: Connect or disconnect the numbered Bluetooth device
//   - + / -: Step display brightness by the configured step
//   - p: Switch to the next picture preset
//   - T: Cycle theme (saved to preferences)
//   - h or ?: Toggle full help
//   - q or Ctrl+C: Quit
package ui
