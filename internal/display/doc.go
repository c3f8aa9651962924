// Package display watches a monitor's picture settings over DDC/CI.
//
// # Overview
//
// The Watcher opens one monitor, polls three VCP registers on a fixed
// interval and emits a State whenever the decoded reading differs from the
// last one it successfully handed to the aggregator:
//
//   - 0x10: brightness
//   - 0xDC: display application (picture mode on most vendors)
//   - 0xF0: vendor preset register (Dell uses it for ComfortView)
//
// The 0xDC/0xF0 pair is decoded through a fixed table into a Preset.
// Pairs outside the table decode to PresetUnknown and keep the raw values.
//
// # Threading
//
// Register access is blocking i2c I/O with mandated settle delays, so Run
// locks its goroutine to an OS thread and never shares the Monitor.
// Brightness and preset changes arrive as Requests on a channel and are
// applied at the top of each poll cycle.
//
// # Hardware
//
// EnumerateI2C discovers monitors through /sys/class/drm: every connected
// connector with a ddc link is opened as /dev/i2c-N and addressed at slave
// 0x37. The model name comes from the EDID display-name descriptor and is
// what PreferredModel is matched against.
package display
