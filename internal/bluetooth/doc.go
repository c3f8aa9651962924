// Package bluetooth mirrors the connection status of a configured set of
// Bluetooth devices and connects or disconnects them on request. The host
// stack is reached through a Session; OpenBlueZ provides one backed by BlueZ
// on the system D-Bus.
package bluetooth
