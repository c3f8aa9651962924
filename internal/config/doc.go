// Package config loads the homedash configuration.
//
// # Sources
//
// Settings come from a TOML file, by default ~/.config/homedash/config.toml.
// Netatmo secrets and the log level can be overridden by HOMEDASH_*
// environment variables, which are optionally read from a dotenv file first:
//
//	HOMEDASH_NETATMO_CLIENT_ID
//	HOMEDASH_NETATMO_CLIENT_SECRET
//	HOMEDASH_NETATMO_REFRESH_TOKEN
//	HOMEDASH_NETATMO_USERNAME
//	HOMEDASH_NETATMO_PASSWORD
//	HOMEDASH_LOG_LEVEL
//
// # Example
//
//	[[bluetooth.devices]]
//	name = "headphones"
//	address = "AA:BB:CC:DD:EE:01"
//
//	[[bluetooth.devices]]
//	name = "speaker"
//	address = "AA:BB:CC:DD:EE:02"
//
//	[netatmo]
//	station = "Home"
//	poll_interval = "60s"
//
//	[display]
//	preferred_model = "DELL U3421WE"
//
//	[log]
//	path = "~/.local/state/homedash/homedash.log"
//	level = "info"
//
// Durations use Go syntax ("500ms", "2m"). Paths accept a leading ~.
//
// Unlike most settings, the device list has no default: Load fails when no
// Bluetooth device is configured, when an address is not a MAC address, or
// when two devices share a name. The weather watcher is only started when a
// client id and either a refresh token or a username are present.
package config
