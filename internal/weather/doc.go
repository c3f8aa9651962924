// Package weather polls a Netatmo account and turns station and room data
// into Readings for the dashboard.
//
// A token is acquired once when Run starts. After that every cycle checks the
// token's expiry against the watcher's clock and refreshes it inline before
// any request is made, so an expired token is never sent. A failed station
// fetch skips the cycle; a failed room fetch still publishes the station
// reading with Rooms set to nil.
package weather
