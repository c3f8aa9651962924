// Package netatmo is a small client for the Netatmo weather API.
//
// Client fetches station and home coach data with a bearer token; requests
// pass through a circuit breaker so a failing API is not hammered every
// poll. TokenSource handles the OAuth2 token endpoint: the first token comes
// from a stored refresh token or the password grant, later ones from the
// refresh grant.
//
// Endpoints:
//
//   - POST /oauth2/token
//   - GET /api/getstationsdata
//   - GET /api/gethomecoachsdata
package netatmo
