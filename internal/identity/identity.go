// Package identity issues and verifies the bearer tokens that carry a
// logged-in ledger identity between requests.
//
// Identities are opaque strings and are not authenticated: logging in as any
// name succeeds. The token only binds later requests to the identity chosen
// at login so handlers never depend on process-wide "current user" state.
//
//   - SessionTokenIssuer : issues and verifies HS256 session JWTs
//   - RequireSession     : Gin middleware enforcing a Bearer session token
package identity
