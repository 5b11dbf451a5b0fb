// Package fakeidm is an in-memory identity backend implementing the RPC
// surface the login flow consumes. It exists so the flow, the token
// refresher, and the demo CLI can run against a real HTTP server without a
// hosted backend: organizations carry a full login-method policy, users carry
// password, authenticator app, and passkey state, and intermediate sessions
// move through the same verify/register lifecycle the production backend
// enforces.
//
// It is a test collaborator, not a production identity provider: passkey
// attestation is checked for credential ownership only, not cryptographically.
package fakeidm
