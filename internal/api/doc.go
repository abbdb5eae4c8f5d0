// Package api implements the campus-core HTTP API.
//
// This package provides:
//   - POST /api/v1/auth/register and /auth/login returning {identity_id, token}
//   - GET /api/v1/auth/me for the request principal
//   - GET /api/v1/audit and /api/v1/identities/{id} for administrators
//   - GET /api/v1/health, /api/v1/roles and /metrics
//
// # Security
//
// The Gate middleware runs on every request. Without an
// "Authorization: Bearer" header the request continues anonymously and
// protected routes answer 401 through requireAuthenticated. A presented
// token must verify, be unexpired, carry a UUID subject, and name an
// identity that still exists and is enabled; otherwise the Responder
// answers 401 AUTH_FAILED and the handler never runs.
//
// # Errors
//
// Every error body has the same shape:
//
//	{"status":401,"code":"AUTH_FAILED","title":"Unauthorized",
//	 "message":"Jwt is expired","path":"/api/v1/auth/me",
//	 "method":"GET","timestamp":"2026-03-02T10:00:00Z"}
//
// Internal failures are logged server-side and surface only as
// INTERNAL_ERROR with a fixed message.
package api
