// Package auth is the stateless bearer-token authentication core.
//
// It provides:
//   - Codec: HS256 tokens carrying subject, email and roles, valid while now < exp
//   - Argon2Hasher: Argon2id password hashing in PHC format
//   - SQLiteCredentialStore and SQLiteRoleCatalog over the identities schema
//   - Authenticator: register, login and per-request principal resolution
//   - Principal: the request-scoped caller, carried in context.Context
//   - A static role to permission mapping
//
// No session or revocation state exists. A token stays valid until it
// expires, and role changes reach the caller only through a new token,
// although the request principal is always re-read from the store.
package auth
