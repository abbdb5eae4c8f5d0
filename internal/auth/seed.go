package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
)

const seedPasswordBytes = 16

// SeedAdmin creates an ADMIN identity with a random password when the
// store is empty. The password is logged once and returned; it is empty
// when seeding was skipped.
func SeedAdmin(ctx context.Context, store CredentialStore, hasher PasswordHasher, email string, logger *slog.Logger) (string, error) {
	count, err := store.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("checking identity count: %w", err)
	}
	if count > 0 {
		logger.Debug("identities exist, skipping admin seed")
		return "", nil
	}

	buf := make([]byte, seedPasswordBytes)
	if _, err := rand.Read(buf); err != nil { //nolint:govet // shadow
		return "", fmt.Errorf("generating seed password: %w", err)
	}
	password := hex.EncodeToString(buf)

	hash, err := hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("hashing seed password: %w", err)
	}

	admin := &Identity{
		Email:        email,
		PasswordHash: hash,
		Roles:        []Role{RoleAdmin},
		Enabled:      true,
	}
	if err := store.Insert(ctx, admin); err != nil {
		return "", fmt.Errorf("creating seed admin: %w", err)
	}

	logger.Warn("seed admin identity created",
		"id", admin.ID,
		"email", email,
		"password", password,
		"action_required", "change this password immediately",
	)

	return password, nil
}
