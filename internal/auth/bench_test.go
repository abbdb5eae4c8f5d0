package auth

import (
	"testing"
	"time"
)

// ─── Password hashing (Argon2id, intentionally slow) ────────────────

func BenchmarkArgon2Hash(b *testing.B) {
	h := NewArgon2Hasher(DefaultArgon2Params)
	for b.Loop() {
		h.Hash("correct-horse-battery-staple") //nolint:errcheck // benchmark
	}
}

func BenchmarkArgon2Verify(b *testing.B) {
	h := NewArgon2Hasher(DefaultArgon2Params)
	encoded, err := h.Hash("correct-horse-battery-staple")
	if err != nil {
		b.Fatalf("Hash: %v", err)
	}

	for b.Loop() {
		h.Verify("correct-horse-battery-staple", encoded) //nolint:errcheck // benchmark
	}
}

// ─── Tokens (per-request hot path) ──────────────────────────────────

func BenchmarkCodecIssue(b *testing.B) {
	c, err := NewCodec([]byte(testSecret), 15*time.Minute)
	if err != nil {
		b.Fatalf("NewCodec: %v", err)
	}
	roles := []string{"STUDENT", "TEACHER"}

	for b.Loop() {
		c.Issue("8b4a3c1e-0000-4000-8000-000000000001", "bench@example.com", roles, time.Now()) //nolint:errcheck // benchmark
	}
}

func BenchmarkCodecSubject(b *testing.B) {
	c, err := NewCodec([]byte(testSecret), 15*time.Minute)
	if err != nil {
		b.Fatalf("NewCodec: %v", err)
	}
	token, err := c.Issue("8b4a3c1e-0000-4000-8000-000000000001", "bench@example.com", []string{"STUDENT"}, time.Now())
	if err != nil {
		b.Fatalf("Issue: %v", err)
	}

	for b.Loop() {
		c.Subject(token) //nolint:errcheck // benchmark
	}
}
