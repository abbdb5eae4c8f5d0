package auth

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teleinformatics/campus-core/internal/infrastructure/database"
	_ "github.com/teleinformatics/campus-core/migrations"
)

const testSecret = "test-secret-key-at-least-32-chars!"

// testEpoch is whole-second so NumericDate round-trips exactly.
var testEpoch = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

// testArgon2Params keeps hashing fast in tests.
var testArgon2Params = Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func newTestHasher() *Argon2Hasher {
	return NewArgon2Hasher(testArgon2Params)
}

// fakeClock is a settable clock safe for concurrent reads.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newTestCodec(t *testing.T, clock *fakeClock) *Codec {
	t.Helper()
	c, err := NewCodec([]byte(testSecret), time.Hour, WithClock(clock.Now))
	require.NoError(t, err)
	return c
}

// testDB opens a migrated SQLite database in a temp directory.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(t.Context(), database.Config{
		Path:        filepath.Join(t.TempDir(), "auth.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

	require.NoError(t, db.Migrate(t.Context(), nil))
	return db.DB
}

// recordingSink collects events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Record(_ context.Context, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) kinds() []EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EventKind, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Kind
	}
	return out
}

func (s *recordingSink) last() Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[len(s.events)-1]
}

type authFixture struct {
	db     *sql.DB
	store  *SQLiteCredentialStore
	roles  *SQLiteRoleCatalog
	codec  *Codec
	clock  *fakeClock
	events *recordingSink
	auth   *Authenticator
}

func newAuthFixture(t *testing.T, opts ...Option) *authFixture {
	t.Helper()

	f := &authFixture{
		db:     testDB(t),
		clock:  newFakeClock(testEpoch),
		events: &recordingSink{},
	}
	f.store = NewSQLiteCredentialStore(f.db)
	f.roles = NewSQLiteRoleCatalog(f.db)
	f.codec = newTestCodec(t, f.clock)

	opts = append([]Option{
		WithEvents(f.events),
		WithNow(f.clock.Now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)

	a, err := NewAuthenticator(f.store, f.roles, newTestHasher(), f.codec, opts...)
	require.NoError(t, err)
	f.auth = a
	return f
}
