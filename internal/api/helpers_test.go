package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/teleinformatics/campus-core/internal/audit"
	"github.com/teleinformatics/campus-core/internal/auth"
	"github.com/teleinformatics/campus-core/internal/infrastructure/config"
	"github.com/teleinformatics/campus-core/internal/infrastructure/database"
	"github.com/teleinformatics/campus-core/internal/infrastructure/logging"
	_ "github.com/teleinformatics/campus-core/migrations"
)

const testSecret = "test-secret-key-at-least-32-chars!"

var testEpoch = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

var testArgon2Params = auth.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

// fakeClock is a settable clock safe for concurrent reads.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingSink collects auth events.
type recordingSink struct {
	mu     sync.Mutex
	events []auth.Event
}

func (s *recordingSink) Record(_ context.Context, ev auth.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) byKind(kind auth.EventKind) []auth.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []auth.Event
	for _, ev := range s.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

type testEnv struct {
	srv      *Server
	store    *auth.SQLiteCredentialStore
	codec    *auth.Codec
	auth     *auth.Authenticator
	audit    *audit.SQLiteRepository
	clock    *fakeClock
	events   *recordingSink
	registry *prometheus.Registry
}

type envOption func(*Deps)

func withRateLimit(perMinute, burst int) envOption {
	return func(d *Deps) {
		d.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: perMinute, Burst: burst}
	}
}

func withHealthCheck(name string, hc HealthChecker) envOption {
	return func(d *Deps) {
		if d.HealthChecks == nil {
			d.HealthChecks = map[string]HealthChecker{}
		}
		d.HealthChecks[name] = hc
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	db, err := database.Open(t.Context(), database.Config{
		Path:        filepath.Join(t.TempDir(), "api.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup
	require.NoError(t, db.Migrate(t.Context(), nil))

	env := &testEnv{
		store:    auth.NewSQLiteCredentialStore(db.DB),
		audit:    audit.NewSQLiteRepository(db.DB),
		clock:    &fakeClock{now: testEpoch},
		events:   &recordingSink{},
		registry: prometheus.NewRegistry(),
	}

	env.codec, err = auth.NewCodec([]byte(testSecret), time.Hour, auth.WithClock(env.clock.Now))
	require.NoError(t, err)

	env.auth, err = auth.NewAuthenticator(
		env.store,
		auth.NewSQLiteRoleCatalog(db.DB),
		auth.NewArgon2Hasher(testArgon2Params),
		env.codec,
		auth.WithEvents(env.events),
		auth.WithNow(env.clock.Now),
		auth.WithLogger(logging.Discard().Logger),
	)
	require.NoError(t, err)

	deps := Deps{
		Config:      config.APIConfig{Host: "127.0.0.1", Port: 0},
		Logger:      logging.Discard(),
		Credentials: env.auth,
		Tokens:      env.codec,
		Identities:  env.store,
		Roles:       auth.NewSQLiteRoleCatalog(db.DB),
		AuditRepo:   env.audit,
		Events:      env.events,
		Registry:    env.registry,
		Version:     "test",
		Now:         env.clock.Now,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	env.srv, err = New(deps)
	require.NoError(t, err)
	return env
}

// do sends a request through the router. token may be empty.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "192.0.2.10:51234"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, email, password string) authResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/auth/register", "", credentialsRequest{Email: email, Password: password})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[authResponse](t, rec)
}

// adminToken seeds the admin identity and logs in as it.
func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	password, err := auth.SeedAdmin(t.Context(), e.store, auth.NewArgon2Hasher(testArgon2Params), "admin@campus.local", logging.Discard().Logger)
	require.NoError(t, err)
	require.NotEmpty(t, password)

	rec := e.do(t, http.MethodPost, "/api/v1/auth/login", "", credentialsRequest{Email: "admin@campus.local", Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[authResponse](t, rec).Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
