package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CredentialStore persists identities.
//
// Insert must report an email collision as ErrDuplicateIdentity from the
// store's own uniqueness constraint; callers never check first.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	FindByID(ctx context.Context, id string) (*Identity, error)
	Insert(ctx context.Context, identity *Identity) error
	Count(ctx context.Context) (int, error)
}

// RoleCatalog resolves role names to catalog entries.
type RoleCatalog interface {
	Lookup(ctx context.Context, name Role) (*RoleInfo, error)
	List(ctx context.Context) ([]RoleInfo, error)
}

// SQLiteCredentialStore implements CredentialStore on the identities and
// identity_roles tables.
type SQLiteCredentialStore struct {
	db *sql.DB
}

// NewSQLiteCredentialStore creates a credential store backed by db.
func NewSQLiteCredentialStore(db *sql.DB) *SQLiteCredentialStore {
	return &SQLiteCredentialStore{db: db}
}

const identityColumns = `id, email, password_hash, enabled, created_at, updated_at`

// FindByEmail returns the identity with exactly this email (case-sensitive).
func (s *SQLiteCredentialStore) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE email = ?`, email)
	return s.load(ctx, row)
}

// FindByID returns the identity with the given id.
func (s *SQLiteCredentialStore) FindByID(ctx context.Context, id string) (*Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE id = ?`, id)
	return s.load(ctx, row)
}

// Insert stores a new identity and its roles in one transaction. ID and
// timestamps are assigned when empty.
func (s *SQLiteCredentialStore) Insert(ctx context.Context, identity *Identity) error {
	if len(identity.Roles) == 0 {
		return fmt.Errorf("inserting identity: at least one role is required")
	}
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = now
	}
	identity.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO identities (`+identityColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		identity.ID, identity.Email, identity.PasswordHash, boolToInt(identity.Enabled),
		identity.CreatedAt.Format(time.RFC3339), identity.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateIdentity, identity.Email)
		}
		return fmt.Errorf("inserting identity: %w", err)
	}

	for _, r := range identity.Roles {
		if err := insertRole(ctx, tx, identity.ID, r); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing identity: %w", err)
	}
	return nil
}

// Count returns the number of stored identities.
func (s *SQLiteCredentialStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM identities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting identities: %w", err)
	}
	return n, nil
}

// ─── Administrative changes ────────────────────────────────────────

// SetEnabled enables or disables an identity.
func (s *SQLiteCredentialStore) SetEnabled(ctx context.Context, id string, enabled bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE identities SET enabled = ?, updated_at = ? WHERE id = ?`,
		boolToInt(enabled), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("updating identity: %w", err)
	}
	return expectOneRow(res)
}

// GrantRole adds role to an identity. Granting a held role is a no-op.
func (s *SQLiteCredentialStore) GrantRole(ctx context.Context, id string, role Role) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx,
		`UPDATE identities SET updated_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("updating identity: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return err
	}

	if err := insertRole(ctx, tx, id, role); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing role grant: %w", err)
	}
	return nil
}

// Delete removes an identity and its role assignments.
func (s *SQLiteCredentialStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM identities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting identity: %w", err)
	}
	return expectOneRow(res)
}

// ─── Helpers ───────────────────────────────────────────────────────

func (s *SQLiteCredentialStore) load(ctx context.Context, row *sql.Row) (*Identity, error) {
	var (
		id                   Identity
		enabled              int
		createdAt, updatedAt string
	)
	err := row.Scan(&id.ID, &id.Email, &id.PasswordHash, &enabled, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrIdentityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning identity: %w", err)
	}

	id.Enabled = enabled != 0
	id.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // written by Insert in RFC3339
	id.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // written by Insert in RFC3339

	roles, err := s.rolesFor(ctx, id.ID)
	if err != nil {
		return nil, err
	}
	id.Roles = roles

	return &id, nil
}

// rolesFor returns an identity's roles in catalog rank order.
func (s *SQLiteCredentialStore) rolesFor(ctx context.Context, identityID string) ([]Role, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.name FROM identity_roles ir
		 JOIN roles r ON r.name = ir.role_name
		 WHERE ir.identity_id = ?
		 ORDER BY r.rank`, identityID)
	if err != nil {
		return nil, fmt.Errorf("querying identity roles: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning identity role: %w", err)
		}
		roles = append(roles, Role(name))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating identity roles: %w", err)
	}
	return roles, nil
}

func insertRole(ctx context.Context, tx *sql.Tx, identityID string, role Role) error {
	_, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO identity_roles (identity_id, role_name) VALUES (?, ?)`,
		identityID, string(role))
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: %s", ErrRoleNotFound, role)
		}
		return fmt.Errorf("assigning role %s: %w", role, err)
	}
	return nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrIdentityNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation checks if an error is a SQLite UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// SQLiteRoleCatalog implements RoleCatalog on the roles table.
type SQLiteRoleCatalog struct {
	db *sql.DB
}

// NewSQLiteRoleCatalog creates a role catalog backed by db.
func NewSQLiteRoleCatalog(db *sql.DB) *SQLiteRoleCatalog {
	return &SQLiteRoleCatalog{db: db}
}

// Lookup returns the catalog entry for name, or ErrRoleNotFound.
func (c *SQLiteRoleCatalog) Lookup(ctx context.Context, name Role) (*RoleInfo, error) {
	var info RoleInfo
	var roleName string
	err := c.db.QueryRowContext(ctx,
		`SELECT name, description, rank FROM roles WHERE name = ?`, string(name)).
		Scan(&roleName, &info.Description, &info.Rank)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRoleNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up role %s: %w", name, err)
	}
	info.Name = Role(roleName)
	return &info, nil
}

// List returns every catalog entry in rank order.
func (c *SQLiteRoleCatalog) List(ctx context.Context) ([]RoleInfo, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT name, description, rank FROM roles ORDER BY rank`)
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	defer rows.Close()

	var out []RoleInfo
	for rows.Next() {
		var info RoleInfo
		var name string
		if err := rows.Scan(&name, &info.Description, &info.Rank); err != nil {
			return nil, fmt.Errorf("scanning role: %w", err)
		}
		info.Name = Role(name)
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating roles: %w", err)
	}
	return out, nil
}
