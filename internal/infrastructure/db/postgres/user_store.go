package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopmesh/platform/internal/core/domain"
	"github.com/shopmesh/platform/internal/core/ports"
)

const (
	defaultStoreTimeout = 5 * time.Second
	uniqueViolation     = "23505"
)

const userColumns = `id, email, password_hash, first_name, last_name, role, is_active, created_at, updated_at`

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	first_name    TEXT NOT NULL DEFAULT '',
	last_name     TEXT NOT NULL DEFAULT '',
	role          TEXT NOT NULL DEFAULT 'user',
	is_active     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS users_created_at_idx ON users (created_at, id);`

var _ ports.UserStore = (*UserStore)(nil)

// UserStore keeps users in the "users" table.
type UserStore struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewUserStore(pool *pgxpool.Pool, timeout time.Duration) *UserStore {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &UserStore{pool: pool, timeout: timeout}
}

// EnsureSchema creates the users table when it does not exist yet.
func (s *UserStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createUsersTable); err != nil {
		return fmt.Errorf("ensure users schema: %w", err)
	}
	return nil
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return s.queryOne(ctx, "find user by id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.queryOne(ctx, "find user by email", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (s *UserStore) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Microsecond)
	created := *user
	created.ID = uuid.NewString()
	created.CreatedAt = now
	created.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		created.ID, created.Email, created.PasswordHash, created.FirstName, created.LastName,
		string(created.Role), created.IsActive, created.CreatedAt, created.UpdatedAt,
	)
	if err != nil {
		return nil, storeError("insert user", err)
	}
	return &created, nil
}

func (s *UserStore) Update(ctx context.Context, id string, upd domain.UserUpdate) (*domain.User, error) {
	sets, args := updateClauses(upd, time.Now().UTC().Truncate(time.Microsecond))
	args = append(args, id)

	query := `UPDATE users SET ` + strings.Join(sets, ", ") +
		` WHERE id = $` + strconv.Itoa(len(args)) + ` RETURNING ` + userColumns

	return s.queryOne(ctx, "update user", query, args...)
}

// updateClauses builds the SET list for upd. updated_at is always set.
func updateClauses(upd domain.UserUpdate, now time.Time) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}

	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.PasswordHash != nil {
		add("password_hash", *upd.PasswordHash)
	}
	if upd.FirstName != nil {
		add("first_name", *upd.FirstName)
	}
	if upd.LastName != nil {
		add("last_name", *upd.LastName)
	}
	if upd.Role != nil {
		add("role", string(*upd.Role))
	}
	if upd.IsActive != nil {
		add("is_active", *upd.IsActive)
	}
	add("updated_at", now)

	return sets, args
}

func (s *UserStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return storeError("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *UserStore) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, storeError("list users", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, storeError("list users", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list users", err)
	}
	return users, nil
}

func (s *UserStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.pool.Ping(ctx); err != nil {
		return storeError("ping", err)
	}
	return nil
}

func (s *UserStore) queryOne(ctx context.Context, op, query string, args ...any) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	u, err := scanUser(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, storeError(op, err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

// storeError maps unique violations to domain.ErrDuplicateEmail and
// timeouts or refused connections to domain.ErrStoreUnavailable.
func storeError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrDuplicateEmail
	}

	var connErr *pgconn.ConnectError
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) || errors.As(err, &connErr) {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
