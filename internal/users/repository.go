package users

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

// PgxPool is the subset of pgxpool.Pool the repository needs.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository defines profile storage.
type Repository interface {
	Get(ctx context.Context, id string) (*User, error)
	GetRole(ctx context.Context, id string) (string, error)
	GetNames(ctx context.Context, ids []string) (map[string]string, error)
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, u *User) error
	Provision(ctx context.Context, req *CreateUserRequest) (*User, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	TouchLastActive(ctx context.Context, id string) error
}

// PostgresRepository stores profiles in the relational database.
type PostgresRepository struct {
	pool PgxPool
}

func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	if pool == nil {
		panic("users: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

const userColumns = `id, name, email, role, project_name, active, last_active_at, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.ProjectName, &u.Active, &u.LastActiveAt, &u.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("users: scan: %w", err)
	}
	return &u, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *PostgresRepository) GetRole(ctx context.Context, id string) (string, error) {
	var role string
	if err := r.pool.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, id).Scan(&role); err != nil {
		if err == pgx.ErrNoRows {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("users: get role: %w", err)
	}
	return role, nil
}

// GetNames batch-resolves display names for the given ids.
func (r *PostgresRepository) GetNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("users: get names: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("users: scan name: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

func (r *PostgresRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.ProjectName, &u.Active, &u.LastActiveAt, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("users: scan list: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (id, name, email, role, project_name, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	if err := r.pool.QueryRow(ctx, query, u.ID, u.Name, u.Email, u.Role, u.ProjectName, u.Active).Scan(&u.CreatedAt); err != nil {
		return fmt.Errorf("users: insert profile: %w", err)
	}
	return nil
}

// Provision creates the auth identity and the profile together. Both inserts
// run in one transaction so a half-provisioned user cannot exist.
func (r *PostgresRepository) Provision(ctx context.Context, req *CreateUserRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("users: hash password: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("users: begin provision: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id := uuid.NewString()
	if _, err := tx.Exec(ctx,
		`INSERT INTO auth_users (id, email, full_name, password_hash) VALUES ($1, $2, $3, $4)`,
		id, req.Email, req.Name, string(hash),
	); err != nil {
		return nil, fmt.Errorf("users: insert auth identity: %w", err)
	}

	u := &User{
		ID:          id,
		Name:        req.Name,
		Email:       req.Email,
		Role:        req.Role,
		ProjectName: req.ProjectName,
		Active:      true,
	}
	if u.Name == "" {
		u.Name = EmailLocalPart(req.Email)
	}
	if err := tx.QueryRow(ctx,
		`INSERT INTO users (id, name, email, role, project_name, active) VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		u.ID, u.Name, u.Email, u.Role, u.ProjectName, u.Active,
	).Scan(&u.CreatedAt); err != nil {
		return nil, fmt.Errorf("users: insert profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("users: commit provision: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) error {
	ct, err := r.pool.Exec(ctx, `UPDATE users SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("users: set active: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes the profile and the auth identity.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("users: begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("users: delete profile: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM auth_users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("users: delete auth identity: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("users: commit delete: %w", err)
	}
	return nil
}

func (r *PostgresRepository) TouchLastActive(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `UPDATE users SET last_active_at = $2 WHERE id = $1`, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("users: touch last active: %w", err)
	}
	return nil
}
