package dispositions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the repository needs.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository defines disposition storage. Rows are append-only: there is no
// update operation, and delete exists only for test/debug flows.
type Repository interface {
	Insert(ctx context.Context, d *Disposition) error
	ListByProspect(ctx context.Context, prospectID int64) ([]Disposition, error)
	DeleteByID(ctx context.Context, id string) error
}

// PostgresRepository stores dispositions in the relational database.
type PostgresRepository struct {
	pool PgxPool
}

func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	if pool == nil {
		panic("dispositions: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Insert persists one disposition and fills in the generated id/timestamp.
func (r *PostgresRepository) Insert(ctx context.Context, d *Disposition) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	query := `
		INSERT INTO dispositions (id, prospect_id, user_id, disposition_type, custom_reason, user_name, project_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	if err := r.pool.QueryRow(ctx, query,
		d.ID,
		d.ProspectID,
		d.UserID,
		string(d.Type),
		d.CustomReason,
		d.UserName,
		d.ProjectName,
	).Scan(&d.CreatedAt); err != nil {
		return fmt.Errorf("dispositions: insert failed: %w", err)
	}
	return nil
}

// ListByProspect returns all dispositions for a prospect, newest first.
func (r *PostgresRepository) ListByProspect(ctx context.Context, prospectID int64) ([]Disposition, error) {
	query := `
		SELECT id, prospect_id, user_id, disposition_type, custom_reason, user_name, project_name, created_at
		FROM dispositions
		WHERE prospect_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, prospectID)
	if err != nil {
		return nil, fmt.Errorf("dispositions: list failed: %w", err)
	}
	defer rows.Close()

	out := []Disposition{}
	for rows.Next() {
		var d Disposition
		var typ string
		if err := rows.Scan(&d.ID, &d.ProspectID, &d.UserID, &typ, &d.CustomReason, &d.UserName, &d.ProjectName, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("dispositions: scan failed: %w", err)
		}
		d.Type = Type(typ)
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteByID removes a row directly. Not exposed to end users.
func (r *PostgresRepository) DeleteByID(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM dispositions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("dispositions: delete failed: %w", err)
	}
	return nil
}

// InMemoryRepository is a Repository backed by a slice, used in tests.
type InMemoryRepository struct {
	mu   sync.RWMutex
	rows []Disposition
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

func (r *InMemoryRepository) Insert(ctx context.Context, d *Disposition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	r.rows = append(r.rows, *d)
	return nil
}

func (r *InMemoryRepository) ListByProspect(ctx context.Context, prospectID int64) ([]Disposition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Disposition{}
	// Appended in arrival order; report newest first.
	for i := len(r.rows) - 1; i >= 0; i-- {
		if r.rows[i].ProspectID == prospectID {
			out = append(out, r.rows[i])
		}
	}
	return out, nil
}

func (r *InMemoryRepository) DeleteByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, d := range r.rows {
		if d.ID == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return nil
}
