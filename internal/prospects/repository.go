package prospects

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// prospectColumns is the scan order shared by every SELECT.
const prospectColumns = "id, full_name, company, designation, location, phones, email, linkedin_url, canonical_url, created_at, updated_at"

// Repository defines prospect storage.
type Repository interface {
	Get(ctx context.Context, id int64) (*Prospect, error)
	List(ctx context.Context, offset, limit int) ([]Prospect, error)
	Search(ctx context.Context, q SearchQuery) ([]Prospect, error)
	GetByCanonicalURL(ctx context.Context, canonicalURL string) (*Prospect, error)
	SearchByUsername(ctx context.Context, username string) ([]Prospect, error)
	Create(ctx context.Context, p *Prospect) error
	Update(ctx context.Context, p *Prospect) error
	Delete(ctx context.Context, id int64) error
}

// PostgresRepository stores prospects via database/sql. Phone numbers live in
// a TEXT[] column and go through pq.Array.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanProspect(row interface{ Scan(...any) error }) (*Prospect, error) {
	var p Prospect
	err := row.Scan(&p.ID, &p.FullName, &p.Company, &p.Designation, &p.Location,
		pq.Array(&p.Phones), &p.Email, &p.LinkedInURL, &p.CanonicalURL,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if p.Phones == nil {
		p.Phones = []string{}
	}
	return &p, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Prospect, error) {
	p, err := scanProspect(r.db.QueryRowContext(ctx,
		`SELECT `+prospectColumns+` FROM prospects WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, ErrProspectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("prospects: select failed: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context, offset, limit int) ([]Prospect, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+prospectColumns+` FROM prospects ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("prospects: list failed: %w", err)
	}
	return collect(rows)
}

// Search matches name, company, and location as case-insensitive substrings.
// All set fields must match.
func (r *PostgresRepository) Search(ctx context.Context, q SearchQuery) ([]Prospect, error) {
	conds := []string{}
	args := []any{}
	add := func(col, val string) {
		if val == "" {
			return
		}
		args = append(args, "%"+val+"%")
		conds = append(conds, fmt.Sprintf("%s ILIKE $%d", col, len(args)))
	}
	add("full_name", q.Name)
	add("company", q.Company)
	add("location", q.Location)
	if len(conds) == 0 {
		return []Prospect{}, nil
	}

	query := `SELECT ` + prospectColumns + ` FROM prospects WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY full_name`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("prospects: search failed: %w", err)
	}
	return collect(rows)
}

func (r *PostgresRepository) GetByCanonicalURL(ctx context.Context, canonicalURL string) (*Prospect, error) {
	p, err := scanProspect(r.db.QueryRowContext(ctx,
		`SELECT `+prospectColumns+` FROM prospects WHERE canonical_url = $1`, canonicalURL))
	if err == sql.ErrNoRows {
		return nil, ErrProspectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("prospects: canonical lookup failed: %w", err)
	}
	return p, nil
}

// SearchByUsername is the fuzzy fallback when no exact canonical match
// exists: any stored URL containing the username qualifies.
func (r *PostgresRepository) SearchByUsername(ctx context.Context, username string) ([]Prospect, error) {
	if username == "" {
		return []Prospect{}, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+prospectColumns+` FROM prospects WHERE linkedin_url ILIKE $1`,
		"%"+username+"%")
	if err != nil {
		return nil, fmt.Errorf("prospects: username search failed: %w", err)
	}
	return collect(rows)
}

func (r *PostgresRepository) Create(ctx context.Context, p *Prospect) error {
	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO prospects (full_name, company, designation, location, phones, email, linkedin_url, canonical_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id`,
		p.FullName, p.Company, p.Designation, p.Location, pq.Array(p.Phones),
		p.Email, p.LinkedInURL, p.CanonicalURL, now).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("prospects: insert failed: %w", err)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *Prospect) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE prospects
		SET full_name=$2, company=$3, designation=$4, location=$5, phones=$6,
		    email=$7, linkedin_url=$8, canonical_url=$9, updated_at=$10
		WHERE id=$1`,
		p.ID, p.FullName, p.Company, p.Designation, p.Location, pq.Array(p.Phones),
		p.Email, p.LinkedInURL, p.CanonicalURL, now)
	if err != nil {
		return fmt.Errorf("prospects: update failed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("prospects: update failed: %w", err)
	}
	if n == 0 {
		return ErrProspectNotFound
	}
	p.UpdatedAt = now
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM prospects WHERE id = $1`, id); err != nil {
		return fmt.Errorf("prospects: delete failed: %w", err)
	}
	return nil
}

func collect(rows *sql.Rows) ([]Prospect, error) {
	defer rows.Close()
	out := []Prospect{}
	for rows.Next() {
		var p Prospect
		if err := rows.Scan(&p.ID, &p.FullName, &p.Company, &p.Designation, &p.Location,
			pq.Array(&p.Phones), &p.Email, &p.LinkedInURL, &p.CanonicalURL,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("prospects: scan failed: %w", err)
		}
		if p.Phones == nil {
			p.Phones = []string{}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
