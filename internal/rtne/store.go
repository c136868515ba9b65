package rtne

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var rtneTracer = otel.Tracer("prospectpulse/rtne")

// PgxPool is the subset of pgxpool.Pool the store needs.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists master prospects, project mappings, and the credit log.
type Store struct {
	pool PgxPool
}

func NewStore(pool PgxPool) *Store {
	if pool == nil {
		panic("rtne: pgx pool required")
	}
	return &Store{pool: pool}
}

const masterColumns = "id, full_name, company, designation, location, phones, email, linkedin_url, canonical_url, created_at"

func scanMaster(row pgx.Row) (*MasterProspect, error) {
	var m MasterProspect
	err := row.Scan(&m.ID, &m.FullName, &m.Company, &m.Designation, &m.Location,
		&m.Phones, &m.Email, &m.LinkedInURL, &m.CanonicalURL, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	if m.Phones == nil {
		m.Phones = []string{}
	}
	return &m, nil
}

func (s *Store) GetMaster(ctx context.Context, id int64) (*MasterProspect, error) {
	m, err := scanMaster(s.pool.QueryRow(ctx,
		`SELECT `+masterColumns+` FROM master_prospects WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMasterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("rtne: select master failed: %w", err)
	}
	return m, nil
}

func (s *Store) FindMasterByCanonicalURL(ctx context.Context, canonicalURL string) (*MasterProspect, error) {
	m, err := scanMaster(s.pool.QueryRow(ctx,
		`SELECT `+masterColumns+` FROM master_prospects WHERE canonical_url = $1`, canonicalURL))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMasterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("rtne: canonical lookup failed: %w", err)
	}
	return m, nil
}

// FindMasterByUsername is the fuzzy fallback: any stored URL containing the
// username qualifies, first match wins.
func (s *Store) FindMasterByUsername(ctx context.Context, username string) (*MasterProspect, error) {
	if username == "" {
		return nil, ErrMasterNotFound
	}
	m, err := scanMaster(s.pool.QueryRow(ctx,
		`SELECT `+masterColumns+` FROM master_prospects WHERE linkedin_url ILIKE $1 ORDER BY id LIMIT 1`,
		"%"+username+"%"))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMasterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("rtne: username lookup failed: %w", err)
	}
	return m, nil
}

func (s *Store) CreateMaster(ctx context.Context, m *MasterProspect) error {
	ctx, span := rtneTracer.Start(ctx, "rtne.store.create_master")
	defer span.End()

	if m.Phones == nil {
		m.Phones = []string{}
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO master_prospects (full_name, company, designation, location, phones, email, linkedin_url, canonical_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		m.FullName, m.Company, m.Designation, m.Location, m.Phones,
		m.Email, m.LinkedInURL, m.CanonicalURL).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("rtne: insert master failed: %w", err)
	}
	span.SetAttributes(attribute.Int64("rtne.master_id", m.ID))
	return nil
}

// EnsureMapping links a master record to a project. The first link for a
// (master, project) pair allocates exactly one credit and appends one log
// row; re-linking the same pair is a no-op. Returns whether a credit was
// allocated by this call.
func (s *Store) EnsureMapping(ctx context.Context, masterID int64, projectID, actor string) (bool, error) {
	ctx, span := rtneTracer.Start(ctx, "rtne.store.ensure_mapping")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("rtne.master_id", masterID),
		attribute.String("rtne.project_id", projectID),
	)

	if projectID == "" {
		return false, ErrMissingProject
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("rtne: begin failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var existingID int64
	err = tx.QueryRow(ctx,
		`SELECT id FROM rtne_project_mappings WHERE master_prospect_id = $1 AND project_id = $2`,
		masterID, projectID).Scan(&existingID)
	if err == nil {
		// Duplicate linkage: no additional credit.
		return false, tx.Commit(ctx)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("rtne: mapping lookup failed: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO rtne_project_mappings (master_prospect_id, project_id, credit_allocated)
		VALUES ($1, $2, TRUE)`, masterID, projectID); err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("rtne: insert mapping failed: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO rtne_credits_log (master_prospect_id, project_id, action, actor)
		VALUES ($1, $2, $3, $4)`, masterID, projectID, CreditActionAllocate, actor); err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("rtne: credit log insert failed: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("rtne: commit failed: %w", err)
	}
	return true, nil
}

// ReassignCredit moves the allocation for a master record to a different
// project: clear every existing flag, ensure a mapping row for the target,
// set its flag, then append the audit entry. The steps run as sequential
// statements. A mid-sequence failure is returned to the caller as-is; the
// absence of the audit row is what signals an incomplete override.
func (s *Store) ReassignCredit(ctx context.Context, masterID int64, toProjectID, actor, reason string) error {
	ctx, span := rtneTracer.Start(ctx, "rtne.store.reassign_credit")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("rtne.master_id", masterID),
		attribute.String("rtne.to_project_id", toProjectID),
	)

	if toProjectID == "" {
		return ErrMissingProject
	}

	if _, err := s.pool.Exec(ctx,
		`UPDATE rtne_project_mappings SET credit_allocated = FALSE WHERE master_prospect_id = $1`,
		masterID); err != nil {
		span.RecordError(err)
		return fmt.Errorf("rtne: clear allocations failed: %w", err)
	}
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO rtne_project_mappings (master_prospect_id, project_id, credit_allocated)
		VALUES ($1, $2, FALSE)
		ON CONFLICT (master_prospect_id, project_id) DO NOTHING`,
		masterID, toProjectID); err != nil {
		span.RecordError(err)
		return fmt.Errorf("rtne: ensure target mapping failed: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE rtne_project_mappings SET credit_allocated = TRUE
		WHERE master_prospect_id = $1 AND project_id = $2`,
		masterID, toProjectID)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("rtne: set allocation failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRowNotSaved
	}
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO rtne_credits_log (master_prospect_id, project_id, action, actor, reason)
		VALUES ($1, $2, $3, $4, $5)`,
		masterID, toProjectID, CreditActionReassign, actor, reason); err != nil {
		span.RecordError(err)
		return fmt.Errorf("rtne: audit log insert failed: %w", err)
	}
	return nil
}

// SetPhoneDisposition records an outcome against one of the four phone
// slots on the master record.
func (s *Store) SetPhoneDisposition(ctx context.Context, masterID int64, slot int, value, actor string) (*PhoneDisposition, error) {
	if slot < 1 || slot > PhoneSlots {
		return nil, ErrInvalidSlot
	}

	ctx, span := rtneTracer.Start(ctx, "rtne.store.set_phone_disposition")
	defer span.End()

	now := time.Now().UTC()
	// Slot is validated above; the column suffix is never user-controlled.
	query := fmt.Sprintf(`
		UPDATE master_prospects
		SET phone%[1]d_disposition = $2, phone%[1]d_disposition_by = $3, phone%[1]d_disposition_at = $4
		WHERE id = $1`, slot)
	tag, err := s.pool.Exec(ctx, query, masterID, value, actor, now)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("rtne: phone disposition update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrRowNotSaved
	}
	return &PhoneDisposition{
		MasterProspectID: masterID,
		Slot:             slot,
		Value:            value,
		UpdatedBy:        actor,
		UpdatedAt:        now,
	}, nil
}

// ListCreditLog returns the audit trail for one master record, oldest first.
func (s *Store) ListCreditLog(ctx context.Context, masterID int64) ([]CreditLogEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, master_prospect_id, project_id, action, actor, COALESCE(reason, ''), created_at
		FROM rtne_credits_log
		WHERE master_prospect_id = $1
		ORDER BY created_at`, masterID)
	if err != nil {
		return nil, fmt.Errorf("rtne: credit log query failed: %w", err)
	}
	defer rows.Close()

	out := []CreditLogEntry{}
	for rows.Next() {
		var e CreditLogEntry
		if err := rows.Scan(&e.ID, &e.MasterProspectID, &e.ProjectID, &e.Action, &e.Actor, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("rtne: credit log scan failed: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListMappings returns every project mapping for one master record.
func (s *Store) ListMappings(ctx context.Context, masterID int64) ([]ProjectMapping, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, master_prospect_id, project_id, credit_allocated, created_at
		FROM rtne_project_mappings
		WHERE master_prospect_id = $1
		ORDER BY created_at`, masterID)
	if err != nil {
		return nil, fmt.Errorf("rtne: mappings query failed: %w", err)
	}
	defer rows.Close()

	out := []ProjectMapping{}
	for rows.Next() {
		var m ProjectMapping
		if err := rows.Scan(&m.ID, &m.MasterProspectID, &m.ProjectID, &m.CreditAllocated, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("rtne: mapping scan failed: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
