package rtne

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// JobStore persists enrichment job records.
type JobStore struct {
	pool PgxPool
}

func NewJobStore(pool PgxPool) *JobStore {
	if pool == nil {
		panic("rtne: pgx pool required")
	}
	return &JobStore{pool: pool}
}

// PutProcessing inserts a new job in the processing state.
func (s *JobStore) PutProcessing(ctx context.Context, job *EnrichmentJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.Status = JobStatusProcessing
	job.CreatedAt = time.Now().UTC()

	if _, err := s.pool.Exec(ctx, `
		INSERT INTO enrichment_jobs (id, master_prospect_id, requested_by, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		job.ID, job.MasterProspectID, job.RequestedBy, job.Status, job.CreatedAt); err != nil {
		return fmt.Errorf("rtne: insert job failed: %w", err)
	}
	return nil
}

// MarkCompleted stores the result payload and flips the job to completed.
func (s *JobStore) MarkCompleted(ctx context.Context, jobID string, result *EnrichmentResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("rtne: encode result: %w", err)
	}
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx, `
		UPDATE enrichment_jobs
		SET status = $2, result = $3, completed_at = $4
		WHERE id = $1`,
		jobID, JobStatusCompleted, payload, now)
	if err != nil {
		return fmt.Errorf("rtne: complete job failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

// Get fetches one job by id.
func (s *JobStore) Get(ctx context.Context, jobID string) (*EnrichmentJob, error) {
	var (
		job     EnrichmentJob
		payload []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, master_prospect_id, requested_by, status, result, created_at, completed_at
		FROM enrichment_jobs WHERE id = $1`, jobID).
		Scan(&job.ID, &job.MasterProspectID, &job.RequestedBy, &job.Status, &payload, &job.CreatedAt, &job.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("rtne: select job failed: %w", err)
	}
	if len(payload) > 0 {
		var result EnrichmentResult
		if err := json.Unmarshal(payload, &result); err != nil {
			return nil, fmt.Errorf("rtne: decode result: %w", err)
		}
		job.Result = &result
	}
	return &job, nil
}
