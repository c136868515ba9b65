package rtne

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreMock(t *testing.T) (pgxmock.PgxPoolIface, *Store) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewStore(mock)
}

func TestEnsureMappingAllocatesOnFirstLink(t *testing.T) {
	mock, store := newStoreMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM rtne_project_mappings").
		WithArgs(int64(7), "project-a").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec("INSERT INTO rtne_project_mappings").
		WithArgs(int64(7), "project-a").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO rtne_credits_log").
		WithArgs(int64(7), "project-a", CreditActionAllocate, "agent-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	allocated, err := store.EnsureMapping(context.Background(), 7, "project-a", "agent-1")
	require.NoError(t, err)
	assert.True(t, allocated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureMappingDuplicateLinkIsNoOp(t *testing.T) {
	mock, store := newStoreMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM rtne_project_mappings").
		WithArgs(int64(7), "project-a").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(31)))
	mock.ExpectCommit()
	mock.ExpectRollback()

	allocated, err := store.EnsureMapping(context.Background(), 7, "project-a", "agent-1")
	require.NoError(t, err)
	assert.False(t, allocated, "re-linking the same pair must not allocate again")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureMappingRequiresProject(t *testing.T) {
	_, store := newStoreMock(t)

	_, err := store.EnsureMapping(context.Background(), 7, "", "agent-1")
	assert.ErrorIs(t, err, ErrMissingProject)
}

func TestReassignCreditRunsFullSequence(t *testing.T) {
	mock, store := newStoreMock(t)

	mock.ExpectExec("UPDATE rtne_project_mappings SET credit_allocated = FALSE").
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectExec("INSERT INTO rtne_project_mappings").
		WithArgs(int64(7), "project-b").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE rtne_project_mappings SET credit_allocated = TRUE").
		WithArgs(int64(7), "project-b").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO rtne_credits_log").
		WithArgs(int64(7), "project-b", CreditActionReassign, "admin-1", "agent left project").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := store.ReassignCredit(context.Background(), 7, "project-b", "admin-1", "agent left project")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReassignCreditSurfacesMidSequenceFailure(t *testing.T) {
	mock, store := newStoreMock(t)

	// Clears succeed, the target flag update fails: the error is returned
	// as-is and no audit row is written. The missing audit row is the
	// detectable partial state.
	mock.ExpectExec("UPDATE rtne_project_mappings SET credit_allocated = FALSE").
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO rtne_project_mappings").
		WithArgs(int64(7), "project-b").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE rtne_project_mappings SET credit_allocated = TRUE").
		WithArgs(int64(7), "project-b").
		WillReturnError(errors.New("connection reset"))

	err := store.ReassignCredit(context.Background(), 7, "project-b", "admin-1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set allocation failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetPhoneDispositionValidatesSlot(t *testing.T) {
	_, store := newStoreMock(t)

	for _, slot := range []int{0, -1, 5} {
		_, err := store.SetPhoneDisposition(context.Background(), 7, slot, "dnc", "agent-1")
		assert.ErrorIs(t, err, ErrInvalidSlot, "slot %d", slot)
	}
}

func TestSetPhoneDispositionRowMissing(t *testing.T) {
	mock, store := newStoreMock(t)

	mock.ExpectExec("UPDATE master_prospects").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	_, err := store.SetPhoneDisposition(context.Background(), 99, 2, "dnc", "agent-1")
	assert.ErrorIs(t, err, ErrRowNotSaved)
}

func TestSetPhoneDispositionTargetsSlotColumn(t *testing.T) {
	mock, store := newStoreMock(t)

	mock.ExpectExec(`UPDATE master_prospects\s+SET phone3_disposition`).
		WithArgs(int64(7), "wrong_number", "agent-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	d, err := store.SetPhoneDisposition(context.Background(), 7, 3, "wrong_number", "agent-1")
	require.NoError(t, err)
	assert.Equal(t, 3, d.Slot)
	assert.Equal(t, "agent-1", d.UpdatedBy)
	assert.False(t, d.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListCreditLog(t *testing.T) {
	mock, store := newStoreMock(t)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, master_prospect_id, project_id, action").
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "master_prospect_id", "project_id", "action", "actor", "reason", "created_at",
		}).
			AddRow(int64(1), int64(7), "project-a", CreditActionAllocate, "agent-1", "", now.Add(-time.Hour)).
			AddRow(int64(2), int64(7), "project-b", CreditActionReassign, "admin-1", "override", now))

	log, err := store.ListCreditLog(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, CreditActionAllocate, log[0].Action)
	assert.Equal(t, "override", log[1].Reason)
}
