package rtne

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEnricher struct {
	result *EnrichmentResult
	err    error
	calls  int
}

func (s *stubEnricher) Enrich(ctx context.Context, master *MasterProspect) (*EnrichmentResult, error) {
	s.calls++
	return s.result, s.err
}

func TestPublisherRecordsJobThenSends(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO enrichment_jobs").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	queue := NewMemoryQueue(4)
	pub := NewPublisher(queue, NewJobStore(mock))

	jobID, err := pub.Enqueue(context.Background(), 7, "agent-1")
	require.NoError(t, err)
	assert.NotEmpty(t, jobID)

	msgs, err := queue.Receive(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	var payload queuePayload
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Body), &payload))
	assert.Equal(t, jobID, payload.JobID)
	assert.Equal(t, int64(7), payload.MasterProspectID)
	assert.Equal(t, "agent-1", payload.RequestedBy)
}

func TestWorkerCompletesJob(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM master_prospects WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(masterRow(7))
	mock.ExpectExec("UPDATE enrichment_jobs").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	enricher := &stubEnricher{result: &EnrichmentResult{
		SuggestedEmails: []string{"ada@engines.example"},
		SuggestedPhones: []string{"+44 20 7946 0001"},
	}}
	w := NewWorker(NewMemoryQueue(1), NewJobStore(mock), NewStore(mock), enricher, nil)

	body, _ := json.Marshal(queuePayload{JobID: "job-1", MasterProspectID: 7, RequestedBy: "agent-1"})
	w.handleMessage(context.Background(), queueMessage{ID: "m1", Body: string(body), ReceiptHandle: "r1"})

	assert.Equal(t, 1, enricher.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkerLeavesJobProcessingOnEnricherError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT (.+) FROM master_prospects WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(masterRow(7))

	enricher := &stubEnricher{err: errors.New("upstream 500")}
	w := NewWorker(NewMemoryQueue(1), NewJobStore(mock), NewStore(mock), enricher, nil)

	body, _ := json.Marshal(queuePayload{JobID: "job-1", MasterProspectID: 7})
	w.handleMessage(context.Background(), queueMessage{ID: "m1", Body: string(body), ReceiptHandle: "r1"})

	// No UPDATE reaches the job store: the job stays in processing.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkerDropsMalformedMessage(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	w := NewWorker(NewMemoryQueue(1), NewJobStore(mock), NewStore(mock), &stubEnricher{}, nil)
	w.handleMessage(context.Background(), queueMessage{ID: "m1", Body: "{", ReceiptHandle: "r1"})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryQueueRoundTrip(t *testing.T) {
	q := NewMemoryQueue(2)
	ctx := context.Background()

	require.NoError(t, q.Send(ctx, "one"))
	require.NoError(t, q.Send(ctx, "two"))

	msgs, err := q.Receive(ctx, 5, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "one", msgs[0].Body)
	assert.Equal(t, "two", msgs[1].Body)

	// Drained queue with a wait returns empty after the timeout.
	msgs, err = q.Receive(ctx, 1, 1)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
