package rtne

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Queue is the transport the enrichment publisher writes to and the worker
// drains. MemoryQueue serves local development; SQSQueue serves deployments.
type Queue interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

type queueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

type queuePayload struct {
	JobID            string `json:"job_id"`
	MasterProspectID int64  `json:"master_prospect_id"`
	RequestedBy      string `json:"requested_by"`
}

func encodePayload(payload queuePayload) (queuePayload, string, error) {
	if payload.JobID == "" {
		payload.JobID = uuid.NewString()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return queuePayload{}, "", fmt.Errorf("rtne: failed to encode payload: %w", err)
	}
	return payload, string(body), nil
}

// Publisher records an enrichment job and hands it to the queue.
type Publisher struct {
	queue Queue
	jobs  *JobStore
}

func NewPublisher(queue Queue, jobs *JobStore) *Publisher {
	return &Publisher{queue: queue, jobs: jobs}
}

// Enqueue persists a processing job row, then sends the queue message. The
// returned job id lets callers poll for completion.
func (p *Publisher) Enqueue(ctx context.Context, masterID int64, requestedBy string) (string, error) {
	payload, body, err := encodePayload(queuePayload{
		MasterProspectID: masterID,
		RequestedBy:      requestedBy,
	})
	if err != nil {
		return "", err
	}

	if p.jobs != nil {
		job := &EnrichmentJob{
			ID:               payload.JobID,
			MasterProspectID: masterID,
			RequestedBy:      requestedBy,
		}
		if err := p.jobs.PutProcessing(ctx, job); err != nil {
			return "", err
		}
	}

	if err := p.queue.Send(ctx, body); err != nil {
		return "", fmt.Errorf("rtne: failed to enqueue job: %w", err)
	}
	return payload.JobID, nil
}
