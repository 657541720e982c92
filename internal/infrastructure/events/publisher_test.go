package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"job-service/internal/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisher_NoURLIsNoop(t *testing.T) {
	p, err := NewPublisher(nil, config.NATSConfig{})
	require.NoError(t, err)
	assert.IsType(t, Noop{}, p)
	assert.NoError(t, p.Publish(context.Background(), Event{Type: JobClosed}))
	p.Close()
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "jobs.job.published", Subject(JobPublished))
	assert.Equal(t, "jobs.jobs.expired", Subject(JobsExpired))
}

func TestEventPayload(t *testing.T) {
	id := uuid.MustParse("6f1c8c57-2f5f-4b8e-9a55-3c1c1e0d9a10")
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	b, err := json.Marshal(Event{Type: JobPublished, JobID: &id, Status: "ACTIVE", OccurredAt: at})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "job.published",
		"job_id": "6f1c8c57-2f5f-4b8e-9a55-3c1c1e0d9a10",
		"status": "ACTIVE",
		"occurred_at": "2026-03-01T12:00:00Z"
	}`, string(b))
}
