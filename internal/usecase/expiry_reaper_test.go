package usecase

import (
	"context"
	"testing"
	"time"

	"job-service/internal/domain/job"
	"job-service/internal/infrastructure/events"
	"job-service/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedJob(t *testing.T, store *memory.Store, status job.Status, expiresAt *time.Time) job.Job {
	t.Helper()
	j, err := store.Save(context.Background(), job.Job{
		ID:        uuid.New(),
		CompanyID: uuid.New(),
		Title:     "Engineer",
		Status:    status,
		ExpiresAt: expiresAt,
		CreatedAt: testNow.Add(-time.Hour),
		UpdatedAt: testNow.Add(-time.Hour),
	})
	require.NoError(t, err)
	return j
}

func TestSweep_ExpiresOnlyDueActiveJobs(t *testing.T) {
	store := memory.New()
	cache := newMemCache()
	pub := &recordingPublisher{}
	reaper := NewExpiryReaper(store, cache, nil, pub, fixedClock(testNow), nil, ExpiryOptions{})
	ctx := context.Background()

	past := testNow.Add(-time.Second)
	future := testNow.Add(time.Hour)
	due := seedJob(t, store, job.StatusActive, &past)
	notDue := seedJob(t, store, job.StatusActive, &future)
	noExpiry := seedJob(t, store, job.StatusActive, nil)
	draft := seedJob(t, store, job.StatusDraft, &past)

	n, err := reaper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	want := map[uuid.UUID]job.Status{
		due.ID:      job.StatusExpired,
		notDue.ID:   job.StatusActive,
		noExpiry.ID: job.StatusActive,
		draft.ID:    job.StatusDraft,
	}
	for id, status := range want {
		got, err := store.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, status, got.Status, id.String())
	}

	expired, err := store.FindByID(ctx, due.ID)
	require.NoError(t, err)
	assert.Equal(t, testNow, expired.UpdatedAt)

	n, err = reaper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.JobsExpired, pub.events[0].Type)
	assert.Equal(t, int64(1), pub.events[0].Count)
	assert.Equal(t, 1, cache.invalidated)
}

func TestSweepLocked_SkipsWhenHeld(t *testing.T) {
	store := memory.New()
	lock := newMemCache()
	reaper := NewExpiryReaper(store, nil, lock, nil, fixedClock(testNow), nil, ExpiryOptions{LockTTL: time.Minute})
	ctx := context.Background()

	past := testNow.Add(-time.Minute)
	seedJob(t, store, job.StatusActive, &past)

	ok, err := lock.SetIfNotExists(ctx, ExpiryLockKey(), "other-instance", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	n, ran, err := reaper.SweepLocked(ctx)
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Zero(t, n)

	require.NoError(t, lock.Delete(ctx, ExpiryLockKey()))
	n, ran, err = reaper.SweepLocked(ctx)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, int64(1), n)

	var owner string
	hit, _ := lock.GetJSON(ctx, ExpiryLockKey(), &owner)
	assert.False(t, hit, "lock is released after the sweep")
}

func TestExpiryReaper_StartStop(t *testing.T) {
	reaper := NewExpiryReaper(memory.New(), nil, nil, nil, nil, nil, ExpiryOptions{Schedule: "@every 1h"})
	require.NoError(t, reaper.Start())
	require.NoError(t, reaper.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	reaper.Stop(ctx)
	reaper.Stop(ctx)

	bad := NewExpiryReaper(memory.New(), nil, nil, nil, nil, nil, ExpiryOptions{Schedule: "every tuesday"})
	assert.Error(t, bad.Start())
}
