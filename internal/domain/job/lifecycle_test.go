package job_test

import (
	"testing"
	"time"

	"job-service/internal/apperr"
	"job-service/internal/domain/job"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// ── Publish ────────────────────────────────────────────────────────────────

func TestPublish_DraftSetsPostedAt(t *testing.T) {
	got, changed, err := job.Publish(job.Job{Status: job.StatusDraft}, now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, job.StatusActive, got.Status)
	require.NotNil(t, got.PostedAt)
	assert.Equal(t, now, *got.PostedAt)
	assert.Equal(t, now, got.UpdatedAt)
}

func TestPublish_PausedKeepsOriginalPostedAt(t *testing.T) {
	first := now.Add(-48 * time.Hour)
	got, changed, err := job.Publish(job.Job{Status: job.StatusPaused, PostedAt: &first}, now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, job.StatusActive, got.Status)
	assert.Equal(t, first, *got.PostedAt)
}

func TestPublish_ActiveIsNoop(t *testing.T) {
	first := now.Add(-time.Hour)
	in := job.Job{Status: job.StatusActive, PostedAt: &first}
	got, changed, err := job.Publish(in, now)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, in, got)
}

func TestPublish_TerminalRejected(t *testing.T) {
	for _, st := range []job.Status{job.StatusClosed, job.StatusExpired} {
		_, _, err := job.Publish(job.Job{Status: st}, now)
		assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "publish from %s", st)
	}
}

// ── Pause ──────────────────────────────────────────────────────────────────

func TestPause(t *testing.T) {
	got, changed, err := job.Pause(job.Job{Status: job.StatusActive}, now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, job.StatusPaused, got.Status)

	_, changed, err = job.Pause(got, now)
	require.NoError(t, err)
	assert.False(t, changed)

	_, _, err = job.Pause(job.Job{Status: job.StatusDraft}, now)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

// ── Close ──────────────────────────────────────────────────────────────────

func TestClose_FromEveryOpenState(t *testing.T) {
	for _, st := range []job.Status{job.StatusDraft, job.StatusActive, job.StatusPaused} {
		got, changed, err := job.Close(job.Job{Status: st}, now)
		require.NoError(t, err, "close from %s", st)
		assert.True(t, changed)
		assert.Equal(t, job.StatusClosed, got.Status)
	}
}

func TestClose_IsIdempotent(t *testing.T) {
	first, _, err := job.Close(job.Job{Status: job.StatusActive}, now)
	require.NoError(t, err)

	second, changed, err := job.Close(first, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, job.StatusClosed, second.Status)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt)

	expired, changed, err := job.Close(job.Job{Status: job.StatusExpired}, now)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, job.StatusExpired, expired.Status)
}

// ── Expire ─────────────────────────────────────────────────────────────────

func TestExpire(t *testing.T) {
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	got, err := job.Expire(job.Job{Status: job.StatusActive, ExpiresAt: &past}, now)
	require.NoError(t, err)
	assert.Equal(t, job.StatusExpired, got.Status)

	cases := []job.Job{
		{Status: job.StatusActive},
		{Status: job.StatusActive, ExpiresAt: &future},
		{Status: job.StatusActive, ExpiresAt: &now},
		{Status: job.StatusDraft, ExpiresAt: &past},
		{Status: job.StatusClosed, ExpiresAt: &past},
	}
	for _, c := range cases {
		_, err := job.Expire(c, now)
		assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "expire %+v", c)
	}
}

// ── Transition table ───────────────────────────────────────────────────────

func TestIsTransitionAllowed_TerminalHasNoExits(t *testing.T) {
	all := []job.Status{job.StatusDraft, job.StatusActive, job.StatusPaused, job.StatusClosed, job.StatusExpired}
	for _, from := range []job.Status{job.StatusClosed, job.StatusExpired} {
		for _, to := range all {
			assert.False(t, job.IsTransitionAllowed(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, job.IsTransitionAllowed(job.StatusDraft, job.StatusExpired))
}

func TestParseStatus(t *testing.T) {
	st, ok := job.ParseStatus("active")
	assert.True(t, ok)
	assert.Equal(t, job.StatusActive, st)

	_, ok = job.ParseStatus("ARCHIVED")
	assert.False(t, ok)
}
