// Package job defines the job posting aggregate and its lifecycle.
//
// Valid status graph:
//
//	DRAFT ──► ACTIVE ◄──► PAUSED
//	  │         │  │         │
//	  │         │  └──► EXPIRED (reaper only)
//	  └─────────┴───────┴──► CLOSED
//
// CLOSED and EXPIRED are terminal.
package job

import (
	"fmt"
	"strings"
	"time"

	"job-service/internal/apperr"
)

type Status string

const (
	StatusDraft   Status = "DRAFT"
	StatusActive  Status = "ACTIVE"
	StatusPaused  Status = "PAUSED"
	StatusClosed  Status = "CLOSED"
	StatusExpired Status = "EXPIRED"
)

func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusDraft, StatusActive, StatusPaused, StatusClosed, StatusExpired:
		return st, true
	}
	return "", false
}

func (s Status) IsTerminal() bool {
	return s == StatusClosed || s == StatusExpired
}

var validTransitions = map[Status][]Status{
	StatusDraft:  {StatusActive, StatusClosed},
	StatusActive: {StatusPaused, StatusClosed, StatusExpired},
	StatusPaused: {StatusActive, StatusClosed},
}

func IsTransitionAllowed(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Publish moves a DRAFT or PAUSED job to ACTIVE. PostedAt is only set the
// first time. changed is false when the job was already ACTIVE.
func Publish(j Job, now time.Time) (Job, bool, error) {
	if j.Status == StatusActive {
		return j, false, nil
	}
	if !IsTransitionAllowed(j.Status, StatusActive) {
		return j, false, invalid(j.Status, StatusActive)
	}
	j.Status = StatusActive
	if j.PostedAt == nil {
		t := now
		j.PostedAt = &t
	}
	j.UpdatedAt = now
	return j, true, nil
}

// Pause takes an ACTIVE job off the listing without closing it.
func Pause(j Job, now time.Time) (Job, bool, error) {
	if j.Status == StatusPaused {
		return j, false, nil
	}
	if !IsTransitionAllowed(j.Status, StatusPaused) {
		return j, false, invalid(j.Status, StatusPaused)
	}
	j.Status = StatusPaused
	j.UpdatedAt = now
	return j, true, nil
}

// Close is a no-op on jobs that are already CLOSED or EXPIRED.
func Close(j Job, now time.Time) (Job, bool, error) {
	if j.Status.IsTerminal() {
		return j, false, nil
	}
	if !IsTransitionAllowed(j.Status, StatusClosed) {
		return j, false, invalid(j.Status, StatusClosed)
	}
	j.Status = StatusClosed
	j.UpdatedAt = now
	return j, true, nil
}

// Expire is applied by the expiry sweep only.
func Expire(j Job, now time.Time) (Job, error) {
	if !CanExpire(j, now) {
		return j, invalid(j.Status, StatusExpired)
	}
	j.Status = StatusExpired
	j.UpdatedAt = now
	return j, nil
}

// CanExpire mirrors the bulk expiry predicate.
func CanExpire(j Job, now time.Time) bool {
	return j.Status == StatusActive && j.ExpiresAt != nil && j.ExpiresAt.Before(now)
}

func invalid(from, to Status) error {
	return apperr.InvalidTransition(fmt.Sprintf("cannot move job from %s to %s", from, to))
}
