package job_test

import (
	"strings"
	"testing"
	"time"

	"job-service/internal/apperr"
	"job-service/internal/domain/job"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func intp(v int) *int { return &v }

func validContent() job.Content {
	return job.Content{CompanyID: uuid.New(), Title: "Backend Engineer"}
}

func TestContentValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*job.Content)
		ok     bool
	}{
		{"valid", func(*job.Content) {}, true},
		{"missing company", func(c *job.Content) { c.CompanyID = uuid.Nil }, false},
		{"blank title", func(c *job.Content) { c.Title = "   " }, false},
		{"long title", func(c *job.Content) { c.Title = strings.Repeat("x", job.MaxTitleLength+1) }, false},
		{"title at limit", func(c *job.Content) { c.Title = strings.Repeat("x", job.MaxTitleLength) }, true},
		{"salary reversed", func(c *job.Content) { c.SalaryMin, c.SalaryMax = intp(100), intp(50) }, false},
		{"salary equal", func(c *job.Content) { c.SalaryMin, c.SalaryMax = intp(100), intp(100) }, true},
		{"salary open upper", func(c *job.Content) { c.SalaryMin = intp(100) }, true},
		{"experience reversed", func(c *job.Content) { c.ExperienceMin, c.ExperienceMax = intp(5), intp(2) }, false},
		{"negative experience", func(c *job.Content) { c.ExperienceMin = intp(-1) }, false},
		{"long location", func(c *job.Content) { c.Location = strings.Repeat("y", job.MaxLocationLength+1) }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validContent()
			tc.mutate(&c)
			err := c.Validate()
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestParseEnums(t *testing.T) {
	jt, ok := job.ParseType("contract")
	assert.True(t, ok)
	assert.Equal(t, job.TypeContract, jt)

	_, ok = job.ParseType("GIG")
	assert.False(t, ok)

	lvl, ok := job.ParseExperienceLevel("SENIOR")
	assert.True(t, ok)
	assert.Equal(t, job.ExperienceSenior, lvl)

	_, ok = job.ParseRemoteType("")
	assert.False(t, ok)
}

func TestIsListed(t *testing.T) {
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.True(t, job.Job{Status: job.StatusActive}.IsListed(now))
	assert.True(t, job.Job{Status: job.StatusActive, ExpiresAt: &future}.IsListed(now))
	assert.False(t, job.Job{Status: job.StatusActive, ExpiresAt: &past}.IsListed(now))
	assert.False(t, job.Job{Status: job.StatusPaused}.IsListed(now))
}

func TestApplyContentKeepsCompany(t *testing.T) {
	owner := uuid.New()
	j := job.Job{CompanyID: owner, Title: "Old"}
	c := validContent()
	c.Title = "  New title "
	j.ApplyContent(c)

	assert.Equal(t, owner, j.CompanyID)
	assert.Equal(t, "New title", j.Title)
}
