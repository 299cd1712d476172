package stats

import (
	"testing"
	"time"

	"github.com/linkpost/linkpost-bot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tp(t time.Time) *time.Time { return &t }

func TestCompute(t *testing.T) {
	now := time.Date(2025, 8, 12, 10, 0, 0, 0, time.UTC)

	posts := []*domain.Post{
		{ID: 1, Status: domain.StatusDraft, CreatedAt: now.Add(-time.Hour)},
		{ID: 2, Status: domain.StatusDraft, ScheduledAt: tp(now.Add(time.Hour)), CreatedAt: now.Add(-time.Hour)},
		{ID: 3, Status: domain.StatusDraft, ScheduledAt: tp(now.Add(-time.Hour)), CreatedAt: now.AddDate(0, 0, -2)},
		{ID: 4, Status: domain.StatusPublished, CreatedAt: now.AddDate(0, 0, -10)},
	}

	s := Compute(posts, now, 7)

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.ByState[domain.StateDraft])
	assert.Equal(t, 1, s.Scheduled)
	assert.Equal(t, 1, s.Overdue)
	assert.Equal(t, 1, s.ByState[domain.StatePublished])

	// the 10-day-old post falls outside the 7-day window
	require.Len(t, s.PerDay, 2)
	assert.Equal(t, 2, s.PerDay["2025-08-12"])
	assert.Equal(t, 1, s.PerDay["2025-08-10"])
}

func TestComputeEmpty(t *testing.T) {
	s := Compute(nil, time.Now(), 7)
	assert.Equal(t, 0, s.Total)
	assert.Empty(t, s.PerDay)
}

func TestSummaryFormat(t *testing.T) {
	now := time.Date(2025, 8, 12, 10, 0, 0, 0, time.UTC)
	posts := []*domain.Post{
		{ID: 1, Status: domain.StatusDraft, CreatedAt: now.Add(-time.Hour)},
		{ID: 2, Status: domain.StatusPublished, CreatedAt: now.Add(-time.Hour)},
	}

	out := Compute(posts, now, 7).Format()

	assert.Contains(t, out, "Posts: 2 total")
	assert.Contains(t, out, "draft: 1")
	assert.Contains(t, out, "published: 1")
	assert.Contains(t, out, "2025-08-12: 2")
}
