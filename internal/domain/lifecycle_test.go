package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func TestClassify(t *testing.T) {
	future := ptr(now.Add(time.Hour))
	past := ptr(now.Add(-time.Hour))

	tests := []struct {
		name        string
		status      Status
		scheduledAt *time.Time
		want        State
	}{
		{"published wins over future schedule", StatusPublished, future, StatePublished},
		{"published wins over past schedule", StatusPublished, past, StatePublished},
		{"published without schedule", StatusPublished, nil, StatePublished},
		{"draft without schedule", StatusDraft, nil, StateDraft},
		{"draft with future schedule", StatusDraft, future, StateScheduled},
		{"draft with past schedule", StatusDraft, past, StateOverdue},
		{"boundary counts as overdue", StatusDraft, ptr(now), StateOverdue},
		{"error status with no schedule", StatusError, nil, StateDraft},
		{"unknown status with future schedule", StatusUnknown, future, StateScheduled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.status, tt.scheduledAt, now))
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	sched := ptr(now.Add(-time.Minute))
	first := Classify(StatusDraft, sched, now)
	second := Classify(StatusDraft, sched, now)
	assert.Equal(t, first, second)
	assert.Equal(t, StateOverdue, first)
}

func TestDecodeStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"Publié", StatusPublished},
		{"publié", StatusPublished},
		{"PUBLISHED", StatusPublished},
		{"Brouillon", StatusDraft},
		{"BROUILLON", StatusDraft},
		{"draft", StatusDraft},
		{"", StatusDraft},
		{"Erreur", StatusError},
		{"error", StatusError},
		{"pending", StatusUnknown},
		{"n'importe quoi", StatusUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DecodeStatus(tt.raw), "raw=%q", tt.raw)
	}
}

func TestParseSchedule(t *testing.T) {
	got := ParseSchedule("2099-01-01T00:00:00Z")
	require.NotNil(t, got)
	assert.Equal(t, 2099, got.Year())

	assert.Nil(t, ParseSchedule(""))
	assert.Nil(t, ParseSchedule("not-a-date"))
	assert.Nil(t, ParseSchedule("2099-13-45"))
}

func TestMalformedScheduleDegradesToDraft(t *testing.T) {
	// The boundary decodes bad timestamps to nil, so classification falls
	// through to the draft branch instead of failing.
	assert.Equal(t, StateDraft, Classify(StatusDraft, ParseSchedule("not-a-date"), now))
}

func TestActionsFor(t *testing.T) {
	for _, state := range []State{StateDraft, StateScheduled, StateOverdue, StatePublished} {
		a := ActionsFor(state)
		assert.True(t, a.CanEdit, "state=%s", state)
		assert.True(t, a.CanDelete, "state=%s", state)
		assert.True(t, a.CanPublish, "state=%s", state)
		assert.Equal(t, state == StatePublished, a.Republish, "state=%s", state)
	}
}

func TestScheduledPostLifecycle(t *testing.T) {
	// Create scheduled, let the deadline pass, publish: the full round trip
	// a deferred post goes through.
	post := Post{
		ID:          7,
		Content:     "<p>hello</p>",
		Status:      DecodeStatus("Brouillon"),
		ScheduledAt: ParseSchedule("2099-01-01T00:00:00Z"),
		CreatedAt:   now,
	}

	assert.Equal(t, StateScheduled, post.State(now))

	later := time.Date(2099, 1, 1, 0, 0, 1, 0, time.UTC)
	assert.Equal(t, StateOverdue, post.State(later))

	// The server confirms the publish with its declared status.
	post.Status = DecodeStatus("Publié")
	assert.Equal(t, StatePublished, post.State(later))
	assert.True(t, post.Actions(later).CanPublish, "republish stays available")
	assert.True(t, post.Actions(later).Republish)
}
