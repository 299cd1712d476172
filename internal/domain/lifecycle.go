package domain

import "time"

// State is the derived lifecycle label of a post. It is never persisted:
// every view computes it from (Status, ScheduledAt, now) so independent
// views always agree on the same record.
type State int

const (
	StateDraft State = iota
	StateScheduled
	StateOverdue
	StatePublished
)

func (s State) String() string {
	switch s {
	case StateScheduled:
		return "scheduled"
	case StateOverdue:
		return "overdue"
	case StatePublished:
		return "published"
	default:
		return "draft"
	}
}

// Classify derives the lifecycle state. Pure: now is caller-supplied, so the
// function never reads the clock and identical inputs give identical output.
//
// Precedence: a published status wins regardless of any schedule; otherwise
// a schedule at or before now is overdue (the boundary counts as overdue so
// the user is prompted to act instead of waiting), a future schedule is
// scheduled, and no schedule at all is a draft.
func Classify(status Status, scheduledAt *time.Time, now time.Time) State {
	if status == StatusPublished {
		return StatePublished
	}
	if scheduledAt != nil {
		if scheduledAt.After(now) {
			return StateScheduled
		}
		return StateOverdue
	}
	return StateDraft
}

// Actions is the set of operations currently valid for a post.
type Actions struct {
	CanEdit    bool
	CanDelete  bool
	CanPublish bool
	// Republish flags that the publish action would be a re-publication of
	// an already published post. It is the same backend mutation, not a
	// distinct operation.
	Republish bool
}

// ActionsFor gates user actions by state. Editing and deleting are allowed
// in every state, published posts included; that matches the backend's
// current behavior even though it may be unintentionally loose.
func ActionsFor(state State) Actions {
	return Actions{
		CanEdit:    true,
		CanDelete:  true,
		CanPublish: true,
		Republish:  state == StatePublished,
	}
}

// ParseSchedule decodes an optional wire timestamp. Absent or malformed
// values return nil so classification degrades to the no-schedule path
// instead of failing.
func ParseSchedule(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
