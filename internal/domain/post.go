package domain

import "time"

// Post is the backend's post record as seen by this client. Status is the
// decoded enum; RawStatus keeps the backend string verbatim for display when
// the vocabulary is unknown.
type Post struct {
	ID          int
	Content     string
	ImageURL    string
	Status      Status
	RawStatus   string
	ScheduledAt *time.Time
	CreatedAt   time.Time
}

func (p *Post) State(now time.Time) State {
	return Classify(p.Status, p.ScheduledAt, now)
}

func (p *Post) Actions(now time.Time) Actions {
	return ActionsFor(p.State(now))
}
