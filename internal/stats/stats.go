package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/linkpost/linkpost-bot/internal/domain"
	"github.com/samber/lo"
)

// Summary aggregates the mirrored post list for the /stats command.
type Summary struct {
	Total     int
	ByState   map[domain.State]int
	PerDay    map[string]int
	Scheduled int
	Overdue   int
}

// Compute builds a summary over the given posts. PerDay counts creations
// over the trailing window of days, keyed by YYYY-MM-DD.
func Compute(posts []*domain.Post, now time.Time, days int) Summary {
	byState := lo.CountValuesBy(posts, func(p *domain.Post) domain.State {
		return p.State(now)
	})

	cutoff := now.AddDate(0, 0, -days)
	recent := lo.Filter(posts, func(p *domain.Post, _ int) bool {
		return p.CreatedAt.After(cutoff)
	})
	perDay := lo.CountValuesBy(recent, func(p *domain.Post) string {
		return p.CreatedAt.Format("2006-01-02")
	})

	return Summary{
		Total:     len(posts),
		ByState:   byState,
		PerDay:    perDay,
		Scheduled: byState[domain.StateScheduled],
		Overdue:   byState[domain.StateOverdue],
	}
}

// Format renders the summary as a plain-text Telegram message.
func (s Summary) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Posts: %d total\n", s.Total)
	for _, state := range []domain.State{domain.StateDraft, domain.StateScheduled, domain.StateOverdue, domain.StatePublished} {
		if n := s.ByState[state]; n > 0 {
			fmt.Fprintf(&b, "  %s: %d\n", state, n)
		}
	}

	if len(s.PerDay) > 0 {
		b.WriteString("Created recently:\n")
		days := lo.Keys(s.PerDay)
		sort.Strings(days)
		for _, day := range days {
			fmt.Fprintf(&b, "  %s: %d\n", day, s.PerDay[day])
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
