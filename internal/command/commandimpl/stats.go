package commandimpl

import (
	"context"

	"github.com/linkpost/linkpost-bot/internal/stats"
)

const statsWindowDays = 7

func (c *CommandImpl) handleStats(ctx context.Context, chatID int64) error {
	posts, err := c.PostRepo.List(ctx, 0)
	if err != nil {
		c.Telegram.SendMessage(chatID, "Could not read the post list. Try /sync first.")
		return err
	}

	summary := stats.Compute(posts, c.Clock.Now(), statsWindowDays)
	_, err = c.Telegram.SendMessage(chatID, summary.Format())
	return err
}
