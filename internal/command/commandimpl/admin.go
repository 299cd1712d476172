package commandimpl

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (c *CommandImpl) isAdmin(chatID int64) bool {
	for _, id := range c.Config.AdminChatIDs() {
		if id == chatID {
			return true
		}
	}
	return false
}

func (c *CommandImpl) processAdminCommand(ctx context.Context, update tgbotapi.Update, command, args string) error {
	chatID := update.Message.Chat.ID
	if !c.isAdmin(chatID) {
		_, err := c.Telegram.SendMessage(chatID, "This command is for administrators.")
		return err
	}

	switch command {
	case "users":
		return c.handleUsers(ctx, chatID)
	case "activate":
		return c.handleUserStatus(ctx, chatID, args, true)
	case "deactivate":
		return c.handleUserStatus(ctx, chatID, args, false)
	case "promote":
		return c.handlePromote(ctx, chatID, args)
	case "rmuser":
		return c.handleRemoveUser(ctx, chatID, args)
	case "setstatus":
		return c.handleSetPostStatus(ctx, chatID, args)
	case "rmpost":
		return c.handleRemovePost(ctx, chatID, args)
	}
	return nil
}

func (c *CommandImpl) handleUsers(ctx context.Context, chatID int64) error {
	users, err := c.API.AllUsers(ctx)
	if err != nil {
		c.Telegram.SendMessage(chatID, c.describeFailure(err))
		return err
	}
	if len(users) == 0 {
		_, err := c.Telegram.SendMessage(chatID, "No users.")
		return err
	}

	lines := make([]string, 0, len(users))
	for _, u := range users {
		flags := ""
		if u.IsAdmin {
			flags += " admin"
		}
		if !u.IsActive {
			flags += " inactive"
		}
		lines = append(lines, fmt.Sprintf("%s — %s (%s)%s", u.ID, u.Username, u.Email, flags))
	}
	_, err = c.Telegram.SendMessage(chatID, strings.Join(lines, "\n"))
	return err
}

func (c *CommandImpl) handleUserStatus(ctx context.Context, chatID int64, args string, active bool) error {
	userID := strings.TrimSpace(args)
	if userID == "" {
		_, err := c.Telegram.SendMessage(chatID, "Usage: /activate <user-id> or /deactivate <user-id>")
		return err
	}

	if err := c.API.UpdateUserStatus(ctx, userID, active); err != nil {
		c.Telegram.SendMessage(chatID, c.describeFailure(err))
		return err
	}

	verb := "deactivated"
	if active {
		verb = "activated"
	}
	_, err := c.Telegram.SendMessage(chatID, fmt.Sprintf("✅ User %s %s.", userID, verb))
	return err
}

func (c *CommandImpl) handlePromote(ctx context.Context, chatID int64, args string) error {
	userID := strings.TrimSpace(args)
	if userID == "" {
		_, err := c.Telegram.SendMessage(chatID, "Usage: /promote <user-id>")
		return err
	}

	if err := c.API.PromoteToAdmin(ctx, userID); err != nil {
		c.Telegram.SendMessage(chatID, c.describeFailure(err))
		return err
	}
	_, err := c.Telegram.SendMessage(chatID, fmt.Sprintf("✅ User %s is now an administrator.", userID))
	return err
}

func (c *CommandImpl) handleRemoveUser(ctx context.Context, chatID int64, args string) error {
	userID := strings.TrimSpace(args)
	if userID == "" {
		_, err := c.Telegram.SendMessage(chatID, "Usage: /rmuser <user-id>")
		return err
	}

	if err := c.API.DeleteUser(ctx, userID); err != nil {
		c.Telegram.SendMessage(chatID, c.describeFailure(err))
		return err
	}
	_, err := c.Telegram.SendMessage(chatID, fmt.Sprintf("🗑 User %s deleted.", userID))
	return err
}

func (c *CommandImpl) handleSetPostStatus(ctx context.Context, chatID int64, args string) error {
	idPart, status, ok := strings.Cut(args, " ")
	status = strings.TrimSpace(status)
	id, err := parsePostID(idPart)
	if !ok || err != nil || status == "" {
		_, err := c.Telegram.SendMessage(chatID, "Usage: /setstatus <post-id> <status>")
		return err
	}

	if err := c.API.UpdatePostStatus(ctx, id, status); err != nil {
		c.Telegram.SendMessage(chatID, c.describeFailure(err))
		return err
	}
	_, err = c.Telegram.SendMessage(chatID, fmt.Sprintf("✅ Post #%d status set to %q.", id, status))
	return err
}

func (c *CommandImpl) handleRemovePost(ctx context.Context, chatID int64, args string) error {
	id, err := parsePostID(args)
	if err != nil {
		_, err := c.Telegram.SendMessage(chatID, "Usage: /rmpost <post-id>")
		return err
	}

	if err := c.API.DeletePostAdmin(ctx, id); err != nil {
		c.Telegram.SendMessage(chatID, c.describeFailure(err))
		return err
	}

	if err := c.PostRepo.Delete(ctx, id); err != nil {
		c.Logger.Error("Failed to remove post from mirror", "postID", id, "error", err)
	}
	c.Watcher.ForgetNotified(id)

	_, err = c.Telegram.SendMessage(chatID, fmt.Sprintf("🗑 Post #%d deleted.", id))
	return err
}
