package commandimpl

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/linkpost/linkpost-bot/internal/api"
	"github.com/linkpost/linkpost-bot/internal/domain"
	"github.com/linkpost/linkpost-bot/internal/repositories/post"
	apperrors "github.com/linkpost/linkpost-bot/pkg/errors"
	"github.com/linkpost/linkpost-bot/pkg/formatter"
)

const helpMessage = `👋 *Welcome to the LinkPost bot!*

Compose, schedule and publish your posts from this chat.

*BROWSE:*
/list - Show your posts with their current state.
/search <text> - Find posts by content.
/show <id> - Show one post in full.
/stats - Aggregate numbers over your posts.
/me - Show the signed-in account.

*COMPOSE:*
/create <content> - Create a draft right away.
/schedule <YYYY-MM-DDTHH:MM> <content> - Create a post scheduled for later.
/schedule <id> <YYYY-MM-DDTHH:MM> - Move an existing post's deadline.
/generate <theme> | <tone> | <length> - Let AI draft a post for you.
/image <prompt> - Generate an image, kept for the next /attach or /create.
Send a photo to upload it the same way.
/attach <id> [url] - Attach the kept image (or the given URL) to a post.

*MANAGE:*
/edit <id> <new content> - Replace a post's content.
/publish <id> - Publish (or re-publish) a post now.
/delete <id> - Delete a post. Asks for /confirm first.
/sync - Refresh the post list from the server now.

Type /help at any time to see this guide.`

func (c *CommandImpl) HandleCommand(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := c.Telegram.GetUpdatesChan(u)
	c.Logger.Info("Command handler started, listening for updates.")

	for {
		select {
		case <-ctx.Done():
			c.Logger.Info("Command handler shutting down.")
			c.Telegram.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				c.Logger.Warn("Telegram updates channel closed unexpectedly. Restarting handler...")
				return errors.New("telegram updates channel closed")
			}

			go func(u tgbotapi.Update) {
				defer func() {
					if r := recover(); r != nil {
						c.Logger.Error("Panic recovered while processing an update", "panic", r, "stack", string(debug.Stack()))
					}
				}()

				if u.Message == nil {
					return
				}

				chatID := u.Message.Chat.ID
				if !c.Limiter.Allow(chatID) {
					c.Telegram.SendMessage(chatID, "Too many commands, give it a moment.")
					return
				}

				if len(u.Message.Photo) > 0 {
					c.handlePhoto(ctx, u)
					return
				}

				if u.Message.IsCommand() {
					c.Logger.Info("Command received", "from", u.Message.From.UserName, "command", u.Message.Command())
					if err := c.processCommand(ctx, u); err != nil {
						c.Logger.Error("Error processing command",
							"command", u.Message.Command(),
							"error", err)
					}
				}
			}(update)
		}
	}
}

func (c *CommandImpl) processCommand(ctx context.Context, update tgbotapi.Update) error {
	command := update.Message.Command()
	args := strings.TrimSpace(update.Message.CommandArguments())
	chatID := update.Message.Chat.ID

	switch command {
	case "start", "help":
		_, err := c.Telegram.SendMessage(chatID, helpMessage)
		return err
	case "list":
		return c.handleList(ctx, chatID)
	case "search":
		return c.handleSearch(ctx, chatID, args)
	case "show":
		return c.handleShow(ctx, chatID, args)
	case "me":
		return c.handleMe(ctx, chatID)
	case "stats":
		return c.handleStats(ctx, chatID)
	case "create":
		return c.handleCreate(ctx, chatID, args, nil)
	case "schedule":
		return c.handleSchedule(ctx, chatID, args)
	case "generate":
		return c.handleGenerate(ctx, chatID, args)
	case "image":
		return c.handleImage(ctx, chatID, args)
	case "attach":
		return c.handleAttach(ctx, chatID, args)
	case "edit":
		return c.handleEdit(ctx, chatID, args)
	case "publish":
		return c.handlePublish(ctx, chatID, args)
	case "delete":
		return c.handleDelete(ctx, chatID, args)
	case "confirm":
		return c.handleConfirm(ctx, chatID)
	case "sync":
		return c.handleSync(ctx, chatID)
	case "users", "activate", "deactivate", "promote", "rmuser", "setstatus", "rmpost":
		return c.processAdminCommand(ctx, update, command, args)
	default:
		_, err := c.Telegram.SendMessage(chatID, "Unknown command. Type /help to see the list of available commands.")
		return err
	}
}

// formatPostLine renders one post for the /list and /search views. The
// state and the valid actions are derived on the spot, never read back
// from storage.
func (c *CommandImpl) formatPostLine(p *domain.Post) string {
	now := c.Clock.Now()
	state := p.State(now)

	line := fmt.Sprintf("#%d [%s] %s", p.ID, state, formatter.Preview(p.Content, 50))
	if state == domain.StateScheduled || state == domain.StateOverdue {
		line += fmt.Sprintf(" (for %s)", p.ScheduledAt.Format("2006-01-02 15:04"))
	}
	// a status this client does not know is shown exactly as the server
	// sent it
	if p.Status == domain.StatusUnknown {
		line += fmt.Sprintf(" (status: %s)", p.RawStatus)
	}
	return line
}

func (c *CommandImpl) handleList(ctx context.Context, chatID int64) error {
	posts, err := c.PostRepo.List(ctx, 20)
	if err != nil {
		c.Telegram.SendMessage(chatID, "Could not read the post list. Try /sync first.")
		return err
	}
	if len(posts) == 0 {
		_, err := c.Telegram.SendMessage(chatID, "No posts yet. Start with /create or /generate.")
		return err
	}

	lines := make([]string, 0, len(posts))
	for _, p := range posts {
		lines = append(lines, c.formatPostLine(p))
	}
	_, err = c.Telegram.SendMessage(chatID, strings.Join(lines, "\n"))
	return err
}

func (c *CommandImpl) handleSearch(ctx context.Context, chatID int64, args string) error {
	if args == "" {
		_, err := c.Telegram.SendMessage(chatID, "Please provide a search text: /search <text>")
		return err
	}

	posts, err := c.PostRepo.SearchContent(ctx, args, 20)
	if err != nil {
		c.Telegram.SendMessage(chatID, "Search failed. Try again later.")
		return err
	}
	if len(posts) == 0 {
		_, err := c.Telegram.SendMessage(chatID, fmt.Sprintf("No posts matching %q.", args))
		return err
	}

	lines := make([]string, 0, len(posts))
	for _, p := range posts {
		lines = append(lines, c.formatPostLine(p))
	}
	_, err = c.Telegram.SendMessage(chatID, strings.Join(lines, "\n"))
	return err
}

func (c *CommandImpl) handleShow(ctx context.Context, chatID int64, args string) error {
	id, err := parsePostID(args)
	if err != nil {
		_, err := c.Telegram.SendMessage(chatID, "Usage: /show <id>")
		return err
	}

	p, err := c.PostRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			_, err := c.Telegram.SendMessage(chatID, fmt.Sprintf("Post #%d not found.", id))
			return err
		}
		return err
	}

	now := c.Clock.Now()
	state := p.State(now)
	actions := p.Actions(now)

	var b strings.Builder
	fmt.Fprintf(&b, "#%d [%s]\n%s\n", p.ID, state, p.Content)
	if p.ScheduledAt != nil {
		fmt.Fprintf(&b, "Scheduled for: %s\n", p.ScheduledAt.Format("2006-01-02 15:04"))
	}
	if actions.Republish {
		b.WriteString("Already published. /publish republishes it.")
	} else {
		fmt.Fprintf(&b, "Actions: /edit %d, /publish %d, /delete %d", p.ID, p.ID, p.ID)
	}

	if p.ImageURL != "" {
		return c.Telegram.SendPhotoByURL(chatID, p.ImageURL, b.String())
	}
	_, err = c.Telegram.SendMessage(chatID, b.String())
	return err
}

func (c *CommandImpl) handleMe(ctx context.Context, chatID int64) error {
	user, err := c.API.Me(ctx)
	if err != nil {
		c.Telegram.SendMessage(chatID, c.describeFailure(err))
		return err
	}

	role := "member"
	if user.IsAdmin {
		role = "admin"
	}
	_, err = c.Telegram.SendMessage(chatID, fmt.Sprintf("Signed in as %s (%s), %s.", user.Username, user.Email, role))
	return err
}

func (c *CommandImpl) handleCreate(ctx context.Context, chatID int64, content string, scheduledAt *time.Time) error {
	content = strings.TrimSpace(content)
	imageURL := c.takeLastImage(chatID)

	// Local checks first: nothing goes on the wire until the input is
	// known to be acceptable.
	if content == "" && imageURL == "" {
		_, err := c.Telegram.SendMessage(chatID, "A post needs content or an image. Usage: /create <content>")
		return err
	}

	token, err := c.Verification.Token(ctx)
	if err != nil {
		c.Telegram.SendMessage(chatID, c.describeFailure(err))
		return err
	}

	result, err := c.API.CreatePost(ctx, api.CreatePostInput{
		Content:           content,
		ImageURL:          imageURL,
		ScheduledAt:       scheduledAt,
		VerificationToken: token,
	})
	if err != nil {
		c.Telegram.SendMessage(chatID, c.describeFailure(err))
		return err
	}
	c.Verification.MarkUsed()

	if !result.Success {
		return c.reportRejection(chatID, result.Message)
	}

	if result.Post != nil {
		if err := c.PostRepo.Upsert(ctx, *result.Post); err != nil {
			c.Logger.Error("Failed to mirror created post", "error", err)
		}
	}

	switch {
	case result.Post == nil:
		_, err = c.Telegram.SendMessage(chatID, "✅ Post created.")
	case scheduledAt != nil:
		_, err = c.Telegram.SendMessage(chatID, fmt.Sprintf("✅ Post #%d scheduled for %s.", result.Post.ID, scheduledAt.Format("2006-01-02 15:04")))
	default:
		_, err = c.Telegram.SendMessage(chatID, fmt.Sprintf("✅ Draft #%d created.", result.Post.ID))
	}
	return err
}

// handleSchedule covers both directions: "/schedule <id> <time>" moves an
// existing post's deadline, "/schedule <time> <content>" creates a new
// scheduled post.
func (c *CommandImpl) handleSchedule(ctx context.Context, chatID int64, args string) error {
	first, rest, ok := strings.Cut(args, " ")
	rest = strings.TrimSpace(rest)
	if !ok || first == "" || rest == "" {
		_, err := c.Telegram.SendMessage(chatID, "Usage: /schedule <id> <YYYY-MM-DDTHH:MM> or /schedule <YYYY-MM-DDTHH:MM> <content>")
		return err
	}

	if id, err := parsePostID(first); err == nil {
		return c.reschedule(ctx, chatID, id, rest)
	}

	scheduledAt, err := parseUserTime(first)
	if err != nil {
		_, err := c.Telegram.SendMessage(chatID, "I could not read that time. Use the form 2025-09-01T10:30.")
		return err
	}
	if !scheduledAt.After(c.Clock.Now()) {
		_, err := c.Telegram.SendMessage(chatID, "That time is already in the past. Pick a future time or use /create.")
		return err
	}

	return c.handleCreate(ctx, chatID, rest, &scheduledAt)
}

func (c *CommandImpl) reschedule(ctx context.Context, chatID int64, id int, when string) error {
	scheduledAt, err := parseUserTime(when)
	if err != nil {
		_, err := c.Telegram.SendMessage(chatID, "I could not read that time. Use the form 2025-09-01T10:30.")
		return err
	}
	if !scheduledAt.After(c.Clock.Now()) {
		_, err := c.Telegram.SendMessage(chatID, "That time is already in the past. Pick a future time.")
		return err
	}

	updated, err := c.API.UpdatePost(ctx, api.UpdatePostInput{ID: id, ScheduledAt: &scheduledAt})
	if err != nil {
		c.Telegram.SendMessage(chatID, c.describeFailure(err))
		return err
	}

	if err := c.PostRepo.Upsert(ctx, *updated); err != nil {
		c.Logger.Error("Failed to mirror rescheduled post", "error", err)
	}
	// A new deadline re-arms the overdue alert for this post.
	c.Watcher.ForgetNotified(id)

	_, err = c.Telegram.SendMessage(chatID, fmt.Sprintf("✅ Post #%d rescheduled for %s.", id, scheduledAt.Format("2006-01-02 15:04")))
	return err
}

func (c *CommandImpl) handleGenerate(ctx context.Context, chatID int64, args string) error {
	if args == "" {
		_, err := c.Telegram.SendMessage(chatID, "Usage: /generate <theme> | <tone> | <length>")
		return err
	}

	parts := strings.SplitN(args, "|", 3)
	input := api.GeneratePostInput{Theme: strings.TrimSpace(parts[0])}
	if len(parts) > 1 {
		input.Tone = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		input.Length = strings.TrimSpace(parts[2])
	}
	if input.Theme == "" {
		_, err := c.Telegram.SendMessage(chatID, "The theme cannot be empty.")
		return err
	}
	input.ImageURL = c.takeLastImage(chatID)

	token, err := c.Verification.Token(ctx)
	if err != nil {
		c.Telegram.SendMessage(chatID, c.describeFailure(err))
		return err
	}
	input.VerificationToken = token

	c.Telegram.SendMessage(chatID, "Generating your post... ⏳")

	result, err := c.API.GeneratePost(ctx, input)
	if err != nil {
		c.Telegram.SendMessage(chatID, c.describeFailure(err))
		return err
	}
	c.Verification.MarkUsed()

	if !result.Success {
		return c.reportRejection(chatID, result.Message)
	}

	if result.Post != nil {
		if err := c.PostRepo.Upsert(ctx, *result.Post); err != nil {
			c.Logger.Error("Failed to mirror generated post", "error", err)
		}
		_, err = c.Telegram.SendMessage(chatID, fmt.Sprintf("✅ Draft #%d generated:\n\n%s", result.Post.ID, result.Post.Content))
		return err
	}

	_, err = c.Telegram.SendMessage(chatID, "✅ Post generated.")
	return err
}

func (c *CommandImpl) handleImage(ctx context.Context, chatID int64, args string) error {
	if args == "" {
		_, err := c.Telegram.SendMessage(chatID, "Usage: /image <prompt>")
		return err
	}

	token, err := c.Verification.Token(ctx)
	if err != nil {
		c.Telegram.SendMessage(chatID, c.describeFailure(err))
		return err
	}

	c.Telegram.SendMessage(chatID, "Generating your image... ⏳")

	result, err := c.API.GenerateImage(ctx, args, token)
	if err != nil {
		c.Telegram.SendMessage(chatID, c.describeFailure(err))
		return err
	}
	c.Verification.MarkUsed()

	if !result.Success {
		return c.reportRejection(chatID, result.Message)
	}

	c.setLastImage(chatID, result.ImageURL)
	return c.Telegram.SendPhotoByURL(chatID, result.ImageURL, "Image ready. Use /attach <id> to add it to a post, or /create to start a new one with it.")
}

// handlePhoto re-uploads a user-sent photo to the backend and keeps the
// stored URL for the next /attach or /create.
func (c *CommandImpl) handlePhoto(ctx context.Context, update tgbotapi.Update) {
	chatID := update.Message.Chat.ID

	// Telegram sends several sizes, the last one is the original.
	photo := update.Message.Photo[len(update.Message.Photo)-1]

	fileURL, err := c.Telegram.FileURL(photo.FileID)
	if err != nil {
		c.Logger.Error("Failed to resolve photo file", "error", err)
		c.Telegram.SendMessage(chatID, "Could not read that photo, please send it again.")
		return
	}

	storedURL, err := c.Uploader.UploadFromURL(ctx, fileURL, photo.FileUniqueID+".jpg")
	if err != nil {
		c.Telegram.SendMessage(chatID, c.describeFailure(err))
		return
	}

	c.setLastImage(chatID, storedURL)
	c.Telegram.SendMessage(chatID, "Photo uploaded. Use /attach <id> to add it to a post, or /create to start a new one with it.")
}

func (c *CommandImpl) handleAttach(ctx context.Context, chatID int64, args string) error {
	idPart, urlPart, _ := strings.Cut(args, " ")
	id, err := parsePostID(idPart)
	if err != nil {
		_, err := c.Telegram.SendMessage(chatID, "Usage: /attach <id> [url]")
		return err
	}

	imageURL := strings.TrimSpace(urlPart)
	if imageURL == "" {
		imageURL = c.takeLastImage(chatID)
	}
	if imageURL == "" {
		_, err := c.Telegram.SendMessage(chatID, "No image on hand. Send a photo, use /image, or give a URL.")
		return err
	}

	updated, err := c.API.UpdatePost(ctx, api.UpdatePostInput{ID: id, ImageURL: &imageURL})
	if err != nil {
		c.setLastImage(chatID, imageURL) // keep it for another try
		c.Telegram.SendMessage(chatID, c.describeFailure(err))
		return err
	}

	if err := c.PostRepo.Upsert(ctx, *updated); err != nil {
		c.Logger.Error("Failed to mirror updated post", "error", err)
	}

	_, err = c.Telegram.SendMessage(chatID, fmt.Sprintf("✅ Image attached to post #%d.", id))
	return err
}

func (c *CommandImpl) handleEdit(ctx context.Context, chatID int64, args string) error {
	idPart, content, ok := strings.Cut(args, " ")
	content = strings.TrimSpace(content)
	id, err := parsePostID(idPart)
	if !ok || err != nil || content == "" {
		_, err := c.Telegram.SendMessage(chatID, "Usage: /edit <id> <new content>")
		return err
	}

	updated, err := c.API.UpdatePost(ctx, api.UpdatePostInput{ID: id, Content: &content})
	if err != nil {
		c.Telegram.SendMessage(chatID, c.describeFailure(err))
		return err
	}

	if err := c.PostRepo.Upsert(ctx, *updated); err != nil {
		c.Logger.Error("Failed to mirror updated post", "error", err)
	}

	_, err = c.Telegram.SendMessage(chatID, fmt.Sprintf("✅ Post #%d updated.", id))
	return err
}

func (c *CommandImpl) handlePublish(ctx context.Context, chatID int64, args string) error {
	id, err := parsePostID(args)
	if err != nil {
		_, err := c.Telegram.SendMessage(chatID, "Usage: /publish <id>")
		return err
	}

	now := c.Clock.Now()
	republish := false
	if p, err := c.PostRepo.GetByID(ctx, id); err == nil {
		republish = p.Actions(now).Republish
	}

	published, err := c.API.PublishPost(ctx, id)
	if err != nil {
		c.Telegram.SendMessage(chatID, c.describeFailure(err))
		return err
	}

	if err := c.PostRepo.Upsert(ctx, *published); err != nil {
		c.Logger.Error("Failed to mirror published post", "error", err)
	}
	// A publish resolves any overdue alert. Clearing the marker lets a
	// future reschedule of the same post alert again.
	c.Watcher.ForgetNotified(id)

	verb := "published"
	if republish {
		verb = "republished"
	}
	_, err = c.Telegram.SendMessage(chatID, fmt.Sprintf("✅ Post #%d %s.\n%s", id, verb, formatter.Preview(published.Content, 50)))
	return err
}

func (c *CommandImpl) handleDelete(ctx context.Context, chatID int64, args string) error {
	id, err := parsePostID(args)
	if err != nil {
		_, err := c.Telegram.SendMessage(chatID, "Usage: /delete <id>")
		return err
	}

	if _, err := c.PostRepo.GetByID(ctx, id); errors.Is(err, post.ErrNotFound) {
		_, err := c.Telegram.SendMessage(chatID, fmt.Sprintf("Post #%d not found.", id))
		return err
	}

	c.setPendingDelete(chatID, id)
	_, err = c.Telegram.SendMessage(chatID, fmt.Sprintf("Delete post #%d? This cannot be undone. Send /confirm to proceed.", id))
	return err
}

func (c *CommandImpl) handleConfirm(ctx context.Context, chatID int64) error {
	id, ok := c.takePendingDelete(chatID)
	if !ok {
		_, err := c.Telegram.SendMessage(chatID, "Nothing awaiting confirmation.")
		return err
	}

	if err := c.API.DeletePost(ctx, id); err != nil {
		c.Telegram.SendMessage(chatID, c.describeFailure(err))
		return err
	}

	if err := c.PostRepo.Delete(ctx, id); err != nil && !errors.Is(err, post.ErrNotFound) {
		c.Logger.Error("Failed to remove post from mirror", "postID", id, "error", err)
	}
	c.Watcher.ForgetNotified(id)

	_, err := c.Telegram.SendMessage(chatID, fmt.Sprintf("🗑 Post #%d deleted.", id))
	return err
}

func (c *CommandImpl) handleSync(ctx context.Context, chatID int64) error {
	if err := c.Watcher.SyncOnce(ctx); err != nil {
		c.Telegram.SendMessage(chatID, c.describeFailure(err))
		return err
	}
	_, err := c.Telegram.SendMessage(chatID, "✅ Post list refreshed.")
	return err
}

// reportRejection relays a success=false envelope. When the server blames
// the verification token, the cached token is discarded so the next attempt
// fetches a fresh one.
func (c *CommandImpl) reportRejection(chatID int64, message string) error {
	if api.BlamesVerification(message) {
		c.Verification.Invalidate()
		_, err := c.Telegram.SendMessage(chatID, "The server rejected the verification token. Please send the command again.")
		return err
	}
	if message == "" {
		message = "the server rejected the request"
	}
	_, err := c.Telegram.SendMessage(chatID, "❌ "+message)
	return err
}

// describeFailure turns an error into a user-facing line by taxonomy:
// validation and verification failures carry their message, transport
// failures get a generic retry hint.
func (c *CommandImpl) describeFailure(err error) string {
	switch {
	case apperrors.IsValidation(err):
		return "❌ " + apperrors.GetMessage(err)
	case apperrors.IsVerification(err):
		c.Verification.Invalidate()
		return "❌ Verification failed: " + apperrors.GetMessage(err) + " Please try again."
	case apperrors.IsNotFound(err):
		return "❌ Not found."
	case apperrors.IsUnauthorized(err), apperrors.IsForbidden(err):
		return "❌ You are not allowed to do that."
	default:
		return "❌ The server could not be reached. Your data is unchanged, try again in a moment."
	}
}

func parsePostID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("bad post id %q", s)
	}
	return id, nil
}

// parseUserTime reads the schedule formats users actually type. Times
// without a zone are taken as local time.
func parseUserTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02 15:04", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
