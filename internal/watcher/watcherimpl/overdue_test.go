package watcherimpl

import (
	"context"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jonboulle/clockwork"
	"github.com/linkpost/linkpost-bot/internal/api"
	"github.com/linkpost/linkpost-bot/internal/domain"
	"github.com/linkpost/linkpost-bot/internal/repositories/post"
	"github.com/linkpost/linkpost-bot/pkg/config"
	"github.com/linkpost/linkpost-bot/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	post.Repository

	posts      []*domain.Post
	replaced   []domain.Post
	replaceErr error
}

func (f *fakeRepo) List(ctx context.Context, limit int) ([]*domain.Post, error) {
	return f.posts, nil
}

func (f *fakeRepo) ReplaceAll(ctx context.Context, posts []domain.Post) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replaced = posts
	return nil
}

type fakeTelegram struct {
	sent    []string
	sendErr error
}

func (f *fakeTelegram) SendMessage(chatID int64, text string) (int, error) {
	if f.sendErr != nil {
		return 0, f.sendErr
	}
	f.sent = append(f.sent, text)
	return len(f.sent), nil
}

func (f *fakeTelegram) SendPhotoByURL(chatID int64, url, caption string) error { return nil }
func (f *fakeTelegram) FileURL(fileID string) (string, error)                  { return "", nil }
func (f *fakeTelegram) SendMessageToUser(msg string)                           {}
func (f *fakeTelegram) StopReceivingUpdates()                                  {}
func (f *fakeTelegram) GetUpdatesChan(u tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return nil
}

type fakeAPI struct {
	api.Client

	posts []domain.Post
	err   error
}

func (f *fakeAPI) AllPosts(ctx context.Context) ([]domain.Post, error) {
	return f.posts, f.err
}

func newTestWatcher(repo *fakeRepo, tg *fakeTelegram, apiClient api.Client, clock clockwork.Clock) *WatcherImpl {
	cfg := &config.Config{}
	cfg.Telegram.User = 42
	cfg.Watcher.SyncInterval = 30 * time.Second
	cfg.Watcher.SweepInterval = 30 * time.Second

	return &WatcherImpl{
		API:      apiClient,
		Telegram: tg,
		PostRepo: repo,
		Logger:   logger.New(logger.Opts{}),
		Config:   cfg,
		Clock:    clock,
		notified: make(map[int]struct{}),
	}
}

func tp(t time.Time) *time.Time { return &t }

func TestSweepOnceNotifiesOnce(t *testing.T) {
	start := time.Date(2025, 8, 12, 10, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)

	repo := &fakeRepo{posts: []*domain.Post{
		{ID: 1, Content: "quarterly roundup", Status: domain.StatusDraft, ScheduledAt: tp(start.Add(-time.Minute))},
		{ID: 2, Content: "future post", Status: domain.StatusDraft, ScheduledAt: tp(start.Add(time.Hour))},
		{ID: 3, Content: "already out", Status: domain.StatusPublished, ScheduledAt: tp(start.Add(-time.Hour))},
	}}
	tg := &fakeTelegram{}
	w := newTestWatcher(repo, tg, &fakeAPI{}, clock)

	// three consecutive sweeps, only the first one alerts
	for i := 0; i < 3; i++ {
		require.NoError(t, w.SweepOnce(context.Background()))
	}

	require.Len(t, tg.sent, 1)
	assert.Contains(t, tg.sent[0], "Post #1 is overdue")
	assert.Contains(t, tg.sent[0], "quarterly roundup")
}

func TestSweepOnceAlertsWhenDeadlinePasses(t *testing.T) {
	start := time.Date(2025, 8, 12, 10, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)

	repo := &fakeRepo{posts: []*domain.Post{
		{ID: 7, Content: "launch note", Status: domain.StatusDraft, ScheduledAt: tp(start.Add(time.Minute))},
	}}
	tg := &fakeTelegram{}
	w := newTestWatcher(repo, tg, &fakeAPI{}, clock)

	require.NoError(t, w.SweepOnce(context.Background()))
	assert.Empty(t, tg.sent)

	clock.Advance(2 * time.Minute)
	require.NoError(t, w.SweepOnce(context.Background()))
	require.Len(t, tg.sent, 1)
}

func TestSweepOnceRetriesAfterSendFailure(t *testing.T) {
	start := time.Date(2025, 8, 12, 10, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)

	repo := &fakeRepo{posts: []*domain.Post{
		{ID: 5, Content: "retry me", Status: domain.StatusDraft, ScheduledAt: tp(start.Add(-time.Minute))},
	}}
	tg := &fakeTelegram{sendErr: assert.AnError}
	w := newTestWatcher(repo, tg, &fakeAPI{}, clock)

	// send keeps failing, so the marker must not be set
	require.NoError(t, w.SweepOnce(context.Background()))
	assert.Empty(t, tg.sent)
	assert.False(t, w.alreadyNotified(5))

	tg.sendErr = nil
	require.NoError(t, w.SweepOnce(context.Background()))
	require.Len(t, tg.sent, 1)
	assert.True(t, w.alreadyNotified(5))
}

func TestForgetNotifiedReArms(t *testing.T) {
	start := time.Date(2025, 8, 12, 10, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)

	repo := &fakeRepo{posts: []*domain.Post{
		{ID: 9, Content: "rescheduled", Status: domain.StatusDraft, ScheduledAt: tp(start.Add(-time.Minute))},
	}}
	tg := &fakeTelegram{}
	w := newTestWatcher(repo, tg, &fakeAPI{}, clock)

	require.NoError(t, w.SweepOnce(context.Background()))
	require.Len(t, tg.sent, 1)

	w.ForgetNotified(9)
	require.NoError(t, w.SweepOnce(context.Background()))
	require.Len(t, tg.sent, 2)
}

func TestSyncOnceReplacesMirror(t *testing.T) {
	start := time.Date(2025, 8, 12, 10, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)

	apiClient := &fakeAPI{posts: []domain.Post{
		{ID: 1, Content: "one"},
		{ID: 2, Content: "two"},
	}}
	repo := &fakeRepo{}
	w := newTestWatcher(repo, &fakeTelegram{}, apiClient, clock)

	require.NoError(t, w.SyncOnce(context.Background()))
	assert.Len(t, repo.replaced, 2)
}

func TestSyncOncePropagatesFetchError(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Now())
	w := newTestWatcher(&fakeRepo{}, &fakeTelegram{}, &fakeAPI{err: assert.AnError}, clock)

	err := w.SyncOnce(context.Background())
	require.Error(t, err)
}
