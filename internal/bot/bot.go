// Package bot provides the companion Telegram bot: it opens the
// mini-app and resolves profile photos for the avatar proxy.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"rating-arena/internal/config"
	"rating-arena/internal/service"
)

const helpText = `Rating Arena commands:
/sr_start - open the arena
/sr_top - chat leaderboard
/sr_help - this message

Everything else happens in the mini-app.`

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot      *tele.Bot
	cfg      *config.Config
	accounts *service.AccountService
	rankings *service.RankingService
}

// New creates a new Bot instance.
func New(cfg *config.Config, accounts *service.AccountService, rankings *service.RankingService) (*Bot, error) {
	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  cfg.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot:      teleBot,
		cfg:      cfg,
		accounts: accounts,
		rankings: rankings,
	}

	b.bot.Use(LoggingMiddleware())
	b.registerHandlers()

	return b, nil
}

func (b *Bot) registerHandlers() {
	b.bot.Handle("/sr_start", b.handleStart)
	b.bot.Handle("/sr_top", b.handleTop)
	b.bot.Handle("/sr_help", b.handleHelp)
}

// handleStart registers the sender and replies with the mini-app
// button. The chat ID rides along as a query parameter so the web app
// lands in the right arena.
func (b *Bot) handleStart(c tele.Context) error {
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := b.accounts.EnsureAccount(ctx, sender.ID, chat.ID, senderName(sender)); err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("failed to ensure account")
		return c.Send("Something went wrong, try again later.")
	}

	markup := &tele.ReplyMarkup{}
	open := markup.WebApp("Open Rating Arena", &tele.WebApp{
		URL: fmt.Sprintf("%s?chat_id=%d", b.cfg.Server.WebAppURL, chat.ID),
	})
	markup.Inline(markup.Row(open))

	return c.Send("Step into the arena:", markup)
}

func (b *Bot) handleTop(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entries, err := b.rankings.Leaderboard(ctx, chat.ID, service.DefaultLeaderboardLimit)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chat.ID).Msg("failed to load leaderboard")
		return c.Send("Something went wrong, try again later.")
	}
	if len(entries) == 0 {
		return c.Send("Nobody has a rating here yet. Be the first.")
	}

	msg := "🏆 Top of this chat:\n"
	for i, e := range entries {
		msg += fmt.Sprintf("%d. %s — %d\n", i+1, e.Username, e.Rating)
	}
	return c.Send(msg)
}

func (b *Bot) handleHelp(c tele.Context) error {
	return c.Send(helpText)
}

// AvatarURL resolves a user's current profile photo into a Telegram
// file URL. Implements the avatar proxy's resolver.
func (b *Bot) AvatarURL(_ context.Context, userID int64) (string, error) {
	photos, err := b.bot.ProfilePhotosOf(&tele.User{ID: userID})
	if err != nil {
		return "", fmt.Errorf("failed to list profile photos: %w", err)
	}
	if len(photos) == 0 {
		return "", nil
	}

	file, err := b.bot.FileByID(photos[0].FileID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve photo file: %w", err)
	}
	return fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", b.cfg.Bot.Token, file.FilePath), nil
}

// Start begins long-polling. Blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Msg("Starting Telegram bot...")
	b.bot.Start()
}

// Stop gracefully stops the bot.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping Telegram bot...")
	b.bot.Stop()
}

func senderName(u *tele.User) string {
	if u.Username != "" {
		return u.Username
	}
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}
