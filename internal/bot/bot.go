package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"youtube_bot/internal/config"
	"youtube_bot/internal/model"
	"youtube_bot/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Manager drives the subscription lifecycle on behalf of bot commands.
type Manager interface {
	Subscribe(ctx context.Context, channelID string) (*model.Channel, error)
	Unsubscribe(ctx context.Context, channelID string) error
	ResubscribeAll(ctx context.Context) error
	FindMissingVideos(ctx context.Context) error
}

// Bot is the Telegram bot that handles operator commands and delivers
// new-video notifications to the configured chat.
type Bot struct {
	api     telegramAPI
	store   storage.Storage
	manager Manager
	cfg     *config.Config
	log     *slog.Logger
}

// New creates a Bot with the given Telegram token, storage, manager and config.
func New(token string, store storage.Storage, manager Manager, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:     api,
		store:   store,
		manager: manager,
		cfg:     cfg,
		log:     log,
	}, nil
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if !b.cfg.IsUserAllowed(update.Message.From.ID) {
				b.reply(update.Message.Chat.ID, "Access denied.")
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

// NotifyVideo delivers a new-video notification to the configured chat. It is
// the delivery sink of the queue consumer, so unlike command replies the error
// is returned for the caller to handle.
func (b *Bot) NotifyVideo(_ context.Context, video model.Announcement) error {
	msg := tgbotapi.NewMessage(b.cfg.NotifyChatID, FormatVideoNotification(video))
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send video notification: %w", err)
	}
	return nil
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case "subscribe":
		b.handleSubscribe(ctx, chatID, args)
	case "unsubscribe":
		b.handleUnsubscribe(ctx, chatID, args)
	case "channels":
		b.handleChannels(ctx, chatID)
	case "keywords":
		b.handleKeywords(ctx, chatID, args)
	case "addkeywords":
		b.handleAddKeywords(ctx, chatID, args)
	case "rmkeywords":
		b.handleRmKeywords(ctx, chatID, args)
	case "resub":
		b.handleResub(ctx, chatID)
	case "missing":
		b.handleMissing(ctx, chatID)
	case "watched":
		b.handleWatched(ctx, chatID, args)
	case "random":
		b.handleRandom(ctx, chatID, args)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}
