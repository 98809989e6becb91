package bot

import (
	"context"
	"errors"
	"fmt"

	"youtube_bot/internal/model"
	"youtube_bot/internal/storage"
	"youtube_bot/internal/subscription"
)

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to YouTube Notify Bot!

Watch YouTube channels and get a message for every new upload.

Quick start:
1. /subscribe <channel_id or url> — watch a channel
2. /addkeywords <channel_id> <word...> — only announce matching titles
3. /channels — list watched channels

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Channel management:
/subscribe <channel_id or url> — watch a channel
/unsubscribe <channel_id or url> — stop watching a channel
/channels — list watched channels

Keyword filters:
/keywords <channel_id> — show a channel's keywords
/addkeywords <channel_id> <word...> — add keywords (title must contain one)
/rmkeywords <channel_id> <word...> — remove keywords
Use the keyword $SHORT to announce only videos of 2 minutes or less.

Maintenance:
/resub — refresh the hub subscription of every channel
/missing — look for uploads the hub failed to deliver

Watch list:
/watched <video_id or url> — mark a video as watched
/random [n] — pick random videos from the backlog`)
}

func (b *Bot) handleSubscribe(ctx context.Context, chatID int64, args string) {
	channelID, err := ParseChannelArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /subscribe <channel_id or url>")
		return
	}

	ch, err := b.manager.Subscribe(ctx, channelID)
	if errors.Is(err, subscription.ErrAlreadySubscribed) {
		b.reply(chatID, fmt.Sprintf("Already subscribed to %s", model.ChannelURL(channelID)))
		return
	}
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to subscribe: %v", err))
		return
	}

	b.reply(chatID, fmt.Sprintf("Subscribed to \"%s\"\n%s", ch.Title, model.ChannelURL(ch.ID)))
}

func (b *Bot) handleUnsubscribe(ctx context.Context, chatID int64, args string) {
	channelID, err := ParseChannelArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /unsubscribe <channel_id or url>")
		return
	}

	err = b.manager.Unsubscribe(ctx, channelID)
	if errors.Is(err, subscription.ErrNotSubscribed) {
		b.reply(chatID, fmt.Sprintf("Not subscribed to %s", model.ChannelURL(channelID)))
		return
	}
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to unsubscribe: %v", err))
		return
	}

	b.reply(chatID, fmt.Sprintf("Unsubscribed from %s", model.ChannelURL(channelID)))
}

func (b *Bot) handleChannels(ctx context.Context, chatID int64) {
	channels, err := b.store.ListChannels(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, FormatChannelList(channels))
}

func (b *Bot) handleKeywords(ctx context.Context, chatID int64, args string) {
	channelID, err := ParseChannelArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /keywords <channel_id>")
		return
	}

	ch, err := b.store.GetChannel(ctx, channelID)
	if errors.Is(err, storage.ErrNotFound) {
		b.reply(chatID, fmt.Sprintf("Not subscribed to %s", model.ChannelURL(channelID)))
		return
	}
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, FormatKeywords(ch))
}

func (b *Bot) handleAddKeywords(ctx context.Context, chatID int64, args string) {
	channelID, keywords, err := ParseKeywordArgs(args)
	if err != nil {
		b.reply(chatID, "Usage: /addkeywords <channel_id> <word...>")
		return
	}

	ch, err := b.store.GetChannel(ctx, channelID)
	if errors.Is(err, storage.ErrNotFound) {
		b.reply(chatID, fmt.Sprintf("Not subscribed to %s", model.ChannelURL(channelID)))
		return
	}
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	if err := b.store.AddKeywords(ctx, channelID, keywords); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	updated, err := b.store.GetChannel(ctx, channelID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Keywords updated for \"%s\".\n%s", ch.Title, FormatKeywords(updated)))
}

func (b *Bot) handleRmKeywords(ctx context.Context, chatID int64, args string) {
	channelID, keywords, err := ParseKeywordArgs(args)
	if err != nil {
		b.reply(chatID, "Usage: /rmkeywords <channel_id> <word...>")
		return
	}

	ch, err := b.store.GetChannel(ctx, channelID)
	if errors.Is(err, storage.ErrNotFound) {
		b.reply(chatID, fmt.Sprintf("Not subscribed to %s", model.ChannelURL(channelID)))
		return
	}
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	if err := b.store.RemoveKeywords(ctx, channelID, keywords); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	updated, err := b.store.GetChannel(ctx, channelID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Keywords updated for \"%s\".\n%s", ch.Title, FormatKeywords(updated)))
}

func (b *Bot) handleResub(ctx context.Context, chatID int64) {
	b.reply(chatID, "Resubscribing to all channels...")
	if err := b.manager.ResubscribeAll(ctx); err != nil {
		b.reply(chatID, fmt.Sprintf("Resubscription failed: %v", err))
		return
	}
	b.reply(chatID, "Finished resubscribing to all channels.")
}

func (b *Bot) handleMissing(ctx context.Context, chatID int64) {
	b.reply(chatID, "Looking for missing videos...")
	if err := b.manager.FindMissingVideos(ctx); err != nil {
		b.reply(chatID, fmt.Sprintf("Lookup failed: %v", err))
		return
	}
	b.reply(chatID, "Finished looking for missing videos.")
}

func (b *Bot) handleWatched(ctx context.Context, chatID int64, args string) {
	videoID, err := ParseVideoArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /watched <video_id or url>")
		return
	}

	err = b.store.MarkWatched(ctx, videoID)
	if errors.Is(err, storage.ErrNotFound) {
		b.reply(chatID, fmt.Sprintf("No record of video %s", model.VideoURL(videoID)))
		return
	}
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Marked as watched: %s", model.VideoURL(videoID)))
}

func (b *Bot) handleRandom(ctx context.Context, chatID int64, args string) {
	n, err := ParseCountArg(args, 1, 10)
	if err != nil {
		b.reply(chatID, "Usage: /random [1-10]")
		return
	}

	videos, err := b.store.RandomVideos(ctx, n)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if len(videos) == 0 {
		b.reply(chatID, "No videos recorded yet.")
		return
	}

	for _, v := range videos {
		b.reply(chatID, FormatVideo(v))
	}
}
