// Package subscription manages the hub subscription lifecycle for watched
// channels: subscribe/unsubscribe handshakes, the periodic full resubscription
// sweep, and the catch-up lookup for missed notifications.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"youtube_bot/internal/filter"
	"youtube_bot/internal/hub"
	"youtube_bot/internal/model"
	"youtube_bot/internal/storage"
	"youtube_bot/internal/youtube"
)

// ErrAlreadySubscribed is returned when subscribing to an already-watched channel.
var ErrAlreadySubscribed = errors.New("already subscribed")

// ErrNotSubscribed is returned when unsubscribing from a channel that is not watched.
var ErrNotSubscribed = errors.New("not subscribed")

// Hub issues subscription handshakes against the PubSubHubbub hub.
type Hub interface {
	ToggleSubscription(ctx context.Context, channelID, mode string) (int, error)
}

// VideoSource looks up upstream video and channel metadata.
type VideoSource interface {
	VideoByID(ctx context.Context, videoID string) (*youtube.Metadata, error)
	ChannelTitle(ctx context.Context, channelID string) (string, error)
	RecentVideos(ctx context.Context, channelID string, publishedAfter time.Time) ([]youtube.Stub, error)
}

// Ingestor runs an announcement through the shared webhook pipeline.
type Ingestor interface {
	Ingest(ctx context.Context, ann *model.Announcement) (filter.Result, error)
}

// Manager owns the subscription lifecycle of watched channels.
type Manager struct {
	store         storage.Storage
	hub           Hub
	videos        VideoSource
	ingestor      Ingestor
	log           *slog.Logger
	pace          time.Duration
	missingWindow time.Duration
}

// New creates a Manager. missingWindow bounds how far back FindMissingVideos
// looks for uploads the hub failed to deliver.
func New(store storage.Storage, h Hub, videos VideoSource, ing Ingestor, missingWindow time.Duration, log *slog.Logger) *Manager {
	return &Manager{
		store:         store,
		hub:           h,
		videos:        videos,
		ingestor:      ing,
		log:           log,
		pace:          1 * time.Second,
		missingWindow: missingWindow,
	}
}

// SetPace overrides the default 1-second delay between hub calls during the
// resubscription sweep (useful for testing).
func (m *Manager) SetPace(d time.Duration) {
	m.pace = d
}

// Subscribe starts watching a channel: it persists the record, then performs
// the hub subscribe handshake. The record is written before the handshake, so
// a hub failure leaves it in place; the caller surfaces the error and the
// subscription can be repaired with a resubscription sweep.
func (m *Manager) Subscribe(ctx context.Context, channelID string) (*model.Channel, error) {
	_, err := m.store.GetChannel(ctx, channelID)
	if err == nil {
		return nil, ErrAlreadySubscribed
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("get channel %s: %w", channelID, err)
	}

	title, err := m.videos.ChannelTitle(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("lookup channel title: %w", err)
	}

	ch := &model.Channel{ID: channelID, Title: title}
	if err := m.store.CreateChannel(ctx, ch); err != nil {
		return nil, fmt.Errorf("create channel %s: %w", channelID, err)
	}

	if err := m.toggle(ctx, channelID, hub.ModeSubscribe); err != nil {
		return nil, err
	}
	m.log.Info("subscribed", "channel_id", channelID, "title", title)
	return ch, nil
}

// Unsubscribe stops watching a channel: it deletes the record, then performs
// the hub unsubscribe handshake. Deleting more than one record for a single
// ID signals data corruption and is surfaced, never swallowed.
func (m *Manager) Unsubscribe(ctx context.Context, channelID string) error {
	deleted, err := m.store.DeleteChannel(ctx, channelID)
	if err != nil {
		return fmt.Errorf("delete channel %s: %w", channelID, err)
	}
	switch {
	case deleted == 0:
		return ErrNotSubscribed
	case deleted > 1:
		return fmt.Errorf("deleted %d channel records for id %s, expected exactly 1", deleted, channelID)
	}

	if err := m.toggle(ctx, channelID, hub.ModeUnsubscribe); err != nil {
		return err
	}
	m.log.Info("unsubscribed", "channel_id", channelID)
	return nil
}

// ResubscribeAll refreshes the hub-side lease of every watched channel by
// issuing an unsubscribe handshake followed by a subscribe handshake, with a
// pacing delay after each hub call. Failures on one channel are logged and do
// not abort the sweep; reconciliation is best-effort across the whole list.
func (m *Manager) ResubscribeAll(ctx context.Context) error {
	channels, err := m.store.ListChannels(ctx)
	if err != nil {
		return fmt.Errorf("list channels: %w", err)
	}

	for _, ch := range channels {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.log.Info("resubscribing", "channel_id", ch.ID, "title", ch.Title)

		if err := m.toggle(ctx, ch.ID, hub.ModeUnsubscribe); err != nil {
			m.log.Error("resubscribe: unsubscribe handshake", "channel_id", ch.ID, "error", err)
		}
		if err := m.pause(ctx); err != nil {
			return err
		}
		if err := m.toggle(ctx, ch.ID, hub.ModeSubscribe); err != nil {
			m.log.Error("resubscribe: subscribe handshake", "channel_id", ch.ID, "error", err)
		}
		if err := m.pause(ctx); err != nil {
			return err
		}
	}
	return nil
}

// FindMissingVideos reconciles the last missingWindow of uploads against the
// local store: any upstream video without a record is fetched and fed through
// the same ingestion pipeline the webhook uses. Videos whose metadata cannot
// be fetched are recorded as private so they are not probed again.
func (m *Manager) FindMissingVideos(ctx context.Context) error {
	channels, err := m.store.ListChannels(ctx)
	if err != nil {
		return fmt.Errorf("list channels: %w", err)
	}
	since := time.Now().Add(-m.missingWindow)

	for _, ch := range channels {
		stubs, err := m.videos.RecentVideos(ctx, ch.ID, since)
		if err != nil {
			return fmt.Errorf("recent videos for %s: %w", ch.ID, err)
		}

		for _, stub := range stubs {
			has, err := m.store.HasVideo(ctx, stub.VideoID)
			if err != nil {
				return fmt.Errorf("check video %s: %w", stub.VideoID, err)
			}
			if has {
				continue
			}
			m.log.Info("missing video", "video_id", stub.VideoID, "channel_id", ch.ID)

			md, err := m.videos.VideoByID(ctx, stub.VideoID)
			if errors.Is(err, youtube.ErrNotFound) {
				m.log.Info("video metadata unavailable, recording as private",
					"video_id", stub.VideoID, "channel_id", ch.ID)
				if _, err := m.store.InsertVideo(ctx, &model.Video{
					ID:        stub.VideoID,
					ChannelID: ch.ID,
					Title:     stub.Title,
					Private:   true,
				}); err != nil {
					return fmt.Errorf("record private video %s: %w", stub.VideoID, err)
				}
				continue
			}
			if err != nil {
				return fmt.Errorf("video metadata %s: %w", stub.VideoID, err)
			}

			ann := &model.Announcement{
				VideoID:     md.VideoID,
				ChannelID:   ch.ID,
				Title:       md.Title,
				Duration:    md.Duration,
				PublishedAt: md.PublishedAt,
			}
			if _, err := m.ingestor.Ingest(ctx, ann); err != nil {
				return fmt.Errorf("ingest missing video %s: %w", md.VideoID, err)
			}
		}
	}
	return nil
}

// toggle performs one hub handshake and maps non-success statuses to errors.
func (m *Manager) toggle(ctx context.Context, channelID, mode string) error {
	status, err := m.hub.ToggleSubscription(ctx, channelID, mode)
	if err != nil {
		return fmt.Errorf("hub %s %s: %w", mode, channelID, err)
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return fmt.Errorf("hub %s %s: status %d", mode, channelID, status)
	}
	return nil
}

func (m *Manager) pause(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.pace):
		return nil
	}
}
