// Package consumer drains the notification queue and hands items to the chat
// notifier.
package consumer

import (
	"context"
	"log/slog"
	"time"

	"youtube_bot/internal/model"
	"youtube_bot/internal/queue"
)

// Notifier delivers a single new-video notification to the chat.
type Notifier interface {
	NotifyVideo(ctx context.Context, video model.Announcement) error
}

// Consumer polls the queue and dispatches items by kind.
type Consumer struct {
	queue    *queue.Queue
	notifier Notifier
	interval time.Duration
	log      *slog.Logger
}

// New creates a Consumer polling the queue once per second.
func New(q *queue.Queue, n Notifier, log *slog.Logger) *Consumer {
	return &Consumer{
		queue:    q,
		notifier: n,
		interval: 1 * time.Second,
		log:      log,
	}
}

// SetInterval overrides the polling interval (useful for testing).
func (c *Consumer) SetInterval(d time.Duration) {
	c.interval = d
}

// Run polls the queue until ctx is cancelled. Each tick drains every pending
// item. Delivery failures are logged and the loop moves on, so one bad item
// never blocks the queue; a failed notification is not retried.
func (c *Consumer) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.log.Info("consumer started", "interval", c.interval)
	for {
		select {
		case <-ctx.Done():
			c.log.Info("consumer stopped", "pending", c.queue.Len())
			return
		case <-ticker.C:
			c.drain(ctx)
		}
	}
}

func (c *Consumer) drain(ctx context.Context) {
	for {
		item, ok := c.queue.Pop()
		if !ok {
			return
		}
		c.dispatch(ctx, item)
	}
}

func (c *Consumer) dispatch(ctx context.Context, item queue.Item) {
	switch item.Kind {
	case queue.KindVideo:
		if err := c.notifier.NotifyVideo(ctx, item.Video); err != nil {
			c.log.Error("deliver video notification",
				"video_id", item.Video.VideoID, "error", err)
		}
	default:
		c.log.Error("unknown queue item kind", "kind", int(item.Kind))
	}
}
