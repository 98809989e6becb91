// Package ingest implements the shared persist-then-enqueue pipeline used by
// both webhook notifications and the catch-up job.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"youtube_bot/internal/filter"
	"youtube_bot/internal/model"
	"youtube_bot/internal/queue"
	"youtube_bot/internal/storage"
)

// Pipeline runs an announcement through deduplication, filtering, persistence
// and enqueueing.
type Pipeline struct {
	store          storage.Storage
	queue          *queue.Queue
	engine         *filter.Engine
	debugChannelID string
	log            *slog.Logger
}

// New creates a Pipeline.
func New(store storage.Storage, q *queue.Queue, engine *filter.Engine, debugChannelID string, log *slog.Logger) *Pipeline {
	return &Pipeline{
		store:          store,
		queue:          q,
		engine:         engine,
		debugChannelID: debugChannelID,
		log:            log,
	}
}

// Ingest evaluates ann and, if accepted, persists the video record and pushes
// a queue item. The record is written strictly before the push: two
// near-simultaneous deliveries of the same video race on the insert, and the
// loser sees no row written and does not enqueue.
//
// Rejections are reported in the Result, not as errors.
func (p *Pipeline) Ingest(ctx context.Context, ann *model.Announcement) (filter.Result, error) {
	seen, err := p.store.HasVideo(ctx, ann.VideoID)
	if err != nil {
		return filter.Result{}, fmt.Errorf("check video %s: %w", ann.VideoID, err)
	}

	channel, err := p.store.GetChannel(ctx, ann.ChannelID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return filter.Result{}, fmt.Errorf("get channel %s: %w", ann.ChannelID, err)
	}

	res := p.engine.Evaluate(ann, channel, seen)
	if !res.Accepted {
		p.log.Info("video filtered",
			"video_id", ann.VideoID, "channel_id", ann.ChannelID, "reason", string(res.Reason))
		return res, nil
	}

	// The debug channel is never persisted, so its announcements carry no
	// deduplication state.
	if p.debugChannelID == "" || ann.ChannelID != p.debugChannelID {
		inserted, err := p.store.InsertVideo(ctx, &model.Video{
			ID:        ann.VideoID,
			ChannelID: ann.ChannelID,
			Title:     ann.Title,
			Duration:  ann.Duration,
		})
		if err != nil {
			return filter.Result{}, fmt.Errorf("insert video %s: %w", ann.VideoID, err)
		}
		if !inserted {
			p.log.Info("video already recorded",
				"video_id", ann.VideoID, "channel_id", ann.ChannelID)
			return filter.Result{Reason: filter.ReasonAlreadySeen}, nil
		}
	}

	p.queue.Push(queue.Item{Kind: queue.KindVideo, Video: *ann})
	p.log.Info("video enqueued",
		"video_id", ann.VideoID, "channel_id", ann.ChannelID, "title", ann.Title)
	return res, nil
}
