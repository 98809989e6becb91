// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"

	"youtube_bot/internal/model"
)

// ErrNotFound is returned when a record with the requested ID does not exist.
var ErrNotFound = errors.New("record not found")

// Storage is the interface for all persistence operations.
type Storage interface {
	CreateChannel(ctx context.Context, ch *model.Channel) error
	GetChannel(ctx context.Context, id string) (*model.Channel, error)
	ListChannels(ctx context.Context) ([]model.Channel, error)
	// DeleteChannel removes a channel and its keywords. It returns the
	// number of channel rows deleted so callers can detect both a missing
	// subscription (0) and an integrity violation (>1).
	DeleteChannel(ctx context.Context, id string) (int64, error)
	AddKeywords(ctx context.Context, channelID string, keywords []string) error
	RemoveKeywords(ctx context.Context, channelID string, keywords []string) error

	// InsertVideo writes a video record unless one with the same ID already
	// exists. It reports whether a row was written; false means the video
	// was already recorded, which is the write-time deduplication signal.
	InsertVideo(ctx context.Context, v *model.Video) (bool, error)
	GetVideo(ctx context.Context, id string) (*model.Video, error)
	HasVideo(ctx context.Context, id string) (bool, error)
	MarkWatched(ctx context.Context, id string) error
	RandomVideos(ctx context.Context, n int) ([]model.Video, error)

	Close() error
}
