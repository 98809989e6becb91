// Package model defines the domain types used across the application.
package model

import "time"

// Announcement is a new-video event as assembled from a hub notification:
// the parsed feed entry enriched with metadata from the YouTube Data API.
// It is transient; accepted announcements are persisted as Video records.
type Announcement struct {
	VideoID     string
	ChannelID   string
	Title       string
	Duration    string // ISO-8601 duration, e.g. "PT1M30S"
	PublishedAt time.Time
}

// Video is a persisted record of an announced video. The presence of a row
// keyed by ID is the sole deduplication signal: an ID that already exists is
// never announced again.
type Video struct {
	ID        string
	ChannelID string
	Title     string
	Duration  string
	AddedAt   time.Time
	WatchedAt *time.Time
	// Private marks a video that exists upstream but whose metadata could
	// not be fetched. The record is kept only to stop repeated probing.
	Private bool
}

// Channel is a watched YouTube channel. Its presence is the subscription
// state; Keywords encodes the per-channel filter policy.
type Channel struct {
	ID        string
	Title     string
	Keywords  []string
	CreatedAt time.Time
}

// VideoURL returns the watch URL for a video ID.
func VideoURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// ChannelURL returns the public URL for a channel ID.
func ChannelURL(channelID string) string {
	return "https://www.youtube.com/channel/" + channelID
}
