// Package youtube wraps the YouTube Data API v3 lookups the relay needs.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// ErrNotFound is returned when the API has no record for the requested ID.
// This is a benign outcome: the video may be deleted or access-restricted.
var ErrNotFound = errors.New("not found upstream")

// Metadata is the subset of video metadata the relay consumes.
type Metadata struct {
	VideoID     string
	ChannelID   string
	Title       string
	Duration    string // ISO-8601
	PublishedAt time.Time
}

// Stub identifies a recently published video before its details are fetched.
type Stub struct {
	VideoID string
	Title   string
}

// Client is a key-authenticated YouTube Data API client.
type Client struct {
	svc *youtube.Service
}

// New creates a Client using API-key authentication. The relay only performs
// public read-only lookups, so no OAuth flow is involved.
func New(ctx context.Context, apiKey string) (*Client, error) {
	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// VideoByID fetches snippet and content details for a single video.
func (c *Client) VideoByID(ctx context.Context, videoID string) (*Metadata, error) {
	resp, err := c.svc.Videos.List([]string{"snippet", "contentDetails"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("videos.list %s: %w", videoID, err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("video %s: %w", videoID, ErrNotFound)
	}

	item := resp.Items[0]
	md := &Metadata{
		VideoID:   item.Id,
		ChannelID: item.Snippet.ChannelId,
		Title:     item.Snippet.Title,
		Duration:  item.ContentDetails.Duration,
	}
	md.PublishedAt = parseTimestamp(item.Snippet.PublishedAt)
	return md, nil
}

// ChannelTitle fetches the display title of a channel.
func (c *Client) ChannelTitle(ctx context.Context, channelID string) (string, error) {
	resp, err := c.svc.Channels.List([]string{"snippet"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("channels.list %s: %w", channelID, err)
	}
	if len(resp.Items) == 0 {
		return "", fmt.Errorf("channel %s: %w", channelID, ErrNotFound)
	}
	return resp.Items[0].Snippet.Title, nil
}

// RecentVideos lists videos published on a channel after the given time,
// newest first.
func (c *Client) RecentVideos(ctx context.Context, channelID string, publishedAfter time.Time) ([]Stub, error) {
	resp, err := c.svc.Search.List([]string{"snippet"}).
		ChannelId(channelID).
		Order("date").
		Type("video").
		PublishedAfter(publishedAfter.UTC().Format(time.RFC3339)).
		MaxResults(50).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("search.list %s: %w", channelID, err)
	}

	stubs := make([]Stub, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		stubs = append(stubs, Stub{VideoID: item.Id.VideoId, Title: item.Snippet.Title})
	}
	return stubs, nil
}

// parseTimestamp parses the API's RFC 3339 timestamps, returning the zero
// time for anything malformed.
func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
