// Package feed parses PubSubHubbub notification payloads for YouTube uploads.
package feed

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

// ErrNoEntry is returned when the payload is a valid feed document with no
// entry element. The hub sends such feed-level pings routinely; this is a
// normal outcome, not a fault.
var ErrNoEntry = errors.New("feed contains no entry")

// Entry is the normalized first entry of a notification payload.
type Entry struct {
	VideoID   string
	ChannelID string
	Title     string
}

// Parse extracts the first entry from a raw Atom payload.
func Parse(data []byte) (*Entry, error) {
	f, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	if len(f.Items) == 0 {
		return nil, ErrNoEntry
	}

	item := f.Items[0]
	entry := &Entry{
		VideoID:   extensionValue(item, "videoId"),
		ChannelID: extensionValue(item, "channelId"),
		Title:     item.Title,
	}

	// Older payloads carry the video ID only in the entry's Atom ID.
	if entry.VideoID == "" && strings.HasPrefix(item.GUID, "yt:video:") {
		entry.VideoID = strings.TrimPrefix(item.GUID, "yt:video:")
	}

	if entry.VideoID == "" {
		return nil, fmt.Errorf("entry has no video id (guid %q)", item.GUID)
	}
	if entry.ChannelID == "" {
		return nil, fmt.Errorf("entry has no channel id (video %q)", entry.VideoID)
	}
	return entry, nil
}

func extensionValue(item *gofeed.Item, name string) string {
	yt, ok := item.Extensions["yt"]
	if !ok {
		return ""
	}
	values := yt[name]
	if len(values) == 0 {
		return ""
	}
	return values[0].Value
}
