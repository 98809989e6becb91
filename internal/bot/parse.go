package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseChannelArg extracts a channel ID from a command argument, accepting
// either the bare ID or a channel URL.
func ParseChannelArg(args string) (string, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return "", fmt.Errorf("channel ID is required")
	}
	s = strings.Fields(s)[0]
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	if s == "" {
		return "", fmt.Errorf("invalid channel argument %q", args)
	}
	return s, nil
}

// ParseVideoArg extracts a video ID from a command argument, accepting the
// bare ID, a watch URL or a youtu.be short link.
func ParseVideoArg(args string) (string, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return "", fmt.Errorf("video ID is required")
	}
	s = strings.Fields(s)[0]
	switch {
	case strings.Contains(s, "watch?v="):
		s = s[strings.LastIndex(s, "=")+1:]
	case strings.Contains(s, "youtu.be/"):
		s = s[strings.LastIndex(s, "/")+1:]
	}
	if s == "" {
		return "", fmt.Errorf("invalid video argument %q", args)
	}
	return s, nil
}

// ParseKeywordArgs extracts a channel ID and one or more keywords.
func ParseKeywordArgs(args string) (string, []string, error) {
	parts := strings.Fields(args)
	if len(parts) < 2 {
		return "", nil, fmt.Errorf("usage: <channel_id> <word...>")
	}
	channelID, err := ParseChannelArg(parts[0])
	if err != nil {
		return "", nil, err
	}
	return channelID, parts[1:], nil
}

// ParseCountArg extracts an optional positive count, applying a default when
// the argument is empty and rejecting values above max.
func ParseCountArg(args string, def, max int) (int, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.Fields(s)[0])
	if err != nil || n < 1 || n > max {
		return 0, fmt.Errorf("count must be between 1 and %d", max)
	}
	return n, nil
}
