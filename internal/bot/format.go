package bot

import (
	"fmt"
	"strings"

	"youtube_bot/internal/model"
)

// DurationLabel renders an ISO-8601 video duration as a compact clock label:
// "PT1M30S" becomes "1:30", "PT45S" becomes "45s", "PT3M" becomes "3:00".
func DurationLabel(duration string) string {
	d := strings.TrimPrefix(duration, "PT")
	if !strings.Contains(d, "S") {
		d += "00"
	}
	if !strings.Contains(d, "M") && !strings.Contains(d, "H") {
		d = strings.ReplaceAll(d, "S", "s")
	}
	d = strings.ReplaceAll(d, "H", ":")
	d = strings.ReplaceAll(d, "M", ":")
	d = strings.ReplaceAll(d, "S", "")
	return d
}

// FormatVideoNotification formats a new-video announcement for the chat.
func FormatVideoNotification(video model.Announcement) string {
	return fmt.Sprintf("New video (%s): %s", DurationLabel(video.Duration), model.VideoURL(video.VideoID))
}

// FormatVideo formats a stored video record for display.
func FormatVideo(v model.Video) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n%s", v.Title, DurationLabel(v.Duration), model.VideoURL(v.ID))
	if v.WatchedAt != nil {
		fmt.Fprintf(&b, "\nwatched %s", v.WatchedAt.Format("2006-01-02 15:04 UTC"))
	}
	return b.String()
}

// FormatChannelList formats the watched channels for display.
func FormatChannelList(channels []model.Channel) string {
	if len(channels) == 0 {
		return "No channels watched yet. Use /subscribe <channel_id or url> to add one."
	}
	var b strings.Builder
	b.WriteString("Watched channels:\n")
	for _, ch := range channels {
		fmt.Fprintf(&b, "\n%s\n   %s\n", ch.Title, model.ChannelURL(ch.ID))
		if len(ch.Keywords) > 0 {
			fmt.Fprintf(&b, "   keywords: %s\n", strings.Join(ch.Keywords, ", "))
		}
	}
	return b.String()
}

// FormatKeywords formats a channel's keyword filters.
func FormatKeywords(ch *model.Channel) string {
	if len(ch.Keywords) == 0 {
		return fmt.Sprintf("No keywords for \"%s\": every upload is announced.", ch.Title)
	}
	return fmt.Sprintf("Keywords for \"%s\": %s", ch.Title, strings.Join(ch.Keywords, ", "))
}
