// Package filter decides whether an announced video should be surfaced.
package filter

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"youtube_bot/internal/model"
)

// KeywordShort is the sentinel keyword that switches a channel from title
// matching to duration-based filtering: only short-form videos pass.
const KeywordShort = "$SHORT"

// Reason explains a filter verdict.
type Reason string

// Verdict reasons. Rejections are expected control-flow outcomes, not faults.
const (
	ReasonAccepted        Reason = "accepted"
	ReasonDebugChannel    Reason = "debug_channel"
	ReasonAlreadySeen     Reason = "already_seen"
	ReasonTooOld          Reason = "too_old"
	ReasonTooLong         Reason = "too_long"
	ReasonKeywordMismatch Reason = "keyword_mismatch"
)

// Result is the outcome of evaluating one announcement.
type Result struct {
	Accepted bool
	Reason   Reason
}

// Engine evaluates announcements against the per-channel filter policy.
type Engine struct {
	debugChannelID string
	maxAge         time.Duration
	now            func() time.Time
}

// NewEngine creates an Engine. maxAge bounds how old an announced video may
// be; debugChannelID designates a test channel whose videos always pass.
func NewEngine(debugChannelID string, maxAge time.Duration) *Engine {
	return &Engine{
		debugChannelID: debugChannelID,
		maxAge:         maxAge,
		now:            time.Now,
	}
}

// Evaluate decides whether ann should be surfaced. channel may be nil when no
// watched-channel record exists, which is treated as "no keywords". seen
// reports whether a video record with the same ID already exists.
//
// The debug channel always passes; its announcements are also never persisted,
// so they carry no deduplication state.
func (e *Engine) Evaluate(ann *model.Announcement, channel *model.Channel, seen bool) Result {
	if e.debugChannelID != "" && ann.ChannelID == e.debugChannelID {
		return Result{Accepted: true, Reason: ReasonDebugChannel}
	}
	if seen {
		return Result{Reason: ReasonAlreadySeen}
	}
	if !ann.PublishedAt.IsZero() && e.now().Sub(ann.PublishedAt) > e.maxAge {
		return Result{Reason: ReasonTooOld}
	}

	var keywords []string
	if channel != nil {
		keywords = channel.Keywords
	}
	if containsKeyword(keywords, KeywordShort) {
		if !IsShort(ann.Duration) {
			return Result{Reason: ReasonTooLong}
		}
		return Result{Accepted: true, Reason: ReasonAccepted}
	}
	if len(keywords) > 0 && !matchesAny(ann.Title, keywords) {
		return Result{Reason: ReasonKeywordMismatch}
	}
	return Result{Accepted: true, Reason: ReasonAccepted}
}

var minutesRe = regexp.MustCompile(`(\d+)M`)

// IsShort reports whether an ISO-8601 duration counts as short-form:
// no hours or days, and at most two minutes.
func IsShort(duration string) bool {
	if strings.Contains(duration, "H") || strings.Contains(duration, "D") {
		return false
	}
	if strings.Contains(duration, "M") {
		m := minutesRe.FindStringSubmatch(duration)
		if m == nil {
			return false
		}
		minutes, err := strconv.Atoi(m[1])
		if err != nil || minutes > 2 {
			return false
		}
	}
	return true
}

// matchesAny reports whether the title contains at least one keyword as a
// case-sensitive substring.
func matchesAny(title string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(title, kw) {
			return true
		}
	}
	return false
}

func containsKeyword(keywords []string, want string) bool {
	for _, kw := range keywords {
		if kw == want {
			return true
		}
	}
	return false
}
