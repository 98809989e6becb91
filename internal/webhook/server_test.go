package webhook

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"youtube_bot/internal/filter"
	"youtube_bot/internal/ingest"
	"youtube_bot/internal/model"
	"youtube_bot/internal/queue"
	"youtube_bot/internal/storage"
	"youtube_bot/internal/youtube"
)

const notificationBody = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
  <title>YouTube video feed</title>
  <entry>
    <id>yt:video:dQw4w9WgXcQ</id>
    <yt:videoId>dQw4w9WgXcQ</yt:videoId>
    <yt:channelId>UCtest123</yt:channelId>
    <title>Test Upload</title>
    <author>
      <name>Test Channel</name>
      <uri>https://www.youtube.com/channel/UCtest123</uri>
    </author>
    <published>2026-08-26T12:00:00+00:00</published>
  </entry>
</feed>`

const pingBody = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>YouTube video feed</title>
</feed>`

type fakeIngestor struct {
	mu   sync.Mutex
	anns []*model.Announcement
	err  error
}

func (f *fakeIngestor) Ingest(_ context.Context, ann *model.Announcement) (filter.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return filter.Result{}, f.err
	}
	f.anns = append(f.anns, ann)
	return filter.Result{Accepted: true, Reason: filter.ReasonAccepted}, nil
}

func (f *fakeIngestor) announcements() []*model.Announcement {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*model.Announcement(nil), f.anns...)
}

type fakeVideos struct {
	videos map[string]*youtube.Metadata
}

func (f *fakeVideos) VideoByID(_ context.Context, videoID string) (*youtube.Metadata, error) {
	md, ok := f.videos[videoID]
	if !ok {
		return nil, fmt.Errorf("video %s: %w", videoID, youtube.ErrNotFound)
	}
	return md, nil
}

func (f *fakeVideos) ChannelTitle(context.Context, string) (string, error) {
	return "", youtube.ErrNotFound
}

func (f *fakeVideos) RecentVideos(context.Context, string, time.Time) ([]youtube.Stub, error) {
	return nil, nil
}

func newTestServer(ing *fakeIngestor, videos *fakeVideos) *Server {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(":0", ing, videos, log)
}

func TestHandleRoot(t *testing.T) {
	srv := newTestServer(&fakeIngestor{}, &fakeVideos{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestHandleChallenge(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "echoes challenge verbatim",
			target:     "/webhook/youtube?hub.challenge=abc-123&hub.mode=subscribe&hub.topic=t",
			wantStatus: http.StatusOK,
			wantBody:   "abc-123",
		},
		{
			name:       "challenge with url-encoded characters",
			target:     "/webhook/youtube?hub.challenge=a%20b%2Bc",
			wantStatus: http.StatusOK,
			wantBody:   "a b+c",
		},
		{
			name:       "missing challenge rejected",
			target:     "/webhook/youtube?hub.mode=subscribe",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&fakeIngestor{}, &fakeVideos{})

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestHandleNotification(t *testing.T) {
	published := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	videos := &fakeVideos{videos: map[string]*youtube.Metadata{
		"dQw4w9WgXcQ": {
			VideoID:     "dQw4w9WgXcQ",
			ChannelID:   "UCtest123",
			Title:       "Test Upload",
			Duration:    "PT3M33S",
			PublishedAt: published,
		},
	}}
	ing := &fakeIngestor{}
	srv := newTestServer(ing, videos)

	req := httptest.NewRequest(http.MethodPost, "/webhook/youtube", strings.NewReader(notificationBody))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	anns := ing.announcements()
	if len(anns) != 1 {
		t.Fatalf("ingested %d announcements, want 1", len(anns))
	}
	ann := anns[0]
	if ann.VideoID != "dQw4w9WgXcQ" || ann.ChannelID != "UCtest123" {
		t.Errorf("announcement ids = %s/%s", ann.VideoID, ann.ChannelID)
	}
	if ann.Duration != "PT3M33S" {
		t.Errorf("duration = %q", ann.Duration)
	}
	if !ann.PublishedAt.Equal(published) {
		t.Errorf("published = %v, want %v", ann.PublishedAt, published)
	}
}

// A redelivered notification must not enqueue the video twice. Runs the real
// pipeline against in-memory storage to exercise write-time deduplication end
// to end.
func TestHandleNotificationDuplicate(t *testing.T) {
	store, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	q := queue.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := filter.NewEngine("", 100*24*time.Hour)
	pipeline := ingest.New(store, q, engine, "", log)

	videos := &fakeVideos{videos: map[string]*youtube.Metadata{
		"dQw4w9WgXcQ": {
			VideoID:     "dQw4w9WgXcQ",
			ChannelID:   "UCtest123",
			Title:       "Test Upload",
			Duration:    "PT3M33S",
			PublishedAt: time.Now().Add(-time.Hour),
		},
	}}
	srv := New(":0", pipeline, videos, log)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/webhook/youtube", strings.NewReader(notificationBody))
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("delivery %d: status = %d, want 200", i, rec.Code)
		}
	}

	if q.Len() != 1 {
		t.Errorf("queue length = %d, want 1 after redelivery", q.Len())
	}
}

func TestHandleNotificationAlwaysOK(t *testing.T) {
	tests := []struct {
		name string
		body string
		ing  *fakeIngestor
	}{
		{name: "feed ping without entries", body: pingBody, ing: &fakeIngestor{}},
		{name: "malformed payload", body: "not xml at all", ing: &fakeIngestor{}},
		{name: "unknown video", body: notificationBody, ing: &fakeIngestor{}},
		{
			name: "ingest failure",
			body: notificationBody,
			ing:  &fakeIngestor{err: fmt.Errorf("database locked")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			videos := &fakeVideos{}
			if tt.name == "ingest failure" {
				videos.videos = map[string]*youtube.Metadata{
					"dQw4w9WgXcQ": {VideoID: "dQw4w9WgXcQ", ChannelID: "UCtest123"},
				}
			}
			srv := newTestServer(tt.ing, videos)

			req := httptest.NewRequest(http.MethodPost, "/webhook/youtube", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
			if len(tt.ing.announcements()) != 0 {
				t.Errorf("expected no ingested announcements")
			}
		})
	}
}
