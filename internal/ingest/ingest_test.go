package ingest

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"youtube_bot/internal/filter"
	"youtube_bot/internal/model"
	"youtube_bot/internal/queue"
	"youtube_bot/internal/storage"
)

const debugChannel = "UCdebug"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(t *testing.T) (*Pipeline, storage.Storage, *queue.Queue) {
	t.Helper()
	store, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	q := queue.New()
	engine := filter.NewEngine(debugChannel, 100*24*time.Hour)
	return New(store, q, engine, debugChannel, discardLogger()), store, q
}

func announcement(id string) *model.Announcement {
	return &model.Announcement{
		VideoID:     id,
		ChannelID:   "UCx",
		Title:       "New upload",
		Duration:    "PT5M",
		PublishedAt: time.Now().Add(-time.Hour),
	}
}

func TestIngestPersistsBeforeEnqueue(t *testing.T) {
	ctx := context.Background()
	p, store, q := newTestPipeline(t)

	res, err := p.Ingest(ctx, announcement("v1"))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if !res.Accepted {
		t.Fatalf("expected accept, got %+v", res)
	}

	has, err := store.HasVideo(ctx, "v1")
	if err != nil {
		t.Fatalf("has video: %v", err)
	}
	if !has {
		t.Error("expected video record to be persisted")
	}

	item, ok := q.Pop()
	if !ok {
		t.Fatal("expected one queued item")
	}
	if item.Kind != queue.KindVideo || item.Video.VideoID != "v1" {
		t.Errorf("unexpected item %+v", item)
	}
}

func TestIngestIdempotent(t *testing.T) {
	ctx := context.Background()
	p, _, q := newTestPipeline(t)

	if _, err := p.Ingest(ctx, announcement("v1")); err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	res, err := p.Ingest(ctx, announcement("v1"))
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if res.Accepted {
		t.Fatal("expected duplicate delivery to be rejected")
	}
	if res.Reason != filter.ReasonAlreadySeen {
		t.Errorf("reason = %q, want %q", res.Reason, filter.ReasonAlreadySeen)
	}
	if q.Len() != 1 {
		t.Errorf("queue length = %d, want 1 (no second enqueue)", q.Len())
	}
}

func TestIngestRejectedNotPersisted(t *testing.T) {
	ctx := context.Background()
	p, store, q := newTestPipeline(t)

	ann := announcement("v1")
	ann.PublishedAt = time.Now().Add(-101 * 24 * time.Hour)

	res, err := p.Ingest(ctx, ann)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Accepted || res.Reason != filter.ReasonTooOld {
		t.Fatalf("expected too_old rejection, got %+v", res)
	}

	has, err := store.HasVideo(ctx, "v1")
	if err != nil {
		t.Fatalf("has video: %v", err)
	}
	if has {
		t.Error("rejected video must not be persisted")
	}
	if q.Len() != 0 {
		t.Errorf("queue length = %d, want 0", q.Len())
	}
}

func TestIngestDebugChannelSkipsPersistence(t *testing.T) {
	ctx := context.Background()
	p, store, q := newTestPipeline(t)

	ann := announcement("v1")
	ann.ChannelID = debugChannel

	for i := 0; i < 2; i++ {
		res, err := p.Ingest(ctx, ann)
		if err != nil {
			t.Fatalf("ingest %d: %v", i, err)
		}
		if !res.Accepted {
			t.Fatalf("ingest %d: expected accept, got %+v", i, res)
		}
	}

	has, err := store.HasVideo(ctx, "v1")
	if err != nil {
		t.Fatalf("has video: %v", err)
	}
	if has {
		t.Error("debug channel videos must not be persisted")
	}
	if q.Len() != 2 {
		t.Errorf("queue length = %d, want 2 (debug deliveries are not deduplicated)", q.Len())
	}
}

func TestIngestKeywordFiltering(t *testing.T) {
	ctx := context.Background()
	p, store, q := newTestPipeline(t)

	ch := model.Channel{ID: "UCx", Title: "Filtered", Keywords: []string{"cat"}}
	if err := store.CreateChannel(ctx, &ch); err != nil {
		t.Fatalf("create channel: %v", err)
	}

	ann := announcement("v1")
	ann.Title = "Nothing relevant"
	res, err := p.Ingest(ctx, ann)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Reason != filter.ReasonKeywordMismatch {
		t.Fatalf("reason = %q, want keyword_mismatch", res.Reason)
	}
	if q.Len() != 0 {
		t.Errorf("queue length = %d, want 0", q.Len())
	}
}
