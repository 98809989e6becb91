package consumer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"youtube_bot/internal/model"
	"youtube_bot/internal/queue"
)

type fakeNotifier struct {
	mu        sync.Mutex
	delivered []string
	// failFor holds video IDs whose delivery fails.
	failFor map[string]bool
}

func (f *fakeNotifier) NotifyVideo(_ context.Context, video model.Announcement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[video.VideoID] {
		return errors.New("chat unavailable")
	}
	f.delivered = append(f.delivered, video.VideoID)
	return nil
}

func (f *fakeNotifier) deliveredIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.delivered...)
}

func runConsumer(t *testing.T, q *queue.Queue, n Notifier) context.CancelFunc {
	t.Helper()
	c := New(q, n, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.SetInterval(time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestRunDeliversInOrder(t *testing.T) {
	q := queue.New()
	n := &fakeNotifier{}
	runConsumer(t, q, n)

	for _, id := range []string{"v1", "v2", "v3"} {
		q.Push(queue.Item{Kind: queue.KindVideo, Video: model.Announcement{VideoID: id}})
	}

	waitFor(t, func() bool { return len(n.deliveredIDs()) == 3 })

	if diff := cmp.Diff([]string{"v1", "v2", "v3"}, n.deliveredIDs()); diff != "" {
		t.Errorf("delivery order mismatch (-want +got):\n%s", diff)
	}
	if q.Len() != 0 {
		t.Errorf("queue length = %d, want 0", q.Len())
	}
}

func TestRunContinuesAfterFailure(t *testing.T) {
	q := queue.New()
	n := &fakeNotifier{failFor: map[string]bool{"v2": true}}
	runConsumer(t, q, n)

	for _, id := range []string{"v1", "v2", "v3"} {
		q.Push(queue.Item{Kind: queue.KindVideo, Video: model.Announcement{VideoID: id}})
	}

	waitFor(t, func() bool { return q.Len() == 0 && len(n.deliveredIDs()) == 2 })

	// v2 failed and is dropped, not retried.
	if diff := cmp.Diff([]string{"v1", "v3"}, n.deliveredIDs()); diff != "" {
		t.Errorf("deliveries mismatch (-want +got):\n%s", diff)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	q := queue.New()
	n := &fakeNotifier{}
	cancel := runConsumer(t, q, n)
	cancel()

	// Give the loop a moment to exit, then verify pushed items stay queued.
	time.Sleep(20 * time.Millisecond)
	q.Push(queue.Item{Kind: queue.KindVideo, Video: model.Announcement{VideoID: "v1"}})
	time.Sleep(20 * time.Millisecond)

	if q.Len() != 1 {
		t.Errorf("queue length = %d, want 1 after shutdown", q.Len())
	}
	if len(n.deliveredIDs()) != 0 {
		t.Errorf("expected no deliveries after shutdown")
	}
}
