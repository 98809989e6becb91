// Package webhook serves the PubSubHubbub callback endpoint: hub verification
// challenges on GET and Atom upload notifications on POST.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"youtube_bot/internal/feed"
	"youtube_bot/internal/model"
	"youtube_bot/internal/subscription"
	"youtube_bot/internal/youtube"
)

// maxBodySize bounds notification payloads. Real upload notifications are a
// few kilobytes.
const maxBodySize = 1 << 20

// Server handles hub callbacks and feeds notifications into the pipeline.
type Server struct {
	addr     string
	ingestor subscription.Ingestor
	videos   subscription.VideoSource
	log      *slog.Logger
}

// New creates a Server listening on addr.
func New(addr string, ingestor subscription.Ingestor, videos subscription.VideoSource, log *slog.Logger) *Server {
	return &Server{
		addr:     addr,
		ingestor: ingestor,
		videos:   videos,
		log:      log,
	}
}

// Router builds the HTTP handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleRoot)
	r.Get("/webhook/youtube", s.handleChallenge)
	r.Post("/webhook/youtube", s.handleNotification)
	return r
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info("webhook server listening", "addr", s.addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown webhook server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("webhook server: %w", err)
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "OK")
}

// handleChallenge answers the hub's subscription verification. The challenge
// must be echoed back verbatim or the hub marks the handshake failed.
func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	challenge := r.URL.Query().Get("hub.challenge")
	if challenge == "" {
		http.Error(w, "missing hub.challenge", http.StatusBadRequest)
		return
	}
	s.log.Info("hub challenge",
		"mode", r.URL.Query().Get("hub.mode"), "topic", r.URL.Query().Get("hub.topic"))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, challenge)
}

// handleNotification ingests an upload notification. The hub retries
// non-success responses with backoff and eventually drops the subscription,
// so internal failures are logged and answered with 200 anyway.
func (s *Server) handleNotification(w http.ResponseWriter, r *http.Request) {
	defer w.WriteHeader(http.StatusOK)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		s.log.Error("read notification body", "error", err)
		return
	}

	entry, err := feed.Parse(body)
	if errors.Is(err, feed.ErrNoEntry) {
		s.log.Info("feed ping without entries")
		return
	}
	if err != nil {
		s.log.Error("parse notification", "error", err)
		return
	}

	md, err := s.videos.VideoByID(r.Context(), entry.VideoID)
	if errors.Is(err, youtube.ErrNotFound) {
		s.log.Info("notification for unavailable video", "video_id", entry.VideoID)
		return
	}
	if err != nil {
		s.log.Error("video metadata lookup", "video_id", entry.VideoID, "error", err)
		return
	}

	ann := &model.Announcement{
		VideoID:     entry.VideoID,
		ChannelID:   entry.ChannelID,
		Title:       md.Title,
		Duration:    md.Duration,
		PublishedAt: md.PublishedAt,
	}
	if _, err := s.ingestor.Ingest(r.Context(), ann); err != nil {
		s.log.Error("ingest notification", "video_id", entry.VideoID, "error", err)
	}
}
