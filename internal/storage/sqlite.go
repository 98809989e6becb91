package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"youtube_bot/internal/model"
	"youtube_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateChannel inserts a new channel with its keywords and populates CreatedAt.
func (s *SQLite) CreateChannel(ctx context.Context, ch *model.Channel) error {
	now := time.Now().UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO channels (id, title, created_at) VALUES (?, ?, ?)`,
		ch.ID, ch.Title, now,
	); err != nil {
		return fmt.Errorf("insert channel: %w", err)
	}
	for _, kw := range ch.Keywords {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO channel_keywords (channel_id, keyword) VALUES (?, ?)`,
			ch.ID, kw,
		); err != nil {
			return fmt.Errorf("insert keyword: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	ch.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// GetChannel returns a single channel with its keywords, or ErrNotFound.
func (s *SQLite) GetChannel(ctx context.Context, id string) (*model.Channel, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at FROM channels WHERE id = ?`, id,
	)
	ch, err := scanChannel(row)
	if err != nil {
		return nil, err
	}

	ch.Keywords, err = s.channelKeywords(ctx, id)
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// ListChannels returns all watched channels with their keywords, ordered by title.
func (s *SQLite) ListChannels(ctx context.Context) ([]model.Channel, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at FROM channels ORDER BY title`,
	)
	if err != nil {
		return nil, fmt.Errorf("query channels: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var channels []model.Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, *ch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range channels {
		channels[i].Keywords, err = s.channelKeywords(ctx, channels[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return channels, nil
}

// DeleteChannel removes a channel and its keywords, returning the number of
// channel rows deleted.
func (s *SQLite) DeleteChannel(ctx context.Context, id string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM channel_keywords WHERE channel_id = ?`, id); err != nil {
		return 0, fmt.Errorf("delete keywords: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM channels WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete channel: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return deleted, nil
}

// AddKeywords adds keywords to a channel (set union).
func (s *SQLite) AddKeywords(ctx context.Context, channelID string, keywords []string) error {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO channel_keywords (channel_id, keyword) VALUES (?, ?)`,
			channelID, kw,
		); err != nil {
			return fmt.Errorf("add keyword %q: %w", kw, err)
		}
	}
	return nil
}

// RemoveKeywords removes keywords from a channel (set difference).
func (s *SQLite) RemoveKeywords(ctx context.Context, channelID string, keywords []string) error {
	for _, kw := range keywords {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM channel_keywords WHERE channel_id = ? AND keyword = ?`,
			channelID, kw,
		); err != nil {
			return fmt.Errorf("remove keyword %q: %w", kw, err)
		}
	}
	return nil
}

// InsertVideo writes a video record unless its ID already exists.
// It reports whether a row was written.
func (s *SQLite) InsertVideo(ctx context.Context, v *model.Video) (bool, error) {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO videos (id, channel_id, title, duration, added_at, private)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.ChannelID, v.Title, v.Duration, now, boolToInt(v.Private),
	)
	if err != nil {
		return false, fmt.Errorf("insert video: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if inserted > 0 {
		v.AddedAt, _ = time.Parse(timeLayout, now)
	}
	return inserted > 0, nil
}

// GetVideo returns a single video by its ID, or ErrNotFound.
func (s *SQLite) GetVideo(ctx context.Context, id string) (*model.Video, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, channel_id, title, duration, added_at, watched_at, private
		 FROM videos WHERE id = ?`, id,
	)
	return scanVideo(row)
}

// HasVideo checks whether a video record exists.
func (s *SQLite) HasVideo(ctx context.Context, id string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM videos WHERE id = ?`, id,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check video: %w", err)
	}
	return count > 0, nil
}

// MarkWatched records the watch time of a video.
func (s *SQLite) MarkWatched(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`UPDATE videos SET watched_at = ? WHERE id = ?`, now, id,
	)
	if err != nil {
		return fmt.Errorf("mark watched: %w", err)
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if updated == 0 {
		return ErrNotFound
	}
	return nil
}

// RandomVideos returns up to n video records sampled at random.
func (s *SQLite) RandomVideos(ctx context.Context, n int) ([]model.Video, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, channel_id, title, duration, added_at, watched_at, private
		 FROM videos ORDER BY RANDOM() LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("query random videos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var videos []model.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, *v)
	}
	return videos, rows.Err()
}

func (s *SQLite) channelKeywords(ctx context.Context, channelID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT keyword FROM channel_keywords WHERE channel_id = ? ORDER BY keyword`,
		channelID,
	)
	if err != nil {
		return nil, fmt.Errorf("query keywords: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keywords []string
	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		keywords = append(keywords, kw)
	}
	return keywords, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

func scanChannel(row scannable) (*model.Channel, error) {
	var ch model.Channel
	var created string
	err := row.Scan(&ch.ID, &ch.Title, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan channel: %w", err)
	}
	ch.CreatedAt, _ = time.Parse(timeLayout, created)
	return &ch, nil
}

func scanVideo(row scannable) (*model.Video, error) {
	var v model.Video
	var private int
	var added string
	var watched sql.NullString
	err := row.Scan(&v.ID, &v.ChannelID, &v.Title, &v.Duration, &added, &watched, &private)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan video: %w", err)
	}
	v.Private = private == 1
	v.AddedAt, _ = time.Parse(timeLayout, added)
	if watched.Valid {
		t, _ := time.Parse(timeLayout, watched.String)
		v.WatchedAt = &t
	}
	return &v, nil
}
