package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// InsertVideo inserts a video if no row with the same id exists.
// Returns false when the id is already present (skipped, not an error).
func (s *Store) InsertVideo(ctx context.Context, v *Video) (bool, error) {
	if v.CreatedAt == 0 {
		v.CreatedAt = time.Now().UnixMilli()
	}

	res, err := execBusy(ctx, s.DB,
		`INSERT OR IGNORE INTO videos (id, title, channel, duration, view_count,
		published_at, thumbnail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Title, v.Channel, v.Duration, v.ViewCount,
		nullableMillis(v.PublishedAt), v.Thumbnail, v.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("store: insert video %s: %w", v.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: insert video %s: %w", v.ID, err)
	}
	return n > 0, nil
}

// GetVideo retrieves a video by id. Returns nil, nil when absent.
func (s *Store) GetVideo(ctx context.Context, id string) (*Video, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, title, channel, duration, view_count, published_at, thumbnail, created_at
		FROM videos WHERE id = ?`, id)

	var v Video
	var published sql.NullInt64
	err := row.Scan(&v.ID, &v.Title, &v.Channel, &v.Duration, &v.ViewCount,
		&published, &v.Thumbnail, &v.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan video: %w", err)
	}
	v.PublishedAt = published.Int64
	return &v, nil
}

// CountVideos returns the total number of videos.
func (s *Store) CountVideos(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM videos`).Scan(&n)
	return n, err
}

func nullableMillis(ms int64) any {
	if ms == 0 {
		return nil
	}
	return ms
}
