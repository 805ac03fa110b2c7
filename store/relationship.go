package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// UpsertRelationship creates or replaces the relationship between an
// opening and a video. The (fen, video) pair is never duplicated; a
// re-derived score overwrites the stored one. Each upsert commits as a
// single atomic statement so concurrent readers never observe a
// half-written row.
func (s *Store) UpsertRelationship(ctx context.Context, fen, videoID string, score float64) error {
	now := time.Now().UnixMilli()
	_, err := execBusy(ctx, s.DB,
		`INSERT INTO opening_videos (opening_fen, video_id, match_score, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (opening_fen, video_id)
		DO UPDATE SET match_score = excluded.match_score, updated_at = excluded.updated_at`,
		fen, videoID, score, now, now,
	)
	if err != nil {
		return fmt.Errorf("store: upsert relationship %s/%s: %w", fen, videoID, err)
	}
	return nil
}

// GetRelationship returns the relationship for (fen, videoID), or nil.
func (s *Store) GetRelationship(ctx context.Context, fen, videoID string) (*Relationship, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT opening_fen, video_id, match_score, created_at, updated_at
		FROM opening_videos WHERE opening_fen = ? AND video_id = ?`, fen, videoID)

	var r Relationship
	err := row.Scan(&r.OpeningFEN, &r.VideoID, &r.MatchScore, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan relationship: %w", err)
	}
	return &r, nil
}

// TopVideosForOpening returns up to limit videos for an opening, ordered by
// match score descending, ties broken by view count descending. A limit
// of zero or less returns every video for the opening.
func (s *Store) TopVideosForOpening(ctx context.Context, fen string, limit int) ([]*ScoredVideo, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT v.id, v.title, v.channel, v.duration, v.view_count,
		v.published_at, v.thumbnail, v.created_at, ov.match_score
		FROM opening_videos ov
		JOIN videos v ON v.id = ov.video_id
		WHERE ov.opening_fen = ?
		ORDER BY ov.match_score DESC, v.view_count DESC
		LIMIT ?`, fen, limit)
	if err != nil {
		return nil, fmt.Errorf("store: top videos for %s: %w", fen, err)
	}
	defer rows.Close()

	var videos []*ScoredVideo
	for rows.Next() {
		var sv ScoredVideo
		var published sql.NullInt64
		err := rows.Scan(&sv.ID, &sv.Title, &sv.Channel, &sv.Duration, &sv.ViewCount,
			&published, &sv.Thumbnail, &sv.CreatedAt, &sv.MatchScore)
		if err != nil {
			return nil, fmt.Errorf("scan scored video: %w", err)
		}
		sv.PublishedAt = published.Int64
		videos = append(videos, &sv)
	}
	return videos, rows.Err()
}

// CountRelationships returns the total number of relationship rows.
func (s *Store) CountRelationships(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM opening_videos`).Scan(&n)
	return n, err
}

// VideoCountForOpening returns how many videos reference an opening.
func (s *Store) VideoCountForOpening(ctx context.Context, fen string) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM opening_videos WHERE opening_fen = ?`, fen).Scan(&n)
	return n, err
}
