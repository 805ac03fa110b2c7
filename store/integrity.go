package store

import (
	"context"
	"fmt"
)

// ValidateIntegrity scans for orphaned relationships (referencing a missing
// opening or video) and out-of-range match scores. Data problems populate
// the report; only store-level query failures return an error.
func (s *Store) ValidateIntegrity(ctx context.Context) (*IntegrityReport, error) {
	report := &IntegrityReport{}

	var orphanOpenings int
	err := s.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM opening_videos ov
		LEFT JOIN openings o ON o.fen = ov.opening_fen
		WHERE o.fen IS NULL`).Scan(&orphanOpenings)
	if err != nil {
		return nil, fmt.Errorf("store: integrity check: %w", err)
	}
	if orphanOpenings > 0 {
		report.Issues = append(report.Issues,
			fmt.Sprintf("%d relationships reference a missing opening", orphanOpenings))
	}

	var orphanVideos int
	err = s.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM opening_videos ov
		LEFT JOIN videos v ON v.id = ov.video_id
		WHERE v.id IS NULL`).Scan(&orphanVideos)
	if err != nil {
		return nil, fmt.Errorf("store: integrity check: %w", err)
	}
	if orphanVideos > 0 {
		report.Issues = append(report.Issues,
			fmt.Sprintf("%d relationships reference a missing video", orphanVideos))
	}
	report.OrphanedRelationships = orphanOpenings + orphanVideos

	err = s.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM opening_videos
		WHERE match_score < 0 OR match_score > 1`).Scan(&report.InvalidScores)
	if err != nil {
		return nil, fmt.Errorf("store: integrity check: %w", err)
	}
	if report.InvalidScores > 0 {
		report.Issues = append(report.Issues,
			fmt.Sprintf("%d relationships have a score outside [0,1]", report.InvalidScores))
	}

	return report, nil
}

// PrepareMigration disables referential-integrity enforcement so bulk loads
// are insertion-order independent. FinalizeMigration must be called before
// the run is reported complete.
func (s *Store) PrepareMigration(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return wrapUnavailable("prepare migration", err)
	}
	return nil
}

// FinalizeMigration re-enables referential-integrity enforcement.
func (s *Store) FinalizeMigration(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return wrapUnavailable("finalize migration", err)
	}
	return nil
}
