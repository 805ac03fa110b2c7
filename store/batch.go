package store

import (
	"context"
	"fmt"
)

// VideoImport couples a video with the opening relationship it was derived
// from. One import batch is one store call from the orchestrator's point of
// view.
type VideoImport struct {
	Video *Video
	FEN   string
	Score float64
}

// BatchResult reports the outcome of one import batch.
type BatchResult struct {
	Inserted int
	Skipped  int
	Errored  int
}

// ImportVideoBatch loads one bounded batch of videos and their
// relationships. Each row commits as its own atomic statement rather than
// under one batch-wide transaction: external readers share this file, and
// a long open write transaction would stall them for the whole batch.
// A per-item failure is counted and the batch continues.
func (s *Store) ImportVideoBatch(ctx context.Context, batch []VideoImport) (*BatchResult, error) {
	res := &BatchResult{}
	for _, item := range batch {
		inserted, err := s.InsertVideo(ctx, item.Video)
		if err != nil {
			res.Errored++
			continue
		}
		if inserted {
			res.Inserted++
		} else {
			res.Skipped++
		}
		if err := s.UpsertRelationship(ctx, item.FEN, item.Video.ID, item.Score); err != nil {
			res.Errored++
		}
	}
	if ctx.Err() != nil {
		return res, fmt.Errorf("store: import batch: %w", ctx.Err())
	}
	return res, nil
}
