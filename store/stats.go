package store

import (
	"context"
	"os"
)

// Stats returns row counts plus the storage-reduction ratio achieved
// against the declared raw source size. Pass 0 when the source size is
// unknown; the ratio is then reported as 0.
func (s *Store) Stats(ctx context.Context, sourceBytes int64) (*Stats, error) {
	var stats Stats
	stats.SourceBytes = sourceBytes

	var err error
	if stats.Openings, err = s.CountOpenings(ctx); err != nil {
		return nil, err
	}
	if stats.Videos, err = s.CountVideos(ctx); err != nil {
		return nil, err
	}
	if stats.Relationships, err = s.CountRelationships(ctx); err != nil {
		return nil, err
	}

	if s.Path() != "" {
		if fi, err := os.Stat(s.Path()); err == nil {
			stats.StoreBytes = fi.Size()
		}
	}
	if sourceBytes > 0 && stats.StoreBytes > 0 {
		stats.ReductionRatio = 1 - float64(stats.StoreBytes)/float64(sourceBytes)
	}
	return &stats, nil
}
