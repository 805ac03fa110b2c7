package legacy

import (
	"context"
	"fmt"
	"time"
)

// IntegrationResult reports a full legacy integration run. Counts are
// always populated, success or not — silent partial success is never
// acceptable.
type IntegrationResult struct {
	Candidates          int
	Migrated            int
	SkippedNoEnrichment int
	SkippedUnknownCode  int
	Conflicts           int
	Success             bool
	RolledBack          bool
	Errors              []string
	Duration            time.Duration
}

// Integrate runs the full legacy pipeline: extract both sources, merge by
// video id, expand category codes into positions, and load the resulting
// videos and relationships. Conflicting relationship updates resolve to
// the higher score.
func (in *Integrator) Integrate(ctx context.Context) (*IntegrationResult, error) {
	start := time.Now()
	res := &IntegrationResult{}

	snap := in.ExtractSnapshot()
	cache := in.ExtractEnrichmentCache()
	merged := in.MergeVideoData(snap, cache)
	res.Errors = append(res.Errors, merged.Errors...)
	res.SkippedNoEnrichment = merged.SkippedNoEnrichment
	res.Candidates = len(merged.Candidates)

	converted, err := in.ConvertEcoToFenMappings(ctx, merged.Candidates)
	if err != nil {
		res.Duration = time.Since(start)
		return res, err
	}
	res.SkippedUnknownCode = converted.SkippedUnknownCode

	for _, mapping := range converted.Mappings {
		if ctx.Err() != nil {
			res.Duration = time.Since(start)
			return res, ctx.Err()
		}
		if _, err := in.st.InsertVideo(ctx, mapping.Video); err != nil {
			res.Duration = time.Since(start)
			return res, fmt.Errorf("legacy: integrate video %s: %w", mapping.Video.ID, err)
		}

		resolution, err := in.ResolveUpdateConflict(ctx, &RelationshipUpdate{
			FEN:     mapping.FEN,
			VideoID: mapping.Video.ID,
			Score:   mapping.Score,
		})
		if err != nil {
			res.Duration = time.Since(start)
			return res, err
		}
		if resolution.Conflicted {
			res.Conflicts++
		}
		res.Migrated++
	}

	res.Success = true
	res.Duration = time.Since(start)
	in.log.Info("legacy: integration complete",
		"candidates", res.Candidates,
		"migrated", res.Migrated,
		"skipped_no_enrichment", res.SkippedNoEnrichment,
		"skipped_unknown_code", res.SkippedUnknownCode,
		"conflicts", res.Conflicts,
	)
	return res, nil
}

// RelationshipUpdate is an incoming relationship derived from legacy data.
type RelationshipUpdate struct {
	FEN     string
	VideoID string
	Score   float64
}

// Resolution records how a relationship conflict was settled.
type Resolution struct {
	Strategy   string // "insert", "kept_existing", "accepted_update"
	Final      float64
	Conflicted bool
}

// ResolveUpdateConflict applies an incoming relationship update against
// whatever is stored: the higher of the two scores wins, and the strategy
// used is recorded in the result.
func (in *Integrator) ResolveUpdateConflict(ctx context.Context, u *RelationshipUpdate) (*Resolution, error) {
	existing, err := in.st.GetRelationship(ctx, u.FEN, u.VideoID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		if err := in.st.UpsertRelationship(ctx, u.FEN, u.VideoID, u.Score); err != nil {
			return nil, err
		}
		return &Resolution{Strategy: "insert", Final: u.Score}, nil
	}

	if existing.MatchScore >= u.Score {
		return &Resolution{Strategy: "kept_existing", Final: existing.MatchScore, Conflicted: true}, nil
	}
	if err := in.st.UpsertRelationship(ctx, u.FEN, u.VideoID, u.Score); err != nil {
		return nil, err
	}
	return &Resolution{Strategy: "accepted_update", Final: u.Score, Conflicted: true}, nil
}

// FindNewVideosSince returns merged candidates whose publication timestamp
// is strictly after since — the incremental re-run path once a legacy
// snapshot has grown.
func (in *Integrator) FindNewVideosSince(since time.Time) []*CodeMapping {
	snap := in.ExtractSnapshot()
	cache := in.ExtractEnrichmentCache()
	merged := in.MergeVideoData(snap, cache)

	cutoff := since.UnixMilli()
	var fresh []*CodeMapping
	for _, c := range merged.Candidates {
		if c.Video.PublishedAt > cutoff {
			fresh = append(fresh, c)
		}
	}
	return fresh
}
