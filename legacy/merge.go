package legacy

import "github.com/Freddiekinns/chess-opening-explorer-sub002/store"

// MergeResult reports the outcome of joining the snapshot with the
// enrichment cache.
type MergeResult struct {
	Candidates []*CodeMapping
	// SkippedNoEnrichment counts snapshot videos with no enrichment entry.
	// Unenriched listings have no reliable score and are deliberately
	// excluded from migration rather than loaded with a guess.
	SkippedNoEnrichment int
	Errors              []string
}

// MergeVideoData joins the two legacy sources by video identifier. Only
// enriched videos become candidates; enrichment supplies the refreshed
// title and statistics when present, and the candidate score is the better
// of the legacy quality score and the enrichment relevance score.
func (in *Integrator) MergeVideoData(snap *Snapshot, cache *EnrichmentCache) *MergeResult {
	res := &MergeResult{}
	res.Errors = append(res.Errors, snap.Errors...)
	res.Errors = append(res.Errors, cache.Errors...)

	for _, code := range snap.codes() {
		for _, sv := range snap.Videos[code] {
			if sv == nil || sv.ID == "" {
				continue
			}
			enriched, ok := cache.Videos[sv.ID]
			if !ok {
				res.SkippedNoEnrichment++
				continue
			}

			v := &store.Video{
				ID:          sv.ID,
				Title:       sv.Title,
				Channel:     sv.ChannelTitle,
				Duration:    sv.Duration,
				ViewCount:   sv.ViewCount,
				PublishedAt: sv.PublishedAt,
				Thumbnail:   sv.Thumbnail,
			}
			score := sv.LegacyScore
			if enriched.Title != "" {
				v.Title = enriched.Title
			}
			if enriched.Statistics != nil && enriched.Statistics.ViewCount > 0 {
				v.ViewCount = enriched.Statistics.ViewCount
			}
			if enriched.RelevanceScore > score {
				score = enriched.RelevanceScore
			}

			// The same video may sit under several category codes; each
			// occurrence is a separate candidate mapping.
			res.Candidates = append(res.Candidates, &CodeMapping{
				Code:        code,
				Video:       v,
				LegacyScore: clampScore(score),
			})
		}
	}
	in.log.Info("legacy: merge complete",
		"candidates", len(res.Candidates),
		"skipped_no_enrichment", res.SkippedNoEnrichment,
	)
	return res
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
