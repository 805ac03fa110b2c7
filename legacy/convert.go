package legacy

import (
	"context"
	"fmt"

	"github.com/Freddiekinns/chess-opening-explorer-sub002/store"
)

// ConvertResult reports the category-to-position expansion.
type ConvertResult struct {
	Mappings []*FENMapping
	// SkippedUnknownCode counts input triples whose category code matched
	// no canonical position. Logged and skipped, never fatal.
	SkippedUnknownCode int
}

// ConvertEcoToFenMappings expands each (category code, video, score)
// candidate into concrete position mappings by looking up every canonical
// opening sharing that code. A code with no matching position contributes
// nothing; a code matching several positions currently maps the video to
// all of them — the video likely belongs to one variation, but the legacy
// data cannot say which, so the expansion is kept and the relationship
// counts inflate accordingly.
//
// Scores are recalculated from textual overlap per target opening; when
// recalculation fails the legacy score carries over — a score is never
// silently dropped.
func (in *Integrator) ConvertEcoToFenMappings(ctx context.Context, candidates []*CodeMapping) (*ConvertResult, error) {
	res := &ConvertResult{}

	// One store lookup per distinct code, not per candidate.
	byCode := make(map[string][]*store.Opening)
	for _, c := range candidates {
		if _, done := byCode[c.Code]; done {
			continue
		}
		openings, err := in.st.OpeningsByECO(ctx, c.Code)
		if err != nil {
			return nil, fmt.Errorf("legacy: convert code %s: %w", c.Code, err)
		}
		byCode[c.Code] = openings
	}

	for _, c := range candidates {
		openings := byCode[c.Code]
		if len(openings) == 0 {
			res.SkippedUnknownCode++
			in.log.Info("legacy: no canonical position for code", "code", c.Code, "video", c.Video.ID)
			continue
		}
		for _, o := range openings {
			score, err := RecalculateMatchScore(c.Video.Title, o)
			if err != nil {
				score = c.LegacyScore
			}
			res.Mappings = append(res.Mappings, &FENMapping{
				FEN:   o.FEN,
				Video: c.Video,
				Score: clampScore(score),
			})
		}
	}
	return res, nil
}
