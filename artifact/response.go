package artifact

import (
	"sort"
	"time"

	"github.com/Freddiekinns/chess-opening-explorer-sub002/store"
)

// Response is the external document shape. Field names here are the
// published contract; they do not track internal column names.
type Response struct {
	Opening  OpeningDoc `json:"opening"`
	Videos   []VideoDoc `json:"videos"`
	Metadata Metadata   `json:"metadata"`
}

// OpeningDoc describes the position a document belongs to.
type OpeningDoc struct {
	FEN     string   `json:"fen"`
	Name    string   `json:"name"`
	ECO     string   `json:"eco,omitempty"`
	Aliases []string `json:"aliases,omitempty"`
}

// VideoDoc is one recommended video in its external shape.
type VideoDoc struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Channel         string  `json:"channel"`
	DurationSeconds int     `json:"duration_seconds"`
	Views           int64   `json:"views"`
	PublishedAt     int64   `json:"published_at,omitempty"`
	Thumbnail       string  `json:"thumbnail,omitempty"`
	MatchScore      float64 `json:"match_score"`
}

// Metadata stamps a document with its provenance.
type Metadata struct {
	GeneratedAt  time.Time `json:"generated_at"`
	CacheVersion string    `json:"cache_version"`
	// TotalVideos counts every video that passed the relevance filter,
	// before the per-document cap — clients can tell a short list from a
	// truncated one.
	TotalVideos int `json:"total_videos"`
}

// GenerateResponse shapes one opening and its scored videos into the
// external document: videos below MinScore are dropped, the remainder is
// ordered by score descending and capped at MaxVideos.
func (g *Generator) GenerateResponse(opening *store.Opening, videos []*store.ScoredVideo) *Response {
	kept := make([]*store.ScoredVideo, 0, len(videos))
	for _, v := range videos {
		if v.MatchScore >= g.cfg.MinScore {
			kept = append(kept, v)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].MatchScore != kept[j].MatchScore {
			return kept[i].MatchScore > kept[j].MatchScore
		}
		return kept[i].ViewCount > kept[j].ViewCount
	})

	total := len(kept)
	if len(kept) > g.cfg.MaxVideos {
		kept = kept[:g.cfg.MaxVideos]
	}

	docs := make([]VideoDoc, 0, len(kept))
	for _, v := range kept {
		docs = append(docs, VideoDoc{
			ID:              v.ID,
			Title:           v.Title,
			Channel:         v.Channel,
			DurationSeconds: v.Duration,
			Views:           v.ViewCount,
			PublishedAt:     v.PublishedAt,
			Thumbnail:       v.Thumbnail,
			MatchScore:      v.MatchScore,
		})
	}

	return &Response{
		Opening: OpeningDoc{
			FEN:     opening.FEN,
			Name:    opening.Name,
			ECO:     opening.ECO,
			Aliases: opening.Aliases,
		},
		Videos: docs,
		Metadata: Metadata{
			GeneratedAt:  time.Now().UTC(),
			CacheVersion: g.cfg.CacheVersion,
			TotalVideos:  total,
		},
	}
}
