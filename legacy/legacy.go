// Package legacy bridges the older snapshot formats into the current
// position-keyed relational model: a category-indexed video listing and a
// separate per-video enrichment cache are merged by video id, ECO category
// codes are expanded into concrete FEN positions through the store, and
// match scores are recalculated from textual overlap.
//
// Extraction never fails hard: a missing or unreadable source yields an
// empty result plus a recorded error, because the integrator is routinely
// pointed at partially retired data directories.
package legacy

import (
	"log/slog"

	"github.com/Freddiekinns/chess-opening-explorer-sub002/store"
)

// Config locates the legacy sources.
type Config struct {
	// SnapshotPath is the category-indexed video listing
	// (ECO code → video descriptors).
	SnapshotPath string `yaml:"snapshot_path"`
	// EnrichmentPath is the per-video enrichment cache (video id → enriched
	// descriptor).
	EnrichmentPath string `yaml:"enrichment_path"`
	// BackupDir receives timestamped copies of the legacy sources and the
	// store before a destructive integration.
	BackupDir string `yaml:"backup_dir"`
}

func (c *Config) defaults() {
	if c.SnapshotPath == "" {
		c.SnapshotPath = "data/legacy/consolidated_videos.json"
	}
	if c.EnrichmentPath == "" {
		c.EnrichmentPath = "data/legacy/video_enrichment.json"
	}
	if c.BackupDir == "" {
		c.BackupDir = "backups/legacy"
	}
}

// Integrator reconciles legacy snapshots into the relational store.
type Integrator struct {
	st  *store.Store
	cfg Config
	log *slog.Logger
}

// New creates an Integrator bound to an open store.
func New(st *store.Store, cfg Config) *Integrator {
	cfg.defaults()
	return &Integrator{st: st, cfg: cfg, log: slog.Default()}
}

// snapshotVideo is one descriptor from the category-indexed listing.
type snapshotVideo struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	ChannelID    string  `json:"channel_id"`
	ChannelTitle string  `json:"channel_title"`
	Duration     int     `json:"duration"`
	ViewCount    int64   `json:"view_count"`
	LikeCount    int64   `json:"like_count"`
	CommentCount int64   `json:"comment_count"`
	PublishedAt  int64   `json:"published_at"`
	Thumbnail    string  `json:"thumbnail"`
	LegacyScore  float64 `json:"quality_score"`
}

// enrichedVideo is one descriptor from the enrichment cache.
type enrichedVideo struct {
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	RelevanceScore   float64         `json:"relevance_score"`
	Difficulty       string          `json:"difficulty"`
	ContentType      string          `json:"content_type"`
	EducationalValue float64         `json:"educational_value"`
	Statistics       *videoStatistics `json:"statistics"`
}

// videoStatistics carries the refreshed counters from enrichment.
type videoStatistics struct {
	ViewCount    int64 `json:"view_count"`
	LikeCount    int64 `json:"like_count"`
	CommentCount int64 `json:"comment_count"`
}

// CodeMapping is a merged candidate: a video still keyed by the legacy
// category code, carrying the better of the legacy and enrichment scores.
type CodeMapping struct {
	Code        string
	Video       *store.Video
	LegacyScore float64
}

// FENMapping is a concrete relationship candidate after category-to-
// position expansion.
type FENMapping struct {
	FEN   string
	Video *store.Video
	Score float64
}
