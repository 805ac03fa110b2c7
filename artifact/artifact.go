// Package artifact renders the per-opening JSON documents served as
// static files. Each document carries the opening, its best-matching
// videos above a relevance threshold, and generation metadata; the file
// name is derived from the position key so a client can address a
// document without any lookup table.
package artifact

import (
	"errors"
	"log/slog"
	"time"

	"github.com/Freddiekinns/chess-opening-explorer-sub002/store"
)

// ErrNoOpenings signals a generation run against an empty store.
var ErrNoOpenings = errors.New("artifact: no openings in store")

// Config controls output location, document shaping and the retry policy
// for filesystem writes.
type Config struct {
	// OutputDir receives one JSON file per opening.
	OutputDir string `yaml:"output_dir"`
	// MinScore excludes videos below this relevance from documents.
	MinScore float64 `yaml:"min_score"`
	// MaxVideos caps the videos embedded per document.
	MaxVideos int `yaml:"max_videos"`
	// Indent emits human-readable JSON instead of compact.
	Indent bool `yaml:"indent"`
	// CacheVersion is stamped into document metadata so clients can
	// invalidate cached copies across format changes.
	CacheVersion string `yaml:"cache_version"`
	// BatchSize bounds how many openings are in flight per generation
	// round; progress is reported once per round.
	BatchSize int `yaml:"batch_size"`
	// Concurrency bounds parallel document builds within a round.
	Concurrency int `yaml:"concurrency"`

	// Write retry policy. A failed write retries with exponential
	// backoff; exhausting the attempts marks that opening failed and the
	// run continues.
	RetryInitialInterval time.Duration `yaml:"retry_initial_interval"`
	RetryMultiplier      float64       `yaml:"retry_multiplier"`
	RetryMaxTries        uint          `yaml:"retry_max_tries"`
}

func (c *Config) defaults() {
	if c.OutputDir == "" {
		c.OutputDir = "dist/openings"
	}
	if c.MinScore == 0 {
		c.MinScore = 0.4
	}
	if c.MaxVideos == 0 {
		c.MaxVideos = 10
	}
	if c.CacheVersion == "" {
		c.CacheVersion = "v1"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 8
	}
	if c.RetryInitialInterval <= 0 {
		c.RetryInitialInterval = 100 * time.Millisecond
	}
	if c.RetryMultiplier <= 0 {
		c.RetryMultiplier = 2
	}
	if c.RetryMaxTries == 0 {
		c.RetryMaxTries = 3
	}
}

// Generator builds and maintains the static artifact tree for one store.
type Generator struct {
	st  *store.Store
	cfg Config
	log *slog.Logger
}

// New creates a Generator bound to an open store.
func New(st *store.Store, cfg Config) *Generator {
	cfg.defaults()
	return &Generator{st: st, cfg: cfg, log: slog.Default()}
}
