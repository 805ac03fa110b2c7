package legacy

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Snapshot is the parsed category-indexed listing plus any extraction
// errors. Errors here are recorded, never thrown: integration proceeds
// with whatever could be read.
type Snapshot struct {
	Videos map[string][]*snapshotVideo
	Errors []string
}

// EnrichmentCache is the parsed per-video enrichment data.
type EnrichmentCache struct {
	Videos map[string]*enrichedVideo
	Errors []string
}

// ExtractSnapshot parses the category-indexed video listing. A missing or
// unreadable file yields an empty snapshot with the error recorded.
func (in *Integrator) ExtractSnapshot() *Snapshot {
	snap := &Snapshot{Videos: map[string][]*snapshotVideo{}}

	data, err := os.ReadFile(in.cfg.SnapshotPath)
	if err != nil {
		snap.Errors = append(snap.Errors, fmt.Sprintf("snapshot: %v", err))
		in.log.Warn("legacy: snapshot unreadable", "path", in.cfg.SnapshotPath, "error", err)
		return snap
	}
	if err := json.Unmarshal(data, &snap.Videos); err != nil {
		snap.Errors = append(snap.Errors, fmt.Sprintf("snapshot parse: %v", err))
		in.log.Warn("legacy: snapshot malformed", "path", in.cfg.SnapshotPath, "error", err)
		snap.Videos = map[string][]*snapshotVideo{}
	}
	return snap
}

// ExtractEnrichmentCache parses the per-video enrichment cache with the
// same tolerance as ExtractSnapshot.
func (in *Integrator) ExtractEnrichmentCache() *EnrichmentCache {
	cache := &EnrichmentCache{Videos: map[string]*enrichedVideo{}}

	data, err := os.ReadFile(in.cfg.EnrichmentPath)
	if err != nil {
		cache.Errors = append(cache.Errors, fmt.Sprintf("enrichment: %v", err))
		in.log.Warn("legacy: enrichment cache unreadable", "path", in.cfg.EnrichmentPath, "error", err)
		return cache
	}
	if err := json.Unmarshal(data, &cache.Videos); err != nil {
		cache.Errors = append(cache.Errors, fmt.Sprintf("enrichment parse: %v", err))
		in.log.Warn("legacy: enrichment cache malformed", "path", in.cfg.EnrichmentPath, "error", err)
		cache.Videos = map[string]*enrichedVideo{}
	}
	return cache
}

// codes returns the snapshot's category codes in stable order.
func (s *Snapshot) codes() []string {
	codes := make([]string, 0, len(s.Videos))
	for code := range s.Videos {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
