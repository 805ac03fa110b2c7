package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Projected per-row storage costs, in bytes. Calibrated against migrated
// stores: an opening row carries the FEN plus a handful of short text
// columns, a video row slightly less, a relationship row two keys and a
// score.
const (
	openingRowBytes      = 220
	videoRowBytes        = 180
	relationshipRowBytes = 64
)

// VerifySourceData confirms the required source locations exist and that
// at least one canonical definition file is present. It reports rather
// than fails so callers can decide whether partial migration is
// acceptable.
func (m *Migrator) VerifySourceData() *SourceCheck {
	check := &SourceCheck{Valid: true}

	ecoFiles, _ := filepath.Glob(filepath.Join(m.cfg.EcoDir, "eco*.json"))
	if len(ecoFiles) == 0 {
		check.Valid = false
		check.MissingFiles = append(check.MissingFiles, filepath.Join(m.cfg.EcoDir, "eco*.json"))
	}
	if _, err := os.Stat(m.cfg.VideosDir); err != nil {
		check.Valid = false
		check.MissingFiles = append(check.MissingFiles, m.cfg.VideosDir)
	}
	return check
}

// EstimateMigrationSize projects the relational footprint of the raw
// sources and the compression ratio the migration should achieve. The
// projection counts records and prices them at fixed per-row costs; the
// raw JSON carries far more per record (enrichment blobs, nested
// statistics), which is exactly the reduction the store exists to deliver.
func (m *Migrator) EstimateMigrationSize() (*SizeEstimate, error) {
	est := &SizeEstimate{}

	var openings, videoRecords int64
	for _, f := range m.ecoFiles() {
		fi, err := os.Stat(f)
		if err != nil {
			continue
		}
		est.SourceBytes += fi.Size()
		entries, err := parseEcoFile(f)
		if err != nil {
			continue
		}
		openings += int64(len(entries))
	}

	filepath.WalkDir(m.cfg.VideosDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		fi, statErr := d.Info()
		if statErr != nil {
			return nil
		}
		est.SourceBytes += fi.Size()
		if records, parseErr := parseVideoFile(path); parseErr == nil {
			videoRecords += int64(len(records))
		}
		return nil
	})

	est.ProjectedBytes = openings*openingRowBytes +
		videoRecords*(videoRowBytes+relationshipRowBytes)
	if est.SourceBytes > 0 {
		est.CompressionRatio = 1 - float64(est.ProjectedBytes)/float64(est.SourceBytes)
	}
	return est, nil
}

// ecoFiles returns the canonical definition files in stable order.
func (m *Migrator) ecoFiles() []string {
	files, _ := filepath.Glob(filepath.Join(m.cfg.EcoDir, "eco*.json"))
	sort.Strings(files)
	return files
}

// videoFiles returns the per-opening video files in stable order.
// Stable ordering is what makes checkpoint resume deterministic.
func (m *Migrator) videoFiles() []string {
	files, _ := filepath.Glob(filepath.Join(m.cfg.VideosDir, "*.json"))
	sort.Strings(files)
	return files
}
