package migrate

import (
	"context"
	"strings"
	"time"

	"github.com/Freddiekinns/chess-opening-explorer-sub002/store"
)

// RunDryRun executes the full parsing and validation pass without touching
// the store, returning projected counts. Duplicates are detected within
// the source set itself (the same FEN or video id appearing twice), which
// is what a first real run against an empty store would skip.
func (m *Migrator) RunDryRun(ctx context.Context) (*Report, error) {
	state := NewRunState(store.NewRunID() + "_dry")
	state.Stage = StageVerifying

	check := m.VerifySourceData()
	if !check.Valid {
		return nil, ErrVerificationFailed
	}

	seenFENs := make(map[string]bool)
	for _, path := range m.ecoFiles() {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		entries, err := parseEcoFile(path)
		if err != nil {
			state.Openings.Errored++
			state.recordError(err.Error())
			continue
		}
		for fen, entry := range entries {
			fen = strings.TrimSpace(fen)
			if fen == "" {
				fen = StartingFEN
			}
			if entry == nil || entry.Name == "" {
				state.Openings.Errored++
				continue
			}
			if seenFENs[fen] {
				state.Openings.Skipped++
			} else {
				seenFENs[fen] = true
				state.Openings.Migrated++
			}
		}
	}

	seenVideos := make(map[string]bool)
	for _, path := range m.videoFiles() {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if _, err := fenFromVideoFile(path); err != nil {
			state.Videos.Errored++
			state.recordError(err.Error())
			continue
		}
		records, err := parseVideoFile(path)
		if err != nil {
			state.Videos.Errored++
			state.recordError(err.Error())
			continue
		}
		for _, raw := range records {
			rec, err := raw.normalize()
			if err != nil {
				state.Videos.Errored++
				continue
			}
			if seenVideos[rec.ID] {
				state.Videos.Skipped++
			} else {
				seenVideos[rec.ID] = true
				state.Videos.Migrated++
			}
		}
	}

	state.Stage = StageComplete
	est, _ := m.EstimateMigrationSize()
	report := m.buildReport(state, nil, true)
	report.Estimate = est
	report.Duration = time.Duration(time.Now().UnixMilli()-state.StartedAt) * time.Millisecond
	m.log.Info("migrate: dry run complete",
		"eco_files", len(m.ecoFiles()),
		"video_files", len(m.videoFiles()),
		"projected_openings", state.Openings.Migrated,
		"projected_videos", state.Videos.Migrated,
	)
	return report, nil
}
