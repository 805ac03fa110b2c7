package migrate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Freddiekinns/chess-opening-explorer-sub002/fenpath"
	"github.com/Freddiekinns/chess-opening-explorer-sub002/store"
)

// parseVideoFile reads one per-opening video file: a JSON array of raw
// video records.
func parseVideoFile(path string) ([]*rawVideoRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("migrate: read video file: %w", err)
	}
	var records []*rawVideoRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("migrate: parse video file %s: %w", filepath.Base(path), err)
	}
	return records, nil
}

// fenFromVideoFile recovers the opening's position key from the file name.
// The encoding must invert exactly; a name that does not round-trip is a
// conversion fault — fatal for the file, not for the run.
func fenFromVideoFile(path string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(path), ".json")
	fen := fenpath.ToFEN(base)
	if fenpath.ToFilename(fen) != base {
		return "", fmt.Errorf("migrate: filename %q does not decode to a position key", base)
	}
	return fen, nil
}

// MigrateVideoData iterates the per-opening video files in bounded batches
// so memory use stays flat regardless of source volume. Every record is
// validated before insertion; invalid records are counted as errors, not
// inserted. Batches are handed to the store as single batched calls:
// 75 records at batch size 50 means exactly two store calls.
func (m *Migrator) MigrateVideoData(ctx context.Context, state *RunState, batchSize int) error {
	if batchSize <= 0 {
		batchSize = m.cfg.BatchSize
	}

	var batch []store.VideoImport
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		res, err := m.st.ImportVideoBatch(ctx, batch)
		if err != nil {
			return err
		}
		state.BatchCalls++
		state.Videos.Migrated += res.Inserted
		state.Videos.Skipped += res.Skipped
		state.Videos.Errored += res.Errored
		state.Processed += len(batch)
		batch = batch[:0]
		if err := SaveCheckpoint(m.cfg.CheckpointPath, state); err != nil {
			m.log.Warn("migrate: checkpoint save failed", "error", err)
		}
		return nil
	}

	for _, path := range m.videoFiles() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		name := filepath.Base(path)
		if state.fileDone(name) {
			continue
		}

		fen, err := fenFromVideoFile(path)
		if err != nil {
			state.Videos.Errored++
			state.recordError(err.Error())
			m.log.Warn("migrate: skipping video file", "file", name, "error", err)
			state.markDone(name)
			continue
		}

		records, err := parseVideoFile(path)
		if err != nil {
			state.Videos.Errored++
			state.recordError(err.Error())
			m.log.Warn("migrate: skipping unreadable video file", "file", name, "error", err)
			state.markDone(name)
			continue
		}

		for _, raw := range records {
			rec, err := raw.normalize()
			if err != nil {
				state.Videos.Errored++
				state.recordError(fmt.Sprintf("%s: %v", name, err))
				continue
			}
			batch = append(batch, store.VideoImport{
				Video: &store.Video{
					ID:          rec.ID,
					Title:       rec.Title,
					Channel:     rec.Channel,
					Duration:    rec.Duration,
					ViewCount:   rec.ViewCount,
					PublishedAt: rec.PublishedAt,
					Thumbnail:   rec.Thumbnail,
				},
				FEN:   fen,
				Score: rec.Score,
			})
			if len(batch) == batchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		state.markDone(name)
	}

	return flush()
}
