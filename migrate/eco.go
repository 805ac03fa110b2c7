package migrate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Freddiekinns/chess-opening-explorer-sub002/store"
)

// parseEcoFile reads one canonical definition file: a JSON object mapping
// FEN position keys to opening definitions.
func parseEcoFile(path string) (map[string]*ecoEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("migrate: read eco file: %w", err)
	}
	var entries map[string]*ecoEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("migrate: parse eco file %s: %w", filepath.Base(path), err)
	}
	return entries, nil
}

// MigrateEcoFile loads one canonical definition file into the store.
// Records are classified as migrated, skipped (already present) or errored
// (malformed); a single bad record never aborts the file, and a malformed
// file never aborts the run. Only store-level failures propagate.
func (m *Migrator) MigrateEcoFile(ctx context.Context, state *RunState, path string) error {
	name := filepath.Base(path)
	if state.fileDone(name) {
		m.log.Debug("migrate: eco file already done", "file", name)
		return nil
	}

	entries, err := parseEcoFile(path)
	if err != nil {
		// Source defect: count and continue with the remaining files.
		state.Openings.Errored++
		state.recordError(err.Error())
		m.log.Warn("migrate: skipping unreadable eco file", "file", name, "error", err)
		return nil
	}

	for fen, entry := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fen = strings.TrimSpace(fen)
		if fen == "" {
			// Missing position key: normalize to the starting arrangement.
			fen = StartingFEN
		}
		if entry == nil || entry.Name == "" {
			state.Openings.Errored++
			state.recordError(fmt.Sprintf("%s: %s: missing name", name, fen))
			continue
		}

		inserted, err := m.st.InsertOpening(ctx, &store.Opening{
			FEN:     fen,
			Name:    entry.Name,
			ECO:     entry.ECO,
			Aliases: entry.Aliases,
		})
		if err != nil {
			// Store fault, not a record defect: fatal for the run.
			return err
		}
		if inserted {
			state.Openings.Migrated++
		} else {
			state.Openings.Skipped++
		}
		state.Processed++
	}

	state.markDone(name)
	if err := SaveCheckpoint(m.cfg.CheckpointPath, state); err != nil {
		m.log.Warn("migrate: checkpoint save failed", "error", err)
	}
	m.log.Info("migrate: eco file complete", "file", name, "entries", len(entries))
	return nil
}

// MigrateAllEcoFiles loads every canonical definition file in stable order.
func (m *Migrator) MigrateAllEcoFiles(ctx context.Context, state *RunState) error {
	files := m.ecoFiles()
	for _, f := range files {
		if err := m.MigrateEcoFile(ctx, state, f); err != nil {
			return err
		}
	}
	return nil
}
