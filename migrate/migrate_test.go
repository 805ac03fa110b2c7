package migrate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/Freddiekinns/chess-opening-explorer-sub002/fenpath"
	"github.com/Freddiekinns/chess-opening-explorer-sub002/store"
)

const italianFEN = "r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R b KQkq - 3 3"

// newTestMigrator wires a migrator against an in-memory store and a
// temporary source tree.
func newTestMigrator(t *testing.T) (*Migrator, Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{
		EcoDir:         filepath.Join(dir, "eco"),
		VideosDir:      filepath.Join(dir, "videos"),
		BackupDir:      filepath.Join(dir, "backups"),
		CheckpointPath: filepath.Join(dir, "checkpoint.json"),
		BatchSize:      50,
	}
	os.MkdirAll(cfg.EcoDir, 0o755)
	os.MkdirAll(cfg.VideosDir, 0o755)
	return New(store.OpenMemory(t), cfg), cfg
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func TestMigrateEcoFileClassifiesRecords(t *testing.T) {
	// WHAT: Records land as migrated, skipped or errored; a bad record
	// never aborts migration of its file.
	// WHY: Canonical files are large and partially hand-maintained; one
	// malformed entry must not cost the other thousands.
	m, cfg := newTestMigrator(t)
	ctx := context.Background()

	writeJSON(t, filepath.Join(cfg.EcoDir, "ecoC.json"), map[string]any{
		italianFEN: map[string]any{"name": "Italian Game", "eco": "C50", "moves": "1. e4 e5 2. Nf3 Nc6 3. Bc4"},
		"r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3": map[string]any{
			// missing name — malformed
			"eco": "C44",
		},
	})

	state := NewRunState("run_test")
	if err := m.MigrateAllEcoFiles(ctx, state); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if state.Openings.Migrated != 1 || state.Openings.Errored != 1 {
		t.Errorf("counts: %+v", state.Openings)
	}

	got, _ := m.Store().GetOpening(ctx, italianFEN)
	if got == nil || got.ECO != "C50" {
		t.Fatalf("opening not migrated: %+v", got)
	}
}

func TestMigrateEcoFileNormalizesMissingFENAndStringAliases(t *testing.T) {
	// WHAT: An empty position key becomes the starting arrangement; an
	// aliases field given as a bare string becomes a one-element list.
	// WHY: Both shapes exist in the legacy canonical files.
	m, cfg := newTestMigrator(t)
	ctx := context.Background()

	writeJSON(t, filepath.Join(cfg.EcoDir, "ecoA.json"), map[string]any{
		"": map[string]any{"name": "Start", "eco": "A00", "aliases": "Initial Position"},
	})

	state := NewRunState("run_test")
	if err := m.MigrateAllEcoFiles(ctx, state); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	got, _ := m.Store().GetOpening(ctx, StartingFEN)
	if got == nil {
		t.Fatal("missing-FEN record should land on the starting position")
	}
	if len(got.Aliases) != 1 || got.Aliases[0] != "Initial Position" {
		t.Errorf("aliases: %v", got.Aliases)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	// WHAT: A second run over unchanged sources migrates zero new rows and
	// duplicates no relationships.
	// WHY: The pipeline re-runs against evolving sources; idempotence is
	// the core contract.
	m, cfg := newTestMigrator(t)
	ctx := context.Background()

	writeJSON(t, filepath.Join(cfg.EcoDir, "ecoC.json"), map[string]any{
		italianFEN: map[string]any{"name": "Italian Game", "eco": "C50"},
	})
	writeJSON(t, filepath.Join(cfg.VideosDir, fenpath.ToFilename(italianFEN)+".json"), []map[string]any{
		{"id": "v1", "title": "Italian Game Guide", "duration": 600, "view_count": 1000, "match_score": 0.9},
	})

	first, err := m.RunFullMigration(ctx, false)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Openings.Migrated != 1 || first.Videos.Migrated != 1 {
		t.Fatalf("first run counts: %+v", first)
	}

	second, err := m.RunFullMigration(ctx, false)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Openings.Migrated != 0 || second.Videos.Migrated != 0 {
		t.Errorf("second run migrated rows: %+v", second)
	}
	if second.Openings.Skipped != 1 || second.Videos.Skipped != 1 {
		t.Errorf("second run skips: %+v", second)
	}

	n, _ := m.Store().CountRelationships(ctx)
	if n != 1 {
		t.Errorf("relationships after rerun: got %d, want 1", n)
	}
}

func TestMigrateVideoDataBatching(t *testing.T) {
	// WHAT: 75 records at batch size 50 issue exactly 2 batched store calls.
	// WHY: Batch size is the memory bound; the store-call count proves the
	// batching actually happens at the store boundary.
	m, cfg := newTestMigrator(t)
	ctx := context.Background()

	m.Store().InsertOpening(ctx, &store.Opening{FEN: italianFEN, Name: "Italian", ECO: "C50"})

	var records []map[string]any
	for i := range 75 {
		records = append(records, map[string]any{
			"id": fmt.Sprintf("v%03d", i), "title": "T", "duration": 60, "view_count": i, "match_score": 0.7,
		})
	}
	writeJSON(t, filepath.Join(cfg.VideosDir, fenpath.ToFilename(italianFEN)+".json"), records)

	state := NewRunState("run_test")
	if err := m.MigrateVideoData(ctx, state, cfg.BatchSize); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if state.BatchCalls != 2 {
		t.Errorf("batch calls: got %d, want 2", state.BatchCalls)
	}
	if state.Videos.Migrated != 75 {
		t.Errorf("migrated: got %d, want 75", state.Videos.Migrated)
	}
}

func TestMigrateVideoDataValidation(t *testing.T) {
	// WHAT: Records with an empty id, negative duration or non-numeric view
	// count are errored and never inserted; valid siblings still land.
	m, cfg := newTestMigrator(t)
	ctx := context.Background()

	m.Store().InsertOpening(ctx, &store.Opening{FEN: italianFEN, Name: "Italian", ECO: "C50"})
	writeJSON(t, filepath.Join(cfg.VideosDir, fenpath.ToFilename(italianFEN)+".json"), []map[string]any{
		{"id": "good", "title": "OK", "duration": 60, "view_count": "1200", "match_score": 0.8},
		{"id": "", "title": "no id", "duration": 60, "view_count": 5},
		{"id": "neg", "title": "negative", "duration": -5, "view_count": 5},
		{"id": "nan", "title": "bad views", "duration": 60, "view_count": "lots"},
	})

	state := NewRunState("run_test")
	if err := m.MigrateVideoData(ctx, state, 10); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if state.Videos.Migrated != 1 || state.Videos.Errored != 3 {
		t.Errorf("counts: %+v", state.Videos)
	}

	good, _ := m.Store().GetVideo(ctx, "good")
	if good == nil || good.ViewCount != 1200 {
		t.Errorf("string view count not normalized: %+v", good)
	}
	if v, _ := m.Store().GetVideo(ctx, "neg"); v != nil {
		t.Error("invalid record was inserted")
	}
}

func TestVerifySourceData(t *testing.T) {
	// WHAT: Missing sources are reported, not thrown, and the full run
	// refuses to start before any mutation.
	m, cfg := newTestMigrator(t)

	check := m.VerifySourceData()
	if check.Valid {
		t.Error("empty eco dir should not verify")
	}
	if len(check.MissingFiles) == 0 {
		t.Error("missing files should be listed")
	}

	if _, err := m.RunFullMigration(context.Background(), false); err == nil {
		t.Fatal("full migration should fail verification")
	}
	n, _ := m.Store().CountOpenings(context.Background())
	if n != 0 {
		t.Error("failed verification must not mutate the store")
	}

	writeJSON(t, filepath.Join(cfg.EcoDir, "ecoA.json"), map[string]any{})
	if check := m.VerifySourceData(); !check.Valid {
		t.Errorf("sources present, still invalid: %+v", check.MissingFiles)
	}
}

func TestRunDryRunDoesNotMutate(t *testing.T) {
	// WHAT: Dry run returns projected counts and leaves the store empty.
	m, cfg := newTestMigrator(t)
	ctx := context.Background()

	writeJSON(t, filepath.Join(cfg.EcoDir, "ecoC.json"), map[string]any{
		italianFEN: map[string]any{"name": "Italian Game", "eco": "C50"},
	})
	writeJSON(t, filepath.Join(cfg.VideosDir, fenpath.ToFilename(italianFEN)+".json"), []map[string]any{
		{"id": "v1", "title": "T", "duration": 60, "view_count": 10, "match_score": 0.7},
		{"id": "v1", "title": "T again", "duration": 60, "view_count": 10, "match_score": 0.7},
		{"id": "", "title": "bad"},
	})

	report, err := m.RunDryRun(ctx)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if report.Openings.Migrated != 1 {
		t.Errorf("projected openings: %+v", report.Openings)
	}
	if report.Videos.Migrated != 1 || report.Videos.Skipped != 1 || report.Videos.Errored != 1 {
		t.Errorf("projected videos: %+v", report.Videos)
	}

	openings, _ := m.Store().CountOpenings(ctx)
	videos, _ := m.Store().CountVideos(ctx)
	if openings != 0 || videos != 0 {
		t.Error("dry run mutated the store")
	}
}

func TestCheckpointResumeSkipsCompletedFiles(t *testing.T) {
	// WHAT: A resumed run does not re-process files the checkpoint marks
	// complete.
	// WHY: Resume must not inflate skip counts or redo work after an
	// interruption.
	m, cfg := newTestMigrator(t)
	ctx := context.Background()

	writeJSON(t, filepath.Join(cfg.EcoDir, "ecoA.json"), map[string]any{
		StartingFEN: map[string]any{"name": "Start", "eco": "A00"},
	})
	writeJSON(t, filepath.Join(cfg.EcoDir, "ecoC.json"), map[string]any{
		italianFEN: map[string]any{"name": "Italian Game", "eco": "C50"},
	})

	// Simulate an interrupted run that finished ecoA only.
	state := NewRunState("run_interrupted")
	state.Stage = StageMigratingOpenings
	if err := m.MigrateEcoFile(ctx, state, filepath.Join(cfg.EcoDir, "ecoA.json")); err != nil {
		t.Fatalf("partial run: %v", err)
	}
	if err := SaveCheckpoint(cfg.CheckpointPath, state); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadCheckpoint(cfg.CheckpointPath)
	if err != nil || loaded == nil {
		t.Fatalf("load: state=%v err=%v", loaded, err)
	}
	if !loaded.fileDone("ecoA.json") {
		t.Fatal("checkpoint lost completed file")
	}

	// Resume: ecoA must be skipped entirely, ecoC migrated.
	if err := m.MigrateAllEcoFiles(ctx, loaded); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if loaded.Openings.Migrated != 2 || loaded.Openings.Skipped != 0 {
		t.Errorf("resume counts: %+v", loaded.Openings)
	}

	report, err := m.ResumeFromCheckpoint(ctx)
	if err != nil {
		t.Fatalf("ResumeFromCheckpoint: %v", err)
	}
	if report.Stage != StageComplete {
		t.Errorf("stage: %v", report.Stage)
	}
	if _, statErr := os.Stat(cfg.CheckpointPath); !os.IsNotExist(statErr) {
		t.Error("checkpoint should be removed after completion")
	}
}

func TestRollbackRestoresBackup(t *testing.T) {
	// WHAT: Rollback restores the pre-run store file and swaps the handle.
	// WHY: Rollback-via-backup is the only recovery path for store faults
	// mid-run.
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "videos.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := st.InitSchema(); err != nil {
		t.Fatalf("schema: %v", err)
	}
	ctx := context.Background()
	st.InsertOpening(ctx, &store.Opening{FEN: StartingFEN, Name: "Start", ECO: "A00"})

	cfg := Config{
		EcoDir:         filepath.Join(dir, "eco"),
		VideosDir:      filepath.Join(dir, "videos"),
		BackupDir:      filepath.Join(dir, "backups"),
		CheckpointPath: filepath.Join(dir, "checkpoint.json"),
	}
	m := New(st, cfg)

	state := NewRunState("run_test")
	bak := filepath.Join(cfg.BackupDir, "pre-run.sqlite")
	if err := st.Backup(ctx, bak); err != nil {
		t.Fatalf("backup: %v", err)
	}
	state.BackupPath = bak

	// Mutate past the backup point.
	st.InsertOpening(ctx, &store.Opening{FEN: italianFEN, Name: "Italian", ECO: "C50"})

	if err := m.Rollback(ctx, state); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	defer m.Store().Close()

	if state.Stage != StageRolledBack {
		t.Errorf("stage: %v", state.Stage)
	}
	n, err := m.Store().CountOpenings(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("openings after rollback: got %d, want 1", n)
	}
}

func TestRollbackWithoutBackup(t *testing.T) {
	m, _ := newTestMigrator(t)
	state := NewRunState("run_test")
	if err := m.Rollback(context.Background(), state); err != ErrNoBackup {
		t.Errorf("got %v, want ErrNoBackup", err)
	}
}

func TestEstimateMigrationSize(t *testing.T) {
	// WHAT: The estimate prices records at fixed row costs and reports a
	// compression ratio against raw source bytes.
	m, cfg := newTestMigrator(t)

	// Raw records carry far more JSON than their projected rows.
	entry := map[string]any{
		"name": "Italian Game", "eco": "C50",
		"moves":   "1. e4 e5 2. Nf3 Nc6 3. Bc4 and a long continuation annotated with commentary text",
		"aliases": []string{"Giuoco Piano family", "Italian complex"},
	}
	writeJSON(t, filepath.Join(cfg.EcoDir, "ecoC.json"), map[string]any{italianFEN: entry})

	est, err := m.EstimateMigrationSize()
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if est.SourceBytes == 0 {
		t.Fatal("source bytes not measured")
	}
	if est.ProjectedBytes != openingRowBytes {
		t.Errorf("projected: got %d, want %d", est.ProjectedBytes, openingRowBytes)
	}
	if est.CompressionRatio <= 0 {
		t.Errorf("ratio: %v", est.CompressionRatio)
	}
}
