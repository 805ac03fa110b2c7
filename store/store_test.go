package store

import (
	"context"
	"testing"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestInitSchemaIdempotent(t *testing.T) {
	// WHAT: Applying the schema twice on the same store must not error.
	// WHY: InitSchema runs at the start of every migration, including reruns.
	s := OpenMemory(t)
	if err := s.InitSchema(); err != nil {
		t.Fatalf("second InitSchema: %v", err)
	}
	for _, table := range []string{"openings", "videos", "opening_videos", "migration_runs"} {
		var name string
		err := s.DB.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestInsertOpeningSkipsDuplicates(t *testing.T) {
	// WHAT: A second insert with the same FEN reports skipped, not an error.
	// WHY: Migration reruns must be idempotent; duplicates are expected.
	s := OpenMemory(t)
	ctx := context.Background()

	o := &Opening{FEN: startFEN, Name: "Starting Position", ECO: "A00"}
	inserted, err := s.InsertOpening(ctx, o)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !inserted {
		t.Fatal("first insert should report inserted")
	}

	inserted, err = s.InsertOpening(ctx, &Opening{FEN: startFEN, Name: "Other", ECO: "A00"})
	if err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}
	if inserted {
		t.Fatal("duplicate insert should report skipped")
	}

	got, err := s.GetOpening(ctx, startFEN)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Starting Position" {
		t.Errorf("duplicate insert overwrote name: got %q", got.Name)
	}
}

func TestInsertVideoSkipsDuplicates(t *testing.T) {
	// WHAT: Insert-if-absent semantics for videos.
	// WHY: The same video appears in multiple source files and legacy snapshots.
	s := OpenMemory(t)
	ctx := context.Background()

	inserted, err := s.InsertVideo(ctx, &Video{ID: "v1", Title: "Italian Game Basics", Duration: 600})
	if err != nil || !inserted {
		t.Fatalf("insert: inserted=%v err=%v", inserted, err)
	}
	inserted, err = s.InsertVideo(ctx, &Video{ID: "v1", Title: "Different Title"})
	if err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	if inserted {
		t.Error("duplicate video should be skipped")
	}
}

func TestAppendAlias(t *testing.T) {
	// WHAT: Aliases can be appended after creation; re-adding is a no-op.
	// WHY: Appending alternate names is the only permitted opening mutation.
	s := OpenMemory(t)
	ctx := context.Background()

	s.InsertOpening(ctx, &Opening{FEN: startFEN, Name: "Start", ECO: "A00", Aliases: []string{"Initial"}})
	if err := s.AppendAlias(ctx, startFEN, "Setup"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.AppendAlias(ctx, startFEN, "Setup"); err != nil {
		t.Fatalf("re-append: %v", err)
	}

	got, _ := s.GetOpening(ctx, startFEN)
	if len(got.Aliases) != 2 {
		t.Fatalf("aliases: got %v, want 2 entries", got.Aliases)
	}
}

func TestUpsertRelationshipNoDuplicates(t *testing.T) {
	// WHAT: Upserting the same (fen, video) pair twice keeps one row with
	// the newer score.
	// WHY: Scores are recalculated across integration runs; the pair is the
	// composite identity and must never be duplicated.
	s := OpenMemory(t)
	ctx := context.Background()

	s.InsertOpening(ctx, &Opening{FEN: startFEN, Name: "Start", ECO: "A00"})
	s.InsertVideo(ctx, &Video{ID: "v1", Title: "T"})

	if err := s.UpsertRelationship(ctx, startFEN, "v1", 0.4); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.UpsertRelationship(ctx, startFEN, "v1", 0.9); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	n, _ := s.CountRelationships(ctx)
	if n != 1 {
		t.Fatalf("relationships: got %d, want 1", n)
	}
	r, _ := s.GetRelationship(ctx, startFEN, "v1")
	if r.MatchScore != 0.9 {
		t.Errorf("score: got %v, want 0.9", r.MatchScore)
	}
}

func TestTopVideosOrdering(t *testing.T) {
	// WHAT: Top videos are ordered by score descending, ties by view count.
	// WHY: The artifact generator and the API read path both depend on this
	// ordering contract.
	s := OpenMemory(t)
	ctx := context.Background()

	s.InsertOpening(ctx, &Opening{FEN: startFEN, Name: "Start", ECO: "A00"})
	s.InsertVideo(ctx, &Video{ID: "low", Title: "L", ViewCount: 100})
	s.InsertVideo(ctx, &Video{ID: "tie-popular", Title: "TP", ViewCount: 9000})
	s.InsertVideo(ctx, &Video{ID: "tie-niche", Title: "TN", ViewCount: 10})
	s.InsertVideo(ctx, &Video{ID: "high", Title: "H", ViewCount: 1})

	s.UpsertRelationship(ctx, startFEN, "low", 0.2)
	s.UpsertRelationship(ctx, startFEN, "tie-popular", 0.5)
	s.UpsertRelationship(ctx, startFEN, "tie-niche", 0.5)
	s.UpsertRelationship(ctx, startFEN, "high", 0.95)

	videos, err := s.TopVideosForOpening(ctx, startFEN, 3)
	if err != nil {
		t.Fatalf("top videos: %v", err)
	}
	if len(videos) != 3 {
		t.Fatalf("count: got %d, want 3", len(videos))
	}
	want := []string{"high", "tie-popular", "tie-niche"}
	for i, id := range want {
		if videos[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, videos[i].ID, id)
		}
	}
}

func TestOpeningsByECO(t *testing.T) {
	// WHAT: LIKE-based lookup by ECO code, exact and prefix.
	// WHY: The legacy integrator expands category codes into positions
	// through this query.
	s := OpenMemory(t)
	ctx := context.Background()

	s.InsertOpening(ctx, &Opening{FEN: "f1 w KQkq - 0 1", Name: "Italian", ECO: "C50"})
	s.InsertOpening(ctx, &Opening{FEN: "f2 w KQkq - 0 1", Name: "Italian Var", ECO: "C50"})
	s.InsertOpening(ctx, &Opening{FEN: "f3 w KQkq - 0 1", Name: "Ruy Lopez", ECO: "C60"})

	exact, err := s.OpeningsByECO(ctx, "C50")
	if err != nil {
		t.Fatalf("exact: %v", err)
	}
	if len(exact) != 2 {
		t.Errorf("C50: got %d, want 2", len(exact))
	}

	prefix, err := s.OpeningsByECO(ctx, "C%")
	if err != nil {
		t.Fatalf("prefix: %v", err)
	}
	if len(prefix) != 3 {
		t.Errorf("C%%: got %d, want 3", len(prefix))
	}

	none, _ := s.OpeningsByECO(ctx, "Z99")
	if len(none) != 0 {
		t.Errorf("Z99: got %d, want 0", len(none))
	}
}

func TestValidateIntegrityFindsOrphansAndBadScores(t *testing.T) {
	// WHAT: Orphaned relationships and out-of-range scores land in the
	// report; no error is returned for data problems.
	// WHY: Integrity validation runs after bulk load with FK enforcement
	// off, so dangling rows are possible and must be detected, not thrown.
	s := OpenMemory(t)
	ctx := context.Background()

	if err := s.PrepareMigration(ctx); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	// Relationship pointing at nothing, plus one with an impossible score.
	s.DB.Exec(`INSERT INTO opening_videos (opening_fen, video_id, match_score, created_at, updated_at)
		VALUES ('ghost-fen', 'ghost-vid', 0.5, 0, 0)`)
	s.InsertOpening(ctx, &Opening{FEN: startFEN, Name: "Start", ECO: "A00"})
	s.InsertVideo(ctx, &Video{ID: "v1", Title: "T"})
	s.DB.Exec(`INSERT INTO opening_videos (opening_fen, video_id, match_score, created_at, updated_at)
		VALUES (?, 'v1', 1.5, 0, 0)`, startFEN)
	if err := s.FinalizeMigration(ctx); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	report, err := s.ValidateIntegrity(ctx)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if report.OK() {
		t.Fatal("report should not be OK")
	}
	// ghost row orphans both sides: missing opening and missing video.
	if report.OrphanedRelationships != 2 {
		t.Errorf("orphans: got %d, want 2", report.OrphanedRelationships)
	}
	if report.InvalidScores != 1 {
		t.Errorf("invalid scores: got %d, want 1", report.InvalidScores)
	}
	if len(report.Issues) == 0 {
		t.Error("issues should be populated")
	}
}

func TestStatsCounts(t *testing.T) {
	// WHAT: Stats reflect row counts and tolerate an unknown source size.
	s := OpenMemory(t)
	ctx := context.Background()

	s.InsertOpening(ctx, &Opening{FEN: startFEN, Name: "Start", ECO: "A00"})
	s.InsertVideo(ctx, &Video{ID: "v1", Title: "T"})
	s.UpsertRelationship(ctx, startFEN, "v1", 0.5)

	stats, err := s.Stats(ctx, 0)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Openings != 1 || stats.Videos != 1 || stats.Relationships != 1 {
		t.Errorf("counts: %+v", stats)
	}
	if stats.ReductionRatio != 0 {
		t.Errorf("ratio with unknown source: got %v, want 0", stats.ReductionRatio)
	}
}

func TestRecordAndListRuns(t *testing.T) {
	// WHAT: Run reports persist and come back newest first.
	s := OpenMemory(t)
	ctx := context.Background()

	err := s.RecordRun(ctx, &RunRecord{Stage: "complete", Migrated: 10, Skipped: 2, Success: true, CreatedAt: 1000})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	err = s.RecordRun(ctx, &RunRecord{Stage: "rolled_back", Errored: 5, CreatedAt: 2000})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	runs, err := s.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("count: got %d, want 2", len(runs))
	}
	if runs[0].Stage != "rolled_back" || runs[0].Success {
		t.Errorf("newest run: %+v", runs[0])
	}
	if runs[1].Migrated != 10 || !runs[1].Success {
		t.Errorf("older run: %+v", runs[1])
	}
}

func TestBackupCreatesConsistentCopy(t *testing.T) {
	// WHAT: Backup produces an openable copy containing the same rows.
	// WHY: Rollback restores from this copy; a broken backup means a
	// destructive migration cannot be undone.
	dir := t.TempDir()
	s, err := Open(dir+"/videos.sqlite", WithMkdirAll())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if err := s.InitSchema(); err != nil {
		t.Fatalf("schema: %v", err)
	}
	ctx := context.Background()
	s.InsertOpening(ctx, &Opening{FEN: startFEN, Name: "Start", ECO: "A00"})

	bak := dir + "/backups/videos.bak.sqlite"
	if err := s.Backup(ctx, bak); err != nil {
		t.Fatalf("backup: %v", err)
	}

	restored, err := Open(bak)
	if err != nil {
		t.Fatalf("open backup: %v", err)
	}
	defer restored.Close()
	n, err := restored.CountOpenings(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("backup openings: got %d, want 1", n)
	}
}
