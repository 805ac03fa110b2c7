package migrate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Freddiekinns/chess-opening-explorer-sub002/store"
)

// Config locates the source data and tunes the run.
type Config struct {
	// EcoDir holds the canonical opening definitions (eco*.json).
	EcoDir string `yaml:"eco_dir"`
	// VideosDir holds one JSON file of video records per opening, named by
	// the filename encoding of the opening's FEN.
	VideosDir string `yaml:"videos_dir"`
	// BackupDir receives timestamped store copies before destructive runs.
	BackupDir string `yaml:"backup_dir"`
	// CheckpointPath is where the serialized RunState is persisted.
	CheckpointPath string `yaml:"checkpoint_path"`
	// BatchSize bounds how many video records are handed to the store per
	// batched call. Default: 50.
	BatchSize int `yaml:"batch_size"`
}

func (c *Config) defaults() {
	if c.EcoDir == "" {
		c.EcoDir = "data/eco"
	}
	if c.VideosDir == "" {
		c.VideosDir = "data/videos"
	}
	if c.BackupDir == "" {
		c.BackupDir = "backups"
	}
	if c.CheckpointPath == "" {
		c.CheckpointPath = "data/migration-checkpoint.json"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
}

// Migrator orchestrates the full ETL run against one store.
type Migrator struct {
	st  *store.Store
	cfg Config
	log *slog.Logger
}

// New creates a Migrator. The store must already be open; the Migrator
// takes over its lifecycle only across a rollback.
func New(st *store.Store, cfg Config) *Migrator {
	cfg.defaults()
	return &Migrator{st: st, cfg: cfg, log: slog.Default()}
}

// Store returns the current store handle. After a rollback the previous
// handle is invalid and this returns the reopened one.
func (m *Migrator) Store() *store.Store { return m.st }

// RunFullMigration executes the fixed stage order: verify → schema →
// optional backup → openings → videos → integrity validation → cleanup.
// An unrecoverable stage failure triggers rollback when a backup exists,
// otherwise the error propagates as fatal. The returned report is non-nil
// whenever the run started, success or not.
func (m *Migrator) RunFullMigration(ctx context.Context, createBackup bool) (*Report, error) {
	state := NewRunState(store.NewRunID())
	state.Stage = StageVerifying

	check := m.VerifySourceData()
	if !check.Valid {
		m.log.Error("migrate: source verification failed", "missing", check.MissingFiles)
		return nil, fmt.Errorf("%w: missing %v", ErrVerificationFailed, check.MissingFiles)
	}

	if err := m.st.InitSchema(); err != nil {
		return nil, err
	}
	state.Stage = StageSchemaReady

	if createBackup {
		path := filepath.Join(m.cfg.BackupDir,
			"videos-"+time.Now().UTC().Format("20060102T150405Z")+".sqlite")
		if err := m.st.Backup(ctx, path); err != nil {
			return nil, err
		}
		state.BackupPath = path
		m.log.Info("migrate: backup created", "path", path)
	}

	report, err := m.resume(ctx, state)
	if err != nil {
		return m.failRun(ctx, state, err)
	}
	return report, nil
}

// ResumeFromCheckpoint continues a previously interrupted run from its
// persisted state without re-processing completed files.
func (m *Migrator) ResumeFromCheckpoint(ctx context.Context) (*Report, error) {
	state, err := LoadCheckpoint(m.cfg.CheckpointPath)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("migrate: no checkpoint at %s", m.cfg.CheckpointPath)
	}
	m.log.Info("migrate: resuming from checkpoint",
		"run_id", state.RunID, "stage", state.Stage, "processed", state.Processed)

	if err := m.st.InitSchema(); err != nil {
		return nil, err
	}
	report, err := m.resume(ctx, state)
	if err != nil {
		return m.failRun(ctx, state, err)
	}
	return report, nil
}

// resume runs the remaining stages for state, starting from wherever the
// state machine left off.
func (m *Migrator) resume(ctx context.Context, state *RunState) (*Report, error) {
	if err := m.st.PrepareMigration(ctx); err != nil {
		return nil, err
	}

	if state.Stage == StageIdle || state.Stage == StageVerifying ||
		state.Stage == StageSchemaReady || state.Stage == StageMigratingOpenings {
		state.Stage = StageMigratingOpenings
		if err := m.MigrateAllEcoFiles(ctx, state); err != nil {
			return nil, err
		}
	}

	if state.Stage == StageMigratingOpenings || state.Stage == StageMigratingVideos {
		state.Stage = StageMigratingVideos
		if err := m.MigrateVideoData(ctx, state, m.cfg.BatchSize); err != nil {
			return nil, err
		}
	}

	if err := m.st.FinalizeMigration(ctx); err != nil {
		return nil, err
	}

	state.Stage = StageValidating
	integrity, err := m.st.ValidateIntegrity(ctx)
	if err != nil {
		return nil, err
	}
	if !integrity.OK() {
		m.log.Warn("migrate: integrity issues after load",
			"orphans", integrity.OrphanedRelationships, "bad_scores", integrity.InvalidScores)
	}

	state.Stage = StageComplete
	RemoveCheckpoint(m.cfg.CheckpointPath)

	report := m.buildReport(state, integrity, true)
	m.recordRun(ctx, report)
	m.log.Info("migrate: run complete",
		"run_id", state.RunID,
		"openings_migrated", state.Openings.Migrated,
		"openings_skipped", state.Openings.Skipped,
		"videos_migrated", state.Videos.Migrated,
		"videos_skipped", state.Videos.Skipped,
		"errors", state.Openings.Errored+state.Videos.Errored,
	)
	return report, nil
}

// MigrateComponent runs a single stage ("openings" or "videos") with
// schema init but no backup and no post-load validation.
func (m *Migrator) MigrateComponent(ctx context.Context, name string) (*Report, error) {
	if err := m.st.InitSchema(); err != nil {
		return nil, err
	}
	state := NewRunState(store.NewRunID())

	switch name {
	case "openings":
		state.Stage = StageMigratingOpenings
		if err := m.MigrateAllEcoFiles(ctx, state); err != nil {
			return nil, err
		}
	case "videos":
		state.Stage = StageMigratingVideos
		if err := m.MigrateVideoData(ctx, state, m.cfg.BatchSize); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("migrate: unknown component %q", name)
	}

	state.Stage = StageComplete
	report := m.buildReport(state, nil, true)
	m.recordRun(ctx, report)
	return report, nil
}

// failRun classifies an unrecoverable failure: rollback when a backup
// exists, plain fatal propagation otherwise. The error always propagates;
// the report records what happened either way.
func (m *Migrator) failRun(ctx context.Context, state *RunState, cause error) (*Report, error) {
	m.log.Error("migrate: run failed", "run_id", state.RunID, "stage", state.Stage, "error", cause)

	if state.BackupPath == "" {
		report := m.buildReport(state, nil, false)
		m.recordRun(ctx, report)
		return report, cause
	}

	if err := m.Rollback(ctx, state); err != nil {
		return m.buildReport(state, nil, false), fmt.Errorf("migrate: rollback after %v: %w", cause, err)
	}
	report := m.buildReport(state, nil, false)
	m.recordRun(ctx, report)
	return report, cause
}

// Rollback restores the store file from the run's backup. The previous
// store handle is closed and replaced; callers must use Store() afterwards.
func (m *Migrator) Rollback(ctx context.Context, state *RunState) error {
	if state.BackupPath == "" {
		return ErrNoBackup
	}
	path := m.st.Path()
	if path == "" {
		return fmt.Errorf("migrate: cannot roll back an in-memory store")
	}

	if err := m.st.Close(); err != nil {
		return fmt.Errorf("migrate: rollback close: %w", err)
	}
	// Drop WAL sidecars so the restored file opens clean.
	os.Remove(path + "-wal")
	os.Remove(path + "-shm")

	if err := copyFile(state.BackupPath, path); err != nil {
		return fmt.Errorf("migrate: rollback restore: %w", err)
	}

	st, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("migrate: rollback reopen: %w", err)
	}
	m.st = st
	state.Stage = StageRolledBack
	m.log.Warn("migrate: rolled back", "run_id", state.RunID, "backup", state.BackupPath)
	return nil
}

func (m *Migrator) buildReport(state *RunState, integrity *store.IntegrityReport, success bool) *Report {
	r := &Report{
		RunID:      state.RunID,
		Stage:      state.Stage,
		Openings:   state.Openings,
		Videos:     state.Videos,
		BatchCalls: state.BatchCalls,
		Duration:   time.Duration(time.Now().UnixMilli()-state.StartedAt) * time.Millisecond,
		BackupPath: state.BackupPath,
		Success:    success && state.Stage == StageComplete,
		Errors:     state.Errors,
	}
	if integrity != nil {
		r.Integrity = &IntegritySummary{
			OrphanedRelationships: integrity.OrphanedRelationships,
			InvalidScores:         integrity.InvalidScores,
			Issues:                integrity.Issues,
		}
	}
	return r
}

// recordRun persists the report; a failing report write is logged but
// never fails the run it describes.
func (m *Migrator) recordRun(ctx context.Context, r *Report) {
	details, _ := json.Marshal(r)
	err := m.st.RecordRun(ctx, &store.RunRecord{
		RunID:      r.RunID,
		Stage:      string(r.Stage),
		Migrated:   r.Openings.Migrated + r.Videos.Migrated,
		Skipped:    r.Openings.Skipped + r.Videos.Skipped,
		Errored:    r.Openings.Errored + r.Videos.Errored,
		DurationMS: r.Duration.Milliseconds(),
		Success:    r.Success,
		Details:    string(details),
	})
	if err != nil {
		m.log.Warn("migrate: report persistence failed", "run_id", r.RunID, "error", err)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
