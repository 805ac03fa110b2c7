// Package migrate drives the end-to-end ETL run: canonical ECO opening
// definitions and per-opening video files are parsed, normalized and loaded
// into the relational store in bounded batches, with checkpoint/resume,
// optional backup, rollback on unrecoverable failure and post-load
// integrity validation.
//
// All mutable pipeline state lives in an explicit, serializable RunState
// value passed through every stage — never in package globals — so an
// interrupted run can be resumed by persisting and reloading that value.
package migrate

import (
	"errors"
	"time"
)

// Stage identifies where a run is in the migration state machine:
//
//	Idle → Verifying → SchemaReady → MigratingOpenings → MigratingVideos
//	     → Validating → Complete
//
// RolledBack is terminal and reachable from any in-progress stage when an
// unrecoverable failure occurs and a backup exists.
type Stage string

const (
	StageIdle              Stage = "idle"
	StageVerifying         Stage = "verifying"
	StageSchemaReady       Stage = "schema_ready"
	StageMigratingOpenings Stage = "migrating_openings"
	StageMigratingVideos   Stage = "migrating_videos"
	StageValidating        Stage = "validating"
	StageComplete          Stage = "complete"
	StageRolledBack        Stage = "rolled_back"
)

// ErrVerificationFailed is returned when required source files are missing.
// The run has not touched the store when this is reported.
var ErrVerificationFailed = errors.New("migrate: source verification failed")

// ErrNoBackup is returned when rollback is requested but no backup was
// created for the run.
var ErrNoBackup = errors.New("migrate: no backup available for rollback")

// Counts classifies per-record outcomes for one migration component.
type Counts struct {
	Migrated int `json:"migrated"`
	Skipped  int `json:"skipped"`
	Errored  int `json:"errored"`
}

// RunState is the explicit, serializable state of one migration run. It is
// persisted as a JSON checkpoint after every batch so an interrupted run
// resumes without re-processing completed files.
type RunState struct {
	RunID          string   `json:"run_id"`
	Stage          Stage    `json:"stage"`
	Processed      int      `json:"processed"`
	Total          int      `json:"total"`
	Openings       Counts   `json:"openings"`
	Videos         Counts   `json:"videos"`
	BatchCalls     int      `json:"batch_calls"`
	CompletedFiles []string `json:"completed_files,omitempty"`
	BackupPath     string   `json:"backup_path,omitempty"`
	StartedAt      int64    `json:"started_at"`
	UpdatedAt      int64    `json:"updated_at"`
	Errors         []string `json:"errors,omitempty"`
}

// NewRunState starts a fresh run in the Idle stage.
func NewRunState(runID string) *RunState {
	now := time.Now().UnixMilli()
	return &RunState{RunID: runID, Stage: StageIdle, StartedAt: now, UpdatedAt: now}
}

func (st *RunState) fileDone(name string) bool {
	for _, f := range st.CompletedFiles {
		if f == name {
			return true
		}
	}
	return false
}

func (st *RunState) markDone(name string) {
	if !st.fileDone(name) {
		st.CompletedFiles = append(st.CompletedFiles, name)
	}
	st.UpdatedAt = time.Now().UnixMilli()
}

func (st *RunState) recordError(msg string) {
	// Cap the per-run error list; counts stay exact regardless.
	if len(st.Errors) < 100 {
		st.Errors = append(st.Errors, msg)
	}
}

// SourceCheck reports which required source locations are present.
type SourceCheck struct {
	Valid        bool
	MissingFiles []string
}

// SizeEstimate projects the relational footprint of the raw sources.
// The ratio is an acceptance signal, not a hard gate.
type SizeEstimate struct {
	SourceBytes      int64
	ProjectedBytes   int64
	CompressionRatio float64
}

// Report summarises a run for the operator. Every run, successful or not,
// produces one.
type Report struct {
	RunID      string            `json:"run_id"`
	Stage      Stage             `json:"stage"`
	Openings   Counts            `json:"openings"`
	Videos     Counts            `json:"videos"`
	BatchCalls int               `json:"batch_calls"`
	Duration   time.Duration     `json:"duration"`
	Estimate   *SizeEstimate     `json:"estimate,omitempty"`
	Integrity  *IntegritySummary `json:"integrity,omitempty"`
	BackupPath string            `json:"backup_path,omitempty"`
	Success    bool              `json:"success"`
	Errors     []string          `json:"errors,omitempty"`
}

// IntegritySummary is the post-load validation outcome embedded in a report.
type IntegritySummary struct {
	OrphanedRelationships int      `json:"orphaned_relationships"`
	InvalidScores         int      `json:"invalid_scores"`
	Issues                []string `json:"issues,omitempty"`
}
