package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Backup writes a consistent copy of the store to path using VACUUM INTO.
// The copy is taken online: readers and the WAL are unaffected. The target
// file must not already exist (SQLite refuses to overwrite).
func (s *Store) Backup(ctx context.Context, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("store: backup: mkdir: %w", err)
	}
	if _, err := s.DB.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return fmt.Errorf("store: backup to %s: %w", path, err)
	}
	return nil
}

// Vacuum rebuilds the database file, reclaiming space from deleted rows.
func (s *Store) Vacuum(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("store: vacuum: %w", err)
	}
	return nil
}
