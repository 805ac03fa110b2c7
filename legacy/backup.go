package legacy

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// DataBackup records where the legacy sources and the store were copied
// before a destructive integration.
type DataBackup struct {
	Dir       string
	Snapshot  string
	Cache     string
	StoreFile string
}

// CreateDataBackup copies the legacy source files (and the store, when
// file-backed) into a timestamped backup directory. Sources that do not
// exist are skipped — a missing enrichment cache is a legal state.
func (in *Integrator) CreateDataBackup(ctx context.Context) (*DataBackup, error) {
	dir := filepath.Join(in.cfg.BackupDir, time.Now().UTC().Format("20060102T150405Z"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("legacy: backup mkdir: %w", err)
	}
	b := &DataBackup{Dir: dir}

	for _, src := range []struct {
		path string
		dst  *string
	}{
		{in.cfg.SnapshotPath, &b.Snapshot},
		{in.cfg.EnrichmentPath, &b.Cache},
	} {
		if _, err := os.Stat(src.path); err != nil {
			continue
		}
		target := filepath.Join(dir, filepath.Base(src.path))
		if err := copyFile(src.path, target); err != nil {
			return nil, fmt.Errorf("legacy: backup %s: %w", src.path, err)
		}
		*src.dst = target
	}

	if path := in.st.Path(); path != "" {
		target := filepath.Join(dir, filepath.Base(path))
		if err := in.st.Backup(ctx, target); err != nil {
			return nil, err
		}
		b.StoreFile = target
	}

	in.log.Info("legacy: backup created", "dir", dir)
	return b, nil
}

// restore puts the backed-up legacy sources back in place. The store file
// is not touched here; store rollback belongs to the migrator.
func (in *Integrator) restore(b *DataBackup) error {
	if b.Snapshot != "" {
		if err := copyFile(b.Snapshot, in.cfg.SnapshotPath); err != nil {
			return fmt.Errorf("legacy: restore snapshot: %w", err)
		}
	}
	if b.Cache != "" {
		if err := copyFile(b.Cache, in.cfg.EnrichmentPath); err != nil {
			return fmt.Errorf("legacy: restore cache: %w", err)
		}
	}
	return nil
}

// RunIntegrationWithRollback wraps Integrate so that any mid-way failure
// restores the backed-up sources and reports rolled-back rather than
// leaving a half-applied state unexplained.
func (in *Integrator) RunIntegrationWithRollback(ctx context.Context) (*IntegrationResult, error) {
	backup, err := in.CreateDataBackup(ctx)
	if err != nil {
		return &IntegrationResult{}, err
	}

	res, err := in.Integrate(ctx)
	if err == nil {
		return res, nil
	}

	in.log.Error("legacy: integration failed, rolling back", "error", err)
	if restoreErr := in.restore(backup); restoreErr != nil {
		return res, fmt.Errorf("legacy: rollback failed after %v: %w", err, restoreErr)
	}
	res.Success = false
	res.RolledBack = true
	return res, err
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
