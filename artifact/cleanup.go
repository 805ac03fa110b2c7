package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Freddiekinns/chess-opening-explorer-sub002/fenpath"
)

// CleanupOrphanedFiles deletes output documents whose position no longer
// exists in the store and returns how many were removed. Files that are
// not opening documents are left alone.
func (g *Generator) CleanupOrphanedFiles(ctx context.Context) (int, error) {
	known, err := g.st.AllOpeningFENs(ctx)
	if err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(g.cfg.OutputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("artifact: read output dir: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		fen := fenpath.ToFEN(strings.TrimSuffix(e.Name(), ".json"))
		if known[fen] {
			continue
		}
		path := filepath.Join(g.cfg.OutputDir, e.Name())
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("artifact: remove orphan %s: %w", path, err)
		}
		g.log.Info("artifact: removed orphaned document", "file", e.Name())
		removed++
	}
	return removed, nil
}

// ValidationReport summarizes a re-parse of the output tree.
type ValidationReport struct {
	Total   int
	Valid   int
	Invalid int
	Errors  []string
}

// ValidateAll re-parses every output document and reports which files no
// longer decode as documents. Nothing is modified.
func (g *Generator) ValidateAll() (*ValidationReport, error) {
	entries, err := os.ReadDir(g.cfg.OutputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return &ValidationReport{}, nil
		}
		return nil, fmt.Errorf("artifact: read output dir: %w", err)
	}

	rep := &ValidationReport{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		rep.Total++
		path := filepath.Join(g.cfg.OutputDir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			rep.Invalid++
			rep.Errors = append(rep.Errors, fmt.Sprintf("%s: %v", e.Name(), err))
			continue
		}
		var doc Response
		if err := json.Unmarshal(data, &doc); err != nil {
			rep.Invalid++
			rep.Errors = append(rep.Errors, fmt.Sprintf("%s: %v", e.Name(), err))
			continue
		}
		rep.Valid++
	}
	return rep, nil
}
