package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cenkalti/backoff/v5"

	"github.com/Freddiekinns/chess-opening-explorer-sub002/fenpath"
)

// FilePath returns where the document for a position lives, using the
// same filename codec as the source data layout.
func (g *Generator) FilePath(fen string) string {
	return filepath.Join(g.cfg.OutputDir, fenpath.ToFilename(fen)+".json")
}

// WriteStaticFile renders a document and replaces the opening's file
// atomically: the bytes land in a temp file first and a rename swaps it
// in, so a reader never observes a torn document. Transient filesystem
// failures retry with exponential backoff per the configured policy.
func (g *Generator) WriteStaticFile(ctx context.Context, fen string, doc *Response) error {
	var (
		data []byte
		err  error
	)
	if g.cfg.Indent {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("artifact: marshal %s: %w", fen, err)
	}

	if err := os.MkdirAll(g.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("artifact: mkdir: %w", err)
	}

	path := g.FilePath(fen)
	pol := backoff.NewExponentialBackOff()
	pol.InitialInterval = g.cfg.RetryInitialInterval
	pol.Multiplier = g.cfg.RetryMultiplier

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, writeAtomic(path, data)
	}, backoff.WithBackOff(pol), backoff.WithMaxTries(g.cfg.RetryMaxTries))
	if err != nil {
		return fmt.Errorf("artifact: write %s: %w", path, err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
