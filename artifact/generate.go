package artifact

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Freddiekinns/chess-opening-explorer-sub002/store"
)

// Progress is reported once per generation round.
type Progress struct {
	Processed      int
	Total          int
	Percentage     float64
	CurrentOpening string
}

// GenerateResult summarizes a generation run. Per-opening failures are
// collected here; they never abort the run.
type GenerateResult struct {
	Generated int
	Errors    []string
}

// GenerateAll builds a document for every opening in the store. Openings
// are processed in sequential rounds of BatchSize; inside a round up to
// Concurrency documents build in parallel. A failed opening is recorded
// and the run continues; only store unavailability or context
// cancellation aborts.
func (g *Generator) GenerateAll(ctx context.Context, onProgress func(Progress)) (*GenerateResult, error) {
	openings, err := g.st.AllOpenings(ctx)
	if err != nil {
		return nil, err
	}
	if len(openings) == 0 {
		return nil, ErrNoOpenings
	}

	res := &GenerateResult{}
	var mu sync.Mutex
	total := len(openings)

	for start := 0; start < total; start += g.cfg.BatchSize {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		end := min(start+g.cfg.BatchSize, total)
		round := openings[start:end]

		eg := errgroup.Group{}
		eg.SetLimit(g.cfg.Concurrency)
		for _, o := range round {
			eg.Go(func() error {
				if err := g.generateOne(ctx, o); err != nil {
					mu.Lock()
					res.Errors = append(res.Errors, err.Error())
					mu.Unlock()
					g.log.Warn("artifact: opening failed", "fen", o.FEN, "error", err)
					return nil
				}
				mu.Lock()
				res.Generated++
				mu.Unlock()
				return nil
			})
		}
		eg.Wait()

		if onProgress != nil {
			onProgress(Progress{
				Processed:      end,
				Total:          total,
				Percentage:     100 * float64(end) / float64(total),
				CurrentOpening: round[len(round)-1].Name,
			})
		}
	}

	g.log.Info("artifact: generation complete",
		"generated", res.Generated, "failed", len(res.Errors))
	return res, nil
}

// UpdateStaticFiles regenerates the documents for a subset of positions,
// leaving every other file untouched. Unknown positions are recorded as
// errors, not fatal.
func (g *Generator) UpdateStaticFiles(ctx context.Context, fens []string) (*GenerateResult, error) {
	res := &GenerateResult{}
	for _, fen := range fens {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		o, err := g.st.GetOpening(ctx, fen)
		if err != nil {
			return res, err
		}
		if o == nil {
			res.Errors = append(res.Errors, fmt.Sprintf("artifact: unknown opening %s", fen))
			continue
		}
		if err := g.generateOne(ctx, o); err != nil {
			res.Errors = append(res.Errors, err.Error())
			continue
		}
		res.Generated++
	}
	return res, nil
}

func (g *Generator) generateOne(ctx context.Context, o *store.Opening) error {
	videos, err := g.st.TopVideosForOpening(ctx, o.FEN, 0)
	if err != nil {
		return err
	}
	return g.WriteStaticFile(ctx, o.FEN, g.GenerateResponse(o, videos))
}
