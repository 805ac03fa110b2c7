package pipeline

import (
	"github.com/Freddiekinns/chess-opening-explorer-sub002/artifact"
	"github.com/Freddiekinns/chess-opening-explorer-sub002/legacy"
	"github.com/Freddiekinns/chess-opening-explorer-sub002/migrate"
	"github.com/Freddiekinns/chess-opening-explorer-sub002/store"
)

// Pipeline is the wired-up system: one store and the three components
// that read and write it.
type Pipeline struct {
	Store      *store.Store
	Migrator   *migrate.Migrator
	Integrator *legacy.Integrator
	Generator  *artifact.Generator
}

// Open opens the store at cfg.DBPath and builds every component against
// it. The caller owns Close.
func Open(cfg *Config) (*Pipeline, error) {
	st, err := store.Open(cfg.DBPath, store.WithMkdirAll())
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Store:      st,
		Migrator:   migrate.New(st, cfg.Migrate),
		Integrator: legacy.New(st, cfg.Legacy),
		Generator:  artifact.New(st, cfg.Artifact),
	}, nil
}

// Close releases the underlying store.
func (p *Pipeline) Close() error {
	return p.Store.Close()
}
