// Command openings runs the chess opening video pipeline: source
// migration into the relational store, legacy data integration, and
// static artifact generation.
//
// Usage:
//
//	openings migrate  [-config file] [-dry-run] [-component name] [-resume] [-no-backup]
//	openings integrate [-config file] [-since 2025-01-01]
//	openings generate  [-config file] [-only fen,fen,...]
//	openings cleanup   [-config file]
//	openings validate  [-config file]
//	openings stats     [-config file]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Freddiekinns/chess-opening-explorer-sub002/artifact"
	"github.com/Freddiekinns/chess-opening-explorer-sub002/migrate"
	"github.com/Freddiekinns/chess-opening-explorer-sub002/pipeline"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var level slog.Level
	switch env("LOG_LEVEL", "info") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "migrate":
		err = cmdMigrate(ctx, os.Args[2:])
	case "integrate":
		err = cmdIntegrate(ctx, os.Args[2:])
	case "generate":
		err = cmdGenerate(ctx, os.Args[2:])
	case "cleanup":
		err = cmdCleanup(ctx, os.Args[2:])
	case "validate":
		err = cmdValidate(ctx, os.Args[2:])
	case "stats":
		err = cmdStats(ctx, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		logger.Error("openings: fatal", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `openings — chess opening video pipeline

usage:
  openings migrate   [-dry-run] [-component openings|videos] [-resume] [-no-backup]
  openings integrate [-since YYYY-MM-DD]
  openings generate  [-only fen,fen,...]
  openings cleanup
  openings validate
  openings stats

Every command accepts -config <file>; without it, defaults apply and the
store lives at data/videos.sqlite.
`)
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// openPipeline resolves configuration and wires the components. The
// returned cleanup closes the store.
func openPipeline(configPath string) (*pipeline.Pipeline, error) {
	cfg := pipeline.DefaultConfig()
	if configPath != "" {
		loaded, err := pipeline.LoadConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	return pipeline.Open(cfg)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func cmdMigrate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	dryRun := fs.Bool("dry-run", false, "parse and estimate without writing")
	component := fs.String("component", "", "migrate one component: openings or videos")
	resume := fs.Bool("resume", false, "resume from the last checkpoint")
	noBackup := fs.Bool("no-backup", false, "skip the pre-migration backup")
	fs.Parse(args)

	p, err := openPipeline(*configPath)
	if err != nil {
		return err
	}
	defer p.Close()

	var report *migrate.Report
	switch {
	case *dryRun:
		report, err = p.Migrator.RunDryRun(ctx)
	case *resume:
		report, err = p.Migrator.ResumeFromCheckpoint(ctx)
	case *component != "":
		report, err = p.Migrator.MigrateComponent(ctx, *component)
	default:
		report, err = p.Migrator.RunFullMigration(ctx, !*noBackup)
	}
	if report != nil {
		printJSON(report)
	}
	return err
}

func cmdIntegrate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("integrate", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	since := fs.String("since", "", "only report candidates published after this date (YYYY-MM-DD)")
	fs.Parse(args)

	p, err := openPipeline(*configPath)
	if err != nil {
		return err
	}
	defer p.Close()

	if *since != "" {
		cutoff, err := time.Parse("2006-01-02", *since)
		if err != nil {
			return fmt.Errorf("parse -since: %w", err)
		}
		fresh := p.Integrator.FindNewVideosSince(cutoff)
		return printJSON(fresh)
	}

	res, err := p.Integrator.RunIntegrationWithRollback(ctx)
	if res != nil {
		printJSON(res)
	}
	return err
}

func cmdGenerate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	only := fs.String("only", "", "comma-separated position keys to regenerate")
	fs.Parse(args)

	p, err := openPipeline(*configPath)
	if err != nil {
		return err
	}
	defer p.Close()

	if *only != "" {
		res, err := p.Generator.UpdateStaticFiles(ctx, strings.Split(*only, ","))
		if res != nil {
			printJSON(res)
		}
		return err
	}

	res, err := p.Generator.GenerateAll(ctx, func(pr artifact.Progress) {
		fmt.Fprintf(os.Stderr, "\r  %d/%d (%.0f%%) %s", pr.Processed, pr.Total, pr.Percentage, pr.CurrentOpening)
	})
	fmt.Fprintln(os.Stderr)
	if res != nil {
		printJSON(res)
	}
	return err
}

func cmdCleanup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	fs.Parse(args)

	p, err := openPipeline(*configPath)
	if err != nil {
		return err
	}
	defer p.Close()

	n, err := p.Generator.CleanupOrphanedFiles(ctx)
	if err != nil {
		return err
	}
	return printJSON(map[string]int{"removed": n})
}

func cmdValidate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	fs.Parse(args)

	p, err := openPipeline(*configPath)
	if err != nil {
		return err
	}
	defer p.Close()

	integrity, err := p.Store.ValidateIntegrity(ctx)
	if err != nil {
		return err
	}
	artifacts, err := p.Generator.ValidateAll()
	if err != nil {
		return err
	}
	if err := printJSON(map[string]any{"store": integrity, "artifacts": artifacts}); err != nil {
		return err
	}
	if !integrity.OK() || artifacts.Invalid > 0 {
		return fmt.Errorf("validation found issues")
	}
	return nil
}

func cmdStats(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	fs.Parse(args)

	p, err := openPipeline(*configPath)
	if err != nil {
		return err
	}
	defer p.Close()

	stats, err := p.Store.Stats(ctx, 0)
	if err != nil {
		return err
	}
	return printJSON(stats)
}
