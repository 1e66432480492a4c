// Command menu-import merges menu documents into one catalog and stores it.
//
// Files are applied in argument order: categories merge by key and an entry
// id defined again in a later file replaces the earlier definition.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/bistro-kart/internal/domain/menu"
	"github.com/xenking/bistro-kart/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		strict      bool
		dryRun      bool
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.BoolVar(&strict, "strict", false, "fail when a later file redefines an entry id")
	flag.BoolVar(&dryRun, "dry-run", false, "merge and validate without writing to the database")
	flag.Parse()

	lg := zap.Must(zap.NewProduction())
	defer func() { _ = lg.Sync() }()

	paths := flag.Args()
	if len(paths) == 0 {
		lg.Fatal("at least one menu file is required (.json or .json.gz)")
	}
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" && !dryRun {
		lg.Fatal("database URL is required: set --database-url or DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, paths, databaseURL, strict, dryRun); err != nil {
		lg.Fatal("Menu import failed", zap.Error(err))
	}

	lg.Info("Menu import completed successfully")
}

func run(ctx context.Context, lg *zap.Logger, paths []string, databaseURL string, strict, dryRun bool) error {
	lg.Info("Decoding menu files", zap.Int("files", len(paths)))
	files, err := loadFiles(ctx, lg, paths)
	if err != nil {
		return errors.Wrap(err, "load files")
	}

	dropped, overrides := findOverrides(files)
	for _, o := range overrides {
		lg.Warn("Entry redefined",
			zap.String("id", o.id),
			zap.String("from", o.from),
			zap.String("by", o.by),
		)
	}
	if strict && len(overrides) > 0 {
		return errors.Errorf("%d entries redefined across files", len(overrides))
	}

	categories := merge(files, dropped)
	if err := menu.Validate(categories); err != nil {
		return errors.Wrap(err, "validate merged menu")
	}
	entries := 0
	for _, c := range categories {
		entries += len(c.Entries)
	}
	lg.Info("Merged menu",
		zap.Int("categories", len(categories)),
		zap.Int("entries", entries),
		zap.Int("overrides", len(overrides)),
	)

	if dryRun {
		return nil
	}

	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	if err := postgres.NewMenuRepository(pool).SaveCatalog(ctx, categories); err != nil {
		return errors.Wrap(err, "save menu")
	}
	return nil
}
