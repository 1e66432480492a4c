package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/bistro-kart/db"
	"github.com/xenking/bistro-kart/internal/domain/menu"
	"github.com/xenking/bistro-kart/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		menuFile    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&menuFile, "menu-file", "", "path to a menu JSON file; the embedded menu is used when empty")
	flag.Parse()

	lg := zap.Must(zap.NewProduction())
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		lg.Fatal("database URL is required: set --database-url or DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, databaseURL, menuFile); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}

	lg.Info("Seed completed successfully")
}

func run(ctx context.Context, lg *zap.Logger, databaseURL, menuFile string) error {
	categories, err := loadMenu(lg, menuFile)
	if err != nil {
		return err
	}

	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	lg.Info("Running migrations")
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := postgres.NewMenuRepository(pool).SaveCatalog(ctx, categories); err != nil {
		return errors.Wrap(err, "save menu")
	}
	for _, c := range categories {
		lg.Info("Seeded category", zap.String("key", c.Key), zap.Int("entries", len(c.Entries)))
	}
	return nil
}

func loadMenu(lg *zap.Logger, path string) ([]menu.Category, error) {
	data := db.Menu
	if path != "" {
		lg.Info("Reading menu file", zap.String("path", path))
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read menu file")
		}
		data = b
	}

	categories, err := menu.Decode(data)
	if err != nil {
		return nil, errors.Wrap(err, "parse menu")
	}
	return categories, nil
}
