// Command seed-db loads the item catalogue from a JSON file (optionally
// gzip-compressed) into the database, creating the schema first.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/pra-pos/internal/storage/postgres"
)

type itemJSON struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	ItemCode string          `json:"item_code"`
	PCTCode  string          `json:"pct_code"`
}

func main() {
	var (
		databaseURL string
		itemsFile   string
		workers     int
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&itemsFile, "items-file", "db/seed/items.json", "path to items JSON file (.gz supported)")
	flag.IntVar(&workers, "workers", 4, "concurrent upsert workers")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, itemsFile, workers); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, itemsFile string, workers int) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	items, err := readItems(itemsFile)
	if err != nil {
		return errors.Wrap(err, "read items")
	}

	slog.Info("upserting items", slog.Int("count", len(items)), slog.Int("workers", workers))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, it := range items {
		g.Go(func() error {
			if err := upsertItem(ctx, pool, it); err != nil {
				return errors.Wrapf(err, "upsert item %q", it.Name)
			}
			slog.Info("upserted item", slog.String("name", it.Name))
			return nil
		})
	}
	return g.Wait()
}

func readItems(path string) ([]itemJSON, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open file")
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip stream")
		}
		defer gz.Close()
		r = gz
	}

	var items []itemJSON
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, errors.Wrap(err, "parse items JSON")
	}
	return items, nil
}

func upsertItem(ctx context.Context, pool *pgxpool.Pool, it itemJSON) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO items (id, name, price, category, item_code, pct_code, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		ON CONFLICT (name) DO UPDATE SET
			price = EXCLUDED.price,
			category = EXCLUDED.category,
			item_code = EXCLUDED.item_code,
			pct_code = EXCLUDED.pct_code,
			is_active = TRUE,
			updated_at = now()`,
		uuid.New(), it.Name, it.Price, it.Category, it.ItemCode, it.PCTCode,
	)
	return err
}
