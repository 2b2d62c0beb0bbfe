// Command seed-db applies the schema and loads baseline data: the three
// roles, a super-admin account, and optional catalog fixtures from a JSON
// file. Safe to run repeatedly; every write is an upsert.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mkuznetsov/storefront/internal/repository"
)

type productJSON struct {
	Title         string          `json:"title"`
	Price         decimal.Decimal `json:"price"`
	Description   string          `json:"description"`
	ImageURL      string          `json:"image_url"`
	StockQuantity int             `json:"stock_quantity"`
	Category      string          `json:"category"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		adminEmail   string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "", "optional path to products JSON file")
	flag.StringVar(&adminEmail, "admin-email", "admin@storefront.local", "email for the seeded super-admin account")
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

	if err := run(ctx, databaseURL, productsFile, adminEmail); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, adminEmail string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedRoles(ctx, pool); err != nil {
		return errors.Wrap(err, "seed roles")
	}
	if err := seedSuperAdmin(ctx, pool, adminEmail); err != nil {
		return errors.Wrap(err, "seed super admin")
	}
	if productsFile != "" {
		if err := seedProducts(ctx, pool, productsFile); err != nil {
			return errors.Wrap(err, "seed products")
		}
	}
	return nil
}

func seedRoles(ctx context.Context, pool *pgxpool.Pool) error {
	const q = `INSERT INTO roles (name) VALUES ('customer'), ('admin'), ('super_admin')
		ON CONFLICT (name) DO NOTHING`
	if _, err := pool.Exec(ctx, q); err != nil {
		return err
	}
	slog.Info("roles seeded")
	return nil
}

func seedSuperAdmin(ctx context.Context, pool *pgxpool.Pool, email string) error {
	// Empty password hash: the account authenticates through the fronting
	// proxy, never by password.
	const q = `INSERT INTO users (username, email, password_hash, role_id)
		SELECT 'superadmin', $1, '', r.id FROM roles r WHERE r.name = 'super_admin'
		ON CONFLICT (email) DO NOTHING`
	if _, err := pool.Exec(ctx, q, email); err != nil {
		return err
	}
	slog.Info("super admin seeded", slog.String("email", email))
	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, path string) error {
	slog.Info("reading products file", slog.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}
	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	const categoryQ = `INSERT INTO categories (name) VALUES ($1)
		ON CONFLICT (name) DO NOTHING`
	const productQ = `INSERT INTO products (title, price, description, image_url, stock_quantity, category_id)
		SELECT $1, $2, $3, $4, $5, c.id FROM categories c WHERE c.name = $6
		ON CONFLICT (title) DO UPDATE
		SET price = EXCLUDED.price,
			description = EXCLUDED.description,
			image_url = EXCLUDED.image_url,
			stock_quantity = EXCLUDED.stock_quantity,
			category_id = EXCLUDED.category_id`

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		if _, err := pool.Exec(ctx, categoryQ, p.Category); err != nil {
			return errors.Wrapf(err, "upsert category %s", p.Category)
		}
		if _, err := pool.Exec(ctx, productQ,
			p.Title, p.Price, p.Description, p.ImageURL, p.StockQuantity, p.Category,
		); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.Title)
		}
		slog.Info("upserted product", slog.String("title", p.Title))
	}
	return nil
}
