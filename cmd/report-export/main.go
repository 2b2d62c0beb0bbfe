// Command report-export dumps orders, products, and users to gzip-compressed
// report files for offline analysis. Reports are written as NDJSON by
// default, or CSV with --format=csv; the three exports run concurrently.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/mkuznetsov/storefront/internal/domain/catalog"
	"github.com/mkuznetsov/storefront/internal/domain/identity"
	"github.com/mkuznetsov/storefront/internal/domain/order"
	"github.com/mkuznetsov/storefront/internal/repository"
)

func main() {
	var (
		databaseURL string
		outDir      string
		format      string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&outDir, "out-dir", "reports", "directory to write report files into")
	flag.StringVar(&format, "format", "ndjson", "report format: ndjson or csv")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if format != "ndjson" && format != "csv" {
		slog.Error("unknown format", slog.String("format", format))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, outDir, format); err != nil {
		slog.Error("report export failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("report export completed successfully")
}

func run(ctx context.Context, databaseURL, outDir, format string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrap(err, "create output dir")
	}

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	orders := repository.NewOrderRepository(pool)
	products := repository.NewCatalogRepository(pool)
	users := repository.NewUserRepository(pool)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return writeReport(outDir, "orders", format, func(w io.Writer) error {
			list, err := orders.List(ctx)
			if err != nil {
				return err
			}
			slog.Info("exporting orders", slog.Int("count", len(list)))
			if format == "csv" {
				return ordersCSV(w, list)
			}
			return ordersNDJSON(w, list)
		})
	})
	g.Go(func() error {
		return writeReport(outDir, "products", format, func(w io.Writer) error {
			list, err := products.List(ctx)
			if err != nil {
				return err
			}
			slog.Info("exporting products", slog.Int("count", len(list)))
			if format == "csv" {
				return productsCSV(w, list)
			}
			return productsNDJSON(w, list)
		})
	})
	g.Go(func() error {
		return writeReport(outDir, "users", format, func(w io.Writer) error {
			list, err := users.List(ctx)
			if err != nil {
				return err
			}
			slog.Info("exporting users", slog.Int("count", len(list)))
			if format == "csv" {
				return usersCSV(w, list)
			}
			return usersNDJSON(w, list)
		})
	})
	return g.Wait()
}

// writeReport creates <outDir>/<name>.<format>.gz and streams the report
// body through a parallel gzip writer.
func writeReport(outDir, name, format string, fill func(io.Writer) error) error {
	path := filepath.Join(outDir, name+"."+format+".gz")
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() { _ = f.Close() }()

	gz := pgzip.NewWriter(f)
	if err := fill(gz); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	if err := gz.Close(); err != nil {
		return errors.Wrapf(err, "flush %s", path)
	}
	slog.Info("report written", slog.String("path", path))
	return f.Close()
}

func ordersNDJSON(w io.Writer, list []order.Order) error {
	var e jx.Encoder
	for _, o := range list {
		e.Reset()
		e.Obj(func(e *jx.Encoder) {
			e.Field("id", func(e *jx.Encoder) { e.Int64(o.ID) })
			e.Field("user_id", func(e *jx.Encoder) { e.Int64(o.UserID) })
			e.Field("total_amount", func(e *jx.Encoder) { e.Str(o.TotalAmount.String()) })
			e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
			e.Field("payment_status", func(e *jx.Encoder) { e.Str(string(o.PaymentStatus)) })
			e.Field("created_at", func(e *jx.Encoder) { e.Str(o.CreatedAt.Format(time.RFC3339)) })
			e.Field("coupon_code", func(e *jx.Encoder) { e.Str(o.CouponCode) })
			e.Field("items", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, it := range o.Items {
						e.Obj(func(e *jx.Encoder) {
							e.Field("product_id", func(e *jx.Encoder) { e.Int64(it.ProductID) })
							e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
							e.Field("price_at_purchase", func(e *jx.Encoder) { e.Str(it.PriceAtPurchase.String()) })
						})
					}
				})
			})
		})
		if err := writeLine(w, e.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

func productsNDJSON(w io.Writer, list []catalog.Product) error {
	var e jx.Encoder
	for _, p := range list {
		e.Reset()
		e.Obj(func(e *jx.Encoder) {
			e.Field("id", func(e *jx.Encoder) { e.Int64(p.ID) })
			e.Field("title", func(e *jx.Encoder) { e.Str(p.Title) })
			e.Field("price", func(e *jx.Encoder) { e.Str(p.Price.String()) })
			e.Field("stock_quantity", func(e *jx.Encoder) { e.Int(p.StockQuantity) })
			e.Field("category_id", func(e *jx.Encoder) { e.Int64(p.CategoryID) })
		})
		if err := writeLine(w, e.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

func usersNDJSON(w io.Writer, list []identity.User) error {
	var e jx.Encoder
	for _, u := range list {
		e.Reset()
		e.Obj(func(e *jx.Encoder) {
			e.Field("id", func(e *jx.Encoder) { e.Int64(u.ID) })
			e.Field("username", func(e *jx.Encoder) { e.Str(u.Username) })
			e.Field("email", func(e *jx.Encoder) { e.Str(u.Email) })
			e.Field("role", func(e *jx.Encoder) { e.Str(string(u.Role)) })
		})
		if err := writeLine(w, e.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

func writeLine(w io.Writer, b []byte) error {
	if _, err := w.Write(b); err != nil {
		return err
	}
	_, err := w.Write([]byte{'\n'})
	return err
}

func ordersCSV(w io.Writer, list []order.Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "user_id", "total_amount", "status", "payment_status", "created_at", "coupon_code", "item_count"}); err != nil {
		return err
	}
	for _, o := range list {
		if err := cw.Write([]string{
			strconv.FormatInt(o.ID, 10),
			strconv.FormatInt(o.UserID, 10),
			o.TotalAmount.String(),
			string(o.Status),
			string(o.PaymentStatus),
			o.CreatedAt.Format(time.RFC3339),
			o.CouponCode,
			strconv.Itoa(len(o.Items)),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func productsCSV(w io.Writer, list []catalog.Product) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "title", "price", "stock_quantity", "category_id"}); err != nil {
		return err
	}
	for _, p := range list {
		if err := cw.Write([]string{
			strconv.FormatInt(p.ID, 10),
			p.Title,
			p.Price.String(),
			strconv.Itoa(p.StockQuantity),
			strconv.FormatInt(p.CategoryID, 10),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func usersCSV(w io.Writer, list []identity.User) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "username", "email", "role"}); err != nil {
		return err
	}
	for _, u := range list {
		if err := cw.Write([]string{
			strconv.FormatInt(u.ID, 10),
			u.Username,
			u.Email,
			string(u.Role),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
