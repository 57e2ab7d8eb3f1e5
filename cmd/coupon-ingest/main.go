// Command coupon-ingest loads bulk single-use promo codes into PostgreSQL.
// Marketing exports arrive as gzipped newline-separated code lists; this tool
// streams them concurrently, dedupes codes with a bloom filter, and inserts
// each surviving code as a single-use fixed-amount coupon.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/summit-checkout/internal/domain/coupon"
	"github.com/xenking/summit-checkout/internal/storage/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	minCodeLen    = 6
	maxCodeLen    = 16
	progressEvery = 100_000

	insertCodeSQL = `INSERT INTO coupons (id, code, type, value, description, valid_from, valid_until,
			max_uses, used_count, min_order_amount, payment_methods, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, 0, 0, '{}', TRUE, $8, $8)
		ON CONFLICT DO NOTHING`
)

func main() {
	var (
		databaseURL string
		valueCents  int64
		validDays   int
		description string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Int64Var(&valueCents, "value", 2500, "discount per code in cents")
	flag.IntVar(&validDays, "valid-days", 90, "validity window in days from now")
	flag.StringVar(&description, "description", "Promo code", "coupon description")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if flag.NArg() == 0 {
		slog.Error("usage: coupon-ingest [flags] codes1.gz [codes2.gz ...]")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, flag.Args(), valueCents, validDays, description); err != nil {
		slog.Error("coupon ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon ingest completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string, valueCents int64, validDays int, description string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	codes, err := collectCodes(ctx, files)
	if err != nil {
		return errors.Wrap(err, "collect codes")
	}
	slog.Info("unique codes collected", slog.Int("count", len(codes)))

	if len(codes) == 0 {
		slog.Info("nothing to insert")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return writeCodes(ctx, pool, codes, valueCents, validDays, description)
}

// collectCodes streams every file concurrently and returns the deduplicated
// set of well-formed codes. The bloom filter rejects the bulk of repeats
// cheaply; the map behind it makes the dedupe exact.
func collectCodes(ctx context.Context, files []string) ([]string, error) {
	var (
		mu     sync.Mutex
		filter = bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		seen   = make(map[string]struct{})
		codes  []string
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, path := range files {
		g.Go(func() error {
			var count uint64
			err := streamGzFile(ctx, path, func(code string) {
				code = strings.ToUpper(strings.TrimSpace(code))
				if len(code) < minCodeLen || len(code) > maxCodeLen {
					return
				}
				count++
				if count%progressEvery == 0 {
					slog.Info("ingest progress", slog.String("file", path), slog.Uint64("lines", count))
				}

				mu.Lock()
				defer mu.Unlock()
				if filter.TestString(code) {
					// Possible repeat; the exact set decides.
					if _, dup := seen[code]; dup {
						return
					}
				}
				filter.AddString(code)
				seen[code] = struct{}{}
				codes = append(codes, code)
			})
			if err != nil {
				return errors.Wrapf(err, "stream %s", path)
			}
			slog.Info("file complete", slog.String("file", path), slog.Uint64("lines", count))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return codes, nil
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(code string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}

func writeCodes(ctx context.Context, pool *pgxpool.Pool, codes []string, valueCents int64, validDays int, description string) error {
	slog.Info("writing coupons to database", slog.Int("count", len(codes)))

	now := time.Now()
	validUntil := now.AddDate(0, 0, validDays)

	for i, code := range codes {
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte("promo:"+code)).String()
		_, err := pool.Exec(ctx, insertCodeSQL,
			id, code, string(coupon.TypeFixedAmount), valueCents, description,
			now, validUntil, now,
		)
		if err != nil {
			return errors.Wrapf(err, "insert code %s", code)
		}

		if (i+1)%1000 == 0 || i+1 == len(codes) {
			slog.Info("write progress", slog.Int("written", i+1), slog.Int("total", len(codes)))
		}
	}

	return nil
}
