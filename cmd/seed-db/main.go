// Command seed-db loads the launch catalog, coupons and an admin API key
// into PostgreSQL. Safe to re-run: every statement upserts.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/summit-checkout/internal/domain/coupon"
	"github.com/xenking/summit-checkout/internal/storage/memory"
	"github.com/xenking/summit-checkout/internal/storage/postgres"
)

const (
	upsertPackageSQL = `INSERT INTO tour_packages (id, name, description, difficulty, duration_days, price_cents, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description,
			difficulty = EXCLUDED.difficulty, duration_days = EXCLUDED.duration_days,
			price_cents = EXCLUDED.price_cents, image = EXCLUDED.image`

	upsertCouponSQL = `INSERT INTO coupons (id, code, type, value, description, valid_from, valid_until,
			max_uses, used_count, min_order_amount, payment_methods, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10, TRUE, $11, $11)
		ON CONFLICT (id) DO NOTHING`

	upsertAPIKeySQL = `INSERT INTO api_keys (id, key_hash, name, scopes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			key_hash = EXCLUDED.key_hash, name = EXCLUDED.name, scopes = EXCLUDED.scopes`
)

func main() {
	var (
		databaseURL  string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&apiKey, "api-key", "", "admin API key to seed (or SUMMIT_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or SUMMIT_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("SUMMIT_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or SUMMIT_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("SUMMIT_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, apiKey, pepper string) error {
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

	if err := seedPackages(ctx, pool); err != nil {
		return errors.Wrap(err, "seed tour packages")
	}
	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}
	if err := seedAPIKey(ctx, pool, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func seedPackages(ctx context.Context, pool *pgxpool.Pool) error {
	packages := memory.SeedTours()
	slog.Info("upserting tour packages", slog.Int("count", len(packages)))

	for _, p := range packages {
		_, err := pool.Exec(ctx, upsertPackageSQL,
			p.ID, p.Name, p.Description, p.Difficulty, p.DurationDays, p.PriceCents, p.Image,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert package %s", p.ID)
		}
		slog.Info("upserted package", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	now := time.Now()
	coupons := []struct {
		code           string
		typ            coupon.Type
		value          int64
		description    string
		validUntil     time.Time
		maxUses        int
		minOrderAmount int64
		paymentMethods []string
	}{
		{
			code:           "WELCOME10",
			typ:            coupon.TypePercentage,
			value:          10,
			description:    "10% off your first expedition",
			validUntil:     now.AddDate(1, 0, 0),
			minOrderAmount: 5000,
			paymentMethods: []string{"pix", "mercadopago", "bitcoin", "usdt"},
		},
		{
			code:        "BASECAMP50",
			typ:         coupon.TypeFixedAmount,
			value:       5000,
			description: "R$ 50.00 off any booking",
			validUntil:  now.AddDate(0, 6, 0),
			maxUses:     100,
		},
	}

	slog.Info("seeding launch coupons", slog.Int("count", len(coupons)))

	for _, c := range coupons {
		// Deterministic id so re-runs hit the conflict clause instead of
		// duplicating the code.
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte("coupon:"+c.code)).String()
		_, err := pool.Exec(ctx, upsertCouponSQL,
			id, c.code, string(c.typ), c.value, c.description,
			now.Add(-24*time.Hour), c.validUntil,
			c.maxUses, c.minOrderAmount, c.paymentMethods, now,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.code)
		}
		slog.Info("upserted coupon", slog.String("code", c.code), slog.String("description", c.description))
	}

	return nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	slog.Info("seeding admin API key")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	_, err := pool.Exec(ctx, upsertAPIKeySQL, "admin", keyHash, "Admin key", []string{"admin"})
	if err != nil {
		return errors.Wrap(err, "upsert admin API key")
	}

	slog.Info("upserted API key", slog.String("id", "admin"))
	return nil
}
