package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/summit-checkout/internal/domain/coupon"
)

const (
	couponColumns = `id, code, type, value, description, valid_from, valid_until,
		max_uses, used_count, min_order_amount, payment_methods, active, created_at, updated_at`

	createCouponSQL = `INSERT INTO coupons (id, code, type, value, description, valid_from, valid_until,
		max_uses, used_count, min_order_amount, payment_methods, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	getCouponByCodeSQL = `SELECT ` + couponColumns + `
		FROM coupons WHERE LOWER(code) = LOWER($1)`

	getCouponByIDSQL = `SELECT ` + couponColumns + `
		FROM coupons WHERE id = $1`

	listActiveCouponsSQL = `SELECT ` + couponColumns + `
		FROM coupons WHERE active = TRUE AND valid_from <= $1 AND valid_until >= $1
		ORDER BY code`

	deactivateCouponSQL = `UPDATE coupons SET active = FALSE, updated_at = $2 WHERE id = $1`

	incrementCouponUsageSQL = `UPDATE coupons SET used_count = used_count + 1, updated_at = $2 WHERE id = $1`

	hasUserUsedCouponSQL = `SELECT EXISTS (
		SELECT 1 FROM coupon_user_usage WHERE coupon_id = $1 AND user_id = $2)`

	recordUserUsageSQL = `INSERT INTO coupon_user_usage (coupon_id, user_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
// The unique index on LOWER(code) enforces case-insensitive code uniqueness.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// Create persists a new coupon.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, createCouponSQL,
		c.ID, c.Code, string(c.Type), c.Value, c.Description, c.ValidFrom, c.ValidUntil,
		c.MaxUses, c.UsedCount, c.MinOrderAmount, c.PaymentMethods, c.Active, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating coupon %q: %w", c.Code, err)
	}
	return nil
}

// FindByCode looks up a coupon by its code, case-insensitively. Returns
// coupon.ErrNotFound when no coupon carries the code.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &c, nil
}

// FindByID looks up a coupon by its identifier.
func (r *CouponRepository) FindByID(ctx context.Context, id string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("finding coupon %q: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon %q: %w", id, err)
	}
	return &c, nil
}

// ListActive returns coupons that are active and inside their validity window
// at the given instant, ordered by code.
func (r *CouponRepository) ListActive(ctx context.Context, now time.Time) ([]coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, listActiveCouponsSQL, now)
	if err != nil {
		return nil, fmt.Errorf("listing active coupons: %w", err)
	}
	return pgx.CollectRows(rows, scanCoupon)
}

// Deactivate soft-deletes a coupon. Returns coupon.ErrNotFound when no row
// matched the id.
func (r *CouponRepository) Deactivate(ctx context.Context, id string, now time.Time) error {
	tag, err := r.pool.Exec(ctx, deactivateCouponSQL, id, now)
	if err != nil {
		return fmt.Errorf("deactivating coupon %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// IncrementUsage atomically bumps the usage counter of a coupon.
func (r *CouponRepository) IncrementUsage(ctx context.Context, id string, now time.Time) error {
	tag, err := r.pool.Exec(ctx, incrementCouponUsageSQL, id, now)
	if err != nil {
		return fmt.Errorf("incrementing usage for coupon %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// HasUserUsed reports whether the user already redeemed the coupon.
func (r *CouponRepository) HasUserUsed(ctx context.Context, id, userID string) (bool, error) {
	var used bool
	err := r.pool.QueryRow(ctx, hasUserUsedCouponSQL, id, userID).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("checking usage of coupon %q by user %q: %w", id, userID, err)
	}
	return used, nil
}

// RecordUserUsage marks the coupon as redeemed by the user. Recording the
// same pair twice is a no-op.
func (r *CouponRepository) RecordUserUsage(ctx context.Context, id, userID string) error {
	_, err := r.pool.Exec(ctx, recordUserUsageSQL, id, userID)
	if err != nil {
		return fmt.Errorf("recording usage of coupon %q by user %q: %w", id, userID, err)
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c          coupon.Coupon
		couponType string
		maxUses    int32
		usedCount  int32
	)
	err := row.Scan(
		&c.ID, &c.Code, &couponType, &c.Value, &c.Description, &c.ValidFrom, &c.ValidUntil,
		&maxUses, &usedCount, &c.MinOrderAmount, &c.PaymentMethods, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	)
	c.Type = coupon.Type(couponType)
	c.MaxUses = int(maxUses)
	c.UsedCount = int(usedCount)
	return c, err
}
