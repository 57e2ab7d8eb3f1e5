package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/summit-checkout/internal/domain/payment"
)

const (
	paymentColumns = `id, order_id, method, status, amount_cents, crypto_amount,
		crypto_currency, coupon_id, user_id, created_at, updated_at`

	createPaymentSQL = `INSERT INTO payments (id, order_id, method, status, amount_cents, crypto_amount,
		crypto_currency, coupon_id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	getPaymentByIDSQL = `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	updatePaymentStatusSQL = `UPDATE payments SET status = $2, updated_at = $3 WHERE id = $1
		RETURNING ` + paymentColumns
)

var _ payment.Repository = (*PaymentRepository)(nil)

// PaymentRepository implements payment.Repository backed by PostgreSQL.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository returns a PaymentRepository that uses the given pool.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Create persists a new payment intent.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	_, err := r.pool.Exec(ctx, createPaymentSQL,
		p.ID, p.OrderID, string(p.Method), string(p.Status), p.AmountCents, p.CryptoAmount,
		p.CryptoCurrency, p.CouponID, p.UserID, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating payment %q: %w", p.ID, err)
	}
	return nil
}

// FindByID returns a payment by its identifier.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*payment.Payment, error) {
	rows, err := r.pool.Query(ctx, getPaymentByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("finding payment %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanPayment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrNotFound
		}
		return nil, fmt.Errorf("finding payment %q: %w", id, err)
	}
	return &p, nil
}

// UpdateStatus transitions a payment to the given status and returns the
// updated row. Returns payment.ErrNotFound when the id is unknown.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, status payment.Status, now time.Time) (*payment.Payment, error) {
	rows, err := r.pool.Query(ctx, updatePaymentStatusSQL, id, string(status), now)
	if err != nil {
		return nil, fmt.Errorf("updating status of payment %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanPayment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrNotFound
		}
		return nil, fmt.Errorf("updating status of payment %q: %w", id, err)
	}
	return &p, nil
}

func scanPayment(row pgx.CollectableRow) (payment.Payment, error) {
	var (
		p      payment.Payment
		method string
		status string
		amount decimal.Decimal
	)
	err := row.Scan(
		&p.ID, &p.OrderID, &method, &status, &p.AmountCents, &amount,
		&p.CryptoCurrency, &p.CouponID, &p.UserID, &p.CreatedAt, &p.UpdatedAt,
	)
	p.Method = payment.Method(method)
	p.Status = payment.Status(status)
	p.CryptoAmount = amount
	return p, err
}
