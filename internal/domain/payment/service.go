package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/summit-checkout/internal/monitor"
)

// CouponConsumer marks a coupon as used after payment success. Implemented
// by coupon.Engine.
type CouponConsumer interface {
	MarkUsed(ctx context.Context, couponID, userID string) error
}

// Service creates payment intents and applies webhook-driven status
// transitions.
type Service struct {
	repo    Repository
	coupons CouponConsumer
	metrics *monitor.Monitor
	now     func() time.Time
}

// NewService creates a payment Service.
func NewService(repo Repository, coupons CouponConsumer, metrics *monitor.Monitor) *Service {
	return &Service{
		repo:    repo,
		coupons: coupons,
		metrics: metrics,
		now:     time.Now,
	}
}

// CreateParams holds the input for creating a payment intent.
type CreateParams struct {
	OrderID     string
	Method      Method
	AmountCents int64
	CouponID    string
	UserID      string
}

// Create registers a pending payment intent for an order. Crypto methods get
// a quote at the current stand-in exchange rate.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Payment, error) {
	if !p.Method.Known() {
		return nil, ErrUnknownMethod
	}

	now := s.now()
	pay := &Payment{
		ID:          uuid.New().String(),
		OrderID:     p.OrderID,
		Method:      p.Method,
		Status:      StatusPending,
		AmountCents: p.AmountCents,
		CouponID:    p.CouponID,
		UserID:      p.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if p.Method.IsCrypto() {
		amount, currency, err := Quote(p.Method, p.AmountCents)
		if err != nil {
			return nil, errors.Wrap(err, "crypto quote")
		}
		pay.CryptoAmount = amount
		pay.CryptoCurrency = currency
	}

	if err := s.repo.Create(ctx, pay); err != nil {
		return nil, errors.Wrap(err, "create payment")
	}
	s.metrics.PaymentProcessed(ctx, string(p.Method), string(StatusPending))
	return pay, nil
}

// Approve finalizes a payment as approved and consumes the order's coupon,
// if any. Approving an already finalized payment returns
// ErrAlreadyFinalized so duplicate webhook deliveries stay idempotent at
// the caller.
func (s *Service) Approve(ctx context.Context, id string) (*Payment, error) {
	return s.transition(ctx, id, StatusApproved)
}

// Fail finalizes a payment as failed.
func (s *Service) Fail(ctx context.Context, id string) (*Payment, error) {
	return s.transition(ctx, id, StatusFailed)
}

// Expire finalizes a payment as expired.
func (s *Service) Expire(ctx context.Context, id string) (*Payment, error) {
	return s.transition(ctx, id, StatusExpired)
}

func (s *Service) transition(ctx context.Context, id string, to Status) (*Payment, error) {
	cur, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.Finalized() {
		return cur, ErrAlreadyFinalized
	}

	p, err := s.repo.UpdateStatus(ctx, id, to, s.now())
	if err != nil {
		return nil, errors.Wrapf(err, "transition payment %s to %s", id, to)
	}
	s.metrics.PaymentProcessed(ctx, string(p.Method), string(to))

	// Coupon usage is consumed only on successful payment.
	if to == StatusApproved && p.CouponID != "" {
		if err := s.coupons.MarkUsed(ctx, p.CouponID, p.UserID); err != nil {
			return nil, errors.Wrap(err, "mark coupon used")
		}
	}
	return p, nil
}

// Sponsorship is a recurring GitHub Sponsors contribution reported by
// webhook. It has no associated order.
type Sponsorship struct {
	Sponsor      string
	MonthlyCents int64
}

// RecordSponsorship stores a sponsors contribution as an already-approved
// payment so it shows up in the same bookkeeping as checkout payments.
func (s *Service) RecordSponsorship(ctx context.Context, sp Sponsorship) (*Payment, error) {
	now := s.now()
	pay := &Payment{
		ID:          uuid.New().String(),
		Method:      MethodGitHubSponsors,
		Status:      StatusApproved,
		AmountCents: sp.MonthlyCents,
		UserID:      sp.Sponsor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, pay); err != nil {
		return nil, errors.Wrap(err, "record sponsorship")
	}
	s.metrics.PaymentProcessed(ctx, string(MethodGitHubSponsors), string(StatusApproved))
	return pay, nil
}

// HasQuote reports whether the payment carries a crypto quote.
func (p *Payment) HasQuote() bool {
	return !p.CryptoAmount.Equal(decimal.Zero) && p.CryptoCurrency != ""
}
