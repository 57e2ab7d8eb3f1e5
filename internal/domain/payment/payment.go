// Package payment models payment intents and their webhook-driven lifecycle.
package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Method enumerates supported payment methods.
type Method string

const (
	MethodPix            Method = "pix"
	MethodMercadoPago    Method = "mercadopago"
	MethodBitcoin        Method = "bitcoin"
	MethodUSDT           Method = "usdt"
	MethodGitHubSponsors Method = "github_sponsors"
)

// Known returns whether m is a method checkout accepts.
func (m Method) Known() bool {
	switch m {
	case MethodPix, MethodMercadoPago, MethodBitcoin, MethodUSDT:
		return true
	}
	return false
}

// IsCrypto reports whether the method settles in cryptocurrency.
func (m Method) IsCrypto() bool {
	return m == MethodBitcoin || m == MethodUSDT
}

// Status is the payment intent lifecycle state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusFailed   Status = "failed"
	StatusExpired  Status = "expired"
)

// Sentinel errors for payment lookups and transitions.
var (
	ErrNotFound         = errors.New("payment not found")
	ErrUnknownMethod    = errors.New("unknown payment method")
	ErrAlreadyFinalized = errors.New("payment already finalized")
)

// Payment is a payment intent. CouponID and UserID are denormalized from the
// order at creation time so webhook processors can consume coupon usage
// without an order lookup.
type Payment struct {
	ID             string
	OrderID        string
	Method         Method
	Status         Status
	AmountCents    int64
	CryptoAmount   decimal.Decimal // zero unless Method.IsCrypto()
	CryptoCurrency string          // "BTC" or "USDT"
	CouponID       string
	UserID         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Finalized reports whether the payment reached a terminal status.
func (p *Payment) Finalized() bool {
	return p.Status == StatusApproved || p.Status == StatusFailed || p.Status == StatusExpired
}

// Repository defines persistence for payment intents.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	FindByID(ctx context.Context, id string) (*Payment, error)
	UpdateStatus(ctx context.Context, id string, status Status, now time.Time) (*Payment, error)
}
