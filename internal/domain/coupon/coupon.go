package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Type enumerates the supported discount strategies.
type Type string

const (
	// TypePercentage discounts a percentage of the order amount.
	TypePercentage Type = "percentage"
	// TypeFixedAmount discounts a fixed amount of cents, capped at the order amount.
	TypeFixedAmount Type = "fixed_amount"
)

// ErrNotFound is returned by repositories when no coupon matches a code or id.
var ErrNotFound = errors.New("coupon not found")

// Coupon is a discount code with eligibility rules and a usage cap.
// All monetary values are BRL cents.
type Coupon struct {
	ID             string
	Code           string
	Type           Type
	Value          int64 // percent in [0,100] or cents, depending on Type
	Description    string
	ValidFrom      time.Time
	ValidUntil     time.Time
	MaxUses        int // 0 means unlimited
	UsedCount      int
	MinOrderAmount int64    // 0 means no minimum
	PaymentMethods []string // empty means any method
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AppliesTo reports whether the coupon may be redeemed with the given
// payment method. Coupons without a method list apply to every method.
func (c *Coupon) AppliesTo(method string) bool {
	if len(c.PaymentMethods) == 0 {
		return true
	}
	for _, m := range c.PaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}

// ValidationRequest describes a prospective redemption. Transient, not persisted.
type ValidationRequest struct {
	Code          string
	OrderAmount   int64 // cents, must be > 0
	PaymentMethod string
	UserID        string
}

// ValidationResult is the structured outcome of a validation. Business-rule
// rejections set Valid=false with a user-facing Err message; they are never
// reported as Go errors so callers can render them inline. On success
// CouponID identifies the matched coupon, so callers consuming the usage
// after payment approval do not need a second lookup.
type ValidationResult struct {
	Valid          bool
	CouponID       string
	DiscountAmount int64
	FinalAmount    int64
	Err            string
}

// Repository provides storage for coupons and their per-user usage tracking.
// FindByCode matches codes case-insensitively.
type Repository interface {
	Create(ctx context.Context, c *Coupon) error
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	FindByID(ctx context.Context, id string) (*Coupon, error)
	ListActive(ctx context.Context, now time.Time) ([]Coupon, error)
	Deactivate(ctx context.Context, id string, now time.Time) error
	IncrementUsage(ctx context.Context, id string, now time.Time) error
	HasUserUsed(ctx context.Context, id, userID string) (bool, error)
	RecordUserUsage(ctx context.Context, id, userID string) error
}
