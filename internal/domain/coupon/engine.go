package coupon

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Rejection messages. Checkout UIs render these verbatim, so their wording
// is part of the HTTP contract.
const (
	msgNotFound      = "coupon not found"
	msgInactive      = "coupon inactive"
	msgNotYetValid   = "coupon not yet valid"
	msgExpired       = "coupon expired"
	msgExhausted     = "coupon usage limit reached"
	msgWrongMethod   = "coupon not valid for this payment method"
	msgAlreadyUsed   = "coupon already used"
	msgInternalError = "internal error validating coupon"
)

// Engine decides whether a coupon may be applied to a prospective order and
// computes the discount. Validation is read-only; usage is consumed
// separately via MarkUsed after payment success, so the same request can be
// previewed any number of times before commit.
type Engine struct {
	repo Repository
	now  func() time.Time
}

// NewEngine creates an Engine backed by the given Repository.
func NewEngine(repo Repository) *Engine {
	return &Engine{repo: repo, now: time.Now}
}

// Validate runs the eligibility checks in a fixed order (existence, active
// flag, time window, usage cap, minimum amount, payment method, per-user
// reuse) so overlapping violations always produce the same message. All
// failures, including unexpected repository errors, come back as a
// structured result; Validate never returns a Go error.
func (e *Engine) Validate(ctx context.Context, req ValidationRequest) ValidationResult {
	c, err := e.repo.FindByCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return rejected(msgNotFound)
		}
		return rejected(msgInternalError)
	}

	if !c.Active {
		return rejected(msgInactive)
	}

	now := e.now()
	if now.Before(c.ValidFrom) {
		return rejected(msgNotYetValid)
	}
	if now.After(c.ValidUntil) {
		return rejected(msgExpired)
	}

	if c.MaxUses > 0 && c.UsedCount >= c.MaxUses {
		return rejected(msgExhausted)
	}

	if c.MinOrderAmount > 0 && req.OrderAmount < c.MinOrderAmount {
		return rejected(fmt.Sprintf("minimum order amount: %s", FormatBRL(c.MinOrderAmount)))
	}

	if req.PaymentMethod != "" && !c.AppliesTo(req.PaymentMethod) {
		return rejected(msgWrongMethod)
	}

	if req.UserID != "" {
		used, err := e.repo.HasUserUsed(ctx, c.ID, req.UserID)
		if err != nil {
			return rejected(msgInternalError)
		}
		if used {
			return rejected(msgAlreadyUsed)
		}
	}

	discount := computeDiscount(c, req.OrderAmount)
	return ValidationResult{
		Valid:          true,
		CouponID:       c.ID,
		DiscountAmount: discount,
		FinalAmount:    req.OrderAmount - discount,
	}
}

// computeDiscount applies the coupon's strategy to the order amount.
// The discount is clamped to the order amount so the final amount is
// never negative.
func computeDiscount(c *Coupon, orderAmount int64) int64 {
	var discount int64
	switch c.Type {
	case TypePercentage:
		// Integer division floors the cent amount.
		discount = orderAmount * c.Value / 100
	case TypeFixedAmount:
		discount = c.Value
	}
	return min(discount, orderAmount)
}

func rejected(msg string) ValidationResult {
	return ValidationResult{Valid: false, Err: msg}
}

// MarkUsed consumes one use of the coupon: it increments the usage counter
// and, when userID is non-empty, records the user in the coupon's usage set.
// Callers must invoke this only after payment success.
func (e *Engine) MarkUsed(ctx context.Context, couponID, userID string) error {
	if err := e.repo.IncrementUsage(ctx, couponID, e.now()); err != nil {
		return errors.Wrap(err, "increment usage")
	}
	if userID != "" {
		if err := e.repo.RecordUserUsage(ctx, couponID, userID); err != nil {
			return errors.Wrap(err, "record user usage")
		}
	}
	return nil
}

// CreateParams holds the administrative input for creating a coupon.
type CreateParams struct {
	Code           string
	Type           Type
	Value          int64
	Description    string
	ValidFrom      time.Time
	ValidUntil     time.Time
	MaxUses        int
	MinOrderAmount int64
	PaymentMethods []string
}

// Create registers a new coupon with a generated id and zeroed usage.
func (e *Engine) Create(ctx context.Context, p CreateParams) (*Coupon, error) {
	if p.Code == "" {
		return nil, errors.New("code is required")
	}
	switch p.Type {
	case TypePercentage:
		if p.Value < 0 || p.Value > 100 {
			return nil, errors.Errorf("percentage value must be in [0,100], got %d", p.Value)
		}
	case TypeFixedAmount:
		if p.Value < 0 {
			return nil, errors.Errorf("fixed amount must be non-negative, got %d", p.Value)
		}
	default:
		return nil, errors.Errorf("unsupported coupon type: %q", p.Type)
	}
	if p.ValidUntil.Before(p.ValidFrom) {
		return nil, errors.New("validUntil must not precede validFrom")
	}

	now := e.now()
	c := &Coupon{
		ID:             uuid.New().String(),
		Code:           p.Code,
		Type:           p.Type,
		Value:          p.Value,
		Description:    p.Description,
		ValidFrom:      p.ValidFrom,
		ValidUntil:     p.ValidUntil,
		MaxUses:        p.MaxUses,
		MinOrderAmount: p.MinOrderAmount,
		PaymentMethods: p.PaymentMethods,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := e.repo.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create coupon")
	}
	return c, nil
}

// Active lists coupons that are active and inside their validity window.
func (e *Engine) Active(ctx context.Context) ([]Coupon, error) {
	return e.repo.ListActive(ctx, e.now())
}

// Deactivate soft-deletes a coupon. The record is kept for audit purposes.
func (e *Engine) Deactivate(ctx context.Context, id string) error {
	return e.repo.Deactivate(ctx, id, e.now())
}

// FormatBRL renders a cent amount as Brazilian currency, e.g. "R$ 50.00".
func FormatBRL(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%sR$ %d.%02d", sign, cents/100, cents%100)
}
