package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xenking/summit-checkout/internal/domain/coupon"
	"github.com/xenking/summit-checkout/internal/domain/payment"
	"github.com/xenking/summit-checkout/internal/domain/tour"
)

// Sentinel errors for checkout validation.
var (
	ErrEmptyItems = fmt.Errorf("items required")
)

// PackageNotFoundError indicates a requested tour package does not exist.
type PackageNotFoundError struct {
	PackageID string
}

func (e *PackageNotFoundError) Error() string {
	return fmt.Sprintf("package %s not found", e.PackageID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	PackageID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for package %s", e.PackageID)
}

// CouponRejectedError carries the coupon engine's user-facing rejection
// message through the checkout flow.
type CouponRejectedError struct {
	Reason string
}

func (e *CouponRejectedError) Error() string {
	return e.Reason
}

// CheckoutRequest holds the input for placing an order.
type CheckoutRequest struct {
	UserID        string
	Items         []Item
	CouponCode    string
	PaymentMethod payment.Method
}

// CheckoutResult holds the output of a successfully placed order.
type CheckoutResult struct {
	Order    *Order
	Payment  *payment.Payment
	Packages []tour.Package
}

// Service encapsulates checkout business logic: item validation, catalog
// lookup, coupon preview, order persistence and payment intent creation.
type Service struct {
	packages tour.Repository
	coupons  *coupon.Engine
	payments *payment.Service
	orders   Repository
	now      func() time.Time
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	packages tour.Repository,
	coupons *coupon.Engine,
	payments *payment.Service,
	orders Repository,
) *Service {
	return &Service{
		packages: packages,
		coupons:  coupons,
		payments: payments,
		orders:   orders,
		now:      time.Now,
	}
}

// Checkout validates items, fetches packages in a single batch, previews the
// coupon, persists the order and creates a pending payment intent. The
// coupon is only previewed here; its usage is consumed when the payment is
// approved by the provider webhook.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if !req.PaymentMethod.Known() {
		return nil, payment.ErrUnknownMethod
	}

	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{PackageID: item.PackageID}
		}
		ids[i] = item.PackageID
	}

	fetched, err := s.packages.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get packages: %w", err)
	}
	byID := make(map[string]tour.Package, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	packages := make([]tour.Package, 0, len(req.Items))
	subtotal := int64(0)
	for _, item := range req.Items {
		p, ok := byID[item.PackageID]
		if !ok {
			return nil, &PackageNotFoundError{PackageID: item.PackageID}
		}
		packages = append(packages, p)
		subtotal += p.PriceCents * int64(item.Quantity)
	}

	// Preview the coupon against the computed subtotal. A business-rule
	// rejection aborts checkout with its message; usage is not consumed.
	var (
		discount int64
		couponID string
	)
	if req.CouponCode != "" {
		res := s.coupons.Validate(ctx, coupon.ValidationRequest{
			Code:          req.CouponCode,
			OrderAmount:   subtotal,
			PaymentMethod: string(req.PaymentMethod),
			UserID:        req.UserID,
		})
		if !res.Valid {
			return nil, &CouponRejectedError{Reason: res.Err}
		}
		discount = res.DiscountAmount
		couponID = res.CouponID
	}

	total := subtotal - discount
	if total < 0 {
		total = 0
	}

	o := &Order{
		ID:            uuid.New().String(),
		UserID:        req.UserID,
		Items:         req.Items,
		Subtotal:      subtotal,
		Discount:      discount,
		Total:         total,
		CouponCode:    req.CouponCode,
		CouponID:      couponID,
		PaymentMethod: string(req.PaymentMethod),
		CreatedAt:     s.now(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	pay, err := s.payments.Create(ctx, payment.CreateParams{
		OrderID:     o.ID,
		Method:      req.PaymentMethod,
		AmountCents: total,
		CouponID:    couponID,
		UserID:      req.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	return &CheckoutResult{
		Order:    o,
		Payment:  pay,
		Packages: packages,
	}, nil
}
