package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Order represents a completed checkout with pricing and discount details.
// All monetary values are BRL cents.
type Order struct {
	ID            string
	UserID        string
	Items         []Item
	Subtotal      int64
	Discount      int64
	Total         int64
	CouponCode    string
	CouponID      string
	PaymentMethod string
	CreatedAt     time.Time
}

// Item is a single line item in an order.
type Item struct {
	PackageID string `json:"package_id"`
	Quantity  int    `json:"quantity"`
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
}
