// Package tour holds the bookable expedition package catalog.
package tour

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested package does not exist.
var ErrNotFound = errors.New("package not found")

// Package is a bookable climbing-tour package. Price is BRL cents.
type Package struct {
	ID           string
	Name         string
	Description  string
	Difficulty   string // "beginner", "intermediate", "advanced"
	DurationDays int
	PriceCents   int64
	Image        string
}

// Repository defines read operations for the package catalog.
type Repository interface {
	List(ctx context.Context) ([]Package, error)
	GetByIDs(ctx context.Context, ids []string) ([]Package, error)
}
