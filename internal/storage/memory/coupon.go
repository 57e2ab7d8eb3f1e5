// Package memory provides process-local repository implementations. They
// back the default single-instance deployment; multi-instance deployments
// select the postgres package instead, since none of this state is shared
// across processes.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/xenking/summit-checkout/internal/domain/coupon"
)

// couponFilterCapacity sizes the negative-lookup bloom filter. Checkout
// traffic probes many bogus codes; the filter rejects most of them without
// touching the code map.
const (
	couponFilterCapacity = 100_000
	couponFilterFPR      = 0.001
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository is an in-memory coupon.Repository. All methods are safe
// for concurrent use; mutations serialize on one mutex, which is the
// process-local stand-in for the row locking a transactional store would
// provide.
type CouponRepository struct {
	mu     sync.RWMutex
	byCode map[string]*coupon.Coupon // lowercase code -> coupon
	byID   map[string]*coupon.Coupon
	usage  map[string]map[string]struct{} // coupon id -> user ids
	filter *bloom.BloomFilter
}

// NewCouponRepository creates an empty repository.
func NewCouponRepository() *CouponRepository {
	return &CouponRepository{
		byCode: make(map[string]*coupon.Coupon),
		byID:   make(map[string]*coupon.Coupon),
		usage:  make(map[string]map[string]struct{}),
		filter: bloom.NewWithEstimates(couponFilterCapacity, couponFilterFPR),
	}
}

// Create stores a coupon. Codes are unique case-insensitively.
func (r *CouponRepository) Create(_ context.Context, c *coupon.Coupon) error {
	key := strings.ToLower(c.Code)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byCode[key]; exists {
		return errDuplicate("coupon code", c.Code)
	}
	cp := clone(c)
	r.byCode[key] = cp
	r.byID[c.ID] = cp
	r.filter.AddString(key)
	return nil
}

// FindByCode looks up a coupon by case-insensitive code. The bloom filter
// short-circuits codes that were never created. The filter is not safe for
// concurrent use on its own, so the probe runs under the read lock too.
func (r *CouponRepository) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	key := strings.ToLower(code)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.filter.TestString(key) {
		return nil, coupon.ErrNotFound
	}
	c, ok := r.byCode[key]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	return clone(c), nil
}

// FindByID looks up a coupon by id.
func (r *CouponRepository) FindByID(_ context.Context, id string) (*coupon.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	return clone(c), nil
}

// ListActive returns active coupons inside their validity window.
func (r *CouponRepository) ListActive(_ context.Context, now time.Time) ([]coupon.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]coupon.Coupon, 0, len(r.byID))
	for _, c := range r.byID {
		if c.Active && !now.Before(c.ValidFrom) && !now.After(c.ValidUntil) {
			out = append(out, *clone(c))
		}
	}
	return out, nil
}

// Deactivate soft-deletes a coupon; the record stays queryable by id.
func (r *CouponRepository) Deactivate(_ context.Context, id string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return coupon.ErrNotFound
	}
	c.Active = false
	c.UpdatedAt = now
	return nil
}

// IncrementUsage bumps the usage counter and refresh timestamp.
func (r *CouponRepository) IncrementUsage(_ context.Context, id string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return coupon.ErrNotFound
	}
	c.UsedCount++
	c.UpdatedAt = now
	return nil
}

// HasUserUsed reports whether userID already consumed the coupon.
func (r *CouponRepository) HasUserUsed(_ context.Context, id, userID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, used := r.usage[id][userID]
	return used, nil
}

// RecordUserUsage adds userID to the coupon's usage set.
func (r *CouponRepository) RecordUserUsage(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return coupon.ErrNotFound
	}
	set, ok := r.usage[id]
	if !ok {
		set = make(map[string]struct{})
		r.usage[id] = set
	}
	set[userID] = struct{}{}
	return nil
}

// clone copies a coupon so callers never mutate stored state through a
// returned pointer.
func clone(c *coupon.Coupon) *coupon.Coupon {
	cp := *c
	cp.PaymentMethods = append([]string(nil), c.PaymentMethods...)
	return &cp
}
