package memory

import (
	"context"
	"sync"
	"time"

	"github.com/xenking/summit-checkout/internal/domain/payment"
)

var _ payment.Repository = (*PaymentRepository)(nil)

// PaymentRepository is an in-memory payment.Repository.
type PaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*payment.Payment
}

// NewPaymentRepository creates an empty repository.
func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{payments: make(map[string]*payment.Payment)}
}

// Create stores a new payment intent.
func (r *PaymentRepository) Create(_ context.Context, p *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.payments[p.ID]; exists {
		return errDuplicate("payment", p.ID)
	}
	cp := *p
	r.payments[p.ID] = &cp
	return nil
}

// FindByID looks up a payment by id.
func (r *PaymentRepository) FindByID(_ context.Context, id string) (*payment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.payments[id]
	if !ok {
		return nil, payment.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// UpdateStatus sets the payment status and refresh timestamp.
func (r *PaymentRepository) UpdateStatus(_ context.Context, id string, status payment.Status, now time.Time) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[id]
	if !ok {
		return nil, payment.ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = now
	cp := *p
	return &cp, nil
}
