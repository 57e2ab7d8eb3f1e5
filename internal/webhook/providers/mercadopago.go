// Package providers wires the payment gateway integrations into the webhook
// ingestion pipeline: each provider contributes a pipeline Config and a
// Processor that applies the callback to payment state.
package providers

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/summit-checkout/internal/domain/payment"
	"github.com/xenking/summit-checkout/internal/webhook"
)

// Payments is the slice of the payment service the processors need.
type Payments interface {
	Approve(ctx context.Context, id string) (*payment.Payment, error)
	Fail(ctx context.Context, id string) (*payment.Payment, error)
	RecordSponsorship(ctx context.Context, sp payment.Sponsorship) (*payment.Payment, error)
}

// MercadoPagoConfig returns the pipeline configuration for MercadoPago
// (card and Pix) callbacks.
func MercadoPagoConfig(secret string) webhook.Config {
	return webhook.Config{
		Provider:       "mercadopago",
		Secret:         secret,
		RequiredFields: []string{"action", "data.id"},
		AllowedFields:  []string{"action", "type", "data"},
	}
}

// MercadoPago processes gateway callbacks. The external reference in
// data.id is the payment intent id handed to the gateway at checkout.
type MercadoPago struct {
	payments Payments
}

// NewMercadoPago creates the MercadoPago processor.
func NewMercadoPago(payments Payments) *MercadoPago {
	return &MercadoPago{payments: payments}
}

// Process implements webhook.Processor.
func (p *MercadoPago) Process(ctx context.Context, wc *webhook.Context) (any, error) {
	action, _ := wc.Body["action"].(string)
	data, _ := wc.Body["data"].(map[string]any)
	paymentID, _ := data["id"].(string)
	if paymentID == "" {
		return nil, errors.New("data.id is not a string")
	}

	switch action {
	case "payment.approved":
		return finalize(p.payments.Approve(ctx, paymentID))
	case "payment.rejected", "payment.cancelled":
		return finalize(p.payments.Fail(ctx, paymentID))
	default:
		// Intermediate notifications (payment.created, payment.updated
		// without a terminal status) are acknowledged without state change.
		return map[string]any{"ignored": action}, nil
	}
}

// finalize folds duplicate deliveries into a success acknowledgement: the
// provider retried a callback we already applied, so answering 200 stops
// its retry loop.
func finalize(pay *payment.Payment, err error) (any, error) {
	if errors.Is(err, payment.ErrAlreadyFinalized) {
		return map[string]any{"paymentId": pay.ID, "status": string(pay.Status), "duplicate": true}, nil
	}
	if err != nil {
		return nil, err
	}
	return map[string]any{"paymentId": pay.ID, "status": string(pay.Status)}, nil
}
