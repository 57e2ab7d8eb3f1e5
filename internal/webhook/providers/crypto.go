package providers

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/summit-checkout/internal/webhook"
)

// CryptoConfig returns the pipeline configuration for the crypto gateway,
// which signs with HMAC-SHA256 over the raw body in a dedicated header.
func CryptoConfig(secret string) webhook.Config {
	return webhook.Config{
		Provider: "crypto",
		Secret:   secret,
		Signature: webhook.SignatureConfig{
			Header: "x-cc-webhook-signature",
		},
		RequiredFields: []string{"event.type", "event.data.id"},
		AllowedFields:  []string{"event"},
	}
}

// Crypto processes charge events from the cryptocurrency gateway. The
// charge id in event.data.id is the payment intent id.
type Crypto struct {
	payments Payments
}

// NewCrypto creates the crypto gateway processor.
func NewCrypto(payments Payments) *Crypto {
	return &Crypto{payments: payments}
}

// Process implements webhook.Processor.
func (p *Crypto) Process(ctx context.Context, wc *webhook.Context) (any, error) {
	event, _ := wc.Body["event"].(map[string]any)
	eventType, _ := event["type"].(string)
	data, _ := event["data"].(map[string]any)
	chargeID, _ := data["id"].(string)
	if chargeID == "" {
		return nil, errors.New("event.data.id is not a string")
	}

	switch eventType {
	case "charge:confirmed":
		return finalize(p.payments.Approve(ctx, chargeID))
	case "charge:failed":
		return finalize(p.payments.Fail(ctx, chargeID))
	default:
		// charge:created and charge:pending carry no state change for us.
		return map[string]any{"ignored": eventType}, nil
	}
}
