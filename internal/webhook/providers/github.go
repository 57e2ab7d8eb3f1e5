package providers

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/summit-checkout/internal/domain/payment"
	"github.com/xenking/summit-checkout/internal/webhook"
)

// GitHubConfig returns the pipeline configuration for GitHub Sponsors
// events. GitHub sends the signature as "sha256=<hex>" in
// X-Hub-Signature-256.
func GitHubConfig(secret string) webhook.Config {
	return webhook.Config{
		Provider: "github",
		Secret:   secret,
		Signature: webhook.SignatureConfig{
			Header: "x-hub-signature-256",
		},
		RequiredFields: []string{
			"action",
			"sponsorship.sponsor.login",
			"sponsorship.tier.monthly_price_in_cents",
		},
		AllowedFields: []string{"action", "sponsorship"},
	}
}

// GitHub records sponsorship events as approved support payments.
type GitHub struct {
	payments Payments
}

// NewGitHub creates the GitHub Sponsors processor.
func NewGitHub(payments Payments) *GitHub {
	return &GitHub{payments: payments}
}

// Process implements webhook.Processor.
func (p *GitHub) Process(ctx context.Context, wc *webhook.Context) (any, error) {
	action, _ := wc.Body["action"].(string)
	sponsorship, _ := wc.Body["sponsorship"].(map[string]any)
	sponsor, _ := sponsorship["sponsor"].(map[string]any)
	login, _ := sponsor["login"].(string)
	tier, _ := sponsorship["tier"].(map[string]any)
	cents, ok := tier["monthly_price_in_cents"].(float64)
	if login == "" || !ok {
		return nil, errors.New("malformed sponsorship payload")
	}

	switch action {
	case "created", "tier_changed":
		pay, err := p.payments.RecordSponsorship(ctx, payment.Sponsorship{
			Sponsor:      login,
			MonthlyCents: int64(cents),
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{"paymentId": pay.ID, "sponsor": login}, nil
	default:
		// Cancellations and pending changes are acknowledged only.
		return map[string]any{"ignored": action}, nil
	}
}
