package memory

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/summit-checkout/internal/domain/community"
	"github.com/xenking/summit-checkout/internal/domain/coupon"
	"github.com/xenking/summit-checkout/internal/domain/tour"
)

// SeedTours returns the static expedition catalog served without a database.
func SeedTours() []tour.Package {
	return []tour.Package{
		{
			ID:           "pico-parana-day",
			Name:         "Pico Paraná day climb",
			Description:  "Guided one-day ascent of the highest summit in southern Brazil.",
			Difficulty:   "intermediate",
			DurationDays: 1,
			PriceCents:   18000,
			Image:        "/images/pico-parana.jpg",
		},
		{
			ID:           "marumbi-weekend",
			Name:         "Marumbi weekend traverse",
			Description:  "Two days across the Marumbi massif with basecamp overnight.",
			Difficulty:   "beginner",
			DurationDays: 2,
			PriceCents:   32000,
			Image:        "/images/marumbi.jpg",
		},
		{
			ID:           "agulhas-negras-exped",
			Name:         "Agulhas Negras expedition",
			Description:  "Five-day alpine course and summit push in Itatiaia.",
			Difficulty:   "advanced",
			DurationDays: 5,
			PriceCents:   120000,
			Image:        "/images/agulhas-negras.jpg",
		},
	}
}

// SeedCoupons loads the launch coupons into the repository.
func SeedCoupons(ctx context.Context, repo *CouponRepository, now time.Time) error {
	coupons := []*coupon.Coupon{
		{
			ID:             uuid.New().String(),
			Code:           "WELCOME10",
			Type:           coupon.TypePercentage,
			Value:          10,
			Description:    "10% off your first expedition",
			ValidFrom:      now.Add(-24 * time.Hour),
			ValidUntil:     now.AddDate(1, 0, 0),
			MinOrderAmount: 5000,
			PaymentMethods: []string{"pix", "mercadopago", "bitcoin", "usdt"},
			Active:         true,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		{
			ID:          uuid.New().String(),
			Code:        "BASECAMP50",
			Type:        coupon.TypeFixedAmount,
			Value:       5000,
			Description: "R$ 50.00 off any booking",
			ValidFrom:   now.Add(-24 * time.Hour),
			ValidUntil:  now.AddDate(0, 6, 0),
			MaxUses:     100,
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
	for _, c := range coupons {
		if err := repo.Create(ctx, c); err != nil {
			return errors.Wrapf(err, "seed coupon %s", c.Code)
		}
	}
	return nil
}

// SeedCommunity returns the static community snapshot.
func SeedCommunity(now time.Time) community.Stats {
	return community.Stats{
		Members:       412,
		SummitsLogged: 1187,
		Expeditions: []community.Expedition{
			{Name: "Full-moon Marumbi", Summit: "Morro do Canal", StartDate: now.AddDate(0, 1, 0), SpotsLeft: 6},
			{Name: "Itatiaia high camp", Summit: "Agulhas Negras", StartDate: now.AddDate(0, 2, 0), SpotsLeft: 10},
		},
	}
}
