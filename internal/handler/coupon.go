package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/xenking/summit-checkout/internal/domain/coupon"
)

type validateCouponRequest struct {
	CouponCode    string `json:"couponCode" validate:"required"`
	OrderAmount   int64  `json:"orderAmount" validate:"required,gt=0"`
	PaymentMethod string `json:"paymentMethod"`
	UserID        string `json:"userId"`
}

type validateCouponResponse struct {
	Success        bool   `json:"success"`
	Valid          bool   `json:"valid"`
	DiscountAmount *int64 `json:"discountAmount,omitempty"`
	FinalAmount    *int64 `json:"finalAmount,omitempty"`
	Error          string `json:"error,omitempty"`
}

// ValidateCoupon previews a coupon against an order without consuming usage.
// Business-rule rejections come back as 200 with valid=false; only malformed
// input is a 400.
func (h *Handler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req validateCouponRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "couponCode is required and orderAmount must be positive")
		return
	}

	result := h.coupons.Validate(r.Context(), coupon.ValidationRequest{
		Code:          req.CouponCode,
		OrderAmount:   req.OrderAmount,
		PaymentMethod: req.PaymentMethod,
		UserID:        req.UserID,
	})
	h.metrics.CouponValidated(r.Context(), result.Valid)

	if !result.Valid {
		respondJSON(w, http.StatusOK, validateCouponResponse{
			Success: true,
			Valid:   false,
			Error:   result.Err,
		})
		return
	}

	respondJSON(w, http.StatusOK, validateCouponResponse{
		Success:        true,
		Valid:          true,
		DiscountAmount: &result.DiscountAmount,
		FinalAmount:    &result.FinalAmount,
	})
}

type couponSummary struct {
	Code                     string    `json:"code"`
	Description              string    `json:"description"`
	Type                     string    `json:"type"`
	Value                    *int64    `json:"value,omitempty"`
	MinOrderAmount           int64     `json:"minOrderAmount"`
	ApplicablePaymentMethods []string  `json:"applicablePaymentMethods"`
	ValidUntil               time.Time `json:"validUntil"`
}

type listCouponsResponse struct {
	Success bool            `json:"success"`
	Coupons []couponSummary `json:"coupons"`
}

// ListCoupons returns currently redeemable coupons. The value of
// fixed_amount coupons is withheld so the exact discount stays hidden until
// validation.
func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	active, err := h.coupons.Active(r.Context())
	if err != nil {
		respondInternal(w, r, err, "list active coupons")
		return
	}

	out := make([]couponSummary, len(active))
	for i, c := range active {
		s := couponSummary{
			Code:                     c.Code,
			Description:              c.Description,
			Type:                     string(c.Type),
			MinOrderAmount:           c.MinOrderAmount,
			ApplicablePaymentMethods: c.PaymentMethods,
			ValidUntil:               c.ValidUntil,
		}
		if c.Type == coupon.TypePercentage {
			v := c.Value
			s.Value = &v
		}
		if s.ApplicablePaymentMethods == nil {
			s.ApplicablePaymentMethods = []string{}
		}
		out[i] = s
	}

	respondJSON(w, http.StatusOK, listCouponsResponse{Success: true, Coupons: out})
}

type createCouponRequest struct {
	Code           string    `json:"code" validate:"required"`
	Type           string    `json:"type" validate:"required,oneof=percentage fixed_amount"`
	Value          int64     `json:"value" validate:"gte=0"`
	Description    string    `json:"description"`
	ValidFrom      time.Time `json:"validFrom"`
	ValidUntil     time.Time `json:"validUntil" validate:"required"`
	MaxUses        int       `json:"maxUses" validate:"gte=0"`
	MinOrderAmount int64     `json:"minOrderAmount" validate:"gte=0"`
	PaymentMethods []string  `json:"paymentMethods"`
}

type createCouponResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Code    string `json:"code"`
}

// CreateCoupon registers a new coupon. Admin only.
func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req createCouponRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.coupons.Create(r.Context(), coupon.CreateParams{
		Code:           req.Code,
		Type:           coupon.Type(req.Type),
		Value:          req.Value,
		Description:    req.Description,
		ValidFrom:      req.ValidFrom,
		ValidUntil:     req.ValidUntil,
		MaxUses:        req.MaxUses,
		MinOrderAmount: req.MinOrderAmount,
		PaymentMethods: req.PaymentMethods,
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, createCouponResponse{
		Success: true,
		ID:      c.ID,
		Code:    c.Code,
	})
}

// DeactivateCoupon soft-deletes a coupon by id. Admin only.
func (h *Handler) DeactivateCoupon(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.coupons.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, coupon.ErrNotFound) {
			respondError(w, http.StatusNotFound, "coupon not found")
			return
		}
		respondInternal(w, r, err, "deactivate coupon")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
