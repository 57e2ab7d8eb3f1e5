// Package handler exposes the public HTTP API: tour catalog, coupon
// validation and administration, checkout and the community read endpoint.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/xenking/summit-checkout/internal/domain/community"
	"github.com/xenking/summit-checkout/internal/domain/coupon"
	"github.com/xenking/summit-checkout/internal/domain/order"
	"github.com/xenking/summit-checkout/internal/domain/tour"
	"github.com/xenking/summit-checkout/internal/monitor"
)

// Handler serves the JSON API, delegating business logic to the domain
// services.
type Handler struct {
	tours     tour.Repository
	coupons   *coupon.Engine
	orders    *order.Service
	community community.Source
	metrics   *monitor.Monitor
	validate  *validator.Validate
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	tours tour.Repository,
	coupons *coupon.Engine,
	orders *order.Service,
	communitySource community.Source,
	metrics *monitor.Monitor,
) *Handler {
	return &Handler{
		tours:     tours,
		coupons:   coupons,
		orders:    orders,
		community: communitySource,
		metrics:   metrics,
		validate:  validator.New(),
	}
}

// Routes mounts the API under /api. Admin coupon management sits behind the
// given auth middleware.
func (h *Handler) Routes(adminAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/packages", h.ListPackages)
	r.Post("/coupons/validate", h.ValidateCoupon)
	r.Get("/coupons", h.ListCoupons)
	r.Post("/orders", h.PlaceOrder)
	r.Get("/community", h.CommunityStats)

	r.Route("/admin", func(r chi.Router) {
		r.Use(adminAuth)
		r.Post("/coupons", h.CreateCoupon)
		r.Delete("/coupons/{id}", h.DeactivateCoupon)
	})

	return r
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Success: false, Error: msg})
}

// respondInternal hides the underlying error from the client; full detail
// goes to the request logger only.
func respondInternal(w http.ResponseWriter, r *http.Request, err error, msg string) {
	zctx.From(r.Context()).Error(msg, zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal server error")
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
