package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/summit-checkout/internal/domain/order"
	"github.com/xenking/summit-checkout/internal/domain/payment"
)

type orderItemRequest struct {
	PackageID string `json:"packageId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type placeOrderRequest struct {
	Items         []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	CouponCode    string             `json:"couponCode"`
	PaymentMethod string             `json:"paymentMethod" validate:"required"`
	UserID        string             `json:"userId"`
}

type paymentView struct {
	ID             string           `json:"id"`
	Method         string           `json:"method"`
	Status         string           `json:"status"`
	AmountCents    int64            `json:"amountCents"`
	CryptoAmount   *decimal.Decimal `json:"cryptoAmount,omitempty"`
	CryptoCurrency string           `json:"cryptoCurrency,omitempty"`
}

type placeOrderResponse struct {
	Success  bool          `json:"success"`
	OrderID  string        `json:"orderId"`
	Subtotal int64         `json:"subtotal"`
	Discount int64         `json:"discount"`
	Total    int64         `json:"total"`
	Payment  paymentView   `json:"payment"`
	Packages []packageView `json:"packages"`
}

// PlaceOrder runs checkout: items against the catalog, optional coupon
// preview and a payment intent for the chosen method.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	items := make([]order.Item, len(req.Items))
	for i, item := range req.Items {
		items[i] = order.Item{PackageID: item.PackageID, Quantity: item.Quantity}
	}

	result, err := h.orders.Checkout(r.Context(), order.CheckoutRequest{
		UserID:        req.UserID,
		Items:         items,
		CouponCode:    req.CouponCode,
		PaymentMethod: payment.Method(req.PaymentMethod),
	})
	if err != nil {
		h.mapCheckoutError(w, r, err)
		return
	}

	pv := paymentView{
		ID:          result.Payment.ID,
		Method:      string(result.Payment.Method),
		Status:      string(result.Payment.Status),
		AmountCents: result.Payment.AmountCents,
	}
	if result.Payment.Method.IsCrypto() {
		amount := result.Payment.CryptoAmount
		pv.CryptoAmount = &amount
		pv.CryptoCurrency = result.Payment.CryptoCurrency
	}

	packages := make([]packageView, len(result.Packages))
	for i, p := range result.Packages {
		packages[i] = toPackageView(p)
	}

	respondJSON(w, http.StatusCreated, placeOrderResponse{
		Success:  true,
		OrderID:  result.Order.ID,
		Subtotal: result.Order.Subtotal,
		Discount: result.Order.Discount,
		Total:    result.Order.Total,
		Payment:  pv,
		Packages: packages,
	})
}

// mapCheckoutError converts domain checkout errors into HTTP responses:
// malformed input is 400, references to unknown or ineligible entities 422.
func (h *Handler) mapCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, order.ErrEmptyItems):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, payment.ErrUnknownMethod):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		var iqErr *order.InvalidQuantityError
		var pnfErr *order.PackageNotFoundError
		var crErr *order.CouponRejectedError
		switch {
		case errors.As(err, &iqErr), errors.As(err, &pnfErr), errors.As(err, &crErr):
			respondError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			respondInternal(w, r, err, "place order")
		}
	}
}
