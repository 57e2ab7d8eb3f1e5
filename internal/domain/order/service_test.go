package order

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/summit-checkout/internal/domain/coupon"
	"github.com/xenking/summit-checkout/internal/domain/payment"
	"github.com/xenking/summit-checkout/internal/domain/tour"
	"github.com/xenking/summit-checkout/internal/monitor"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// --- Mocks ---

type mockPackageRepo struct {
	packages map[string]tour.Package
}

func (m *mockPackageRepo) List(_ context.Context) ([]tour.Package, error) {
	out := make([]tour.Package, 0, len(m.packages))
	for _, p := range m.packages {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockPackageRepo) GetByIDs(_ context.Context, ids []string) ([]tour.Package, error) {
	var out []tour.Package
	for _, id := range ids {
		if p, ok := m.packages[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockOrderRepo struct {
	last *Order
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	m.last = o
	return nil
}

func (m *mockOrderRepo) FindByID(_ context.Context, _ string) (*Order, error) {
	return m.last, nil
}

type mockCouponRepo struct {
	coupon.Repository
	byCode map[string]*coupon.Coupon
}

func (m *mockCouponRepo) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	if c, ok := m.byCode[code]; ok {
		return c, nil
	}
	return nil, coupon.ErrNotFound
}

func (m *mockCouponRepo) HasUserUsed(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}

type mockPaymentRepo struct {
	last *payment.Payment
}

func (m *mockPaymentRepo) Create(_ context.Context, p *payment.Payment) error {
	m.last = p
	return nil
}

func (m *mockPaymentRepo) FindByID(_ context.Context, _ string) (*payment.Payment, error) {
	return m.last, nil
}

func (m *mockPaymentRepo) UpdateStatus(_ context.Context, _ string, status payment.Status, now time.Time) (*payment.Payment, error) {
	m.last.Status = status
	m.last.UpdatedAt = now
	return m.last, nil
}

// --- Fixtures ---

func basecampPackages() *mockPackageRepo {
	return &mockPackageRepo{packages: map[string]tour.Package{
		"pkg-day":  {ID: "pkg-day", Name: "Day climb", PriceCents: 5000},
		"pkg-week": {ID: "pkg-week", Name: "Week expedition", PriceCents: 10000},
	}}
}

func welcome10() *coupon.Coupon {
	return &coupon.Coupon{
		ID:             "cpn-welcome10",
		Code:           "WELCOME10",
		Type:           coupon.TypePercentage,
		Value:          10,
		ValidFrom:      time.Now().Add(-time.Hour),
		ValidUntil:     time.Now().Add(time.Hour),
		MinOrderAmount: 5000,
		PaymentMethods: []string{"pix", "mercadopago", "bitcoin", "usdt"},
		Active:         true,
	}
}

func newCheckout(t *testing.T, coupons ...*coupon.Coupon) (*Service, *mockOrderRepo, *mockPaymentRepo) {
	t.Helper()
	byCode := make(map[string]*coupon.Coupon)
	for _, c := range coupons {
		byCode[c.Code] = c
	}

	engine := coupon.NewEngine(&mockCouponRepo{byCode: byCode})
	payRepo := &mockPaymentRepo{}
	payments := payment.NewService(payRepo, engine, monitor.NewNop())
	orderRepo := &mockOrderRepo{}

	svc := NewService(basecampPackages(), engine, payments, orderRepo)
	svc.now = func() time.Time { return testNow }
	return svc, orderRepo, payRepo
}

// --- Tests ---

func TestCheckout_WithCoupon(t *testing.T) {
	svc, orderRepo, payRepo := newCheckout(t, welcome10())

	res, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:        "u1",
		Items:         []Item{{PackageID: "pkg-day", Quantity: 1}, {PackageID: "pkg-week", Quantity: 1}},
		CouponCode:    "WELCOME10",
		PaymentMethod: payment.MethodPix,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(15000), res.Order.Subtotal)
	assert.Equal(t, int64(1500), res.Order.Discount)
	assert.Equal(t, int64(13500), res.Order.Total)
	assert.Equal(t, "cpn-welcome10", res.Order.CouponID)
	assert.Len(t, res.Packages, 2)

	require.NotNil(t, orderRepo.last)
	require.NotNil(t, payRepo.last)
	assert.Equal(t, res.Order.ID, payRepo.last.OrderID)
	assert.Equal(t, int64(13500), payRepo.last.AmountCents)
	assert.Equal(t, "cpn-welcome10", payRepo.last.CouponID)
	assert.Equal(t, payment.StatusPending, payRepo.last.Status)
}

func TestCheckout_WithoutCoupon(t *testing.T) {
	svc, _, payRepo := newCheckout(t)

	res, err := svc.Checkout(context.Background(), CheckoutRequest{
		Items:         []Item{{PackageID: "pkg-week", Quantity: 2}},
		PaymentMethod: payment.MethodMercadoPago,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(20000), res.Order.Total)
	assert.Zero(t, res.Order.Discount)
	assert.Empty(t, payRepo.last.CouponID)
}

func TestCheckout_CouponRejectionAborts(t *testing.T) {
	svc, orderRepo, _ := newCheckout(t, welcome10())

	// Subtotal 5000 meets the minimum but bitcoin-only carts below it fail;
	// here the method restriction trips instead.
	c := welcome10()
	c.PaymentMethods = []string{"pix"}
	svc2, _, _ := newCheckout(t, c)

	_, err := svc2.Checkout(context.Background(), CheckoutRequest{
		Items:         []Item{{PackageID: "pkg-week", Quantity: 1}},
		CouponCode:    "WELCOME10",
		PaymentMethod: payment.MethodBitcoin,
	})

	var rejected *CouponRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "coupon not valid for this payment method", rejected.Reason)

	// Below minimum amount carries the formatted minimum.
	_, err = svc.Checkout(context.Background(), CheckoutRequest{
		Items:         []Item{{PackageID: "pkg-day", Quantity: 0}},
		PaymentMethod: payment.MethodPix,
	})
	require.Error(t, err)
	assert.Nil(t, orderRepo.last, "no order persisted on rejection")
}

func TestCheckout_BelowCouponMinimum(t *testing.T) {
	svc, _, _ := newCheckout(t, welcome10())

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		Items:         []Item{{PackageID: "pkg-day", Quantity: 1}},
		CouponCode:    "WELCOME10",
		PaymentMethod: payment.MethodPix,
	})

	// Subtotal 5000 == minimum, so this passes; shrink with a cheaper cart.
	require.NoError(t, err)

	c := welcome10()
	c.MinOrderAmount = 6000
	svc2, _, _ := newCheckout(t, c)
	_, err = svc2.Checkout(context.Background(), CheckoutRequest{
		Items:         []Item{{PackageID: "pkg-day", Quantity: 1}},
		CouponCode:    "WELCOME10",
		PaymentMethod: payment.MethodPix,
	})
	var rejected *CouponRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "minimum order amount: R$ 60.00", rejected.Reason)
}

func TestCheckout_InputValidation(t *testing.T) {
	svc, _, _ := newCheckout(t)
	ctx := context.Background()

	_, err := svc.Checkout(ctx, CheckoutRequest{PaymentMethod: payment.MethodPix})
	require.ErrorIs(t, err, ErrEmptyItems)

	_, err = svc.Checkout(ctx, CheckoutRequest{
		Items:         []Item{{PackageID: "pkg-day", Quantity: 1}},
		PaymentMethod: payment.Method("cash"),
	})
	require.ErrorIs(t, err, payment.ErrUnknownMethod)

	_, err = svc.Checkout(ctx, CheckoutRequest{
		Items:         []Item{{PackageID: "pkg-day", Quantity: -1}},
		PaymentMethod: payment.MethodPix,
	})
	var iq *InvalidQuantityError
	require.ErrorAs(t, err, &iq)

	_, err = svc.Checkout(ctx, CheckoutRequest{
		Items:         []Item{{PackageID: "pkg-missing", Quantity: 1}},
		PaymentMethod: payment.MethodPix,
	})
	var nf *PackageNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "pkg-missing", nf.PackageID)
}

func TestCheckout_CryptoGetsQuote(t *testing.T) {
	svc, _, payRepo := newCheckout(t)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		Items:         []Item{{PackageID: "pkg-week", Quantity: 1}},
		PaymentMethod: payment.MethodUSDT,
	})

	require.NoError(t, err)
	assert.True(t, payRepo.last.HasQuote())
	assert.Equal(t, "USDT", payRepo.last.CryptoCurrency)
}
