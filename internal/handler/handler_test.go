package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/xenking/summit-checkout/internal/domain/auth"
	"github.com/xenking/summit-checkout/internal/domain/community"
	"github.com/xenking/summit-checkout/internal/domain/coupon"
	"github.com/xenking/summit-checkout/internal/domain/order"
	"github.com/xenking/summit-checkout/internal/domain/payment"
	"github.com/xenking/summit-checkout/internal/monitor"
	"github.com/xenking/summit-checkout/internal/storage/memory"
)

const (
	testAdminKey = "sk_test_admin"
	testPepper   = "test-pepper"
)

func hashKey(key string) string {
	mac := hmac.New(sha256.New, []byte(testPepper))
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// newTestServer wires the full API on in-memory storage with seed data.
func newTestServer(t *testing.T) *httptest.Server {
	return newTestServerWithMonitor(t, monitor.NewNop())
}

func newTestServerWithMonitor(t *testing.T, metrics *monitor.Monitor) *httptest.Server {
	t.Helper()

	couponRepo := memory.NewCouponRepository()
	require.NoError(t, memory.SeedCoupons(context.Background(), couponRepo, time.Now()))

	tours := memory.NewTourRepository(memory.SeedTours()...)
	engine := coupon.NewEngine(couponRepo)
	payments := payment.NewService(memory.NewPaymentRepository(), engine, metrics)
	orders := order.NewService(tours, engine, payments, memory.NewOrderRepository())

	communitySource := community.NewStaticSource(memory.SeedCommunity(time.Now()))

	apikeys := memory.NewAPIKeyRepository(&auth.Key{
		ID:      "key-1",
		KeyHash: hashKey(testAdminKey),
		Name:    "test admin",
		Scopes:  []string{"admin"},
	})

	h := NewHandler(tours, engine, orders, communitySource, metrics)
	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", h.Routes(APIKeyAuth(apikeys, []byte(testPepper)))))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestValidateCoupon_Welcome10(t *testing.T) {
	srv := newTestServer(t)

	resp, body := postJSON(t, srv.URL+"/api/coupons/validate", map[string]any{
		"couponCode":    "WELCOME10",
		"orderAmount":   15000,
		"paymentMethod": "pix",
	}, nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, float64(1500), body["discountAmount"])
	assert.Equal(t, float64(13500), body["finalAmount"])
}

func TestValidateCoupon_CaseInsensitive(t *testing.T) {
	srv := newTestServer(t)

	_, lower := postJSON(t, srv.URL+"/api/coupons/validate", map[string]any{
		"couponCode":  "welcome10",
		"orderAmount": 15000,
	}, nil)
	_, upper := postJSON(t, srv.URL+"/api/coupons/validate", map[string]any{
		"couponCode":  "WELCOME10",
		"orderAmount": 15000,
	}, nil)

	assert.Equal(t, upper, lower)
}

func TestValidateCoupon_BelowMinimum(t *testing.T) {
	srv := newTestServer(t)

	resp, body := postJSON(t, srv.URL+"/api/coupons/validate", map[string]any{
		"couponCode":    "WELCOME10",
		"orderAmount":   4000,
		"paymentMethod": "pix",
	}, nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["valid"])
	assert.Equal(t, "minimum order amount: R$ 50.00", body["error"])
	assert.NotContains(t, body, "discountAmount")
}

func TestValidateCoupon_UnknownCode(t *testing.T) {
	srv := newTestServer(t)

	resp, body := postJSON(t, srv.URL+"/api/coupons/validate", map[string]any{
		"couponCode":  "NOPE",
		"orderAmount": 10000,
	}, nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["valid"])
	assert.Equal(t, "coupon not found", body["error"])
}

func TestValidateCoupon_BadRequest(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing code", map[string]any{"orderAmount": 1000}},
		{"missing amount", map[string]any{"couponCode": "WELCOME10"}},
		{"zero amount", map[string]any{"couponCode": "WELCOME10", "orderAmount": 0}},
		{"negative amount", map[string]any{"couponCode": "WELCOME10", "orderAmount": -500}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := postJSON(t, srv.URL+"/api/coupons/validate", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestListCoupons_HidesFixedAmountValue(t *testing.T) {
	srv := newTestServer(t)

	resp, body := getJSON(t, srv.URL+"/api/coupons")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	coupons, ok := body["coupons"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, coupons)

	byCode := make(map[string]map[string]any, len(coupons))
	for _, c := range coupons {
		entry := c.(map[string]any)
		byCode[entry["code"].(string)] = entry
	}

	welcome := byCode["WELCOME10"]
	require.NotNil(t, welcome)
	assert.Equal(t, "percentage", welcome["type"])
	assert.Equal(t, float64(10), welcome["value"])

	basecamp := byCode["BASECAMP50"]
	require.NotNil(t, basecamp)
	assert.Equal(t, "fixed_amount", basecamp["type"])
	assert.NotContains(t, basecamp, "value")
}

func TestCreateCoupon_RequiresAPIKey(t *testing.T) {
	srv := newTestServer(t)

	payload := map[string]any{
		"code":       "SUMMER20",
		"type":       "percentage",
		"value":      20,
		"validUntil": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	}

	resp, _ := postJSON(t, srv.URL+"/api/admin/coupons", payload, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = postJSON(t, srv.URL+"/api/admin/coupons", payload, map[string]string{
		APIKeyHeader: "wrong-key",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateCoupon_ThenValidate(t *testing.T) {
	srv := newTestServer(t)

	resp, body := postJSON(t, srv.URL+"/api/admin/coupons", map[string]any{
		"code":       "SUMMER20",
		"type":       "percentage",
		"value":      20,
		"validFrom":  time.Now().Add(-time.Hour).Format(time.RFC3339),
		"validUntil": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	}, map[string]string{APIKeyHeader: testAdminKey})

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "SUMMER20", body["code"])
	require.NotEmpty(t, body["id"])

	resp, valid := postJSON(t, srv.URL+"/api/coupons/validate", map[string]any{
		"couponCode":  "summer20",
		"orderAmount": 10000,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, valid["valid"])
	assert.Equal(t, float64(2000), valid["discountAmount"])
	assert.Equal(t, float64(8000), valid["finalAmount"])
}

func TestCreateCoupon_InvalidInput(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := postJSON(t, srv.URL+"/api/admin/coupons", map[string]any{
		"code":       "BROKEN",
		"type":       "percentage",
		"value":      150,
		"validUntil": time.Now().Add(time.Hour).Format(time.RFC3339),
	}, map[string]string{APIKeyHeader: testAdminKey})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeactivateCoupon(t *testing.T) {
	srv := newTestServer(t)

	resp, body := postJSON(t, srv.URL+"/api/admin/coupons", map[string]any{
		"code":       "SHORTLIVED",
		"type":       "fixed_amount",
		"value":      1000,
		"validUntil": time.Now().Add(time.Hour).Format(time.RFC3339),
	}, map[string]string{APIKeyHeader: testAdminKey})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := body["id"].(string)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/admin/coupons/"+id, nil)
	require.NoError(t, err)
	req.Header.Set(APIKeyHeader, testAdminKey)

	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer delResp.Body.Close()
	require.Equal(t, http.StatusOK, delResp.StatusCode)

	_, valid := postJSON(t, srv.URL+"/api/coupons/validate", map[string]any{
		"couponCode":  "SHORTLIVED",
		"orderAmount": 10000,
	}, nil)
	assert.Equal(t, false, valid["valid"])
	assert.Equal(t, "coupon inactive", valid["error"])
}

func TestDeactivateCoupon_NotFound(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/admin/coupons/no-such-id", nil)
	require.NoError(t, err)
	req.Header.Set(APIKeyHeader, testAdminKey)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListPackages(t *testing.T) {
	srv := newTestServer(t)

	resp, body := getJSON(t, srv.URL+"/api/packages")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	packages, ok := body["packages"].([]any)
	require.True(t, ok)
	require.Len(t, packages, 3)

	first := packages[0].(map[string]any)
	assert.Equal(t, "pico-parana-day", first["id"])
	assert.Equal(t, float64(18000), first["priceCents"])
}

func TestPlaceOrder_WithCoupon(t *testing.T) {
	srv := newTestServer(t)

	resp, body := postJSON(t, srv.URL+"/api/orders", map[string]any{
		"items":         []map[string]any{{"packageId": "pico-parana-day", "quantity": 1}},
		"couponCode":    "WELCOME10",
		"paymentMethod": "pix",
		"userId":        "climber-7",
	}, nil)

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(18000), body["subtotal"])
	assert.Equal(t, float64(1800), body["discount"])
	assert.Equal(t, float64(16200), body["total"])

	pay := body["payment"].(map[string]any)
	assert.Equal(t, "pix", pay["method"])
	assert.Equal(t, "pending", pay["status"])
	assert.Equal(t, float64(16200), pay["amountCents"])
	assert.NotContains(t, pay, "cryptoAmount")
}

func TestPlaceOrder_CryptoQuote(t *testing.T) {
	srv := newTestServer(t)

	resp, body := postJSON(t, srv.URL+"/api/orders", map[string]any{
		"items":         []map[string]any{{"packageId": "marumbi-weekend", "quantity": 1}},
		"paymentMethod": "usdt",
	}, nil)

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	pay := body["payment"].(map[string]any)
	assert.Equal(t, "usdt", pay["method"])
	assert.Equal(t, "USDT", pay["cryptoCurrency"])
	assert.NotEmpty(t, pay["cryptoAmount"])
}

func TestPlaceOrder_PaymentCountedOnce(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := monitor.New(provider.Meter("handler-test"))
	require.NoError(t, err)

	srv := newTestServerWithMonitor(t, metrics)

	resp, _ := postJSON(t, srv.URL+"/api/orders", map[string]any{
		"items":         []map[string]any{{"packageId": "pico-parana-day", "quantity": 1}},
		"paymentMethod": "pix",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "checkout.payments" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	assert.Equal(t, int64(1), total, "one checkout must record exactly one pending payment")
}

func TestPlaceOrder_Errors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
	}{
		{
			name: "empty items",
			body: map[string]any{
				"items":         []map[string]any{},
				"paymentMethod": "pix",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown payment method",
			body: map[string]any{
				"items":         []map[string]any{{"packageId": "pico-parana-day", "quantity": 1}},
				"paymentMethod": "barter",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown package",
			body: map[string]any{
				"items":         []map[string]any{{"packageId": "everest-please", "quantity": 1}},
				"paymentMethod": "pix",
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "rejected coupon",
			body: map[string]any{
				"items":         []map[string]any{{"packageId": "pico-parana-day", "quantity": 1}},
				"couponCode":    "NOPE",
				"paymentMethod": "pix",
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := postJSON(t, srv.URL+"/api/orders", tt.body, nil)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestCommunityStats(t *testing.T) {
	srv := newTestServer(t)

	resp, body := getJSON(t, srv.URL+"/api/community")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stats := body["stats"].(map[string]any)
	assert.Equal(t, float64(412), stats["members"])
	expeditions := stats["expeditions"].([]any)
	assert.NotEmpty(t, expeditions)
}
