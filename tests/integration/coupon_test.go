//go:build integration

package integration

import (
	"net/http"
	"testing"
	"time"
)

func TestValidateCoupon_Welcome10(t *testing.T) {
	resp := doPost(t, "/api/coupons/validate", map[string]any{
		"couponCode":    "WELCOME10",
		"orderAmount":   15000,
		"paymentMethod": "pix",
	}, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	result := decodeJSON[validateResponse](t, resp)
	if !result.Valid {
		t.Fatalf("expected valid, got error %q", result.Error)
	}
	if result.DiscountAmount == nil || *result.DiscountAmount != 1500 {
		t.Errorf("discountAmount: got %v, want 1500", result.DiscountAmount)
	}
	if result.FinalAmount == nil || *result.FinalAmount != 13500 {
		t.Errorf("finalAmount: got %v, want 13500", result.FinalAmount)
	}
}

func TestValidateCoupon_BelowMinimum(t *testing.T) {
	resp := doPost(t, "/api/coupons/validate", map[string]any{
		"couponCode":    "WELCOME10",
		"orderAmount":   4000,
		"paymentMethod": "pix",
	}, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	result := decodeJSON[validateResponse](t, resp)
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if result.Error != "minimum order amount: R$ 50.00" {
		t.Errorf("error: got %q", result.Error)
	}
}

func TestValidateCoupon_MissingFields(t *testing.T) {
	resp := doPost(t, "/api/coupons/validate", map[string]any{
		"orderAmount": 5000,
	}, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListCoupons_OmitsFixedValue(t *testing.T) {
	resp := doGet(t, "/api/coupons")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	list := decodeJSON[couponListResponse](t, resp)
	for _, c := range list.Coupons {
		switch c.Code {
		case "WELCOME10":
			if c.Value == nil || *c.Value != 10 {
				t.Errorf("WELCOME10 value: got %v, want 10", c.Value)
			}
		case "BASECAMP50":
			if c.Value != nil {
				t.Errorf("BASECAMP50 value must be omitted, got %v", *c.Value)
			}
		}
	}
}

func TestAdminCoupons_Lifecycle(t *testing.T) {
	create := doPost(t, "/api/admin/coupons", map[string]any{
		"code":       "INTTEST15",
		"type":       "percentage",
		"value":      15,
		"validFrom":  time.Now().Add(-time.Hour).Format(time.RFC3339),
		"validUntil": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	}, map[string]string{"X-API-Key": adminAPIKey})
	defer create.Body.Close()

	if create.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", create.StatusCode)
	}
	created := decodeJSON[struct {
		ID string `json:"id"`
	}](t, create)

	validate := doPost(t, "/api/coupons/validate", map[string]any{
		"couponCode":  "inttest15",
		"orderAmount": 10000,
	}, nil)
	defer validate.Body.Close()

	result := decodeJSON[validateResponse](t, validate)
	if !result.Valid || *result.DiscountAmount != 1500 {
		t.Fatalf("validate after create: valid=%v discount=%v", result.Valid, result.DiscountAmount)
	}

	req, _ := http.NewRequest(http.MethodDelete, baseURL+"/api/admin/coupons/"+created.ID, nil)
	req.Header.Set("X-API-Key", adminAPIKey)
	del, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	defer del.Body.Close()
	if del.StatusCode != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", del.StatusCode)
	}

	revalidate := doPost(t, "/api/coupons/validate", map[string]any{
		"couponCode":  "INTTEST15",
		"orderAmount": 10000,
	}, nil)
	defer revalidate.Body.Close()

	after := decodeJSON[validateResponse](t, revalidate)
	if after.Valid {
		t.Fatal("coupon must be invalid after deactivation")
	}
	if after.Error != "coupon inactive" {
		t.Errorf("error: got %q", after.Error)
	}
}

func TestAdminCoupons_Unauthorized(t *testing.T) {
	resp := doPost(t, "/api/admin/coupons", map[string]any{
		"code":       "NOAUTH",
		"type":       "percentage",
		"value":      5,
		"validUntil": time.Now().Add(time.Hour).Format(time.RFC3339),
	}, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
