//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestHealthProbes(t *testing.T) {
	for _, path := range []string{"/livez", "/readyz"} {
		t.Run(path, func(t *testing.T) {
			resp := doGet(t, path)
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
			}
			health := decodeJSON[healthResponse](t, resp)
			if health.Status != "ok" {
				t.Errorf("%s status: got %q, want %q", path, health.Status, "ok")
			}
		})
	}
}
