package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/xenking/summit-checkout/internal/domain/auth"
)

// APIKeyHeader carries the admin API key on protected routes.
const APIKeyHeader = "X-API-Key"

// ScopeAdmin is required for coupon management endpoints.
const ScopeAdmin = "admin"

// APIKeyAuth authenticates requests by computing the HMAC-SHA256 of the
// presented key under the server pepper, looking the hash up in the
// repository, and comparing in constant time to prevent timing attacks.
func APIKeyAuth(apikeys auth.Repository, pepper []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(APIKeyHeader)
			if key == "" {
				respondError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			mac := hmac.New(sha256.New, pepper)
			mac.Write([]byte(key))
			hash := mac.Sum(nil)

			info, err := apikeys.FindByHash(r.Context(), hex.EncodeToString(hash))
			if err != nil {
				respondError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			// The lookup already matched, but the stored hash could differ
			// from what we computed if the repository returns a stale or
			// wrong row.
			stored, err := hex.DecodeString(info.KeyHash)
			if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
				respondError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			if !info.HasScope(ScopeAdmin) {
				respondError(w, http.StatusForbidden, "forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
