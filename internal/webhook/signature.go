package webhook

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"hash"
	"strings"

	"github.com/go-faster/errors"
)

// verifySignature checks the provider signature header against an HMAC of
// the raw request body. Providers such as GitHub prefix the value with the
// algorithm ("sha256=..."); the prefix is stripped before decoding. The
// comparison is constant-time.
func verifySignature(cfg SignatureConfig, secret string, body []byte, header string) error {
	if header == "" {
		return errors.New("missing signature header")
	}

	// Strip an "algorithm=" prefix if present.
	if rest, ok := strings.CutPrefix(header, cfg.Algorithm+"="); ok {
		header = rest
	}

	var newHash func() hash.Hash
	switch cfg.Algorithm {
	case "sha1":
		newHash = sha1.New
	case "sha256":
		newHash = sha256.New
	case "sha512":
		newHash = sha512.New
	default:
		return errors.Errorf("unsupported signature algorithm: %q", cfg.Algorithm)
	}

	var provided []byte
	var err error
	switch cfg.Encoding {
	case "hex":
		provided, err = hex.DecodeString(header)
	case "base64":
		provided, err = base64.StdEncoding.DecodeString(header)
	default:
		return errors.Errorf("unsupported signature encoding: %q", cfg.Encoding)
	}
	if err != nil {
		return errors.Wrap(err, "decode signature")
	}

	mac := hmac.New(newHash, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), provided) {
		return errors.New("signature mismatch")
	}
	return nil
}
