// Package webhook implements a reusable ingestion pipeline for payment
// provider callbacks: HMAC signature verification over the raw body,
// required-field validation, allow-list sanitization, and bounded retries
// around a provider-specific processor.
package webhook

import (
	"context"
	"net/http"
	"time"
)

// Signature header and algorithm defaults, used when a Config leaves the
// corresponding SignatureConfig fields empty.
const (
	DefaultAlgorithm = "sha256"
	DefaultHeader    = "x-signature"
	DefaultEncoding  = "hex"
)

// Retry defaults applied when a Config leaves RetryConfig zeroed.
const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = time.Second
	DefaultMaxDelay     = 30 * time.Second
)

// SignatureConfig describes how a provider signs its callbacks.
type SignatureConfig struct {
	// Algorithm is the HMAC hash: "sha1", "sha256" or "sha512".
	Algorithm string
	// Header is the request header carrying the signature.
	Header string
	// Encoding is how the signature bytes are encoded: "hex" or "base64".
	Encoding string
}

// RetryConfig bounds the retry loop around the processor.
type RetryConfig struct {
	// MaxAttempts is the total number of processor invocations, including
	// the first one.
	MaxAttempts int
	// InitialDelay is the backoff floor before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration
}

// Config is the static, per-integration pipeline configuration.
type Config struct {
	// Provider names the integration; it keys every logged event and metric.
	Provider string
	// Secret is the shared HMAC secret. When empty, signature verification
	// is skipped entirely.
	Secret string
	// Signature tunes signature verification. Zero values take the
	// package defaults.
	Signature SignatureConfig
	// RequiredFields lists dot-paths (e.g. "sponsorship.id") that must
	// resolve to a non-null value in the parsed body.
	RequiredFields []string
	// AllowedFields lists the top-level keys the processor is allowed to
	// see; everything else is dropped before processing.
	AllowedFields []string
	// Retry bounds the processor retry loop.
	Retry RetryConfig
}

// withDefaults returns a copy of the config with zero fields filled in.
func (c Config) withDefaults() Config {
	if c.Signature.Algorithm == "" {
		c.Signature.Algorithm = DefaultAlgorithm
	}
	if c.Signature.Header == "" {
		c.Signature.Header = DefaultHeader
	}
	if c.Signature.Encoding == "" {
		c.Signature.Encoding = DefaultEncoding
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if c.Retry.InitialDelay <= 0 {
		c.Retry.InitialDelay = DefaultInitialDelay
	}
	if c.Retry.MaxDelay <= 0 {
		c.Retry.MaxDelay = DefaultMaxDelay
	}
	return c
}

// Context carries one inbound callback through the pipeline. Body holds the
// sanitized payload; RawBody is the unmodified request body the signature
// was verified against.
type Context struct {
	RawBody []byte
	Body    map[string]any
	Headers http.Header
}

// Processor executes the provider-specific side effect for a verified,
// sanitized callback. Returned values are serialized into the response
// envelope's data field. Errors are treated as transient and retried.
type Processor interface {
	Process(ctx context.Context, wc *Context) (any, error)
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, wc *Context) (any, error)

// Process implements Processor.
func (f ProcessorFunc) Process(ctx context.Context, wc *Context) (any, error) {
	return f(ctx, wc)
}
