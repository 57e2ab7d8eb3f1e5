package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/jpillora/backoff"
	"go.uber.org/zap"

	"github.com/xenking/summit-checkout/internal/monitor"
)

// Terminal pipeline outcomes, used for both structured logs and metrics.
const (
	outcomeSignatureInvalid = "signature_invalid"
	outcomePayloadInvalid   = "payload_invalid"
	outcomeProcessed        = "processed"
	outcomeError            = "error"
)

// maxBodyBytes bounds inbound callback bodies.
const maxBodyBytes = 1 << 20

// Envelope is the uniform response body for every webhook endpoint.
type Envelope struct {
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	Data       any    `json:"data,omitempty"`
	Timestamp  string `json:"timestamp"`
	StatusCode int    `json:"statusCode"`
}

// Handler drives one provider's callbacks through the ingestion pipeline:
// signature check, payload validation, sanitization, processing with retry,
// response envelope. Each request is handled statelessly in a single pass.
type Handler struct {
	cfg     Config
	proc    Processor
	metrics *monitor.Monitor
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewHandler builds a Handler for one provider integration. Zero config
// fields take the package defaults.
func NewHandler(cfg Config, proc Processor, metrics *monitor.Monitor) *Handler {
	return &Handler{
		cfg:     cfg.withDefaults(),
		proc:    proc,
		metrics: metrics,
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

// ServeHTTP implements http.Handler. GET is a static health check that never
// touches payment state; POST runs the pipeline.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.respond(w, http.StatusOK, Envelope{
			Success: true,
			Message: h.cfg.Provider + " webhook endpoint is active",
		})
	case http.MethodPost:
		h.handlePost(w, r)
	default:
		h.respond(w, http.StatusMethodNotAllowed, Envelope{
			Success: false,
			Message: "method not allowed",
		})
	}
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lg := zctx.From(ctx).With(zap.String("provider", h.cfg.Provider))

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.terminate(ctx, lg, outcomeError, zap.Error(err))
		h.respond(w, http.StatusInternalServerError, Envelope{
			Success: false,
			Message: "internal server error",
		})
		return
	}

	// Signature check runs over the raw, unparsed body.
	if h.cfg.Secret != "" {
		sig := r.Header.Get(h.cfg.Signature.Header)
		if err := verifySignature(h.cfg.Signature, h.cfg.Secret, raw, sig); err != nil {
			h.terminate(ctx, lg, outcomeSignatureInvalid, zap.Error(err))
			h.respond(w, http.StatusUnauthorized, Envelope{
				Success: false,
				Message: "invalid signature",
			})
			return
		}
	}

	// Body parse failures are infrastructure faults, not business
	// rejections: generic 500, no retry.
	if !jx.Valid(raw) {
		h.terminate(ctx, lg, outcomeError, zap.String("reason", "malformed JSON body"))
		h.respond(w, http.StatusInternalServerError, Envelope{
			Success: false,
			Message: "internal server error",
		})
		return
	}
	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		h.terminate(ctx, lg, outcomeError, zap.Error(err))
		h.respond(w, http.StatusInternalServerError, Envelope{
			Success: false,
			Message: "internal server error",
		})
		return
	}

	if err := checkRequiredFields(parsed, h.cfg.RequiredFields); err != nil {
		h.terminate(ctx, lg, outcomePayloadInvalid, zap.String("reason", err.Error()))
		h.respond(w, http.StatusBadRequest, Envelope{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	wc := &Context{
		RawBody: raw,
		Body:    sanitize(parsed, h.cfg.AllowedFields),
		Headers: r.Header,
	}

	result, err := h.processWithRetry(ctx, wc)
	if err != nil {
		h.terminate(ctx, lg, outcomeError, zap.Error(err))
		h.respond(w, http.StatusInternalServerError, Envelope{
			Success: false,
			Message: "webhook processing failed",
		})
		return
	}

	h.terminate(ctx, lg, outcomeProcessed)
	h.respond(w, http.StatusOK, Envelope{
		Success: true,
		Message: "webhook processed",
		Data:    result,
	})
}

// processWithRetry invokes the processor up to Retry.MaxAttempts times with
// exponential backoff and jitter between attempts. Only the processor is
// retried; signature and payload rejections are deterministic and short-
// circuit before this point. The returned error carries the last attempt's
// underlying error.
func (h *Handler) processWithRetry(ctx context.Context, wc *Context) (any, error) {
	bo := &backoff.Backoff{
		Min:    h.cfg.Retry.InitialDelay,
		Max:    h.cfg.Retry.MaxDelay,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 1; attempt <= h.cfg.Retry.MaxAttempts; attempt++ {
		result, err := h.proc.Process(ctx, wc)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt < h.cfg.Retry.MaxAttempts {
			zctx.From(ctx).Warn("Webhook processor failed, retrying",
				zap.String("provider", h.cfg.Provider),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			if err := h.sleep(ctx, bo.Duration()); err != nil {
				return nil, err
			}
		}
	}
	return nil, errors.Wrapf(lastErr, "webhook processing failed after %d attempts", h.cfg.Retry.MaxAttempts)
}

// terminate logs a terminal pipeline outcome and records it as a metric.
// This log stream is the only audit trail for webhook deliveries.
func (h *Handler) terminate(ctx context.Context, lg *zap.Logger, outcome string, fields ...zap.Field) {
	lg.Info("Webhook "+outcome,
		append([]zap.Field{zap.String("event", outcome)}, fields...)...)
	h.metrics.WebhookEvent(ctx, h.cfg.Provider, outcome)
}

func (h *Handler) respond(w http.ResponseWriter, status int, env Envelope) {
	env.Timestamp = h.now().UTC().Format(time.RFC3339)
	env.StatusCode = status
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// sleepCtx waits for d or until ctx is cancelled, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
