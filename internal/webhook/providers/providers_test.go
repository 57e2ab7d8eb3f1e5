package providers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/summit-checkout/internal/domain/payment"
	"github.com/xenking/summit-checkout/internal/webhook"
)

type paymentsSpy struct {
	approved  []string
	failed    []string
	sponsors  []payment.Sponsorship
	err       error
	duplicate bool
}

func (s *paymentsSpy) Approve(_ context.Context, id string) (*payment.Payment, error) {
	s.approved = append(s.approved, id)
	p := &payment.Payment{ID: id, Status: payment.StatusApproved}
	if s.duplicate {
		return p, payment.ErrAlreadyFinalized
	}
	return p, s.err
}

func (s *paymentsSpy) Fail(_ context.Context, id string) (*payment.Payment, error) {
	s.failed = append(s.failed, id)
	return &payment.Payment{ID: id, Status: payment.StatusFailed}, s.err
}

func (s *paymentsSpy) RecordSponsorship(_ context.Context, sp payment.Sponsorship) (*payment.Payment, error) {
	s.sponsors = append(s.sponsors, sp)
	return &payment.Payment{ID: "pay-gh", Method: payment.MethodGitHubSponsors}, s.err
}

func wc(t *testing.T, raw string) *webhook.Context {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &body))
	return &webhook.Context{RawBody: []byte(raw), Body: body}
}

func TestMercadoPago_Approved(t *testing.T) {
	spy := &paymentsSpy{}
	p := NewMercadoPago(spy)

	res, err := p.Process(context.Background(), wc(t, `{"action":"payment.approved","data":{"id":"pay-1"}}`))

	require.NoError(t, err)
	assert.Equal(t, []string{"pay-1"}, spy.approved)
	assert.Equal(t, "approved", res.(map[string]any)["status"])
}

func TestMercadoPago_Rejected(t *testing.T) {
	spy := &paymentsSpy{}
	p := NewMercadoPago(spy)

	_, err := p.Process(context.Background(), wc(t, `{"action":"payment.rejected","data":{"id":"pay-2"}}`))

	require.NoError(t, err)
	assert.Equal(t, []string{"pay-2"}, spy.failed)
}

func TestMercadoPago_IntermediateIgnored(t *testing.T) {
	spy := &paymentsSpy{}
	p := NewMercadoPago(spy)

	res, err := p.Process(context.Background(), wc(t, `{"action":"payment.created","data":{"id":"pay-3"}}`))

	require.NoError(t, err)
	assert.Empty(t, spy.approved)
	assert.Empty(t, spy.failed)
	assert.Equal(t, "payment.created", res.(map[string]any)["ignored"])
}

func TestMercadoPago_DuplicateDeliveryAcked(t *testing.T) {
	spy := &paymentsSpy{duplicate: true}
	p := NewMercadoPago(spy)

	res, err := p.Process(context.Background(), wc(t, `{"action":"payment.approved","data":{"id":"pay-1"}}`))

	require.NoError(t, err, "duplicate deliveries must not look like transient failures")
	assert.Equal(t, true, res.(map[string]any)["duplicate"])
}

func TestMercadoPago_NonStringID(t *testing.T) {
	p := NewMercadoPago(&paymentsSpy{})

	_, err := p.Process(context.Background(), wc(t, `{"action":"payment.approved","data":{"id":42}}`))

	require.Error(t, err)
}

func TestCrypto_Confirmed(t *testing.T) {
	spy := &paymentsSpy{}
	p := NewCrypto(spy)

	_, err := p.Process(context.Background(), wc(t, `{"event":{"type":"charge:confirmed","data":{"id":"pay-9"}}}`))

	require.NoError(t, err)
	assert.Equal(t, []string{"pay-9"}, spy.approved)
}

func TestCrypto_PendingIgnored(t *testing.T) {
	spy := &paymentsSpy{}
	p := NewCrypto(spy)

	_, err := p.Process(context.Background(), wc(t, `{"event":{"type":"charge:pending","data":{"id":"pay-9"}}}`))

	require.NoError(t, err)
	assert.Empty(t, spy.approved)
}

func TestGitHub_SponsorshipCreated(t *testing.T) {
	spy := &paymentsSpy{}
	p := NewGitHub(spy)

	raw := `{"action":"created","sponsorship":{"sponsor":{"login":"octocat"},"tier":{"monthly_price_in_cents":2500}}}`
	res, err := p.Process(context.Background(), wc(t, raw))

	require.NoError(t, err)
	require.Len(t, spy.sponsors, 1)
	assert.Equal(t, "octocat", spy.sponsors[0].Sponsor)
	assert.Equal(t, int64(2500), spy.sponsors[0].MonthlyCents)
	assert.Equal(t, "octocat", res.(map[string]any)["sponsor"])
}

func TestGitHub_CancellationIgnored(t *testing.T) {
	spy := &paymentsSpy{}
	p := NewGitHub(spy)

	raw := `{"action":"cancelled","sponsorship":{"sponsor":{"login":"octocat"},"tier":{"monthly_price_in_cents":2500}}}`
	_, err := p.Process(context.Background(), wc(t, raw))

	require.NoError(t, err)
	assert.Empty(t, spy.sponsors)
}

func TestGitHub_MalformedPayload(t *testing.T) {
	p := NewGitHub(&paymentsSpy{})

	_, err := p.Process(context.Background(), wc(t, `{"action":"created","sponsorship":{"sponsor":{},"tier":{}}}`))

	require.Error(t, err)
}

func TestProviderConfigs(t *testing.T) {
	mp := MercadoPagoConfig("s1")
	assert.Equal(t, "mercadopago", mp.Provider)
	assert.Empty(t, mp.Signature.Header, "defaults to x-signature in the pipeline")

	cr := CryptoConfig("s2")
	assert.Equal(t, "x-cc-webhook-signature", cr.Signature.Header)

	gh := GitHubConfig("s3")
	assert.Equal(t, "x-hub-signature-256", gh.Signature.Header)
	assert.Contains(t, gh.RequiredFields, "sponsorship.tier.monthly_price_in_cents")
}

func TestFinalize_PropagatesErrors(t *testing.T) {
	spy := &paymentsSpy{err: errors.New("repo down")}
	p := NewMercadoPago(spy)

	_, err := p.Process(context.Background(), wc(t, `{"action":"payment.approved","data":{"id":"x"}}`))

	require.Error(t, err)
}
