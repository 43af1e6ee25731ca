package payments

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
)

type stubIntents struct {
	intent *stripe.PaymentIntent
	err    error
}

func (s stubIntents) PaymentIntent(context.Context, string) (*stripe.PaymentIntent, error) {
	return s.intent, s.err
}

type stubPayments struct {
	resp   *payment.Response
	err    error
	lastID int
}

func (s *stubPayments) Get(_ context.Context, id int) (*payment.Response, error) {
	s.lastID = id
	return s.resp, s.err
}

func feeRequest(id string) VerifyRequest {
	return VerifyRequest{PaymentID: id, Reference: "rec-1", Amount: decimal.RequireFromString("49.00"), Currency: "EUR"}
}

func TestStripeVerifier(t *testing.T) {
	cases := []struct {
		name     string
		intent   *stripe.PaymentIntent
		err      error
		verified bool
		reason   string
		wantErr  bool
	}{
		{
			name:     "succeeded with exact amount",
			intent:   &stripe.PaymentIntent{Status: stripe.PaymentIntentStatusSucceeded, AmountReceived: 4900, Currency: "eur"},
			verified: true,
		},
		{
			name:   "still processing",
			intent: &stripe.PaymentIntent{Status: stripe.PaymentIntentStatusProcessing, AmountReceived: 0, Currency: "eur"},
			reason: ReasonNotSettled,
		},
		{
			name:   "wrong amount",
			intent: &stripe.PaymentIntent{Status: stripe.PaymentIntentStatusSucceeded, AmountReceived: 100, Currency: "eur"},
			reason: ReasonAmountMismatch,
		},
		{
			name:   "wrong currency",
			intent: &stripe.PaymentIntent{Status: stripe.PaymentIntentStatusSucceeded, AmountReceived: 4900, Currency: "usd"},
			reason: ReasonCurrencyMismatch,
		},
		{
			name: "tagged for another record",
			intent: &stripe.PaymentIntent{
				Status:         stripe.PaymentIntentStatusSucceeded,
				AmountReceived: 4900,
				Currency:       "eur",
				Metadata:       map[string]string{"estimationId": "rec-2"},
			},
			reason: ReasonReferenceMismatch,
		},
		{
			name: "tagged for this record",
			intent: &stripe.PaymentIntent{
				Status:         stripe.PaymentIntentStatusSucceeded,
				AmountReceived: 4900,
				Currency:       "eur",
				Metadata:       map[string]string{"estimationId": "rec-1"},
			},
			verified: true,
		},
		{
			name:   "unknown intent",
			err:    &stripe.Error{HTTPStatusCode: http.StatusNotFound, Code: stripe.ErrorCodeResourceMissing},
			reason: ReasonNotFound,
		},
		{
			name:    "network failure",
			err:     errors.New("connection reset"),
			wantErr: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := &StripeVerifier{intents: stubIntents{intent: tc.intent, err: tc.err}}
			got, err := v.Verify(context.Background(), feeRequest("pi_1"))
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.verified, got.Verified)
			assert.Equal(t, tc.reason, got.Reason)
		})
	}
}

func TestMercadoPagoVerifier(t *testing.T) {
	stub := &stubPayments{resp: &payment.Response{ID: 77, Status: "approved", TransactionAmount: 49, CurrencyID: "EUR"}}
	v := &MercadoPagoVerifier{payments: stub}

	got, err := v.Verify(context.Background(), feeRequest("77"))
	require.NoError(t, err)
	assert.True(t, got.Verified)
	assert.Equal(t, 77, stub.lastID)

	stub.resp = &payment.Response{ID: 77, Status: "pending", TransactionAmount: 49, CurrencyID: "EUR"}
	got, err = v.Verify(context.Background(), feeRequest("77"))
	require.NoError(t, err)
	assert.Equal(t, ReasonNotSettled, got.Reason)

	stub.resp = &payment.Response{ID: 77, Status: "approved", TransactionAmount: 12.5, CurrencyID: "EUR"}
	got, err = v.Verify(context.Background(), feeRequest("77"))
	require.NoError(t, err)
	assert.Equal(t, ReasonAmountMismatch, got.Reason)

	stub.resp = &payment.Response{ID: 77, Status: "approved", TransactionAmount: 49, CurrencyID: "EUR", ExternalReference: "rec-2"}
	got, err = v.Verify(context.Background(), feeRequest("77"))
	require.NoError(t, err)
	assert.Equal(t, ReasonReferenceMismatch, got.Reason)

	got, err = v.Verify(context.Background(), feeRequest("pay-abc"))
	require.NoError(t, err)
	assert.Equal(t, ReasonInvalidPaymentID, got.Reason)

	stub.err = errors.New("503")
	_, err = v.Verify(context.Background(), feeRequest("77"))
	assert.Error(t, err)
}
