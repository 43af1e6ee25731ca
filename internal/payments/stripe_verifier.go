package payments

import (
	"context"
	"errors"
	"net/http"

	"github.com/stripe/stripe-go/v84"

	"github.com/clodamigoles/dossiers.vevo/pkg/enums"
	pkgstripe "github.com/clodamigoles/dossiers.vevo/pkg/stripe"
)

// stripeReferenceKey is the PaymentIntent metadata key the checkout sets to the record id.
const stripeReferenceKey = "estimationId"

type paymentIntentGetter interface {
	PaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
}

// StripeVerifier confirms that a PaymentIntent settled the exact fee.
type StripeVerifier struct {
	intents paymentIntentGetter
}

func NewStripeVerifier(client *pkgstripe.Client) (*StripeVerifier, error) {
	if client == nil {
		return nil, errors.New("stripe client required")
	}
	return &StripeVerifier{intents: client}, nil
}

func (v *StripeVerifier) Verify(ctx context.Context, req VerifyRequest) (*Verification, error) {
	method := enums.PaymentMethodStripe
	intent, err := v.intents.PaymentIntent(ctx, req.PaymentID)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && (stripeErr.HTTPStatusCode == http.StatusNotFound || stripeErr.Code == stripe.ErrorCodeResourceMissing) {
			return rejected(method, "", ReasonNotFound), nil
		}
		return nil, err
	}

	status := string(intent.Status)
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return rejected(method, status, ReasonNotSettled), nil
	}
	if !sameCurrency(string(intent.Currency), req.Currency) {
		return rejected(method, status, ReasonCurrencyMismatch), nil
	}
	// amounts are in the currency's minor unit
	expected := req.Amount.Shift(2)
	if !expected.IsInteger() || intent.AmountReceived != expected.IntPart() {
		return rejected(method, status, ReasonAmountMismatch), nil
	}
	if otherReference(intent.Metadata[stripeReferenceKey], req.Reference) {
		return rejected(method, status, ReasonReferenceMismatch), nil
	}
	return &Verification{Verified: true, Method: method, ProviderStatus: status}, nil
}
