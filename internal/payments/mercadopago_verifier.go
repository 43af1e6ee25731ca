package payments

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/shopspring/decimal"

	"github.com/clodamigoles/dossiers.vevo/pkg/enums"
	pkgmp "github.com/clodamigoles/dossiers.vevo/pkg/mercadopago"
)

const mercadoPagoApproved = "approved"

type paymentGetter interface {
	Get(ctx context.Context, id int) (*payment.Response, error)
}

// MercadoPagoVerifier confirms an approved payment for the exact fee.
type MercadoPagoVerifier struct {
	payments paymentGetter
}

func NewMercadoPagoVerifier(client *pkgmp.Client) (*MercadoPagoVerifier, error) {
	if client == nil || client.Payments() == nil {
		return nil, errors.New("mercado pago client required")
	}
	return &MercadoPagoVerifier{payments: client.Payments()}, nil
}

func (v *MercadoPagoVerifier) Verify(ctx context.Context, req VerifyRequest) (*Verification, error) {
	method := enums.PaymentMethodMercadoPago
	id, err := strconv.Atoi(strings.TrimSpace(req.PaymentID))
	if err != nil || id <= 0 {
		return rejected(method, "", ReasonInvalidPaymentID), nil
	}

	resp, err := v.payments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.ID == 0 {
		return rejected(method, "", ReasonNotFound), nil
	}
	if resp.Status != mercadoPagoApproved {
		return rejected(method, resp.Status, ReasonNotSettled), nil
	}
	if !sameCurrency(resp.CurrencyID, req.Currency) {
		return rejected(method, resp.Status, ReasonCurrencyMismatch), nil
	}
	if !decimal.NewFromFloat(resp.TransactionAmount).Equal(req.Amount) {
		return rejected(method, resp.Status, ReasonAmountMismatch), nil
	}
	if otherReference(resp.ExternalReference, req.Reference) {
		return rejected(method, resp.Status, ReasonReferenceMismatch), nil
	}
	return &Verification{Verified: true, Method: method, ProviderStatus: resp.Status}, nil
}
