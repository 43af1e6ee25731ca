package payments

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/clodamigoles/dossiers.vevo/pkg/enums"
)

// Rejection reasons reported when a provider does not confirm the fee.
const (
	ReasonNotFound          = "payment_not_found"
	ReasonNotSettled        = "payment_not_settled"
	ReasonAmountMismatch    = "amount_mismatch"
	ReasonCurrencyMismatch  = "currency_mismatch"
	ReasonInvalidPaymentID  = "invalid_payment_id"
	ReasonSaleNotCompleted  = "sale_not_completed"
	ReasonPaymentReused     = "payment_already_used"
	ReasonReferenceMismatch = "reference_mismatch"
)

// VerifyRequest describes the fee expected for one record. Reference is the
// record id; providers that echo a reference back must echo this one.
type VerifyRequest struct {
	PaymentID string
	PayerID   string
	Reference string
	Amount    decimal.Decimal
	Currency  string
}

// Verification is the provider's answer. A nil error with Verified=false is a
// definitive rejection; an error means the provider could not be asked.
type Verification struct {
	Verified       bool
	Reason         string
	ProviderStatus string
	Method         enums.PaymentMethod
}

type Verifier interface {
	Verify(ctx context.Context, req VerifyRequest) (*Verification, error)
}

func rejected(method enums.PaymentMethod, status, reason string) *Verification {
	return &Verification{Method: method, ProviderStatus: status, Reason: reason}
}

// otherReference reports whether the provider tagged the payment for a different record.
func otherReference(got, want string) bool {
	got = strings.TrimSpace(got)
	return got != "" && want != "" && got != want
}

func sameCurrency(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
