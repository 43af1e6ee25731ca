package enums

import (
	"fmt"
	"strings"
)

// PaymentMethod names the provider that settled the processing fee. It is
// stored on the record once the fee is confirmed and empty before that.
type PaymentMethod string

const (
	PaymentMethodStripe      PaymentMethod = "stripe"
	PaymentMethodMercadoPago PaymentMethod = "mercadopago"
)

// paymentMethodLabels doubles as the set of known methods.
var paymentMethodLabels = map[PaymentMethod]string{
	PaymentMethodStripe:      "Stripe",
	PaymentMethodMercadoPago: "Mercado Pago",
}

func (p PaymentMethod) String() string {
	return string(p)
}

func (p PaymentMethod) IsValid() bool {
	_, ok := paymentMethodLabels[p]
	return ok
}

// Label is the provider name shown to sellers and admins.
func (p PaymentMethod) Label() string {
	if label, ok := paymentMethodLabels[p]; ok {
		return label
	}
	return string(p)
}

// ParsePaymentMethod accepts a known method in any letter case.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	if p := PaymentMethod(strings.ToLower(strings.TrimSpace(value))); p.IsValid() {
		return p, nil
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
