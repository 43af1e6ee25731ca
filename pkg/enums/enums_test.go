package enums

import "testing"

func TestParseSaleStatus(t *testing.T) {
	got, err := ParseSaleStatus("under_review")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != SaleStatusUnderReview {
		t.Fatalf("expected under_review, got %s", got)
	}
	if _, err := ParseSaleStatus("shipped"); err == nil {
		t.Fatal("expected error for unknown sale status")
	}
}

func TestPhotoTypeIsValid(t *testing.T) {
	if !PhotoTypeInterior.IsValid() || !PhotoTypeExterior.IsValid() {
		t.Fatal("expected interior and exterior to be valid")
	}
	if PhotoType("engine").IsValid() {
		t.Fatal("engine should not be a valid photo type")
	}
}

func TestParseEstimationStatusIsCaseSensitive(t *testing.T) {
	if _, err := ParseEstimationStatus("SENT"); err == nil {
		t.Fatal("expected uppercase status to be rejected")
	}
}

func TestParsePaymentMethod(t *testing.T) {
	got, err := ParsePaymentMethod(" Stripe ")
	if err != nil || got != PaymentMethodStripe {
		t.Fatalf("expected stripe, got %q (%v)", got, err)
	}
	if _, err := ParsePaymentMethod("paypal"); err == nil {
		t.Fatal("expected error for unknown payment method")
	}
	if PaymentMethodMercadoPago.Label() != "Mercado Pago" {
		t.Fatalf("unexpected label %q", PaymentMethodMercadoPago.Label())
	}
	if PaymentMethod("cash").Label() != "cash" {
		t.Fatal("unknown methods should fall back to their raw value")
	}
}
