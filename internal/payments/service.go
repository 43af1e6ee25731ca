package payments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clodamigoles/dossiers.vevo/internal/sales"
	"github.com/clodamigoles/dossiers.vevo/pkg/enums"
	pkgerrors "github.com/clodamigoles/dossiers.vevo/pkg/errors"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
)

type recordStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*sales.Record, error)
	MarkFeesPaid(ctx context.Context, id uuid.UUID, update sales.PaymentUpdate) (bool, error)
}

// Receipts is told about a recorded payment. Delivery is best effort.
type Receipts interface {
	PaymentReceived(ctx context.Context, rec *sales.Record)
}

// Service records the processing fee once a buyer has been found.
type Service interface {
	Confirm(ctx context.Context, input ConfirmInput) (*PaymentRecorded, error)
}

type ConfirmInput struct {
	RecordID     uuid.UUID
	SessionEmail string
	PaymentID    string
	PayerID      string
}

type PaymentRecorded struct {
	EstimationID  uuid.UUID           `json:"estimationId"`
	Amount        decimal.Decimal     `json:"amount"`
	Currency      string              `json:"currency"`
	PaidAt        time.Time           `json:"paidAt"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	PaymentID     string              `json:"paymentId"`
	SaleStatus    enums.SaleStatus    `json:"saleStatus"`
}

type NotReadyDetails struct {
	Reason string `json:"reason"`
}

type ServiceParams struct {
	Records  recordStore
	Verifier Verifier
	Receipts Receipts
	Fee      decimal.Decimal
	Currency string
	Logger   *logger.Logger
}

type service struct {
	records  recordStore
	verifier Verifier
	receipts Receipts
	fee      decimal.Decimal
	currency string
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Records == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "record repository required")
	}
	if params.Verifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment verifier required")
	}
	if !params.Fee.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fee must be greater than zero")
	}
	currency := strings.ToUpper(strings.TrimSpace(params.Currency))
	if currency == "" {
		currency = "EUR"
	}
	return &service{
		records:  params.Records,
		verifier: params.Verifier,
		receipts: params.Receipts,
		fee:      params.Fee,
		currency: currency,
		logg:     params.Logger,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Confirm(ctx context.Context, input ConfirmInput) (*PaymentRecorded, error) {
	paymentID := strings.TrimSpace(input.PaymentID)
	if paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paymentId is required")
	}

	rec, err := s.records.FindByID(ctx, input.RecordID)
	if err != nil {
		return nil, sales.StoreError(err, "load estimation")
	}
	if err := payable(rec); err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"estimation_id": rec.ID.String(),
		"payment_id":    paymentID,
		"session_email": input.SessionEmail,
	})

	verification, err := s.verifier.Verify(ctx, VerifyRequest{
		PaymentID: paymentID,
		PayerID:   input.PayerID,
		Reference: rec.ID.String(),
		Amount:    s.fee,
		Currency:  s.currency,
	})
	if err != nil {
		s.logg.Error(logCtx, "payments.verification_unavailable", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment provider unavailable")
	}
	if !verification.Verified {
		s.logg.Warn(s.logg.WithField(logCtx, "reason", verification.Reason), "payments.verification_rejected")
		return nil, notReady(verification.Reason)
	}

	paidAt := s.now()
	update := sales.PaymentUpdate{
		Amount:    s.fee,
		PaidAt:    paidAt,
		Method:    verification.Method,
		PaymentID: paymentID,
		Details: map[string]any{
			"payerId":        input.PayerID,
			"providerStatus": verification.ProviderStatus,
			"verified":       true,
			"verifiedAt":     paidAt.Format(time.RFC3339),
			"currency":       s.currency,
		},
	}
	ok, err := s.records.MarkFeesPaid(ctx, rec.ID, update)
	if errors.Is(err, sales.ErrPaymentReused) {
		s.logg.Warn(logCtx, "payments.payment_reused")
		return nil, notReady(ReasonPaymentReused)
	}
	if err != nil {
		return nil, sales.StoreError(err, "record payment")
	}
	if !ok {
		// another request changed the record between the read and the write
		current, err := s.records.FindByID(ctx, rec.ID)
		if err != nil {
			return nil, sales.StoreError(err, "reload estimation")
		}
		if err := payable(current); err != nil {
			return nil, err
		}
		return nil, notReady(ReasonSaleNotCompleted)
	}

	s.logg.Info(logCtx, "payments.fees_recorded")
	if s.receipts != nil {
		if paid, err := s.records.FindByID(ctx, rec.ID); err == nil {
			s.receipts.PaymentReceived(ctx, paid)
		} else if !errors.Is(err, sales.ErrNotFound) {
			s.logg.Warn(logCtx, "payments.receipt_reload_failed")
		}
	}

	return &PaymentRecorded{
		EstimationID:  rec.ID,
		Amount:        s.fee,
		Currency:      s.currency,
		PaidAt:        paidAt,
		PaymentMethod: verification.Method,
		PaymentID:     paymentID,
		SaleStatus:    enums.SaleStatusPaid,
	}, nil
}

func payable(rec *sales.Record) error {
	if rec.Payment.FeesPaid {
		return pkgerrors.New(pkgerrors.CodeAlreadyPaid, "fees already paid")
	}
	if rec.SaleStatus != enums.SaleStatusCompleted {
		return notReady(ReasonSaleNotCompleted)
	}
	return nil
}

func notReady(reason string) error {
	return pkgerrors.New(pkgerrors.CodeNotReady, "payment cannot be recorded yet").
		WithDetails(NotReadyDetails{Reason: reason})
}
