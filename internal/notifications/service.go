// Package notifications renders and sends the seller emails. The access code
// email is transactional; every other email is best effort and recorded in the
// record's email history.
package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clodamigoles/dossiers.vevo/internal/sales"
	"github.com/clodamigoles/dossiers.vevo/pkg/enums"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
	"github.com/clodamigoles/dossiers.vevo/pkg/mailer"
)

const (
	SubjectAuthCode        = "Code d'accès - Dossiers Vevo"
	SubjectSaleStarted     = "Dossier de vente créé avec succès"
	SubjectEstimation      = "Votre estimation est prête - Dossiers Vevo"
	SubjectReminder        = "Votre estimation expire bientôt - Dossiers Vevo"
	SubjectClientFound     = "Un acheteur a été trouvé - Dossiers Vevo"
	SubjectPaymentReceived = "Confirmation de paiement - Dossiers Vevo"

	dateLayout = "02/01/2006"
)

// HistoryStore records the outcome of every informational email.
type HistoryStore interface {
	AppendEmailEvent(ctx context.Context, id uuid.UUID, event sales.EmailEvent) error
}

type Params struct {
	Sender        mailer.Sender
	History       HistoryStore
	PublicBaseURL string
	CodeTTL       time.Duration
	Fee           decimal.Decimal
	Currency      string
	Logger        *logger.Logger
}

type Service struct {
	sender   mailer.Sender
	history  HistoryStore
	baseURL  string
	codeTTL  time.Duration
	fee      decimal.Decimal
	currency string
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params Params) (*Service, error) {
	if params.Sender == nil {
		return nil, fmt.Errorf("email sender required")
	}
	if params.History == nil {
		return nil, fmt.Errorf("record repository required")
	}
	ttl := params.CodeTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Service{
		sender:   params.Sender,
		history:  params.History,
		baseURL:  strings.TrimRight(params.PublicBaseURL, "/"),
		codeTTL:  ttl,
		fee:      params.Fee,
		currency: strings.ToUpper(params.Currency),
		logg:     params.Logger,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// SendAuthCode returns delivery errors to the caller.
func (s *Service) SendAuthCode(ctx context.Context, rec *sales.Record, code string) error {
	data := s.baseData(rec, SubjectAuthCode)
	data.Code = code
	data.CodeMinutes = int(s.codeTTL / time.Minute)
	html, err := render(tmplAuthCode, data)
	if err != nil {
		return err
	}
	_, err = s.sender.Send(ctx, mailer.Message{To: rec.Email, Subject: SubjectAuthCode, HTML: html})
	return err
}

func (s *Service) SaleStarted(ctx context.Context, rec *sales.Record) {
	s.deliver(ctx, rec, enums.EmailTypeSaleUpdate, tmplSaleStarted, s.baseData(rec, SubjectSaleStarted))
}

func (s *Service) EstimationSent(ctx context.Context, rec *sales.Record) {
	s.deliver(ctx, rec, enums.EmailTypeEstimation, tmplEstimation, s.offerData(rec, SubjectEstimation))
}

// Reminder reports failure so the caller can retry on its next run.
func (s *Service) Reminder(ctx context.Context, rec *sales.Record) error {
	return s.deliver(ctx, rec, enums.EmailTypeReminder, tmplReminder, s.offerData(rec, SubjectReminder))
}

func (s *Service) ClientFound(ctx context.Context, rec *sales.Record) {
	s.deliver(ctx, rec, enums.EmailTypeSaleUpdate, tmplClientFound, s.baseData(rec, SubjectClientFound))
}

func (s *Service) PaymentReceived(ctx context.Context, rec *sales.Record) {
	data := s.baseData(rec, SubjectPaymentReceived)
	data.PaymentID = rec.Payment.PaymentID
	if rec.Payment.PaymentMethod != "" {
		data.Provider = rec.Payment.PaymentMethod.Label()
	}
	if rec.Payment.FeesAmount != nil {
		data.Fee = formatAmount(*rec.Payment.FeesAmount, s.currency)
	}
	s.deliver(ctx, rec, enums.EmailTypeSaleUpdate, tmplPaymentReceived, data)
}

func (s *Service) deliver(ctx context.Context, rec *sales.Record, kind enums.EmailType, tmpl string, data emailData) error {
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"estimation_id": rec.ID.String(),
		"email_type":    kind.String(),
	})
	event := sales.EmailEvent{Type: kind, SentAt: s.now(), Subject: data.Subject}

	html, err := render(tmpl, data)
	if err == nil {
		var res mailer.Result
		res, err = s.sender.Send(ctx, mailer.Message{To: rec.Email, Subject: data.Subject, HTML: html})
		event.MessageID = res.MessageID
	}
	if err != nil {
		event.ErrorMessage = err.Error()
		s.logg.Error(logCtx, "notifications.email_failed", err)
	} else {
		event.Success = true
		s.logg.Info(logCtx, "notifications.email_sent")
	}

	if histErr := s.history.AppendEmailEvent(ctx, rec.ID, event); histErr != nil {
		s.logg.Warn(s.logg.WithField(logCtx, "error", histErr.Error()), "notifications.history_append_failed")
	}
	return err
}

func (s *Service) baseData(rec *sales.Record, subject string) emailData {
	id := rec.ID.String()
	return emailData{
		Subject:       subject,
		Name:          rec.DisplayName(),
		RecordID:      id,
		Vehicle:       vehicleLabel(rec.Vehicle),
		Fee:           formatAmount(s.fee, s.currency),
		AuthURL:       s.baseURL + sales.AuthPath(rec.ID),
		EstimationURL: s.baseURL + "/estimation/" + id,
		DashboardURL:  s.baseURL + "/dashboard/" + id,
	}
}

func (s *Service) offerData(rec *sales.Record, subject string) emailData {
	data := s.baseData(rec, subject)
	data.DaysRemaining = rec.DaysRemaining
	if est := rec.AdminEstimation; est != nil {
		data.Price = est.FinalPrice.StringFixed(2)
		data.Message = est.Message
		data.Conditions = est.Conditions
		if est.ValidUntil != nil {
			data.ValidUntil = est.ValidUntil.Format(dateLayout)
		}
	}
	return data
}

func vehicleLabel(v sales.Vehicle) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{v.Brand, v.Model} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if v.Year > 0 {
		parts = append(parts, fmt.Sprintf("(%d)", v.Year))
	}
	if len(parts) == 0 {
		return "véhicule"
	}
	return strings.Join(parts, " ")
}

func formatAmount(amount decimal.Decimal, currency string) string {
	if currency == "" || currency == "EUR" {
		return amount.StringFixed(2) + " €"
	}
	return amount.StringFixed(2) + " " + currency
}
