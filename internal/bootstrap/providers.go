package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/clodamigoles/dossiers.vevo/internal/notifications"
	"github.com/clodamigoles/dossiers.vevo/internal/payments"
	"github.com/clodamigoles/dossiers.vevo/pkg/config"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
	"github.com/clodamigoles/dossiers.vevo/pkg/mailer"
	"github.com/clodamigoles/dossiers.vevo/pkg/mercadopago"
	"github.com/clodamigoles/dossiers.vevo/pkg/storage"
	"github.com/clodamigoles/dossiers.vevo/pkg/storage/gcs"
	"github.com/clodamigoles/dossiers.vevo/pkg/storage/s3"
	"github.com/clodamigoles/dossiers.vevo/pkg/stripe"
)

// NewNotifier builds the SMTP backed email service shared by the API and the cron worker.
func NewNotifier(cfg *config.Config, history notifications.HistoryStore, logg *logger.Logger) (*notifications.Service, error) {
	sender, err := mailer.NewSMTPSender(cfg.SMTP)
	if err != nil {
		return nil, fmt.Errorf("create smtp sender: %w", err)
	}
	fee, err := cfg.Payments.Fee()
	if err != nil {
		return nil, err
	}
	return notifications.NewService(notifications.Params{
		Sender:        sender,
		History:       history,
		PublicBaseURL: cfg.App.PublicBaseURL,
		CodeTTL:       cfg.Session.CodeTTL,
		Fee:           fee,
		Currency:      cfg.Payments.Currency,
		Logger:        logg,
	})
}

// NewObjectStore returns the photo bucket client for VEVO_STORAGE_PROVIDER.
func NewObjectStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (storage.ObjectStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Provider)) {
	case config.StorageProviderS3, "":
		client, err := s3.NewClient(ctx, cfg.S3, logg)
		if err != nil {
			return nil, fmt.Errorf("create s3 client: %w", err)
		}
		return client, nil
	case config.StorageProviderGCS:
		client, err := gcs.NewClient(ctx, cfg.GCS, logg)
		if err != nil {
			return nil, fmt.Errorf("create gcs client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", cfg.Storage.Provider)
	}
}

// NewPaymentVerifier returns the provider client that confirms fee payments.
func NewPaymentVerifier(ctx context.Context, cfg *config.Config, logg *logger.Logger) (payments.Verifier, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Payments.Provider)) {
	case config.PaymentProviderStripe, "":
		client, err := stripe.NewClient(ctx, cfg.Stripe, logg)
		if err != nil {
			return nil, fmt.Errorf("create stripe client: %w", err)
		}
		verifier, err := payments.NewStripeVerifier(client)
		if err != nil {
			return nil, err
		}
		return verifier, nil
	case config.PaymentProviderMercadoPago:
		client, err := mercadopago.NewClient(ctx, cfg.MercadoPago, logg)
		if err != nil {
			return nil, fmt.Errorf("create mercadopago client: %w", err)
		}
		verifier, err := payments.NewMercadoPagoVerifier(client)
		if err != nil {
			return nil, err
		}
		return verifier, nil
	default:
		return nil, fmt.Errorf("unsupported payment provider %q", cfg.Payments.Provider)
	}
}
