package mercadopago

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"

	"github.com/clodamigoles/dossiers.vevo/pkg/config"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
)

var errAccessTokenRequired = errors.New("mercado pago access token is required")

// Client holds the Mercado Pago payments API client.
type Client struct {
	payments payment.Client
	sandbox  bool
}

func NewClient(ctx context.Context, cfg config.MercadoPagoConfig, logg *logger.Logger) (*Client, error) {
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, errAccessTokenRequired
	}

	sdkCfg, err := mpconfig.New(token)
	if err != nil {
		return nil, fmt.Errorf("creating mercado pago config: %w", err)
	}

	sandbox := strings.HasPrefix(token, "TEST-")
	if logg != nil {
		logg.Info(logg.WithField(ctx, "sandbox", sandbox), "mercado pago client initialized")
	}

	return &Client{payments: payment.NewClient(sdkCfg), sandbox: sandbox}, nil
}

// Payments returns the payments API used to look up settled payments.
func (c *Client) Payments() payment.Client {
	if c == nil {
		return nil
	}
	return c.payments
}

// Sandbox reports whether the access token belongs to a test account.
func (c *Client) Sandbox() bool {
	return c != nil && c.sandbox
}
