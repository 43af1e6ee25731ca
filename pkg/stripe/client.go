package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/clodamigoles/dossiers.vevo/pkg/config"
	"github.com/clodamigoles/dossiers.vevo/pkg/logger"
)

// Mode is the Stripe account mode a secret key belongs to.
type Mode string

const (
	ModeTest Mode = "test"
	ModeLive Mode = "live"
)

var (
	ErrMissingKey  = errors.New("stripe api key is required")
	ErrUnknownMode = fmt.Errorf("stripe environment must be %q or %q", ModeTest, ModeLive)
)

// keyPrefixes lists the secret and restricted key prefixes accepted per mode.
var keyPrefixes = map[Mode][]string{
	ModeTest: {"sk_test_", "rk_test_"},
	ModeLive: {"sk_live_", "rk_live_"},
}

// Client looks up PaymentIntents for fee verification. A restricted key with
// read access to PaymentIntents is sufficient.
type Client struct {
	api  *stripe.Client
	mode Mode
}

func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	mode, err := parseMode(cfg.Environment())
	if err != nil {
		return nil, err
	}
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, ErrMissingKey
	}
	if keyMode(key) != mode {
		return nil, fmt.Errorf("stripe key does not belong to %s mode (want %s)", mode, strings.Join(keyPrefixes[mode], " or "))
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "stripe_mode", string(mode)), "stripe client ready")
	}
	return &Client{api: stripe.NewClient(key), mode: mode}, nil
}

// PaymentIntent fetches a single PaymentIntent by id.
func (c *Client) PaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("stripe client not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("payment intent id is required")
	}
	return c.api.V1PaymentIntents.Retrieve(ctx, id, &stripe.PaymentIntentRetrieveParams{})
}

func (c *Client) Mode() Mode {
	if c == nil {
		return ""
	}
	return c.mode
}

func parseMode(raw string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(raw))); m {
	case "":
		return ModeTest, nil
	case ModeTest, ModeLive:
		return m, nil
	default:
		return "", ErrUnknownMode
	}
}

func keyMode(key string) Mode {
	for mode, prefixes := range keyPrefixes {
		for _, prefix := range prefixes {
			if strings.HasPrefix(key, prefix) {
				return mode
			}
		}
	}
	return ""
}
