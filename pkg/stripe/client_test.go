package stripe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clodamigoles/dossiers.vevo/pkg/config"
)

func TestNewClientMatchesKeyToMode(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.StripeConfig
		want    Mode
		wantErr error
	}{
		{name: "secret test key", cfg: config.StripeConfig{APIKey: "sk_test_123", Env: "test"}, want: ModeTest},
		{name: "restricted live key", cfg: config.StripeConfig{APIKey: "rk_live_123", Env: "LIVE"}, want: ModeLive},
		{name: "blank env defaults to test", cfg: config.StripeConfig{APIKey: " sk_test_abc "}, want: ModeTest},
		{name: "live key in test mode", cfg: config.StripeConfig{APIKey: "sk_live_123", Env: "test"}},
		{name: "publishable key", cfg: config.StripeConfig{APIKey: "pk_test_123", Env: "test"}},
		{name: "missing key", cfg: config.StripeConfig{Env: "test"}, wantErr: ErrMissingKey},
		{name: "unknown env", cfg: config.StripeConfig{APIKey: "sk_test_123", Env: "staging"}, wantErr: ErrUnknownMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(context.Background(), tt.cfg, nil)
			if tt.want == "" {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, client.Mode())
		})
	}
}

func TestPaymentIntentRequiresID(t *testing.T) {
	client, err := NewClient(context.Background(), config.StripeConfig{APIKey: "rk_test_1"}, nil)
	require.NoError(t, err)

	_, err = client.PaymentIntent(context.Background(), "  ")
	assert.ErrorContains(t, err, "payment intent id is required")

	var nilClient *Client
	_, err = nilClient.PaymentIntent(context.Background(), "pi_1")
	assert.Error(t, err)
	assert.Equal(t, Mode(""), nilClient.Mode())
}
