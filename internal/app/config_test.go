package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingConfig_Charges(t *testing.T) {
	tests := []struct {
		name    string
		cfg     PricingConfig
		fee     string
		rate    string
		wantErr bool
	}{
		{name: "Empty", cfg: PricingConfig{}, fee: "0", rate: "0"},
		{name: "Set", cfg: PricingConfig{DeliveryFee: "7.5", TaxRate: "0.08"}, fee: "7.5", rate: "0.08"},
		{name: "NegativeFee", cfg: PricingConfig{DeliveryFee: "-1"}, wantErr: true},
		{name: "Garbage", cfg: PricingConfig{TaxRate: "eight"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := tt.cfg.Charges()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.fee, c.DeliveryFee.String())
			assert.Equal(t, tt.rate, c.TaxRate.String())
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := testConfig()
	require.NoError(t, cfg.validate())

	cfg.Checkout.RequiredFields = []string{"full_name", "favourite_color"}
	require.ErrorContains(t, cfg.validate(), "favourite_color")

	cfg = testConfig()
	cfg.Pricing.TaxRate = "-0.1"
	require.Error(t, cfg.validate())

	cfg = testConfig()
	cfg.CORS.AllowCredentials = true
	require.ErrorContains(t, cfg.validate(), "explicit origins")
	cfg.CORS.Origins = []string{"*", "https://bistro.example"}
	require.NoError(t, cfg.validate())
}

func TestConfig_ApplyPlatformDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/bistro")
	t.Setenv("PORT", "9090")

	cfg := testConfig()
	cfg.applyPlatformDefaults()
	assert.Equal(t, "postgres://u:p@db:5432/bistro", cfg.DatabaseURL)
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr)

	cfg = testConfig()
	cfg.Addr = "127.0.0.1:8000"
	cfg.DatabaseURL = "postgres://explicit"
	cfg.applyPlatformDefaults()
	assert.Equal(t, "postgres://explicit", cfg.DatabaseURL)
	assert.Equal(t, "127.0.0.1:8000", cfg.Addr)
}
