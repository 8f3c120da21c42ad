package wallet

import (
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/boring-ventures/peyo-onramp/config"
	"github.com/boring-ventures/peyo-onramp/services/bridge"
	bridgeErrors "github.com/boring-ventures/peyo-onramp/services/bridge/errors"
)

func testConfig(supportsWallets bool) *config.BridgeConfiguration {
	return &config.BridgeConfiguration{
		BaseURL:            "https://bridge.test/v0",
		APIKey:             "test-api-key",
		DefaultWalletChain: "solana",
		MaxRetries:         3,
		RetryBaseDelay:     time.Millisecond,
		Capabilities: config.ProviderCapabilities{
			SupportsWalletCreation: supportsWallets,
		},
	}
}

func TestProvisionDefault(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	t.Run("returns a disabled placeholder without wallet support", func(t *testing.T) {
		httpmock.Reset()
		conf := testConfig(false)
		p := NewProvisioner(bridge.NewClientWithConfig(conf), conf)

		ref, err := p.ProvisionDefault("cust_1")
		assert.NoError(t, err)
		assert.Equal(t, PlaceholderWalletID, ref.ID)
		assert.Equal(t, "solana", ref.Chain)
		assert.False(t, ref.Enabled)
		assert.Equal(t, 0, httpmock.GetTotalCallCount())
	})

	t.Run("creates a wallet on the default chain", func(t *testing.T) {
		httpmock.Reset()
		conf := testConfig(true)
		p := NewProvisioner(bridge.NewClientWithConfig(conf), conf)

		httpmock.RegisterResponder("POST", "https://bridge.test/v0/customers/cust_1/wallets",
			func(r *http.Request) (*http.Response, error) {
				assert.NotEmpty(t, r.Header.Get("Idempotency-Key"))
				return httpmock.NewJsonResponse(201, map[string]interface{}{
					"id":      "w_1",
					"chain":   "solana",
					"address": "SoWalletAddr111",
					"enabled": true,
					"balances": []map[string]string{
						{"currency": "usdc", "balance": "12.50"},
					},
				})
			},
		)

		ref, err := p.ProvisionDefault("cust_1")
		assert.NoError(t, err)
		assert.Equal(t, "w_1", ref.ID)
		assert.Equal(t, "SoWalletAddr111", ref.Address)
		assert.True(t, ref.Enabled)
		assert.Len(t, ref.Balances, 1)
		assert.True(t, ref.Balances[0].Amount.Equal(decimal.RequireFromString("12.50")))
	})

	t.Run("rejects an empty customer id", func(t *testing.T) {
		conf := testConfig(true)
		p := NewProvisioner(bridge.NewClientWithConfig(conf), conf)

		_, err := p.ProvisionDefault("")
		var validationErr bridgeErrors.ErrValidation
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("exhausts retries on persistent provider failures", func(t *testing.T) {
		httpmock.Reset()
		conf := testConfig(true)
		p := NewProvisioner(bridge.NewClientWithConfig(conf), conf)

		httpmock.RegisterResponder("POST", "https://bridge.test/v0/customers/cust_1/wallets",
			httpmock.NewStringResponder(503, `{"message":"unavailable"}`))

		_, err := p.ProvisionDefault("cust_1")
		assert.True(t, bridgeErrors.IsRetriesExhausted(err))
		assert.Equal(t, 3, httpmock.GetTotalCallCount())
	})
}

func TestList(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	t.Run("returns nothing without wallet support", func(t *testing.T) {
		conf := testConfig(false)
		p := NewProvisioner(bridge.NewClientWithConfig(conf), conf)

		refs, err := p.List("cust_1")
		assert.NoError(t, err)
		assert.Empty(t, refs)
	})

	t.Run("maps provider wallets and skips malformed balances", func(t *testing.T) {
		httpmock.Reset()
		conf := testConfig(true)
		p := NewProvisioner(bridge.NewClientWithConfig(conf), conf)

		httpmock.RegisterResponder("GET", "https://bridge.test/v0/customers/cust_1/wallets",
			httpmock.NewStringResponder(200, `{"count":1,"data":[{"id":"w_1","chain":"solana","enabled":true,"balances":[{"currency":"usdc","balance":"3.25"},{"currency":"sol","balance":"not-a-number"}]}]}`))

		refs, err := p.List("cust_1")
		assert.NoError(t, err)
		assert.Len(t, refs, 1)
		assert.Len(t, refs[0].Balances, 1)
		assert.Equal(t, "usdc", refs[0].Balances[0].Currency)
	})

	t.Run("retries a transient provider failure", func(t *testing.T) {
		httpmock.Reset()
		conf := testConfig(true)
		p := NewProvisioner(bridge.NewClientWithConfig(conf), conf)

		calls := 0
		httpmock.RegisterResponder("GET", "https://bridge.test/v0/customers/cust_1/wallets",
			func(r *http.Request) (*http.Response, error) {
				calls++
				if calls == 1 {
					return httpmock.NewStringResponse(503, `{"message":"unavailable"}`), nil
				}
				return httpmock.NewStringResponse(200, `{"count":1,"data":[{"id":"w_1","chain":"solana","enabled":true}]}`), nil
			},
		)

		refs, err := p.List("cust_1")
		assert.NoError(t, err)
		assert.Len(t, refs, 1)
		assert.Equal(t, 2, calls)
	})
}
