package config

import (
	"time"

	"github.com/spf13/viper"
)

// ProviderCapabilities describes which Bridge endpoints are usable in the
// current environment. Sandbox tenants have no agreement-link or wallet
// endpoints, so those steps degrade to local affordances.
type ProviderCapabilities struct {
	SupportsAgreementLinks bool
	SupportsWalletCreation bool
}

// BridgeConfiguration defines the Bridge API integration settings
type BridgeConfiguration struct {
	BaseURL             string
	APIKey              string
	RedirectURL         string
	DestinationRail     string
	DestinationCurrency string
	DefaultWalletChain  string
	MaxRetries          int
	RetryBaseDelay      time.Duration
	AgreementWait       time.Duration
	StatusCacheEnabled  bool
	StatusCacheTTL      time.Duration
	Capabilities        ProviderCapabilities
}

// BridgeConfig sets the Bridge API configuration
func BridgeConfig() *BridgeConfiguration {
	viper.SetDefault("BRIDGE_BASE_URL", "https://api.sandbox.bridge.example.com/v0")
	viper.SetDefault("BRIDGE_REDIRECT_URL", "peyo://onboarding/agreement")
	viper.SetDefault("BRIDGE_DESTINATION_RAIL", "solana")
	viper.SetDefault("BRIDGE_DESTINATION_CURRENCY", "usdc")
	viper.SetDefault("BRIDGE_DEFAULT_WALLET_CHAIN", "solana")
	viper.SetDefault("BRIDGE_MAX_RETRIES", 3)
	viper.SetDefault("BRIDGE_RETRY_BASE_DELAY", 1)
	viper.SetDefault("BRIDGE_AGREEMENT_WAIT", 30)
	viper.SetDefault("BRIDGE_STATUS_CACHE_ENABLED", false)
	viper.SetDefault("BRIDGE_STATUS_CACHE_TTL", 60)
	viper.SetDefault("BRIDGE_SUPPORTS_AGREEMENT_LINKS", false)
	viper.SetDefault("BRIDGE_SUPPORTS_WALLET_CREATION", false)

	return &BridgeConfiguration{
		BaseURL:             viper.GetString("BRIDGE_BASE_URL"),
		APIKey:              viper.GetString("BRIDGE_API_KEY"),
		RedirectURL:         viper.GetString("BRIDGE_REDIRECT_URL"),
		DestinationRail:     viper.GetString("BRIDGE_DESTINATION_RAIL"),
		DestinationCurrency: viper.GetString("BRIDGE_DESTINATION_CURRENCY"),
		DefaultWalletChain:  viper.GetString("BRIDGE_DEFAULT_WALLET_CHAIN"),
		MaxRetries:          viper.GetInt("BRIDGE_MAX_RETRIES"),
		RetryBaseDelay:      time.Duration(viper.GetInt("BRIDGE_RETRY_BASE_DELAY")) * time.Second,
		AgreementWait:       time.Duration(viper.GetInt("BRIDGE_AGREEMENT_WAIT")) * time.Second,
		StatusCacheEnabled:  viper.GetBool("BRIDGE_STATUS_CACHE_ENABLED"),
		StatusCacheTTL:      time.Duration(viper.GetInt("BRIDGE_STATUS_CACHE_TTL")) * time.Second,
		Capabilities: ProviderCapabilities{
			SupportsAgreementLinks: viper.GetBool("BRIDGE_SUPPORTS_AGREEMENT_LINKS"),
			SupportsWalletCreation: viper.GetBool("BRIDGE_SUPPORTS_WALLET_CREATION"),
		},
	}
}
