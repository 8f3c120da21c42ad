package wallet

import (
	"github.com/shopspring/decimal"

	"github.com/boring-ventures/peyo-onramp/config"
	"github.com/boring-ventures/peyo-onramp/services/bridge"
	bridgeErrors "github.com/boring-ventures/peyo-onramp/services/bridge/errors"
	"github.com/boring-ventures/peyo-onramp/types"
	"github.com/boring-ventures/peyo-onramp/utils"
	"github.com/boring-ventures/peyo-onramp/utils/logger"
)

// PlaceholderWalletID marks the stand-in wallet returned where wallet
// creation is unsupported server-side. It is not usable for deposits.
const PlaceholderWalletID = "placeholder-wallet"

// Provisioner creates the default custodial wallet for a provisioned
// customer
type Provisioner struct {
	client *bridge.Client
	conf   *config.BridgeConfiguration
}

// NewProvisioner creates a wallet provisioner
func NewProvisioner(client *bridge.Client, conf *config.BridgeConfiguration) *Provisioner {
	return &Provisioner{client: client, conf: conf}
}

// ProvisionDefault issues one wallet-creation call for the configured
// default chain. Where the environment has no wallet endpoints it returns a
// disabled placeholder instead; callers must not treat it as usable.
func (p *Provisioner) ProvisionDefault(customerID string) (*types.WalletRef, error) {
	if customerID == "" {
		return nil, bridgeErrors.ErrValidation{Reason: "customer id is required"}
	}

	if !p.conf.Capabilities.SupportsWalletCreation {
		logger.WithFields(logger.Fields{
			"CustomerID": customerID,
		}).Infof("Wallet creation unsupported in this environment, returning placeholder")
		return &types.WalletRef{
			ID:      PlaceholderWalletID,
			Chain:   p.conf.DefaultWalletChain,
			Enabled: false,
		}, nil
	}

	idempotencyKey := utils.NewIdempotencyKey()
	var created *bridge.Wallet
	err := utils.Retry(p.conf.MaxRetries, p.conf.RetryBaseDelay, bridgeErrors.IsRetryable, func() error {
		var callErr error
		created, callErr = p.client.CreateWallet(customerID, bridge.CreateWalletPayload{
			Chain: p.conf.DefaultWalletChain,
		}, idempotencyKey)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	return toWalletRef(created), nil
}

// List fetches the customer's wallets from the provider
func (p *Provisioner) List(customerID string) ([]types.WalletRef, error) {
	if !p.conf.Capabilities.SupportsWalletCreation {
		return nil, nil
	}
	var wallets []bridge.Wallet
	err := utils.Retry(p.conf.MaxRetries, p.conf.RetryBaseDelay, bridgeErrors.IsRetryable, func() error {
		listed, reqErr := p.client.ListWallets(customerID)
		if reqErr != nil {
			return reqErr
		}
		wallets = listed
		return nil
	})
	if err != nil {
		return nil, err
	}
	refs := make([]types.WalletRef, 0, len(wallets))
	for i := range wallets {
		refs = append(refs, *toWalletRef(&wallets[i]))
	}
	return refs, nil
}

func toWalletRef(w *bridge.Wallet) *types.WalletRef {
	ref := &types.WalletRef{
		ID:      w.ID,
		Chain:   w.Chain,
		Address: w.Address,
		Enabled: w.Enabled,
	}
	for _, b := range w.Balances {
		amount, err := decimal.NewFromString(b.Balance)
		if err != nil {
			continue
		}
		ref.Balances = append(ref.Balances, types.WalletBalance{
			Currency: b.Currency,
			Amount:   amount,
		})
	}
	return ref
}
