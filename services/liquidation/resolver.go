package liquidation

import (
	"context"
	"strings"
	"sync"

	"github.com/boring-ventures/peyo-onramp/config"
	"github.com/boring-ventures/peyo-onramp/services/bridge"
	bridgeErrors "github.com/boring-ventures/peyo-onramp/services/bridge/errors"
	"github.com/boring-ventures/peyo-onramp/storage"
	"github.com/boring-ventures/peyo-onramp/types"
	"github.com/boring-ventures/peyo-onramp/utils"
	"github.com/boring-ventures/peyo-onramp/utils/logger"
	"github.com/google/uuid"
)

// Resolver serves the deposit address for an identity and source asset.
// Lookup order is local record, then the provider's existing addresses,
// then creation. Every path converges to one active address per dedup key.
type Resolver struct {
	client *bridge.Client
	conf   *config.BridgeConfiguration
	store  *storage.LiquidationAddressStore

	mu    sync.Mutex
	locks map[storage.DedupKey]*sync.Mutex
}

// NewResolver creates a resolver on the process-wide connections
func NewResolver() *Resolver {
	return NewResolverWithDeps(bridge.NewClient(), config.BridgeConfig(), storage.NewLiquidationAddressStore(storage.GetDB()))
}

// NewResolverWithDeps wires a resolver from explicit dependencies
func NewResolverWithDeps(client *bridge.Client, conf *config.BridgeConfiguration, store *storage.LiquidationAddressStore) *Resolver {
	return &Resolver{
		client: client,
		conf:   conf,
		store:  store,
		locks:  make(map[storage.DedupKey]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing resolution for one dedup key.
// Concurrent requests for different keys proceed in parallel. Entries are
// never evicted; the map is bounded by the distinct keys this process has
// served.
func (r *Resolver) lockFor(key storage.DedupKey) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	r.locks[key] = l
	return l
}

// Resolve returns the active liquidation address for the given identity,
// customer and source asset, creating one at the provider when none exists.
// sourceWalletAddress is the wallet funds are routed into; it is only used
// on creation and is not part of the dedup key.
func (r *Resolver) Resolve(ctx context.Context, identityID, customerID, sourceWalletAddress, sourceChain, sourceCurrency string) (*types.LiquidationAddressData, error) {
	if identityID == "" || customerID == "" {
		return nil, bridgeErrors.ErrValidation{Reason: "identityId and customerId are required"}
	}
	if sourceWalletAddress == "" || sourceChain == "" || sourceCurrency == "" {
		return nil, bridgeErrors.ErrValidation{Reason: "sourceWalletAddress, sourceChain and sourceCurrency are required"}
	}

	key := storage.DedupKey{
		IdentityID:          identityID,
		ProviderCustomerID:  customerID,
		SourceChain:         strings.ToLower(sourceChain),
		SourceCurrency:      strings.ToLower(sourceCurrency),
		DestinationRail:     r.conf.DestinationRail,
		DestinationCurrency: r.conf.DestinationCurrency,
	}

	lock := r.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	if data, err := r.fromLocal(ctx, key); err != nil {
		return nil, err
	} else if data != nil {
		return data, nil
	}

	if data, err := r.fromProvider(ctx, key); err != nil {
		return nil, err
	} else if data != nil {
		return data, nil
	}

	return r.create(ctx, key, sourceWalletAddress)
}

// fromLocal serves the persisted active row after verifying it still exists
// provider-side. A vanished provider address deactivates the row and falls
// through to the next lookup step.
func (r *Resolver) fromLocal(ctx context.Context, key storage.DedupKey) (*types.LiquidationAddressData, error) {
	row, err := r.store.FindActiveByKey(ctx, key)
	if err != nil {
		return nil, bridgeErrors.ErrDatabase{Err: err}
	}
	if row == nil {
		return nil, nil
	}

	var addr *bridge.LiquidationAddress
	err = utils.Retry(r.conf.MaxRetries, r.conf.RetryBaseDelay, bridgeErrors.IsRetryable, func() error {
		fetched, reqErr := r.client.GetLiquidationAddress(key.ProviderCustomerID, row.ProviderAddressID)
		if reqErr != nil {
			return reqErr
		}
		addr = fetched
		return nil
	})
	if err != nil {
		if bridgeErrors.IsNotFound(err) {
			logger.WithFields(logger.Fields{
				"IdentityID":        key.IdentityID,
				"ProviderAddressID": row.ProviderAddressID,
			}).Warnf("persisted liquidation address no longer exists at the provider, deactivating")
			if dbErr := r.store.Deactivate(ctx, row.ID); dbErr != nil {
				return nil, bridgeErrors.ErrDatabase{Err: dbErr}
			}
			return nil, nil
		}
		return nil, err
	}

	return toAddressData(row.ID.String(), addr), nil
}

// fromProvider scans the provider's address list for an active address
// matching the dedup key and adopts it locally. Heals the case where a
// previous create succeeded remotely but the local insert was lost.
func (r *Resolver) fromProvider(ctx context.Context, key storage.DedupKey) (*types.LiquidationAddressData, error) {
	var addrs []bridge.LiquidationAddress
	err := utils.Retry(r.conf.MaxRetries, r.conf.RetryBaseDelay, bridgeErrors.IsRetryable, func() error {
		listed, reqErr := r.client.ListLiquidationAddresses(key.ProviderCustomerID)
		if reqErr != nil {
			return reqErr
		}
		addrs = listed
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i := range addrs {
		addr := &addrs[i]
		if !matchesKey(addr, key) {
			continue
		}
		row := toRow(key, addr)
		if dbErr := r.store.Insert(ctx, row); dbErr != nil {
			logger.WithFields(logger.Fields{
				"IdentityID":        key.IdentityID,
				"ProviderAddressID": addr.ID,
				"Error":             dbErr.Error(),
			}).Warnf("failed to persist adopted liquidation address, serving it anyway")
		}
		return toAddressData(row.ID.String(), addr), nil
	}
	return nil, nil
}

// create provisions a new liquidation address at the provider and persists it
func (r *Resolver) create(ctx context.Context, key storage.DedupKey, destinationAddress string) (*types.LiquidationAddressData, error) {
	payload := bridge.CreateLiquidationAddressPayload{
		Chain:                  key.SourceChain,
		Currency:               key.SourceCurrency,
		DestinationPaymentRail: key.DestinationRail,
		DestinationCurrency:    key.DestinationCurrency,
		DestinationAddress:     destinationAddress,
	}

	var addr *bridge.LiquidationAddress
	idempotencyKey := utils.NewIdempotencyKey()
	err := utils.Retry(r.conf.MaxRetries, r.conf.RetryBaseDelay, bridgeErrors.IsRetryable, func() error {
		created, reqErr := r.client.CreateLiquidationAddress(key.ProviderCustomerID, payload, idempotencyKey)
		if reqErr != nil {
			return reqErr
		}
		addr = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	row := toRow(key, addr)
	if dbErr := r.store.Insert(ctx, row); dbErr != nil {
		logger.WithFields(logger.Fields{
			"IdentityID":        key.IdentityID,
			"ProviderAddressID": addr.ID,
			"Error":             dbErr.Error(),
		}).Warnf("failed to persist created liquidation address, reconciliation will adopt it")
	}
	return toAddressData(row.ID.String(), addr), nil
}

// matchesKey reports whether a provider address serves the dedup key
func matchesKey(addr *bridge.LiquidationAddress, key storage.DedupKey) bool {
	return strings.EqualFold(addr.Chain, key.SourceChain) &&
		strings.EqualFold(addr.Currency, key.SourceCurrency) &&
		strings.EqualFold(addr.DestinationPaymentRail, key.DestinationRail) &&
		strings.EqualFold(addr.DestinationCurrency, key.DestinationCurrency) &&
		addr.State == storage.LiquidationAddressActive
}

func toRow(key storage.DedupKey, addr *bridge.LiquidationAddress) *storage.LiquidationAddress {
	return &storage.LiquidationAddress{
		ID:                  uuid.New(),
		IdentityID:          key.IdentityID,
		ProviderCustomerID:  key.ProviderCustomerID,
		ProviderAddressID:   addr.ID,
		SourceChain:         key.SourceChain,
		SourceCurrency:      key.SourceCurrency,
		DestinationRail:     key.DestinationRail,
		DestinationCurrency: key.DestinationCurrency,
		Address:             addr.Address,
		DestinationAddress:  addr.DestinationAddress,
		State:               storage.LiquidationAddressActive,
		ProviderCreatedAt:   addr.CreatedAt,
		ProviderUpdatedAt:   addr.UpdatedAt,
	}
}

func toAddressData(localID string, addr *bridge.LiquidationAddress) *types.LiquidationAddressData {
	return &types.LiquidationAddressData{
		ID:                  localID,
		ProviderAddressID:   addr.ID,
		Address:             addr.Address,
		SourceChain:         addr.Chain,
		SourceCurrency:      addr.Currency,
		DestinationRail:     addr.DestinationPaymentRail,
		DestinationCurrency: addr.DestinationCurrency,
		DestinationAddress:  addr.DestinationAddress,
		State:               addr.State,
	}
}
