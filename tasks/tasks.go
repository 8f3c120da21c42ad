package tasks

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/boring-ventures/peyo-onramp/config"
	"github.com/boring-ventures/peyo-onramp/services/bridge"
	bridgeErrors "github.com/boring-ventures/peyo-onramp/services/bridge/errors"
	"github.com/boring-ventures/peyo-onramp/services/customer"
	"github.com/boring-ventures/peyo-onramp/services/status"
	"github.com/boring-ventures/peyo-onramp/storage"
	"github.com/boring-ventures/peyo-onramp/types"
	"github.com/boring-ventures/peyo-onramp/utils/logger"
)

// ReconcileLiquidationAddresses verifies every active liquidation address
// row against the provider and deactivates rows whose provider-side address
// is gone. Heals local state after a create that persisted remotely but
// failed locally.
func ReconcileLiquidationAddresses() error {
	ctx := context.Background()
	client := bridge.NewClient()
	store := storage.NewLiquidationAddressStore(storage.GetDB())

	rows, err := store.ListActive(ctx)
	if err != nil {
		return bridgeErrors.ErrDatabase{Err: err}
	}

	for i := range rows {
		row := &rows[i]
		addr, err := client.GetLiquidationAddress(row.ProviderCustomerID, row.ProviderAddressID)
		if err != nil {
			if bridgeErrors.IsNotFound(err) {
				logger.WithFields(logger.Fields{
					"IdentityID":        row.IdentityID,
					"ProviderAddressID": row.ProviderAddressID,
				}).Warnf("active liquidation address gone at the provider, deactivating")
				if dbErr := store.Deactivate(ctx, row.ID); dbErr != nil {
					logger.Errorf("ReconcileLiquidationAddresses deactivate %s: %v", row.ID, dbErr)
				}
				continue
			}
			logger.Errorf("ReconcileLiquidationAddresses fetch %s: %v", row.ProviderAddressID, err)
			continue
		}

		if addr.State != storage.LiquidationAddressActive && row.State == storage.LiquidationAddressActive {
			if dbErr := store.Deactivate(ctx, row.ID); dbErr != nil {
				logger.Errorf("ReconcileLiquidationAddresses deactivate %s: %v", row.ID, dbErr)
			}
		}
	}

	return nil
}

// SyncVerificationStatuses refreshes the persisted verification status of
// every customer that is not in a terminal state
func SyncVerificationStatuses() error {
	ctx := context.Background()
	client := bridge.NewClient()
	conf := config.BridgeConfig()
	store := storage.NewCustomerStore(storage.GetDB())
	synchronizer := status.NewSynchronizer(client, conf, store, storage.RedisClient)

	rows, err := store.ListWithCustomer(ctx)
	if err != nil {
		return bridgeErrors.ErrDatabase{Err: err}
	}

	for i := range rows {
		row := &rows[i]
		current := customer.MapVerificationStatus(row.VerificationStatus)
		if current == types.VerificationActive || current == types.VerificationRejected {
			continue
		}

		if _, err := synchronizer.Sync(ctx, row.IdentityID, row.ProviderCustomerID); err != nil {
			logger.WithFields(logger.Fields{
				"IdentityID": row.IdentityID,
				"CustomerID": row.ProviderCustomerID,
				"Error":      err.Error(),
			}).Errorf("verification status sweep failed for customer")
		}
	}

	return nil
}

// StartCronJobs starts the recurring reconciliation sweeps
func StartCronJobs() {
	scheduler := gocron.NewScheduler(time.Local)

	// Reconcile liquidation addresses every 10 minutes
	_, err := scheduler.Every(10).Minutes().Do(ReconcileLiquidationAddresses)
	if err != nil {
		logger.Errorf("StartCronJobs for ReconcileLiquidationAddresses: %v", err)
	}

	// Refresh pending verification statuses every 5 minutes
	_, err = scheduler.Every(5).Minutes().Do(SyncVerificationStatuses)
	if err != nil {
		logger.Errorf("StartCronJobs for SyncVerificationStatuses: %v", err)
	}

	scheduler.StartAsync()
}
