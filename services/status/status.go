package status

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/boring-ventures/peyo-onramp/config"
	"github.com/boring-ventures/peyo-onramp/services/bridge"
	bridgeErrors "github.com/boring-ventures/peyo-onramp/services/bridge/errors"
	"github.com/boring-ventures/peyo-onramp/services/customer"
	"github.com/boring-ventures/peyo-onramp/storage"
	"github.com/boring-ventures/peyo-onramp/types"
	"github.com/boring-ventures/peyo-onramp/utils"
	"github.com/boring-ventures/peyo-onramp/utils/logger"
)

// Synchronizer polls the provider for the current verification and
// requirement state of a customer and reconciles it into the local store
type Synchronizer struct {
	client *bridge.Client
	conf   *config.BridgeConfiguration
	store  *storage.CustomerStore
	redis  *redis.Client
}

// NewSynchronizer creates a status synchronizer. redisClient may be nil, in
// which case the status cache is disabled regardless of configuration.
func NewSynchronizer(client *bridge.Client, conf *config.BridgeConfiguration, store *storage.CustomerStore, redisClient *redis.Client) *Synchronizer {
	return &Synchronizer{
		client: client,
		conf:   conf,
		store:  store,
		redis:  redisClient,
	}
}

func statusCacheKey(customerID string) string {
	return fmt.Sprintf("bridge:customer_status:%s", customerID)
}

// Sync refreshes the verification status and outstanding requirements for
// one identity. The provider response is cached for the configured TTL to
// keep polling clients off the rate-limited API.
func (s *Synchronizer) Sync(ctx context.Context, identityID, customerID string) (*types.SyncResult, error) {
	if customerID == "" {
		return nil, bridgeErrors.ErrValidation{Reason: "customer id is required before syncing"}
	}

	if cached := s.fromCache(ctx, customerID); cached != nil {
		return cached, nil
	}

	var remote *bridge.Customer
	err := utils.Retry(s.conf.MaxRetries, s.conf.RetryBaseDelay, bridgeErrors.IsRetryable, func() error {
		var callErr error
		remote, callErr = s.client.GetCustomer(customerID)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	result := &types.SyncResult{
		CustomerID:         remote.ID,
		VerificationStatus: customer.MapVerificationStatus(remote.VerificationStatus),
		RequirementsDue:    remote.RequirementsDue,
		SyncedAt:           time.Now(),
	}

	if err := s.store.UpdateStatus(ctx, identityID, string(result.VerificationStatus), result.RequirementsDue); err != nil {
		logger.WithFields(logger.Fields{
			"Error":      fmt.Sprintf("%v", err),
			"IdentityID": identityID,
			"CustomerID": customerID,
		}).Warnf("Failed to persist synced status")
	}

	s.toCache(ctx, customerID, result)

	return result, nil
}

func (s *Synchronizer) fromCache(ctx context.Context, customerID string) *types.SyncResult {
	if s.redis == nil || !s.conf.StatusCacheEnabled {
		return nil
	}
	raw, err := s.redis.Get(ctx, statusCacheKey(customerID)).Result()
	if err != nil {
		return nil
	}
	var result types.SyncResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil
	}
	return &result
}

func (s *Synchronizer) toCache(ctx context.Context, customerID string, result *types.SyncResult) {
	if s.redis == nil || !s.conf.StatusCacheEnabled {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, statusCacheKey(customerID), raw, s.conf.StatusCacheTTL).Err(); err != nil {
		logger.WithFields(logger.Fields{
			"Error":      fmt.Sprintf("%v", err),
			"CustomerID": customerID,
		}).Warnf("Failed to cache customer status")
	}
}
