package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DedupKey identifies a unique liquidation address request. At most one
// active row may exist per key.
type DedupKey struct {
	IdentityID          string
	ProviderCustomerID  string
	SourceChain         string
	SourceCurrency      string
	DestinationRail     string
	DestinationCurrency string
}

// LiquidationAddressStore persists liquidation address rows
type LiquidationAddressStore struct {
	db *gorm.DB
}

// NewLiquidationAddressStore creates a LiquidationAddressStore on the given
// connection
func NewLiquidationAddressStore(db *gorm.DB) *LiquidationAddressStore {
	return &LiquidationAddressStore{db: db}
}

// FindActiveByKey fetches the active row for a dedup key, nil when absent
func (s *LiquidationAddressStore) FindActiveByKey(ctx context.Context, key DedupKey) (*LiquidationAddress, error) {
	var row LiquidationAddress
	err := s.db.WithContext(ctx).
		Where("identity_id = ? AND provider_customer_id = ? AND source_chain = ? AND source_currency = ? AND destination_rail = ? AND destination_currency = ? AND state = ?",
			key.IdentityID, key.ProviderCustomerID, key.SourceChain, key.SourceCurrency,
			key.DestinationRail, key.DestinationCurrency, LiquidationAddressActive).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Insert creates a new row
func (s *LiquidationAddressStore) Insert(ctx context.Context, row *LiquidationAddress) error {
	return s.db.WithContext(ctx).Create(row).Error
}

// Deactivate flips a row to inactive. History is preserved, rows are never
// deleted.
func (s *LiquidationAddressStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).
		Model(&LiquidationAddress{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"state":      LiquidationAddressInactive,
			"updated_at": time.Now(),
		}).Error
}

// ListActive returns all active rows, used by the reconciliation sweep
func (s *LiquidationAddressStore) ListActive(ctx context.Context) ([]LiquidationAddress, error) {
	var rows []LiquidationAddress
	if err := s.db.WithContext(ctx).
		Where("state = ?", LiquidationAddressActive).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
