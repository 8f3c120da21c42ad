package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CustomerStore persists customer integration rows
type CustomerStore struct {
	db *gorm.DB
}

// NewCustomerStore creates a CustomerStore on the given connection
func NewCustomerStore(db *gorm.DB) *CustomerStore {
	return &CustomerStore{db: db}
}

// Upsert writes the integration row for an identity, replacing the
// verification status and outstanding requirements wholesale
func (s *CustomerStore) Upsert(ctx context.Context, row *CustomerIntegration) error {
	row.UpdatedAt = time.Now()
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "identity_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"provider_customer_id", "verification_status", "agreement_id",
				"requirements_due", "raw_response", "updated_at",
			}),
		}).
		Create(row).Error
}

// FindByIdentity fetches the integration row for an identity, nil when absent
func (s *CustomerStore) FindByIdentity(ctx context.Context, identityID string) (*CustomerIntegration, error) {
	var row CustomerIntegration
	if err := s.db.WithContext(ctx).
		First(&row, "identity_id = ?", identityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// UpdateStatus replaces the verification status and requirements of an
// existing integration row
func (s *CustomerStore) UpdateStatus(ctx context.Context, identityID, status string, requirementsDue []string) error {
	encoded, err := json.Marshal(requirementsDue)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Model(&CustomerIntegration{}).
		Where("identity_id = ?", identityID).
		Updates(map[string]interface{}{
			"verification_status": status,
			"requirements_due":    string(encoded),
			"updated_at":          time.Now(),
		}).Error
}

// ListWithCustomer returns all rows that have a provider customer id set,
// used by the reconciliation sweep
func (s *CustomerStore) ListWithCustomer(ctx context.Context) ([]CustomerIntegration, error) {
	var rows []CustomerIntegration
	if err := s.db.WithContext(ctx).
		Where("provider_customer_id <> ''").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// EncodeRequirements JSON-encodes a requirements slice for storage
func EncodeRequirements(requirements []string) string {
	encoded, err := json.Marshal(requirements)
	if err != nil {
		return "[]"
	}
	return string(encoded)
}

// DecodeRequirements decodes a stored requirements column
func DecodeRequirements(encoded string) []string {
	if encoded == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(encoded), &out); err != nil {
		return nil
	}
	return out
}
