package storage

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Liquidation address states. Rows are retired by flipping state, never
// deleted, so the table doubles as an audit trail.
const (
	LiquidationAddressActive   = "active"
	LiquidationAddressInactive = "inactive"
)

// CustomerIntegration is the local source of truth for one identity's
// provider customer record between orchestration runs
type CustomerIntegration struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	IdentityID         string    `gorm:"uniqueIndex;not null"`
	ProviderCustomerID string    `gorm:"index"`
	VerificationStatus string    `gorm:"not null;default:unstarted"`
	AgreementID        string
	RequirementsDue    string `gorm:"type:text"` // JSON-encoded string array
	RawResponse        string `gorm:"type:text"` // provider response kept for audit
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (c *CustomerIntegration) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// LiquidationAddress is a locally persisted provider deposit address. At
// most one active row may exist per dedup key; uniqueness is enforced by
// the resolver, the index below only speeds the lookup up.
type LiquidationAddress struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	IdentityID          string    `gorm:"index:idx_liquidation_dedup;not null"`
	ProviderCustomerID  string    `gorm:"index:idx_liquidation_dedup;not null"`
	ProviderAddressID   string    `gorm:"index;not null"`
	SourceChain         string    `gorm:"index:idx_liquidation_dedup;not null"`
	SourceCurrency      string    `gorm:"index:idx_liquidation_dedup;not null"`
	DestinationRail     string    `gorm:"index:idx_liquidation_dedup;not null"`
	DestinationCurrency string    `gorm:"index:idx_liquidation_dedup;not null"`
	Address             string    `gorm:"not null"`
	DestinationAddress  string    `gorm:"not null"`
	State               string    `gorm:"not null;default:active"`
	ProviderCreatedAt   time.Time
	ProviderUpdatedAt   time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (l *LiquidationAddress) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
