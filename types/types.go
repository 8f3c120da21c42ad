package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// VerificationStatus is the provider-side KYC verification state of a customer
type VerificationStatus string

const (
	VerificationUnstarted VerificationStatus = "unstarted"
	VerificationPending   VerificationStatus = "pending"
	VerificationInReview  VerificationStatus = "in_review"
	VerificationActive    VerificationStatus = "active"
	VerificationRejected  VerificationStatus = "rejected"
	VerificationSuspended VerificationStatus = "suspended"
)

// KYCAddress is the residential address of a verified identity
type KYCAddress struct {
	StreetLine1 string `json:"streetLine1" validate:"required"`
	StreetLine2 string `json:"streetLine2"`
	City        string `json:"city" validate:"required"`
	Subdivision string `json:"subdivision"`
	PostalCode  string `json:"postalCode"`
	Country     string `json:"country" validate:"required"`
}

// KYCProfile is a finalized identity profile handed over by the identity
// store once upstream onboarding steps are complete. Consumed read-only.
type KYCProfile struct {
	IdentityID  string     `json:"identityId" validate:"required"`
	FirstName   string     `json:"firstName" validate:"required"`
	LastName    string     `json:"lastName" validate:"required"`
	Email       string     `json:"email" validate:"required,email"`
	BirthDate   string     `json:"birthDate" validate:"required"`
	TaxIDNumber string     `json:"taxIdNumber"`
	Address     KYCAddress `json:"address" validate:"required"`
	IDDocType   string     `json:"idDocType"`
	IDDocFront  []byte     `json:"idDocFront" validate:"required"`
	IDDocBack   []byte     `json:"idDocBack"`
}

// CustomerRef identifies a provisioned Bridge customer
type CustomerRef struct {
	CustomerID         string             `json:"customerId"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
	RequirementsDue    []string           `json:"requirementsDue"`
	Endorsements       []string           `json:"endorsements"`
}

// WalletBalance is a single currency balance held in a custodial wallet
type WalletBalance struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// WalletRef describes a custodial wallet attached to a customer
type WalletRef struct {
	ID       string          `json:"id"`
	Chain    string          `json:"chain"`
	Address  string          `json:"address"`
	Enabled  bool            `json:"enabled"`
	Balances []WalletBalance `json:"balances,omitempty"`
}

// LiquidationAddressData is the usable deposit address returned to callers
type LiquidationAddressData struct {
	ID                  string `json:"id"`
	ProviderAddressID   string `json:"providerAddressId"`
	Address             string `json:"address"`
	SourceChain         string `json:"sourceChain"`
	SourceCurrency      string `json:"sourceCurrency"`
	DestinationRail     string `json:"destinationRail"`
	DestinationCurrency string `json:"destinationCurrency"`
	DestinationAddress  string `json:"destinationAddress"`
	State               string `json:"state"`
}

// OnboardingResultStatus is the terminal status of one orchestration run
type OnboardingResultStatus string

const (
	OnboardingComplete          OnboardingResultStatus = "complete"
	OnboardingAwaitingAgreement OnboardingResultStatus = "awaiting_agreement"
)

// OnboardingResult is the structured outcome handed back to the caller of a
// run. Partial completion (wallet provisioning failed) is still a success
// with a warning because wallet creation is best-effort.
type OnboardingResult struct {
	IdentityID         string                 `json:"identityId"`
	Status             OnboardingResultStatus `json:"status"`
	CustomerID         string                 `json:"customerId,omitempty"`
	VerificationStatus VerificationStatus     `json:"verificationStatus,omitempty"`
	RequirementsDue    []string               `json:"requirementsDue,omitempty"`
	Wallets            []WalletRef            `json:"wallets,omitempty"`
	AgreementID        string                 `json:"agreementId,omitempty"`
	AgreementURL       string                 `json:"agreementUrl,omitempty"`
	Warning            string                 `json:"warning,omitempty"`
}

// AgreementCallbackPayload is the request body of the agreement redirect
// callback fired by the embedded browser or deep link handler
type AgreementCallbackPayload struct {
	IdentityID        string `json:"identityId" binding:"required"`
	SignedAgreementID string `json:"signedAgreementId" binding:"required"`
}

// ResolveAddressPayload is the request body for resolving a liquidation address
type ResolveAddressPayload struct {
	IdentityID          string `json:"identityId" binding:"required"`
	SourceWalletAddress string `json:"sourceWalletAddress" binding:"required"`
	SourceChain         string `json:"sourceChain" binding:"required"`
	SourceCurrency      string `json:"sourceCurrency" binding:"required"`
}

// SyncResult is the outcome of a status resync against the provider
type SyncResult struct {
	CustomerID         string             `json:"customerId"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
	RequirementsDue    []string           `json:"requirementsDue"`
	SyncedAt           time.Time          `json:"syncedAt"`
}

// Response is the struct for an API response
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ErrorData is the struct for error data i.e when Status is "error"
type ErrorData struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
