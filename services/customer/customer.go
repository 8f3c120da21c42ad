package customer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/boring-ventures/peyo-onramp/config"
	"github.com/boring-ventures/peyo-onramp/services/bridge"
	bridgeErrors "github.com/boring-ventures/peyo-onramp/services/bridge/errors"
	"github.com/boring-ventures/peyo-onramp/storage"
	"github.com/boring-ventures/peyo-onramp/types"
	"github.com/boring-ventures/peyo-onramp/utils"
	"github.com/boring-ventures/peyo-onramp/utils/logger"
)

// Provisioner creates the Bridge customer record from a finalized KYC
// profile and an accepted agreement, and persists the resulting identifiers
type Provisioner struct {
	client   *bridge.Client
	conf     *config.BridgeConfiguration
	store    *storage.CustomerStore
	validate *validator.Validate
}

// NewProvisioner creates a customer provisioner
func NewProvisioner(client *bridge.Client, conf *config.BridgeConfiguration, store *storage.CustomerStore) *Provisioner {
	return &Provisioner{
		client:   client,
		conf:     conf,
		store:    store,
		validate: validator.New(),
	}
}

// BuildPayload maps a KYC profile onto the provider's customer-creation
// payload. Locally-coded country and subdivision values become the
// provider's 3-letter and short codes; unmapped subdivisions are omitted.
func (p *Provisioner) BuildPayload(profile types.KYCProfile, agreementID string) (*bridge.CreateCustomerPayload, error) {
	if err := p.validate.Struct(profile); err != nil {
		return nil, bridgeErrors.ErrValidation{Reason: err.Error()}
	}
	if agreementID == "" {
		return nil, bridgeErrors.ErrValidation{Reason: "signed agreement id is required"}
	}

	countryCode, ok := MapCountry(profile.Address.Country)
	if !ok {
		return nil, bridgeErrors.ErrValidation{Reason: fmt.Sprintf("unsupported country %q", profile.Address.Country)}
	}

	address := bridge.CustomerAddress{
		StreetLine1: profile.Address.StreetLine1,
		StreetLine2: profile.Address.StreetLine2,
		City:        profile.Address.City,
		PostalCode:  profile.Address.PostalCode,
		Country:     countryCode,
	}
	if profile.Address.Subdivision != "" {
		if code, ok := MapSubdivision(profile.Address.Country, profile.Address.Subdivision); ok {
			address.Subdivision = code
		}
	}

	docType := profile.IDDocType
	if docType == "" {
		docType = "national_id"
	}
	identifying := bridge.IdentifyingInformation{
		Type:           docType,
		IssuingCountry: countryCode,
		ImageFront:     utils.ToImageDataURI(profile.IDDocFront),
	}
	if len(profile.IDDocBack) > 0 {
		identifying.ImageBack = utils.ToImageDataURI(profile.IDDocBack)
	}

	return &bridge.CreateCustomerPayload{
		Type:                    "individual",
		FirstName:               profile.FirstName,
		LastName:                profile.LastName,
		Email:                   profile.Email,
		BirthDate:               profile.BirthDate,
		TaxIdentificationNumber: profile.TaxIDNumber,
		ResidentialAddress:      address,
		SignedAgreementID:       agreementID,
		IdentifyingInformation:  []bridge.IdentifyingInformation{identifying},
	}, nil
}

// Provision creates the provider customer record. The create call carries
// one idempotency key for all attempts of this operation, so network-level
// retries cannot produce duplicate customers. The resulting identifiers are
// persisted; a persistence failure is logged as a warning and the created
// customer is still returned, the reconciliation sweep heals the store.
func (p *Provisioner) Provision(ctx context.Context, profile types.KYCProfile, agreementID string) (*types.CustomerRef, error) {
	payload, err := p.BuildPayload(profile, agreementID)
	if err != nil {
		return nil, err
	}

	idempotencyKey := utils.NewIdempotencyKey()
	var created *bridge.Customer
	err = utils.Retry(p.conf.MaxRetries, p.conf.RetryBaseDelay, bridgeErrors.IsRetryable, func() error {
		var callErr error
		created, callErr = p.client.CreateCustomer(*payload, idempotencyKey)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	ref := &types.CustomerRef{
		CustomerID:         created.ID,
		VerificationStatus: MapVerificationStatus(created.VerificationStatus),
		RequirementsDue:    created.RequirementsDue,
		Endorsements:       created.Endorsements,
	}

	rawResponse, _ := json.Marshal(created)
	row := &storage.CustomerIntegration{
		IdentityID:         profile.IdentityID,
		ProviderCustomerID: created.ID,
		VerificationStatus: string(ref.VerificationStatus),
		AgreementID:        agreementID,
		RequirementsDue:    storage.EncodeRequirements(created.RequirementsDue),
		RawResponse:        string(rawResponse),
	}
	if err := p.store.Upsert(ctx, row); err != nil {
		logger.WithFields(logger.Fields{
			"Error":      fmt.Sprintf("%v", err),
			"IdentityID": profile.IdentityID,
			"CustomerID": created.ID,
		}).Warnf("Failed to persist customer integration, continuing with in-memory state")
	}

	return ref, nil
}

// FindProvisioned returns the locally persisted customer for an identity,
// nil when none exists
func (p *Provisioner) FindProvisioned(ctx context.Context, identityID string) (*types.CustomerRef, error) {
	row, err := p.store.FindByIdentity(ctx, identityID)
	if err != nil {
		return nil, bridgeErrors.ErrDatabase{Err: err}
	}
	if row == nil || row.ProviderCustomerID == "" {
		return nil, nil
	}
	return &types.CustomerRef{
		CustomerID:         row.ProviderCustomerID,
		VerificationStatus: types.VerificationStatus(row.VerificationStatus),
		RequirementsDue:    storage.DecodeRequirements(row.RequirementsDue),
	}, nil
}

// MapVerificationStatus maps a provider status string onto the local enum
func MapVerificationStatus(status string) types.VerificationStatus {
	switch status {
	case "active", "approved":
		return types.VerificationActive
	case "under_review", "in_review", "manual_review":
		return types.VerificationInReview
	case "rejected":
		return types.VerificationRejected
	case "suspended", "paused", "offboarded":
		return types.VerificationSuspended
	case "":
		return types.VerificationUnstarted
	default:
		return types.VerificationPending
	}
}
