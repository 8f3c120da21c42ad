package onboarding

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/boring-ventures/peyo-onramp/config"
	"github.com/boring-ventures/peyo-onramp/services/agreement"
	"github.com/boring-ventures/peyo-onramp/services/bridge"
	bridgeErrors "github.com/boring-ventures/peyo-onramp/services/bridge/errors"
	"github.com/boring-ventures/peyo-onramp/services/customer"
	"github.com/boring-ventures/peyo-onramp/services/status"
	"github.com/boring-ventures/peyo-onramp/services/wallet"
	"github.com/boring-ventures/peyo-onramp/storage"
	"github.com/boring-ventures/peyo-onramp/types"
	"github.com/boring-ventures/peyo-onramp/utils/logger"
	"github.com/redis/go-redis/v9"
)

// Orchestrator drives the full onboarding sequence for one identity:
// agreement, customer provisioning, then best-effort wallet provisioning.
// All steps are idempotent so a run can be retried end to end after a
// partial failure.
type Orchestrator struct {
	session   *Session
	client    *bridge.Client
	flow      *agreement.Flow
	customers *customer.Provisioner
	wallets   *wallet.Provisioner
	status    *status.Synchronizer
	store     *storage.CustomerStore
	conf      *config.BridgeConfiguration
	inFlight  atomic.Bool
	flowMu    sync.Mutex
}

// NewOrchestrator creates an orchestrator with its own provider client and
// the process-wide database connection
func NewOrchestrator(identityID string) *Orchestrator {
	client := bridge.NewClient()
	conf := config.BridgeConfig()
	store := storage.NewCustomerStore(storage.GetDB())
	return NewOrchestratorWithDeps(identityID, client, conf, store, storage.RedisClient)
}

// NewOrchestratorWithDeps wires an orchestrator from explicit dependencies
func NewOrchestratorWithDeps(identityID string, client *bridge.Client, conf *config.BridgeConfiguration, store *storage.CustomerStore, redisClient *redis.Client) *Orchestrator {
	return &Orchestrator{
		session:   NewSession(identityID),
		client:    client,
		flow:      agreement.NewFlow(client, conf),
		customers: customer.NewProvisioner(client, conf, store),
		wallets:   wallet.NewProvisioner(client, conf),
		status:    status.NewSynchronizer(client, conf, store, redisClient),
		store:     store,
		conf:      conf,
	}
}

// Session exposes the session for read-only callers
func (o *Orchestrator) Session() *Session {
	return o.session
}

// AgreementFlow exposes the agreement flow so the redirect callback can
// deliver the signed agreement id
func (o *Orchestrator) AgreementFlow() *agreement.Flow {
	o.flowMu.Lock()
	defer o.flowMu.Unlock()
	return o.flow
}

// Run executes the onboarding sequence. A second call while a run is in
// flight fails fast with ErrAlreadyInProgress; a call after a completed run
// returns the existing result without touching the provider.
func (o *Orchestrator) Run(ctx context.Context, profile types.KYCProfile) (*types.OnboardingResult, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		return nil, bridgeErrors.ErrAlreadyInProgress{IdentityID: o.session.IdentityID()}
	}
	defer o.inFlight.Store(false)

	if o.session.CustomerID() != "" && o.session.IsInitialized() {
		return o.session.Snapshot(), nil
	}

	// A customer provisioned by a previous process is adopted as-is so a
	// restart never creates a duplicate.
	row, err := o.store.FindByIdentity(ctx, o.session.IdentityID())
	if err != nil {
		logger.WithFields(logger.Fields{
			"IdentityID": o.session.IdentityID(),
			"Error":      err.Error(),
		}).Warnf("customer lookup failed, continuing without a persisted record")
	}
	if row != nil && row.ProviderCustomerID != "" {
		o.session.adopt(&types.CustomerRef{
			CustomerID:         row.ProviderCustomerID,
			VerificationStatus: customer.MapVerificationStatus(row.VerificationStatus),
			RequirementsDue:    storage.DecodeRequirements(row.RequirementsDue),
		}, row.AgreementID)
		return o.session.Snapshot(), nil
	}

	agreementID, result, err := o.runAgreement(ctx)
	if err != nil || result != nil {
		return result, err
	}

	ref, err := o.customers.Provision(ctx, profile, agreementID)
	if err != nil {
		o.session.recordError(err)
		logger.WithFields(logger.Fields{
			"IdentityID": o.session.IdentityID(),
			"Error":      err.Error(),
		}).Errorf("customer provisioning failed")
		return nil, err
	}
	o.session.setCustomer(ref)

	out := o.provisionWallet(ref.CustomerID)

	o.session.complete()
	snapshot := o.session.Snapshot()
	snapshot.Warning = out
	return snapshot, nil
}

// runAgreement drives the agreement step. It returns a non-nil result when
// the run must stop early: the caller still has to accept the agreement in
// the hosted flow.
func (o *Orchestrator) runAgreement(ctx context.Context) (string, *types.OnboardingResult, error) {
	if o.session.AgreementAccepted() {
		o.flowMu.Lock()
		flow := o.flow
		o.flowMu.Unlock()
		if id := flow.AgreementID(); id != "" {
			return id, nil, nil
		}
	}

	o.flowMu.Lock()
	flow := o.flow
	o.flowMu.Unlock()

	if err := flow.Start(ctx); err != nil {
		return "", nil, err
	}

	agreementID, err := flow.AwaitAcceptance(ctx)
	if err != nil {
		var pending bridgeErrors.ErrAgreementPending
		if errors.As(err, &pending) {
			result := o.session.Snapshot()
			result.Status = types.OnboardingAwaitingAgreement
			result.AgreementURL = pending.URL
			return "", result, nil
		}
		return "", nil, err
	}

	o.session.acceptAgreement(agreementID)
	return agreementID, nil, nil
}

// provisionWallet runs the best-effort wallet step and returns a warning
// string when it fails
func (o *Orchestrator) provisionWallet(customerID string) string {
	ref, err := o.wallets.ProvisionDefault(customerID)
	if err != nil {
		logger.WithFields(logger.Fields{
			"IdentityID": o.session.IdentityID(),
			"CustomerID": customerID,
			"Error":      err.Error(),
		}).Warnf("wallet provisioning failed, onboarding continues without a wallet")
		return "wallet provisioning failed: " + err.Error()
	}
	o.session.appendWallet(ref)
	return ""
}

// Resync pulls the current verification status from the provider and folds
// it into the session
func (o *Orchestrator) Resync(ctx context.Context) (*types.SyncResult, error) {
	customerID := o.session.CustomerID()
	if customerID == "" {
		return nil, bridgeErrors.ErrValidation{Reason: "no customer provisioned for this identity yet"}
	}
	result, err := o.status.Sync(ctx, o.session.IdentityID(), customerID)
	if err != nil {
		return nil, err
	}
	o.session.applySync(result)
	return result, nil
}

// Reset discards the session and agreement flow. The provider-side customer,
// if any, is left untouched and will be re-adopted on the next run.
func (o *Orchestrator) Reset() {
	o.flowMu.Lock()
	o.flow.Cancel()
	o.flow = agreement.NewFlow(o.client, o.conf)
	o.flowMu.Unlock()
	o.session.reset()
}
