package onboarding

import (
	"sync"
	"time"

	"github.com/boring-ventures/peyo-onramp/types"
)

// State of one onboarding run
type State string

const (
	StateUninitialized     State = "uninitialized"
	StateAgreementAccepted State = "agreement_accepted"
	StateCustomerActive    State = "customer_active"
	StateCustomerError     State = "customer_error"
	StateComplete          State = "complete"
)

// Session is the mutable onboarding state for one identity. It is owned by
// exactly one orchestrator and passed explicitly; persistence happens as an
// explicit side effect of the provisioning steps, never through a store
// subscription.
type Session struct {
	mu sync.Mutex

	identityID         string
	state              State
	customerID         string
	verificationStatus types.VerificationStatus
	agreementAccepted  bool
	agreementID        string
	requirementsDue    []string
	wallets            []types.WalletRef
	lastSyncedAt       time.Time
	retryCount         int
	lastError          string
	initialized        bool
}

// NewSession creates an empty session for an identity
func NewSession(identityID string) *Session {
	return &Session{
		identityID:         identityID,
		state:              StateUninitialized,
		verificationStatus: types.VerificationUnstarted,
	}
}

// IdentityID returns the owning identity
func (s *Session) IdentityID() string {
	return s.identityID
}

// CustomerID returns the provider customer id, empty until provisioned
func (s *Session) CustomerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customerID
}

// IsInitialized reports whether a run has completed for this session
func (s *Session) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// CurrentState returns the state machine position
func (s *Session) CurrentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AgreementAccepted reports whether the legal agreement has been accepted
func (s *Session) AgreementAccepted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agreementAccepted
}

// acceptAgreement records agreement acceptance
func (s *Session) acceptAgreement(agreementID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agreementAccepted = true
	s.agreementID = agreementID
	s.state = StateAgreementAccepted
}

// setCustomer records the provisioned customer. The customer id is set once
// and immutable after.
func (s *Session) setCustomer(ref *types.CustomerRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.customerID == "" {
		s.customerID = ref.CustomerID
	}
	s.verificationStatus = ref.VerificationStatus
	s.requirementsDue = append([]string(nil), ref.RequirementsDue...)
	s.state = StateCustomerActive
	s.lastError = ""
}

// recordError tracks a failed provisioning attempt
func (s *Session) recordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retryCount++
	s.lastError = err.Error()
	s.state = StateCustomerError
}

// appendWallet appends a provisioned wallet; the wallet list is append-only
func (s *Session) appendWallet(ref *types.WalletRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wallets = append(s.wallets, *ref)
}

// complete marks the run finished
func (s *Session) complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateComplete
	s.initialized = true
}

// applySync replaces the verification status and outstanding requirements
// wholesale from a provider sync. An active status implies the agreement
// was accepted provider-side.
func (s *Session) applySync(result *types.SyncResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verificationStatus = result.VerificationStatus
	s.requirementsDue = append([]string(nil), result.RequirementsDue...)
	s.lastSyncedAt = result.SyncedAt
	if result.VerificationStatus == types.VerificationActive {
		s.agreementAccepted = true
	}
}

// adopt hydrates the session from a persisted customer integration row
func (s *Session) adopt(ref *types.CustomerRef, agreementID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.customerID == "" {
		s.customerID = ref.CustomerID
	}
	s.verificationStatus = ref.VerificationStatus
	s.requirementsDue = append([]string(nil), ref.RequirementsDue...)
	if agreementID != "" {
		s.agreementAccepted = true
		s.agreementID = agreementID
	}
	s.state = StateComplete
	s.initialized = true
}

// reset clears the session back to uninitialized. Used only on explicit
// user- or operator-initiated restart.
func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateUninitialized
	s.customerID = ""
	s.verificationStatus = types.VerificationUnstarted
	s.agreementAccepted = false
	s.agreementID = ""
	s.requirementsDue = nil
	s.wallets = nil
	s.lastSyncedAt = time.Time{}
	s.retryCount = 0
	s.lastError = ""
	s.initialized = false
}

// Snapshot builds the caller-facing view of the session
func (s *Session) Snapshot() *types.OnboardingResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := &types.OnboardingResult{
		IdentityID:         s.identityID,
		CustomerID:         s.customerID,
		VerificationStatus: s.verificationStatus,
		RequirementsDue:    append([]string(nil), s.requirementsDue...),
		Wallets:            append([]types.WalletRef(nil), s.wallets...),
		AgreementID:        s.agreementID,
	}
	if s.state == StateComplete {
		result.Status = types.OnboardingComplete
	}
	return result
}
