package onboarding

import (
	"context"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/boring-ventures/peyo-onramp/config"
	"github.com/boring-ventures/peyo-onramp/services/bridge"
	bridgeErrors "github.com/boring-ventures/peyo-onramp/services/bridge/errors"
	"github.com/boring-ventures/peyo-onramp/services/wallet"
	"github.com/boring-ventures/peyo-onramp/storage"
	"github.com/boring-ventures/peyo-onramp/types"
	"github.com/boring-ventures/peyo-onramp/utils/test"
)

func testConfig(links, wallets bool) *config.BridgeConfiguration {
	return &config.BridgeConfiguration{
		BaseURL:             "https://bridge.test/v0",
		APIKey:              "test-api-key",
		RedirectURL:         "peyo://onboarding/agreement",
		DestinationRail:     "solana",
		DestinationCurrency: "usdc",
		DefaultWalletChain:  "solana",
		MaxRetries:          3,
		RetryBaseDelay:      time.Millisecond,
		AgreementWait:       50 * time.Millisecond,
		Capabilities: config.ProviderCapabilities{
			SupportsAgreementLinks: links,
			SupportsWalletCreation: wallets,
		},
	}
}

func testProfile(identityID string) types.KYCProfile {
	return types.KYCProfile{
		IdentityID: identityID,
		FirstName:  "Maria",
		LastName:   "Lopez",
		Email:      "maria@example.com",
		BirthDate:  "1991-04-12",
		Address: types.KYCAddress{
			StreetLine1: "Av. Heroínas 123",
			City:        "Cochabamba",
			Subdivision: "Cochabamba",
			Country:     "Bolivia",
		},
		IDDocFront: []byte{0xFF, 0xD8, 0xFF, 0xE0},
	}
}

func registerCustomerCreate(status string) {
	httpmock.RegisterResponder("POST", "https://bridge.test/v0/customers",
		httpmock.NewStringResponder(201, `{"id":"cust_1","status":"`+status+`"}`))
}

func TestRunAutoMode(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ctx := context.Background()

	t.Run("completes without agreement or wallet endpoints", func(t *testing.T) {
		httpmock.Reset()
		registerCustomerCreate("pending")

		conf := testConfig(false, false)
		client := bridge.NewClientWithConfig(conf)
		store := storage.NewCustomerStore(test.NewTestDB(t))
		o := NewOrchestratorWithDeps("identity-1", client, conf, store, nil)

		result, err := o.Run(ctx, testProfile("identity-1"))
		assert.NoError(t, err)
		assert.Equal(t, types.OnboardingComplete, result.Status)
		assert.Equal(t, "cust_1", result.CustomerID)
		assert.Equal(t, types.VerificationPending, result.VerificationStatus)
		assert.Len(t, result.Wallets, 1)
		assert.Equal(t, wallet.PlaceholderWalletID, result.Wallets[0].ID)
		assert.Empty(t, result.Warning)

		// The sandbox agreement id reached the create payload
		assert.Equal(t, StateComplete, o.Session().CurrentState())
		assert.True(t, o.Session().AgreementAccepted())
	})

	t.Run("a second run returns the existing result without provider calls", func(t *testing.T) {
		httpmock.Reset()
		registerCustomerCreate("pending")

		conf := testConfig(false, false)
		client := bridge.NewClientWithConfig(conf)
		store := storage.NewCustomerStore(test.NewTestDB(t))
		o := NewOrchestratorWithDeps("identity-1", client, conf, store, nil)

		first, err := o.Run(ctx, testProfile("identity-1"))
		assert.NoError(t, err)
		callsAfterFirst := httpmock.GetTotalCallCount()

		second, err := o.Run(ctx, testProfile("identity-1"))
		assert.NoError(t, err)
		assert.Equal(t, first.CustomerID, second.CustomerID)
		assert.Equal(t, callsAfterFirst, httpmock.GetTotalCallCount())
	})

	t.Run("adopts a customer persisted by a previous process", func(t *testing.T) {
		httpmock.Reset()

		conf := testConfig(false, false)
		client := bridge.NewClientWithConfig(conf)
		db := test.NewTestDB(t)
		store := storage.NewCustomerStore(db)
		assert.NoError(t, store.Upsert(ctx, &storage.CustomerIntegration{
			IdentityID:         "identity-1",
			ProviderCustomerID: "cust_existing",
			VerificationStatus: "active",
			AgreementID:        "agr_old",
		}))

		o := NewOrchestratorWithDeps("identity-1", client, conf, store, nil)
		result, err := o.Run(ctx, testProfile("identity-1"))
		assert.NoError(t, err)
		assert.Equal(t, types.OnboardingComplete, result.Status)
		assert.Equal(t, "cust_existing", result.CustomerID)
		assert.Equal(t, types.VerificationActive, result.VerificationStatus)
		assert.Equal(t, 0, httpmock.GetTotalCallCount())
	})

	t.Run("continues onboarding when the local store is unreadable", func(t *testing.T) {
		httpmock.Reset()
		registerCustomerCreate("pending")

		conf := testConfig(false, false)
		client := bridge.NewClientWithConfig(conf)
		db := test.NewTestDB(t)
		sqlDB, err := db.DB()
		assert.NoError(t, err)
		assert.NoError(t, sqlDB.Close())
		o := NewOrchestratorWithDeps("identity-1", client, conf, storage.NewCustomerStore(db), nil)

		result, err := o.Run(ctx, testProfile("identity-1"))
		assert.NoError(t, err)
		assert.Equal(t, types.OnboardingComplete, result.Status)
		assert.Equal(t, "cust_1", result.CustomerID)
	})

	t.Run("provisions a real wallet when the environment supports it", func(t *testing.T) {
		httpmock.Reset()
		registerCustomerCreate("pending")
		httpmock.RegisterResponder("POST", "https://bridge.test/v0/customers/cust_1/wallets",
			httpmock.NewStringResponder(201, `{"id":"w_1","chain":"solana","address":"SoAddr111","enabled":true}`))

		conf := testConfig(false, true)
		client := bridge.NewClientWithConfig(conf)
		store := storage.NewCustomerStore(test.NewTestDB(t))
		o := NewOrchestratorWithDeps("identity-1", client, conf, store, nil)

		result, err := o.Run(ctx, testProfile("identity-1"))
		assert.NoError(t, err)
		assert.Len(t, result.Wallets, 1)
		assert.Equal(t, "w_1", result.Wallets[0].ID)
		assert.True(t, result.Wallets[0].Enabled)
	})

	t.Run("a wallet failure degrades to a warning", func(t *testing.T) {
		httpmock.Reset()
		registerCustomerCreate("pending")
		httpmock.RegisterResponder("POST", "https://bridge.test/v0/customers/cust_1/wallets",
			httpmock.NewStringResponder(503, `{"message":"unavailable"}`))

		conf := testConfig(false, true)
		client := bridge.NewClientWithConfig(conf)
		store := storage.NewCustomerStore(test.NewTestDB(t))
		o := NewOrchestratorWithDeps("identity-1", client, conf, store, nil)

		result, err := o.Run(ctx, testProfile("identity-1"))
		assert.NoError(t, err)
		assert.Equal(t, types.OnboardingComplete, result.Status)
		assert.Empty(t, result.Wallets)
		assert.Contains(t, result.Warning, "wallet provisioning failed")
	})

	t.Run("a customer failure surfaces and is retryable end to end", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder("POST", "https://bridge.test/v0/customers",
			httpmock.NewStringResponder(500, `{"message":"internal"}`))

		conf := testConfig(false, false)
		client := bridge.NewClientWithConfig(conf)
		store := storage.NewCustomerStore(test.NewTestDB(t))
		o := NewOrchestratorWithDeps("identity-1", client, conf, store, nil)

		_, err := o.Run(ctx, testProfile("identity-1"))
		assert.True(t, bridgeErrors.IsRetriesExhausted(err))
		assert.Equal(t, StateCustomerError, o.Session().CurrentState())

		// The agreement survives the failure; the next run goes straight to
		// the customer step and succeeds.
		httpmock.Reset()
		registerCustomerCreate("pending")

		result, err := o.Run(ctx, testProfile("identity-1"))
		assert.NoError(t, err)
		assert.Equal(t, types.OnboardingComplete, result.Status)
		assert.Equal(t, 1, httpmock.GetTotalCallCount())
	})
}

func TestRunInteractiveAgreement(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ctx := context.Background()

	t.Run("returns awaiting agreement when nobody accepts", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder("POST", "https://bridge.test/v0/agreement_links",
			httpmock.NewStringResponder(200, `{"id":"agr_1","url":"https://bridge.test/accept/agr_1"}`))

		conf := testConfig(true, false)
		client := bridge.NewClientWithConfig(conf)
		store := storage.NewCustomerStore(test.NewTestDB(t))
		o := NewOrchestratorWithDeps("identity-1", client, conf, store, nil)

		result, err := o.Run(ctx, testProfile("identity-1"))
		assert.NoError(t, err)
		assert.Equal(t, types.OnboardingAwaitingAgreement, result.Status)
		assert.Equal(t, "https://bridge.test/accept/agr_1", result.AgreementURL)
		assert.Empty(t, result.CustomerID)
	})

	t.Run("the callback unblocks a waiting run", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder("POST", "https://bridge.test/v0/agreement_links",
			httpmock.NewStringResponder(200, `{"id":"agr_1","url":"https://bridge.test/accept/agr_1"}`))
		registerCustomerCreate("pending")

		conf := testConfig(true, false)
		client := bridge.NewClientWithConfig(conf)
		store := storage.NewCustomerStore(test.NewTestDB(t))
		o := NewOrchestratorWithDeps("identity-1", client, conf, store, nil)

		go func() {
			time.Sleep(10 * time.Millisecond)
			o.AgreementFlow().Accept("signed_agr_1")
		}()

		result, err := o.Run(ctx, testProfile("identity-1"))
		assert.NoError(t, err)
		assert.Equal(t, types.OnboardingComplete, result.Status)
		assert.Equal(t, "signed_agr_1", result.AgreementID)
	})

	t.Run("a concurrent run fails fast", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder("POST", "https://bridge.test/v0/agreement_links",
			httpmock.NewStringResponder(200, `{"id":"agr_1","url":"https://bridge.test/accept/agr_1"}`))

		conf := testConfig(true, false)
		conf.AgreementWait = 200 * time.Millisecond
		client := bridge.NewClientWithConfig(conf)
		store := storage.NewCustomerStore(test.NewTestDB(t))
		o := NewOrchestratorWithDeps("identity-1", client, conf, store, nil)

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = o.Run(ctx, testProfile("identity-1"))
		}()

		time.Sleep(20 * time.Millisecond)
		_, err := o.Run(ctx, testProfile("identity-1"))

		var inProgress bridgeErrors.ErrAlreadyInProgress
		assert.ErrorAs(t, err, &inProgress)
		assert.Equal(t, "identity-1", inProgress.IdentityID)
		<-done
	})
}

func TestResyncAndReset(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	ctx := context.Background()

	t.Run("resync folds the remote status into the session", func(t *testing.T) {
		httpmock.Reset()
		registerCustomerCreate("pending")
		httpmock.RegisterResponder("GET", "https://bridge.test/v0/customers/cust_1",
			httpmock.NewStringResponder(200, `{"id":"cust_1","status":"active"}`))

		conf := testConfig(false, false)
		client := bridge.NewClientWithConfig(conf)
		store := storage.NewCustomerStore(test.NewTestDB(t))
		o := NewOrchestratorWithDeps("identity-1", client, conf, store, nil)

		_, err := o.Run(ctx, testProfile("identity-1"))
		assert.NoError(t, err)

		result, err := o.Resync(ctx)
		assert.NoError(t, err)
		assert.Equal(t, types.VerificationActive, result.VerificationStatus)
		assert.Equal(t, types.VerificationActive, o.Session().Snapshot().VerificationStatus)
	})

	t.Run("resync before provisioning is rejected", func(t *testing.T) {
		conf := testConfig(false, false)
		client := bridge.NewClientWithConfig(conf)
		store := storage.NewCustomerStore(test.NewTestDB(t))
		o := NewOrchestratorWithDeps("identity-1", client, conf, store, nil)

		_, err := o.Resync(ctx)
		var validationErr bridgeErrors.ErrValidation
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("reset keeps the provider customer and re-adopts on the next run", func(t *testing.T) {
		httpmock.Reset()
		registerCustomerCreate("pending")

		conf := testConfig(false, false)
		client := bridge.NewClientWithConfig(conf)
		store := storage.NewCustomerStore(test.NewTestDB(t))
		o := NewOrchestratorWithDeps("identity-1", client, conf, store, nil)

		first, err := o.Run(ctx, testProfile("identity-1"))
		assert.NoError(t, err)

		o.Reset()
		assert.Equal(t, StateUninitialized, o.Session().CurrentState())
		assert.Empty(t, o.Session().CustomerID())

		callsBefore := httpmock.GetTotalCallCount()
		second, err := o.Run(ctx, testProfile("identity-1"))
		assert.NoError(t, err)
		assert.Equal(t, first.CustomerID, second.CustomerID)
		assert.Equal(t, callsBefore, httpmock.GetTotalCallCount())
	})
}

func TestManager(t *testing.T) {
	conf := testConfig(false, false)
	client := bridge.NewClientWithConfig(conf)
	store := storage.NewCustomerStore(test.NewTestDB(t))
	m := NewManagerWithDeps(client, conf, store, nil)

	a := m.For("identity-a")
	b := m.For("identity-b")
	assert.NotSame(t, a, b)
	assert.Same(t, a, m.For("identity-a"))

	_, ok := m.Lookup("identity-c")
	assert.False(t, ok)
	got, ok := m.Lookup("identity-b")
	assert.True(t, ok)
	assert.Same(t, b, got)
}
