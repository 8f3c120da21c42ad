package agreement

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"

	"github.com/boring-ventures/peyo-onramp/config"
	"github.com/boring-ventures/peyo-onramp/services/bridge"
	bridgeErrors "github.com/boring-ventures/peyo-onramp/services/bridge/errors"
)

func testConfig(supportsLinks bool) *config.BridgeConfiguration {
	return &config.BridgeConfiguration{
		BaseURL:        "https://bridge.test/v0",
		APIKey:         "test-api-key",
		RedirectURL:    "peyo://onboarding/agreement",
		MaxRetries:     3,
		RetryBaseDelay: time.Millisecond,
		AgreementWait:  50 * time.Millisecond,
		Capabilities: config.ProviderCapabilities{
			SupportsAgreementLinks: supportsLinks,
		},
	}
}

func TestFlowAutoMode(t *testing.T) {
	conf := testConfig(false)
	flow := NewFlow(bridge.NewClientWithConfig(conf), conf)

	assert.True(t, flow.IsReady())
	assert.NoError(t, flow.Start(context.Background()))

	// Without agreement-link support the flow self-accepts immediately
	assert.Equal(t, StateAccepted, flow.CurrentState())
	assert.True(t, strings.HasPrefix(flow.AgreementID(), "sandbox-agreement-"))
	assert.Empty(t, flow.URL())

	id, err := flow.AwaitAcceptance(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, flow.AgreementID(), id)
}

func TestFlowInteractiveMode(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	newFlow := func(t *testing.T) *Flow {
		httpmock.Reset()
		httpmock.RegisterResponder("POST", "https://bridge.test/v0/agreement_links",
			httpmock.NewStringResponder(200, `{"id":"agr_1","url":"https://bridge.test/accept/agr_1"}`))
		conf := testConfig(true)
		return NewFlow(bridge.NewClientWithConfig(conf), conf)
	}

	t.Run("generates a link and waits for the callback", func(t *testing.T) {
		flow := newFlow(t)
		assert.NoError(t, flow.Start(context.Background()))
		assert.Equal(t, StateLinkGenerated, flow.CurrentState())
		assert.Equal(t, "https://bridge.test/accept/agr_1", flow.URL())

		go func() {
			time.Sleep(5 * time.Millisecond)
			flow.Accept("signed_agr_1")
		}()

		id, err := flow.AwaitAcceptance(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, "signed_agr_1", id)
		assert.Equal(t, StateAccepted, flow.CurrentState())
		assert.Empty(t, flow.URL())
	})

	t.Run("reports pending with the URL when nobody accepts in time", func(t *testing.T) {
		flow := newFlow(t)
		assert.NoError(t, flow.Start(context.Background()))

		_, err := flow.AwaitAcceptance(context.Background())
		var pending bridgeErrors.ErrAgreementPending
		assert.ErrorAs(t, err, &pending)
		assert.Equal(t, "https://bridge.test/accept/agr_1", pending.URL)
	})

	t.Run("accept is idempotent", func(t *testing.T) {
		flow := newFlow(t)
		assert.NoError(t, flow.Start(context.Background()))

		flow.Accept("signed_agr_1")
		flow.Accept("signed_agr_other")
		assert.Equal(t, "signed_agr_1", flow.AgreementID())
	})

	t.Run("cancel clears the pending URL and unblocks the waiter", func(t *testing.T) {
		flow := newFlow(t)
		assert.NoError(t, flow.Start(context.Background()))

		go func() {
			time.Sleep(5 * time.Millisecond)
			flow.Cancel()
		}()

		_, err := flow.AwaitAcceptance(context.Background())
		assert.ErrorIs(t, err, bridgeErrors.ErrCancelled{})
		assert.Empty(t, flow.URL())
		assert.Equal(t, StateNotStarted, flow.CurrentState())
	})

	t.Run("start surfaces link creation failures", func(t *testing.T) {
		httpmock.Reset()
		httpmock.RegisterResponder("POST", "https://bridge.test/v0/agreement_links",
			httpmock.NewStringResponder(500, `{"message":"internal"}`))

		conf := testConfig(true)
		flow := NewFlow(bridge.NewClientWithConfig(conf), conf)
		err := flow.Start(context.Background())

		var providerErr bridgeErrors.ErrProvider
		assert.ErrorAs(t, err, &providerErr)
		assert.Equal(t, StateNotStarted, flow.CurrentState())
	})

	t.Run("start retries a transient link error with one idempotency key", func(t *testing.T) {
		httpmock.Reset()
		calls := 0
		var seenKeys []string
		httpmock.RegisterResponder("POST", "https://bridge.test/v0/agreement_links",
			func(r *http.Request) (*http.Response, error) {
				calls++
				seenKeys = append(seenKeys, r.Header.Get("Idempotency-Key"))
				if calls == 1 {
					return httpmock.NewStringResponse(500, `{"message":"internal"}`), nil
				}
				return httpmock.NewStringResponse(200, `{"id":"agr_1","url":"https://bridge.test/accept/agr_1"}`), nil
			},
		)

		conf := testConfig(true)
		flow := NewFlow(bridge.NewClientWithConfig(conf), conf)

		assert.NoError(t, flow.Start(context.Background()))
		assert.Equal(t, "https://bridge.test/accept/agr_1", flow.URL())
		assert.Equal(t, 2, calls)
		assert.Len(t, seenKeys, 2)
		assert.Equal(t, seenKeys[0], seenKeys[1])
		assert.NotEmpty(t, seenKeys[0])
	})

	t.Run("a cancel with no waiter does not poison the next cycle", func(t *testing.T) {
		flow := newFlow(t)
		flow.Cancel()

		assert.NoError(t, flow.Start(context.Background()))
		go func() {
			time.Sleep(5 * time.Millisecond)
			flow.Accept("signed_agr_1")
		}()

		id, err := flow.AwaitAcceptance(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, "signed_agr_1", id)
	})
}
