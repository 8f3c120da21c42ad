package onboarding

import (
	"sync"

	"github.com/boring-ventures/peyo-onramp/config"
	"github.com/boring-ventures/peyo-onramp/services/bridge"
	"github.com/boring-ventures/peyo-onramp/storage"
	"github.com/redis/go-redis/v9"
)

// Manager hands out exactly one orchestrator per identity. Orchestrators
// share a single provider client and store; sessions are never shared.
type Manager struct {
	mu            sync.Mutex
	orchestrators map[string]*Orchestrator

	client *bridge.Client
	conf   *config.BridgeConfiguration
	store  *storage.CustomerStore
	redis  *redis.Client
}

// NewManager creates a manager on the process-wide connections
func NewManager() *Manager {
	return NewManagerWithDeps(bridge.NewClient(), config.BridgeConfig(), storage.NewCustomerStore(storage.GetDB()), storage.RedisClient)
}

// NewManagerWithDeps creates a manager from explicit dependencies
func NewManagerWithDeps(client *bridge.Client, conf *config.BridgeConfiguration, store *storage.CustomerStore, redisClient *redis.Client) *Manager {
	return &Manager{
		orchestrators: make(map[string]*Orchestrator),
		client:        client,
		conf:          conf,
		store:         store,
		redis:         redisClient,
	}
}

// For returns the orchestrator owning the given identity, creating it on
// first use
func (m *Manager) For(identityID string) *Orchestrator {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orchestrators[identityID]; ok {
		return o
	}
	o := NewOrchestratorWithDeps(identityID, m.client, m.conf, m.store, m.redis)
	m.orchestrators[identityID] = o
	return o
}

// Lookup returns the orchestrator for an identity if one exists
func (m *Manager) Lookup(identityID string) (*Orchestrator, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orchestrators[identityID]
	return o, ok
}
