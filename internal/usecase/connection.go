package usecase

import (
	"sync"
	"sync/atomic"

	"meilisearch-mcp/internal/adapter/tool"
	"meilisearch-mcp/internal/domain"
	"meilisearch-mcp/internal/infra/config"
)

// BackendFactory builds a backend bound to the given settings.
type BackendFactory func(settings domain.ConnectionSettings) tool.Backend

type binding struct {
	settings domain.ConnectionSettings
	backend  tool.Backend
}

// ConnectionHolder owns the process-wide connection settings and the backend
// built from them. Readers get a consistent (settings, backend) pair; Update
// publishes a new pair with a single atomic store.
type ConnectionHolder struct {
	mu      sync.Mutex // serializes writers
	current atomic.Pointer[binding]
	factory BackendFactory
}

// NewConnectionHolder validates initial and builds the first backend.
func NewConnectionHolder(initial domain.ConnectionSettings, factory BackendFactory) (*ConnectionHolder, error) {
	if err := config.ValidateBaseURL(initial.URL); err != nil {
		return nil, domain.NewDomainError("Connection.New", domain.ErrInvalidInput, "url "+err.Error())
	}
	h := &ConnectionHolder{factory: factory}
	h.current.Store(&binding{settings: initial, backend: factory(initial)})
	return h, nil
}

// Settings returns the current settings.
func (h *ConnectionHolder) Settings() domain.ConnectionSettings {
	return h.current.Load().settings
}

// Backend returns the backend bound to the current settings.
func (h *ConnectionHolder) Backend() tool.Backend {
	return h.current.Load().backend
}

func (h *ConnectionHolder) snapshot() *binding {
	return h.current.Load()
}

// Update replaces the URL and/or the API key. An empty argument keeps the
// current value. The new backend is built before it becomes visible, so an
// invocation sees either the old pair or the new one.
func (h *ConnectionHolder) Update(url, apiKey string) (domain.ConnectionSettings, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	old := h.current.Load()
	next := old.settings
	if url != "" {
		if err := config.ValidateBaseURL(url); err != nil {
			return old.settings, domain.NewDomainError("Connection.Update", domain.ErrInvalidInput, "url "+err.Error())
		}
		next.URL = url
	}
	if apiKey != "" {
		next.APIKey = apiKey
	}
	if next == old.settings {
		return next, nil
	}

	h.current.Store(&binding{settings: next, backend: h.factory(next)})
	if c, ok := old.backend.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
	return next, nil
}

var _ tool.Connection = (*ConnectionHolder)(nil)
