package providers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/DavidTesa19/walter-system-software-sub001/internal/models"
)

// Canonical provider identifiers.
const (
	NameOpenAI = "openai"
	NameClaude = "claude"
)

// ErrNoDefaultProvider indicates the registry has no usable default.
var ErrNoDefaultProvider = errors.New("no default provider registered")

// Provider is the uniform transport adapter for one upstream backend.
//
// Implementations must treat the request as read-only, honor ctx cancellation,
// and hold no per-request state.
type Provider interface {
	// Name returns the canonical provider identifier.
	Name() string

	// Models returns the supported model identifiers; the first entry is the
	// provider's default model.
	Models() []string

	// Complete sends a completion request and returns the raw normalized reply.
	Complete(ctx context.Context, req *models.ProviderRequest) (*models.ProviderResponse, error)

	// CompleteStream sends a streaming completion request. The returned
	// channel is closed after the terminal done event.
	CompleteStream(ctx context.Context, req *models.ProviderRequest) (<-chan models.StreamEvent, error)
}

// ClientConfig contains configuration for provider clients
type ClientConfig struct {
	APIBase string
	APIKey  string
	Models  []string
}

// Registry maps provider identifiers to implementations.
type Registry struct {
	mu          sync.RWMutex
	providers   map[string]Provider
	defaultName string
}

// NewRegistry constructs an empty registry with the given default provider name.
func NewRegistry(defaultName string) *Registry {
	return &Registry{
		providers:   make(map[string]Provider),
		defaultName: defaultName,
	}
}

// Register adds a provider under its canonical name.
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return errors.New("provider must not be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[p.Name()]; exists {
		return fmt.Errorf("provider %q already registered", p.Name())
	}
	r.providers[p.Name()] = p
	return nil
}

// Has reports whether a provider is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}

// Resolve returns the provider for name, falling back to the default for an
// empty or unknown name. It fails only when the default itself is missing.
func (r *Registry) Resolve(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.providers[name]; ok {
		return p, nil
	}
	if p, ok := r.providers[r.defaultName]; ok {
		return p, nil
	}
	return nil, ErrNoDefaultProvider
}
