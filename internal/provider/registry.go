package provider

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/time/rate"
)

// Constructor builds an adapter bound to one set of credentials.
type Constructor func(creds Credentials) (Adapter, error)

// Registry maps provider type tokens to adapter constructors. It is built once
// at startup and passed to the services that resolve adapters.
type Registry struct {
	mu          sync.RWMutex
	ctors       map[string]Constructor
	defaultType string
}

func NewRegistry(defaultType string) *Registry {
	return &Registry{
		ctors:       make(map[string]Constructor),
		defaultType: defaultType,
	}
}

// NewDefaultRegistry registers the built-in Buffer and Ayrshare adapters. Each
// provider gets one rate limiter shared by all tenants' adapters.
func NewDefaultRegistry(defaultType string, bufferOpts, ayrshareOpts ClientOptions) *Registry {
	bufferOpts.Limiter = sharedLimiter(bufferOpts)
	ayrshareOpts.Limiter = sharedLimiter(ayrshareOpts)
	r := NewRegistry(defaultType)
	_ = r.Register(BufferName, func(creds Credentials) (Adapter, error) {
		return NewBufferAdapter(creds, bufferOpts)
	})
	_ = r.Register(AyrshareName, func(creds Credentials) (Adapter, error) {
		return NewAyrshareAdapter(creds, ayrshareOpts)
	})
	return r
}

func sharedLimiter(opts ClientOptions) *rate.Limiter {
	if opts.Limiter != nil || opts.RequestsPerSecond <= 0 {
		return opts.Limiter
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
}

func (r *Registry) Register(name string, ctor Constructor) error {
	if name == "" {
		return errors.New("provider name cannot be empty")
	}
	if ctor == nil {
		return errors.New("provider constructor cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ctors[name]; ok {
		return fmt.Errorf("provider %q is already registered", name)
	}
	r.ctors[name] = ctor
	return nil
}

// Resolve builds an adapter for providerType, or for the registry default when
// providerType is empty.
func (r *Registry) Resolve(providerType string, creds Credentials) (Adapter, error) {
	if providerType == "" {
		providerType = r.defaultType
	}
	r.mu.RLock()
	ctor, ok := r.ctors[providerType]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnsupportedProviderError{Type: providerType, Available: r.Types()}
	}
	return ctor(creds)
}

func (r *Registry) Has(providerType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ctors[providerType]
	return ok
}

func (r *Registry) Default() string { return r.defaultType }

func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.ctors))
	for name := range r.ctors {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}
