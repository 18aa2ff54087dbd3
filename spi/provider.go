package spi

import (
	"sync"
)

// Provider lazily produces instances.
type Provider interface {
	Get() (any, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func() (any, error)

// Get calls f.
func (f ProviderFunc) Get() (any, error) {
	return f()
}

// InstanceProvider always returns the same instance.
type InstanceProvider struct {
	Instance any
}

// Get returns the wrapped instance.
func (p *InstanceProvider) Get() (any, error) {
	return p.Instance, nil
}

// MemoizingProvider caches the first successful result of the wrapped
// provider. Failed attempts are not cached.
type MemoizingProvider struct {
	target Provider

	mu       sync.Mutex
	done     bool
	instance any
}

// MemoizeProvider wraps p so that it builds at most one instance. Instance
// providers and already memoized providers are returned unchanged.
func MemoizeProvider(p Provider) Provider {
	switch p.(type) {
	case *MemoizingProvider, *InstanceProvider:
		return p
	}
	return &MemoizingProvider{target: p}
}

// Get returns the cached instance, creating it on first use.
func (p *MemoizingProvider) Get() (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done {
		return p.instance, nil
	}
	instance, err := p.target.Get()
	if err != nil {
		return nil, err
	}
	p.instance = instance
	p.done = true
	return instance, nil
}

// Cached returns the instance if one was created.
func (p *MemoizingProvider) Cached() (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.instance, p.done
}
