package provider

import "sync"

// Speed classifies how expensive a provider's Search is. Slow providers
// (file-content search and the like) are excluded from the keystroke fast
// path and only consulted by the batch entry point.
type Speed int

const (
	// Fast providers answer within the keystroke budget.
	Fast Speed = iota

	// Slow providers get a longer budget and never run on the fast path.
	Slow
)

// Registry holds the registered candidate providers, partitioned by speed.
// Registration order is preserved: it is the stable input order used for
// final tie-breaking, so identical configurations produce identical rankings.
type Registry struct {
	mu   sync.RWMutex
	fast []Provider
	slow []Provider
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a provider under the given speed class. A provider with the
// same name replaces the earlier registration in place, keeping its original
// position in the order.
func (r *Registry) Register(p Provider, speed Speed) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if replaced := replaceByName(r.fast, p); replaced {
		return
	}
	if replaced := replaceByName(r.slow, p); replaced {
		return
	}
	switch speed {
	case Slow:
		r.slow = append(r.slow, p)
	default:
		r.fast = append(r.fast, p)
	}
}

func replaceByName(list []Provider, p Provider) bool {
	for i, existing := range list {
		if existing.Name() == p.Name() {
			list[i] = p
			return true
		}
	}
	return false
}

// Fast returns a snapshot of the fast providers in registration order.
func (r *Registry) Fast() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Provider(nil), r.fast...)
}

// Slow returns a snapshot of the slow providers in registration order.
func (r *Registry) Slow() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Provider(nil), r.slow...)
}

// All returns fast providers followed by slow providers.
func (r *Registry) All() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]Provider, 0, len(r.fast)+len(r.slow))
	all = append(all, r.fast...)
	all = append(all, r.slow...)
	return all
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.fast {
		if p.Name() == name {
			return p, true
		}
	}
	for _, p := range r.slow {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Len returns the total number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.fast) + len(r.slow)
}
