package payments

import "strings"

// Adapter verifies that a raw notification genuinely originated from its
// provider and normalizes it into an Event. Implementations must use a
// constant-time signature comparison and must map unknown-but-parseable
// event types to KindIgnored instead of failing.
type Adapter interface {
	Provider() Provider
	Verify(rawBody []byte, signatureHeader string) (*Event, error)
}

// Registry holds the configured adapters. It is built once at startup and
// injected into the ingress; adding a provider means registering one more
// adapter, never touching ingress, ledger or finalizer code.
type Registry struct {
	adapters map[Provider]Adapter
}

// NewRegistry creates a registry from the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[Provider]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Provider()] = a
	}
	return &Registry{adapters: m}
}

// Lookup resolves a provider name (e.g. a URL path segment) to its adapter.
func (r *Registry) Lookup(name string) (Adapter, error) {
	a, ok := r.adapters[Provider(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return a, nil
}
