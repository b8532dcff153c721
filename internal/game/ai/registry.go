package ai

import (
	"fmt"

	"github.com/cory-johannsen/monksim/internal/game/episode"
)

// Registry indexes domains by ID.
//
// Invariant: each domain ID is registered at most once.
type Registry struct {
	domains map[string]*Domain
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{domains: make(map[string]*Domain)}
}

// Register stores domain.
//
// Precondition: domain must not be nil.
// Postcondition: returns error on domain ID collision.
func (r *Registry) Register(domain *Domain) error {
	if _, exists := r.domains[domain.ID]; exists {
		return fmt.Errorf("ai.Registry: domain %q already registered", domain.ID)
	}
	r.domains[domain.ID] = domain
	return nil
}

// DomainFor returns the domain registered as domainID, or false if not registered.
func (r *Registry) DomainFor(domainID string) (*Domain, bool) {
	d, ok := r.domains[domainID]
	return d, ok
}

// CallerFactory creates the script caller a single worker uses.
type CallerFactory func(worker int) (ScriptCaller, error)

// Factory returns a PolicyFactory producing one Planner per worker over
// domainID, each with its own caller so no Lua VM is shared between workers.
//
// Precondition: newCaller must be non-nil.
// Postcondition: returns error if domainID is not registered.
func (r *Registry) Factory(domainID string, newCaller CallerFactory) (episode.PolicyFactory, error) {
	d, ok := r.domains[domainID]
	if !ok {
		return nil, fmt.Errorf("ai.Registry: unknown domain %q", domainID)
	}
	return func(worker int) (episode.Policy, error) {
		caller, err := newCaller(worker)
		if err != nil {
			return nil, fmt.Errorf("creating script caller for worker %d: %w", worker, err)
		}
		return NewPlanner(d, caller, d.ID), nil
	}, nil
}
