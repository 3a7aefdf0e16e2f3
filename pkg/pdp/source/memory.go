package source

import (
	"context"
	"sync"

	"mercator-hq/xacmlcore/pkg/pdp"
)

// MemorySource holds rule sets in memory. Set notifies watchers, which makes
// it suitable for tests and for embedding callers that build rule sets
// themselves.
type MemorySource struct {
	mu       sync.Mutex
	ruleSets []*pdp.RuleSet
	watchers map[chan pdp.SourceEvent]struct{}
}

// NewMemorySource creates an in-memory rule source.
func NewMemorySource(ruleSets ...*pdp.RuleSet) *MemorySource {
	return &MemorySource{
		ruleSets: ruleSets,
		watchers: make(map[chan pdp.SourceEvent]struct{}),
	}
}

// String implements pdp.RuleSource.
func (s *MemorySource) String() string {
	return "memory"
}

// Load returns a copy of the stored rule sets.
func (s *MemorySource) Load(ctx context.Context) ([]*pdp.RuleSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ruleSets := make([]*pdp.RuleSet, len(s.ruleSets))
	copy(ruleSets, s.ruleSets)
	return ruleSets, nil
}

// Set replaces the stored rule sets and notifies watchers. A watcher that
// has not consumed the previous notification gets only one.
func (s *MemorySource) Set(ruleSets ...*pdp.RuleSet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ruleSets = ruleSets
	for ch := range s.watchers {
		select {
		case ch <- pdp.SourceEvent{Type: pdp.SourceEventModified}:
		default:
		}
	}
}

// Watch returns a channel receiving an event after every Set.
func (s *MemorySource) Watch(ctx context.Context) (<-chan pdp.SourceEvent, error) {
	notify := make(chan pdp.SourceEvent, 1)
	out := make(chan pdp.SourceEvent)

	s.mu.Lock()
	s.watchers[notify] = struct{}{}
	s.mu.Unlock()

	go func() {
		defer close(out)
		defer func() {
			s.mu.Lock()
			delete(s.watchers, notify)
			s.mu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-notify:
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
