// File path: internal/store/registry.go
package store

import (
	"context"
	"strings"
	"sync"
)

// Registry hands out one live Store per user so concurrent requests for the
// same user share a single AppState. Anonymous sessions share one ephemeral
// store that never persists.
type Registry struct {
	persistence Persistence
	snapshots   Snapshotter

	mu        sync.Mutex
	stores    map[string]*Store
	ephemeral *Store
}

func NewRegistry(persistence Persistence, snapshots Snapshotter) *Registry {
	return &Registry{
		persistence: persistence,
		snapshots:   snapshots,
		stores:      make(map[string]*Store),
	}
}

// ForUser returns the store for userID, loading it on first use. An empty
// id yields the shared ephemeral store. The registry lock is not held over
// the load, so one slow first touch never blocks other users; if two
// requests race the load, the first store registered wins.
func (r *Registry) ForUser(ctx context.Context, userID string) (*Store, error) {
	userID = strings.TrimSpace(userID)
	r.mu.Lock()
	if userID == "" {
		if r.ephemeral == nil {
			r.ephemeral = NewEphemeral()
		}
		st := r.ephemeral
		r.mu.Unlock()
		return st, nil
	}
	if st, ok := r.stores[userID]; ok {
		r.mu.Unlock()
		return st, nil
	}
	r.mu.Unlock()

	st, err := New(ctx, userID, r.persistence, r.snapshots)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.stores[userID]; ok {
		return existing, nil
	}
	r.stores[userID] = st
	return st, nil
}
