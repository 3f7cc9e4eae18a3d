// Package notify keeps the active persistent notifications and fans them out
// to the configured delivery sinks.
package notify

import (
	"context"
	"hue-bridge-integration/internal/domain/model"
	"sync"
)

// Store is an in-memory notification store. Creating a notification with an
// id that already exists replaces it in place.
type Store struct {
	mu    sync.RWMutex
	order []string
	items map[string]model.Notification
}

func NewStore() *Store {
	return &Store{items: make(map[string]model.Notification)}
}

func (s *Store) Create(_ context.Context, n model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[n.ID]; !ok {
		s.order = append(s.order, n.ID)
	}
	s.items[n.ID] = n
	return nil
}

// List returns notifications in creation order.
func (s *Store) List(_ context.Context) []model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Notification, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

func (s *Store) Dismiss(_ context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}
