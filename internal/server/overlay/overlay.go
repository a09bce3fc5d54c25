// Package overlay keeps the per-content-key cheat state imported from users'
// emulator stores. It lives in process memory and is lost on restart; the
// stores themselves are persisted by the blob store.
package overlay

import (
	"sort"
	"sync"

	"github.com/dmitrijs2005/deltacheats/internal/server/models"
)

// Store is safe for concurrent use. Overlays are copied on the way in and on
// the way out.
type Store struct {
	mu          sync.RWMutex
	overlays    map[string]models.Overlay
	identifiers map[string]string
}

func NewStore() *Store {
	return &Store{
		overlays:    make(map[string]models.Overlay),
		identifiers: make(map[string]string),
	}
}

// Put replaces the overlay for contentKey and records the game identifier
// the content key was derived with.
func (s *Store) Put(contentKey, identifier string, o models.Overlay) {
	c := o.Clone()
	s.mu.Lock()
	s.overlays[contentKey] = c
	s.identifiers[contentKey] = identifier
	s.mu.Unlock()
}

// Identifier returns the game identifier recorded for contentKey.
func (s *Store) Identifier(contentKey string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.identifiers[contentKey]
	return id, ok
}

// Get returns the overlay for contentKey.
func (s *Store) Get(contentKey string) (models.Overlay, bool) {
	s.mu.RLock()
	o, ok := s.overlays[contentKey]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return o.Clone(), true
}

// Update applies fn to a copy of the overlay for contentKey under the write
// lock and stores the result. A missing overlay is passed as an empty one.
// A non-empty identifier is recorded for contentKey.
func (s *Store) Update(contentKey, identifier string, fn func(models.Overlay)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.overlays[contentKey].Clone()
	fn(o)
	s.overlays[contentKey] = o
	if identifier != "" {
		s.identifiers[contentKey] = identifier
	}
}

// Keys returns the content keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.overlays))
	for k := range s.overlays {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}
