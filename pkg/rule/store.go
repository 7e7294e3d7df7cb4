package rule

import "sync"

// Store is a thread-safe in-memory mapping from client id to an ordered rule
// list. Put replaces a client's list atomically; Get returns the current
// list reference. Lists are never mutated after publication, so readers may
// hold the returned slice without copying.
type Store struct {
	mu    sync.RWMutex
	lists map[string][]Rule
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{lists: make(map[string][]Rule)}
}

// Put atomically replaces the rule list for a client.
func (s *Store) Put(clientID string, rules []Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[clientID] = rules
}

// Get returns the current rule list for a client, or nil when the client has
// none. The returned slice is a shared snapshot and must not be modified.
func (s *Store) Get(clientID string) []Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lists[clientID]
}

// Delete removes a client's rules. Returns true if the client had any.
func (s *Store) Delete(clientID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lists[clientID]; ok {
		delete(s.lists, clientID)
		return true
	}
	return false
}

// Clients returns the ids of all clients with rules.
func (s *Store) Clients() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.lists))
	for id := range s.lists {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of clients with rules.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lists)
}
