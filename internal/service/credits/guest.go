package credits

import "sync"

// MemoryGuestStore keeps a guest counter in process memory. It backs the CLI
// and tests; HTTP guests use a cookie store.
type MemoryGuestStore struct {
	mu       sync.Mutex
	defaults int
	value    *int
}

// NewMemoryGuestStore returns an uninitialised store that starts at defaults.
func NewMemoryGuestStore(defaults int) *MemoryGuestStore {
	return &MemoryGuestStore{defaults: defaults}
}

func (s *MemoryGuestStore) Get() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.value == nil {
		v := s.defaults
		s.value = &v
	}
	return *s.value
}

func (s *MemoryGuestStore) Set(credits int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = &credits
}
