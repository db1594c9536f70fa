package tone

import "strings"

// Store exposes tone lookup for the generator and HTTP handlers.
type Store interface {
	List() []Tone
	FindByID(id string) (Tone, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Tone
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied tones.
func NewMemoryStore(items []Tone) *MemoryStore {
	return &MemoryStore{items: append([]Tone(nil), items...)}
}

// List returns the tones in catalogue order.
func (s *MemoryStore) List() []Tone {
	return append([]Tone(nil), s.items...)
}

// FindByID looks up a tone by identifier, ignoring case and surrounding spaces.
func (s *MemoryStore) FindByID(id string) (Tone, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Tone{}, false
}
