package coaching

// PersonalityStore exposes the coaching style catalog.
type PersonalityStore interface {
	List() []Personality
	FindByID(id string) (Personality, bool)
}

// MemoryStore implements PersonalityStore with an in-memory slice.
type MemoryStore struct {
	items []Personality
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personalities.
func NewMemoryStore(items []Personality) *MemoryStore {
	return &MemoryStore{items: append([]Personality(nil), items...)}
}

// List returns the catalog.
func (s *MemoryStore) List() []Personality {
	return append([]Personality(nil), s.items...)
}

// FindByID looks up a personality by identifier.
func (s *MemoryStore) FindByID(id string) (Personality, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Personality{}, false
}
