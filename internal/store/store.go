package store

import "sync"

// Store guards the active runtime config. Every component reads a value
// snapshot at the top of its evaluation; Update swaps the whole config
// after validation, so changes take effect on the next evaluation and
// never mid-decision.
type Store struct {
	mu  sync.RWMutex
	cfg Config
}

func NewStore(cfg Config) *Store {
	return &Store{cfg: cfg}
}

// Snapshot returns a copy of the current config.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Update validates and installs a new config. On validation failure the
// prior config remains in effect and the error is returned to the caller.
func (s *Store) Update(next Config) error {
	setDefaults(&next)
	if err := next.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = next
	s.mu.Unlock()
	return nil
}
