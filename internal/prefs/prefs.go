// Package prefs holds each connected player's custom-sound preference: an
// in-memory table consulted on every broadcast, backed by an optional durable
// store. Durable reads and writes run on their own goroutines; their results
// are handed back to the host's main context through the task queue, so the
// per-slot shadow is only ever touched from one execution context.
package prefs

import (
	"log/slog"
	"sync"
)

// Durable is the persistence backend for preferences. A nil Durable means
// preferences live only for the session.
type Durable interface {
	LoadPreference(accountID uint64) (enabled bool, found bool, err error)
	SavePreference(accountID uint64, enabled bool) error
}

// Store is the in-memory preference table.
type Store struct {
	mu        sync.Mutex
	byAccount map[uint64]bool

	// bySlot mirrors byAccount for connected slots. Written only from the
	// main context, read on the broadcast path without locking.
	bySlot []bool

	defaultEnabled bool
	durable        Durable
	post           func(func())
	logger         *slog.Logger
}

// NewStore creates a preference store. post enqueues a closure for the main
// context and must never be nil.
func NewStore(defaultEnabled bool, durable Durable, post func(func()), logger *slog.Logger, maxSlots int) *Store {
	slots := make([]bool, maxSlots)
	for i := range slots {
		slots[i] = defaultEnabled
	}
	return &Store{
		byAccount:      make(map[uint64]bool),
		bySlot:         slots,
		defaultEnabled: defaultEnabled,
		durable:        durable,
		post:           post,
		logger:         logger,
	}
}

// SetDurable swaps the persistence backend. Used on config reload; in-flight
// operations finish against the backend they started with.
func (s *Store) SetDurable(d Durable) {
	s.mu.Lock()
	s.durable = d
	s.mu.Unlock()
}

func (s *Store) getDurable() Durable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.durable
}

// Enabled returns the preference for an account, or the default when the
// account is unknown.
func (s *Store) Enabled(accountID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if enabled, ok := s.byAccount[accountID]; ok {
		return enabled
	}
	return s.defaultEnabled
}

// BySlot returns the preference for a connected slot. Out-of-range slots get
// the default.
func (s *Store) BySlot(slot int) bool {
	if slot < 0 || slot >= len(s.bySlot) {
		return s.defaultEnabled
	}
	return s.bySlot[slot]
}

// Set records a preference change and saves it in the background. The durable
// write is fire and forget; the in-memory value is authoritative immediately.
func (s *Store) Set(accountID uint64, slot int, enabled bool) {
	s.mu.Lock()
	s.byAccount[accountID] = enabled
	s.mu.Unlock()
	s.setSlot(slot, enabled)

	durable := s.getDurable()
	if durable == nil {
		return
	}
	go func() {
		if err := durable.SavePreference(accountID, enabled); err != nil {
			s.logger.Error("Failed to save sound preference", "accountId", accountID, "error", err)
		}
	}()
}

// Seed installs the default for a connecting player and starts the background
// load of any stored preference. A stored row overrides the default once the
// load completes; a missing row writes the default back so the player has a
// row from now on.
func (s *Store) Seed(accountID uint64, slot int) {
	s.mu.Lock()
	s.byAccount[accountID] = s.defaultEnabled
	s.mu.Unlock()
	s.setSlot(slot, s.defaultEnabled)

	durable := s.getDurable()
	if durable == nil {
		return
	}
	go func() {
		enabled, found, err := durable.LoadPreference(accountID)
		if err != nil {
			s.logger.Error("Failed to load sound preference", "accountId", accountID, "error", err)
			return
		}
		if !found {
			if err := durable.SavePreference(accountID, s.defaultEnabled); err != nil {
				s.logger.Error("Failed to store default sound preference", "accountId", accountID, "error", err)
			}
			return
		}
		s.post(func() {
			s.apply(accountID, slot, enabled)
		})
	}()
}

// Remove drops a disconnecting player and resets their slot to the default.
func (s *Store) Remove(accountID uint64, slot int) {
	s.mu.Lock()
	delete(s.byAccount, accountID)
	s.mu.Unlock()
	s.setSlot(slot, s.defaultEnabled)
}

// Len returns the number of tracked accounts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byAccount)
}

// apply installs a loaded preference. Runs on the main context. The slot is
// only updated if the account still occupies it.
func (s *Store) apply(accountID uint64, slot int, enabled bool) {
	s.mu.Lock()
	_, connected := s.byAccount[accountID]
	if connected {
		s.byAccount[accountID] = enabled
	}
	s.mu.Unlock()
	if connected {
		s.setSlot(slot, enabled)
	}
}

func (s *Store) setSlot(slot int, enabled bool) {
	if slot < 0 || slot >= len(s.bySlot) {
		return
	}
	s.bySlot[slot] = enabled
}
