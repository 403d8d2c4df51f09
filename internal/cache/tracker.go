package cache

import "github.com/emitsound/extension/internal/host"

// SubclassTracker binds live weapon handles to their last confirmed subclass
// so repeated fire from the same weapon skips the equipment-map walk.
// Handles are generation-checked, but the host swaps weapon contents without
// changing handle ownership, so callers must still re-validate a binding
// against the weapon's current base identity before trusting it.
type SubclassTracker struct {
	bySubclass map[host.WeaponHandle]string
}

// NewSubclassTracker returns an empty tracker.
func NewSubclassTracker() *SubclassTracker {
	return &SubclassTracker{
		bySubclass: make(map[host.WeaponHandle]string),
	}
}

// Lookup returns the bound subclass for a handle.
func (t *SubclassTracker) Lookup(h host.WeaponHandle) (string, bool) {
	s, ok := t.bySubclass[h]
	return s, ok
}

// Bind records a confirmed subclass for a live weapon.
func (t *SubclassTracker) Bind(h host.WeaponHandle, subclass string) {
	if h.Zero() || subclass == "" {
		return
	}
	t.bySubclass[h] = subclass
}

// Unbind drops a binding.
func (t *SubclassTracker) Unbind(h host.WeaponHandle) {
	delete(t.bySubclass, h)
}

// Reset drops all bindings. Called on map start, when every weapon entity is
// recreated.
func (t *SubclassTracker) Reset() {
	t.bySubclass = make(map[host.WeaponHandle]string)
}

// Len returns the number of live bindings.
func (t *SubclassTracker) Len() int {
	return len(t.bySubclass)
}
