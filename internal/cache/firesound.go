// Package cache holds the engine's in-memory correlation state: the per-slot
// fire-sound cache, the weapon-handle subclass tracker, and the actor-index
// player cache. Latency here is critical; everything is O(1) on the hot path.
package cache

// FireSoundEntry is one resolved sound decision, kept until the matching
// broadcast playback message arrives or the TTL passes.
type FireSoundEntry struct {
	ClassificationCode int
	CustomEvent        string
	OfficialEvent      string
	ResolvedAtMs       int64
}

// Empty reports whether the entry carries no override at all.
func (e FireSoundEntry) Empty() bool {
	return e.CustomEvent == "" && e.OfficialEvent == ""
}

// FireSoundCache is a fixed-size, slot-indexed store of fire-sound decisions.
// Slots are reused across connects, so entries are cleared on disconnect and
// map start by the engine. The cache itself holds no resolution logic.
type FireSoundCache struct {
	entries []*FireSoundEntry
}

// NewFireSoundCache creates a cache with the given number of player slots.
func NewFireSoundCache(slots int) *FireSoundCache {
	return &FireSoundCache{
		entries: make([]*FireSoundEntry, slots),
	}
}

// Get returns the entry for a slot, or nil.
func (c *FireSoundCache) Get(slot int) *FireSoundEntry {
	if !c.validSlot(slot) {
		return nil
	}
	return c.entries[slot]
}

// Set overwrites the slot's entry. Blank event strings are normalized away so
// Empty is meaningful on read.
func (c *FireSoundCache) Set(slot int, entry FireSoundEntry) {
	if !c.validSlot(slot) {
		return
	}
	c.entries[slot] = &entry
}

// Clear drops the slot's entry.
func (c *FireSoundCache) Clear(slot int) {
	if !c.validSlot(slot) {
		return
	}
	c.entries[slot] = nil
}

// ClearAll drops every entry.
func (c *FireSoundCache) ClearAll() {
	for i := range c.entries {
		c.entries[i] = nil
	}
}

// Valid reports whether an entry can still be trusted at nowMs: it must be
// younger than ttlMs and, when the broadcast message carries a classification
// code, that code must match the one resolved at fire time.
func (e *FireSoundEntry) Valid(nowMs, ttlMs int64, msgCode int, msgCodeKnown bool) bool {
	if e == nil {
		return false
	}
	if nowMs-e.ResolvedAtMs > ttlMs {
		return false
	}
	if msgCodeKnown && msgCode != e.ClassificationCode {
		return false
	}
	return true
}

func (c *FireSoundCache) validSlot(slot int) bool {
	return slot >= 0 && slot < len(c.entries)
}
