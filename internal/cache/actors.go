package cache

import "github.com/emitsound/extension/internal/host"

// ActorCache maps entity indices (controller or pawn) back to the player that
// owns them, so the broadcast handler can resolve a shooter without scanning
// every connected player. It is populated opportunistically whenever a player
// is observed on another code path.
type ActorCache struct {
	playerByIndex map[int]host.Player
	indicesBySlot map[int][]int
}

// NewActorCache returns an empty actor cache.
func NewActorCache() *ActorCache {
	return &ActorCache{
		playerByIndex: make(map[int]host.Player),
		indicesBySlot: make(map[int][]int),
	}
}

// Update records the player's current actor and pawn indices, dropping any
// stale indices previously held by the same slot.
func (c *ActorCache) Update(p host.Player) {
	if p == nil || !p.Valid() {
		return
	}

	for _, old := range c.indicesBySlot[p.Slot()] {
		delete(c.playerByIndex, old)
	}

	indices := []int{p.ActorIndex()}
	if pawn := p.PawnIndex(); pawn > 0 && pawn != p.ActorIndex() {
		indices = append(indices, pawn)
	}

	c.indicesBySlot[p.Slot()] = indices
	for _, idx := range indices {
		if idx > 0 {
			c.playerByIndex[idx] = p
		}
	}
}

// Remove drops the player's entries.
func (c *ActorCache) Remove(p host.Player) {
	if p == nil {
		return
	}
	for _, idx := range c.indicesBySlot[p.Slot()] {
		delete(c.playerByIndex, idx)
	}
	delete(c.indicesBySlot, p.Slot())
}

// Clear drops everything. Called on map start.
func (c *ActorCache) Clear() {
	c.playerByIndex = make(map[int]host.Player)
	c.indicesBySlot = make(map[int][]int)
}

// Find resolves an entity index to a player. A cached association is verified
// against the player's current indices before being returned; on miss the
// connected player list is scanned and the cache refreshed.
func (c *ActorCache) Find(index int, players host.PlayerProvider) host.Player {
	if index <= 0 {
		return nil
	}

	if p, ok := c.playerByIndex[index]; ok {
		if p.Valid() && (p.ActorIndex() == index || p.PawnIndex() == index) {
			return p
		}
		delete(c.playerByIndex, index)
	}

	if players == nil {
		return nil
	}
	for _, candidate := range players.Players() {
		if candidate == nil || !candidate.Valid() {
			continue
		}
		if candidate.ActorIndex() == index || candidate.PawnIndex() == index {
			c.Update(candidate)
			return candidate
		}
	}

	return nil
}

// Len returns the number of cached index associations.
func (c *ActorCache) Len() int {
	return len(c.playerByIndex)
}
