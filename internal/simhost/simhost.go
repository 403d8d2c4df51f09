// Package simhost is an in-memory implementation of the host boundary. It
// backs the demo mode and the cross-package tests; a real deployment replaces
// it with the game-server binding.
package simhost

import (
	"strings"
	"sync"

	"github.com/emitsound/extension/internal/host"
)

// Weapon is a scripted weapon instance.
type Weapon struct {
	WeaponHandle host.WeaponHandle
	Name         string
	Code         int
	Silenced     bool
	Invalid      bool
}

func (w *Weapon) Handle() host.WeaponHandle { return w.WeaponHandle }
func (w *Weapon) DesignerName() string      { return w.Name }
func (w *Weapon) ClassificationCode() int   { return w.Code }
func (w *Weapon) IsSilenced() bool          { return w.Silenced }
func (w *Weapon) Valid() bool               { return w != nil && !w.Invalid }

// Player is a scripted player session.
type Player struct {
	PlayerSlot int
	Account    uint64
	Actor      int
	Pawn       int
	Weapon     *Weapon
	Invalid    bool
	Dead       bool
}

func (p *Player) Slot() int         { return p.PlayerSlot }
func (p *Player) AccountID() uint64 { return p.Account }
func (p *Player) ActorIndex() int   { return p.Actor }
func (p *Player) PawnIndex() int    { return p.Pawn }
func (p *Player) ActiveWeapon() host.Weapon {
	if p.Weapon == nil {
		return nil
	}
	return p.Weapon
}
func (p *Player) Valid() bool { return p != nil && !p.Invalid }
func (p *Player) Alive() bool { return p.Valid() && !p.Dead }

// World holds the scripted server state and implements the provider
// interfaces the engine consumes.
type World struct {
	mu        sync.Mutex
	players   []*Player
	inventory map[uint64][]host.EquipmentItem

	Emitted []Emission
	Printed []string
}

// Emission records one EmitSound call.
type Emission struct {
	SourceSlot int
	Event      string
	Recipients []host.Player
}

// NewWorld returns an empty world.
func NewWorld() *World {
	return &World{
		inventory: make(map[uint64][]host.EquipmentItem),
	}
}

// AddPlayer connects a player.
func (w *World) AddPlayer(p *Player) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.players = append(w.players, p)
}

// RemovePlayer disconnects the player in the given slot.
func (w *World) RemovePlayer(slot int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	kept := w.players[:0]
	for _, p := range w.players {
		if p.PlayerSlot != slot {
			kept = append(kept, p)
		}
	}
	w.players = kept
}

// SetInventory replaces a player's equipped items.
func (w *World) SetInventory(accountID uint64, items []host.EquipmentItem) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.inventory[accountID] = items
}

// Players implements host.PlayerProvider.
func (w *World) Players() []host.Player {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]host.Player, len(w.players))
	for i, p := range w.players {
		out[i] = p
	}
	return out
}

// Equipped implements host.EquipmentProvider.
func (w *World) Equipped(p host.Player, itemType string) ([]host.EquipmentItem, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []host.EquipmentItem
	for _, item := range w.inventory[p.AccountID()] {
		if strings.EqualFold(item.Type, itemType) {
			out = append(out, item)
		}
	}
	return out, nil
}

// EmitSound implements host.SoundEmitter.
func (w *World) EmitSound(source host.Player, event string, recipients []host.Player) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Emitted = append(w.Emitted, Emission{
		SourceSlot: source.Slot(),
		Event:      event,
		Recipients: recipients,
	})
}

// Print implements host.Messenger.
func (w *World) Print(p host.Player, msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Printed = append(w.Printed, msg)
}

// Broadcast is a scripted playback message.
type Broadcast struct {
	Actor     int
	Code      int
	CodeKnown bool
	Audience  []host.Player
	Cleared   bool
}

func (b *Broadcast) ActorID() int { return b.Actor }

func (b *Broadcast) ClassificationCode() (int, bool) { return b.Code, b.CodeKnown }

func (b *Broadcast) Recipients() []host.Player { return b.Audience }

func (b *Broadcast) ClearRecipients() {
	b.Audience = nil
	b.Cleared = true
}
