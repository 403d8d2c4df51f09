// Package host defines the boundary between the sound-override engine and the
// game server it is embedded in. The engine only ever touches the host through
// these interfaces; the concrete binding lives with the host integration.
package host

// WeaponHandle identifies a live weapon entity. The generation counter changes
// whenever the host recycles the underlying entity index, so a stale handle
// never aliases a new weapon.
type WeaponHandle struct {
	Index      uint32
	Generation uint32
}

// Zero reports whether the handle refers to no weapon.
func (h WeaponHandle) Zero() bool {
	return h.Index == 0 && h.Generation == 0
}

// Weapon is a live weapon instance.
//
// IsSilenced is the single silenced-state capability of the boundary; whatever
// property probing the host needs to answer it is the host adapter's concern.
type Weapon interface {
	Handle() WeaponHandle
	DesignerName() string
	ClassificationCode() int
	IsSilenced() bool
	Valid() bool
}

// Player is a connected player session.
type Player interface {
	// Slot is the small, reused session index. Not a stable identity.
	Slot() int
	// AccountID is the persistent identity surviving reconnects.
	AccountID() uint64
	// ActorIndex and PawnIndex are the entity indices a broadcast message may
	// reference the player by.
	ActorIndex() int
	PawnIndex() int
	ActiveWeapon() Weapon
	Valid() bool
	Alive() bool
}

// PlayerProvider enumerates connected players.
type PlayerProvider interface {
	Players() []Player
}

// EquipmentItem is one equipped inventory item. WeaponSpec is the
// "base:subclass" string for custom weapon items.
type EquipmentItem struct {
	Type       string
	WeaponSpec string
}

// EquipmentProvider exposes the host's per-player equipment inventory.
type EquipmentProvider interface {
	Equipped(p Player, itemType string) ([]EquipmentItem, error)
}

// SoundEmitter plays a named sound event, sourced at a player, to an explicit
// recipient list only.
type SoundEmitter interface {
	EmitSound(source Player, event string, recipients []Player)
}

// Messenger prints a chat line to a single player.
type Messenger interface {
	Print(p Player, msg string)
}

// BroadcastMessage is the mutable playback message the host hands to the
// engine before echoing a shot to observers.
type BroadcastMessage interface {
	// ActorID is the raw actor reference; the low bits hold the entity index.
	ActorID() int
	// ClassificationCode returns the weapon code carried by the message, if any.
	ClassificationCode() (int, bool)
	Recipients() []Player
	ClearRecipients()
}

// FireContext is the optional discharge-event context available when a shot is
// resolved on the weapon-fire path. SilencedKnown distinguishes an explicit
// false from an absent flag.
type FireContext struct {
	WeaponName    string
	Silenced      bool
	SilencedKnown bool
}
