// Package equipment maintains the per-player mapping from weapon base
// identity to the equipped custom subclass, mirrored from the host's
// equipment inventory.
package equipment

import (
	"strings"

	"github.com/emitsound/extension/internal/host"
	"github.com/emitsound/extension/internal/overrides"
)

// CustomWeaponItemType is the inventory item type carrying a weapon spec.
const CustomWeaponItemType = "customweapon"

// Map holds equipped subclasses keyed by stable account id, then by
// case-folded weapon base.
type Map struct {
	byAccount map[uint64]map[string]string
}

// NewMap returns an empty equipment map.
func NewMap() *Map {
	return &Map{
		byAccount: make(map[uint64]map[string]string),
	}
}

// Subclass returns the equipped subclass for a weapon base.
func (m *Map) Subclass(accountID uint64, base string) (string, bool) {
	equipped, ok := m.byAccount[accountID]
	if !ok {
		return "", false
	}
	s, ok := equipped[foldBase(base)]
	return s, ok
}

// Refresh rebuilds the player's entries wholesale from the host inventory.
// The previous snapshot is replaced, never merged; an empty inventory removes
// the player entirely.
func (m *Map) Refresh(p host.Player, inventory host.EquipmentProvider) error {
	if p == nil || !p.Valid() || inventory == nil {
		return nil
	}

	items, err := inventory.Equipped(p, CustomWeaponItemType)
	if err != nil {
		return err
	}

	equipped := make(map[string]string, len(items))
	for _, item := range items {
		if !strings.EqualFold(item.Type, CustomWeaponItemType) {
			continue
		}
		base, subclass, ok := overrides.ParseWeaponSpec(item.WeaponSpec)
		if !ok {
			continue
		}
		equipped[foldBase(base)] = subclass
	}

	if len(equipped) == 0 {
		delete(m.byAccount, p.AccountID())
		return nil
	}
	m.byAccount[p.AccountID()] = equipped
	return nil
}

// Equip records a live equip notification between refreshes.
func (m *Map) Equip(accountID uint64, item host.EquipmentItem) (base, subclass string, ok bool) {
	if !strings.EqualFold(item.Type, CustomWeaponItemType) {
		return "", "", false
	}
	base, subclass, ok = overrides.ParseWeaponSpec(item.WeaponSpec)
	if !ok {
		return "", "", false
	}

	equipped, exists := m.byAccount[accountID]
	if !exists {
		equipped = make(map[string]string)
		m.byAccount[accountID] = equipped
	}
	equipped[foldBase(base)] = subclass
	return base, subclass, true
}

// Unequip removes a live unequip notification. The entry is only dropped when
// the stored subclass matches the notification, so an unequip of a previously
// replaced item is a no-op.
func (m *Map) Unequip(accountID uint64, item host.EquipmentItem) (base, subclass string, ok bool) {
	if !strings.EqualFold(item.Type, CustomWeaponItemType) {
		return "", "", false
	}
	base, subclass, ok = overrides.ParseWeaponSpec(item.WeaponSpec)
	if !ok {
		return "", "", false
	}

	equipped, exists := m.byAccount[accountID]
	if !exists {
		return "", "", false
	}

	current, exists := equipped[foldBase(base)]
	if !exists || !strings.EqualFold(current, subclass) {
		return "", "", false
	}
	delete(equipped, foldBase(base))

	if len(equipped) == 0 {
		delete(m.byAccount, accountID)
	}
	return base, subclass, true
}

// Remove drops the player's entries on disconnect.
func (m *Map) Remove(accountID uint64) {
	delete(m.byAccount, accountID)
}

// Len returns the number of tracked players.
func (m *Map) Len() int {
	return len(m.byAccount)
}

func foldBase(base string) string {
	return strings.ToLower(strings.TrimSpace(base))
}
