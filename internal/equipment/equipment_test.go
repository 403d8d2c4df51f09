package equipment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emitsound/extension/internal/host"
	"github.com/emitsound/extension/internal/simhost"
)

func TestMap_RefreshReplacesWholesale(t *testing.T) {
	m := NewMap()
	world := simhost.NewWorld()
	p := &simhost.Player{PlayerSlot: 1, Account: 100}
	world.AddPlayer(p)

	world.SetInventory(100, []host.EquipmentItem{
		{Type: "customweapon", WeaponSpec: "weapon_m4a1:60:weapon_m4a1"},
		{Type: "customweapon", WeaponSpec: "weapon_revolver:magnum"},
		{Type: "hat", WeaponSpec: "ignored:anyway"},
	})
	require.NoError(t, m.Refresh(p, world))

	subclass, ok := m.Subclass(100, "weapon_m4a1")
	require.True(t, ok)
	assert.Equal(t, "60:weapon_m4a1", subclass)
	_, ok = m.Subclass(100, "ignored")
	assert.False(t, ok, "non-customweapon items must not be recorded")

	// A second refresh replaces, never merges.
	world.SetInventory(100, []host.EquipmentItem{
		{Type: "customweapon", WeaponSpec: "weapon_hkp2000:61:weapon_hkp2000"},
	})
	require.NoError(t, m.Refresh(p, world))

	_, ok = m.Subclass(100, "weapon_m4a1")
	assert.False(t, ok)
	_, ok = m.Subclass(100, "weapon_hkp2000")
	assert.True(t, ok)
}

func TestMap_RefreshEmptyInventoryRemovesPlayer(t *testing.T) {
	m := NewMap()
	world := simhost.NewWorld()
	p := &simhost.Player{PlayerSlot: 1, Account: 100}
	world.AddPlayer(p)

	world.SetInventory(100, []host.EquipmentItem{
		{Type: "customweapon", WeaponSpec: "weapon_m4a1:rifle"},
	})
	require.NoError(t, m.Refresh(p, world))
	require.Equal(t, 1, m.Len())

	world.SetInventory(100, nil)
	require.NoError(t, m.Refresh(p, world))
	assert.Equal(t, 0, m.Len())
}

func TestMap_EquipAndUnequip(t *testing.T) {
	m := NewMap()

	base, subclass, ok := m.Equip(100, host.EquipmentItem{
		Type:       "CustomWeapon",
		WeaponSpec: "weapon_m4a1:60:weapon_m4a1",
	})
	require.True(t, ok)
	assert.Equal(t, "weapon_m4a1", base)
	assert.Equal(t, "60:weapon_m4a1", subclass)

	got, ok := m.Subclass(100, "WEAPON_M4A1")
	require.True(t, ok, "base lookup is case-folded")
	assert.Equal(t, "60:weapon_m4a1", got)

	// Unequip of a different subclass is a no-op.
	_, _, ok = m.Unequip(100, host.EquipmentItem{
		Type:       "customweapon",
		WeaponSpec: "weapon_m4a1:something_else",
	})
	assert.False(t, ok)
	_, ok = m.Subclass(100, "weapon_m4a1")
	assert.True(t, ok)

	// Matching unequip removes the entry and the now-empty account.
	_, _, ok = m.Unequip(100, host.EquipmentItem{
		Type:       "customweapon",
		WeaponSpec: "weapon_m4a1:60:WEAPON_M4A1",
	})
	assert.True(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestMap_EquipRejectsBadSpecs(t *testing.T) {
	m := NewMap()

	_, _, ok := m.Equip(100, host.EquipmentItem{Type: "customweapon", WeaponSpec: "nospec"})
	assert.False(t, ok)

	_, _, ok = m.Equip(100, host.EquipmentItem{Type: "hat", WeaponSpec: "weapon_m4a1:rifle"})
	assert.False(t, ok)

	assert.Equal(t, 0, m.Len())
}

func TestMap_Remove(t *testing.T) {
	m := NewMap()
	m.Equip(100, host.EquipmentItem{Type: "customweapon", WeaponSpec: "weapon_m4a1:rifle"})
	m.Equip(200, host.EquipmentItem{Type: "customweapon", WeaponSpec: "weapon_m4a1:rifle"})

	m.Remove(100)

	_, ok := m.Subclass(100, "weapon_m4a1")
	assert.False(t, ok)
	_, ok = m.Subclass(200, "weapon_m4a1")
	assert.True(t, ok)
}
