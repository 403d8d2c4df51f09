package engine

import (
	"io"
	"log/slog"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emitsound/extension/internal/host"
	"github.com/emitsound/extension/internal/simhost"
)

func setupConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("customSoundDefaultEnabled", true)
	viper.Set("chat.enabledMessage", "Custom weapon sounds enabled.")
	viper.Set("chat.disabledMessage", "Custom weapon sounds disabled.")
	viper.Set("overrides", []map[string]any{
		{
			"subclass":              "m4a1:rifle",
			"targetEvent":           "snd.rifle",
			"targetEventUnsilenced": "snd.rifle_us",
		},
	})
	viper.Set("officialOverrides", []map[string]any{
		{
			"classificationCode": 16,
			"targetEvent":        "snd.official_16",
		},
	})
}

func newTestEngine(t *testing.T, world *simhost.World) *Service {
	t.Helper()
	return NewService(Dependencies{
		Players:   world,
		Inventory: world,
		Emitter:   world,
		Messenger: world,
		Durable:   nil,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func addShooter(world *simhost.World) *simhost.Player {
	shooter := &simhost.Player{
		PlayerSlot: 1,
		Account:    100,
		Actor:      0x0101,
		Pawn:       0x0102,
		Weapon: &simhost.Weapon{
			WeaponHandle: host.WeaponHandle{Index: 7, Generation: 1},
			Name:         "weapon_m4a1",
			Code:         16,
		},
	}
	world.AddPlayer(shooter)
	world.SetInventory(100, []host.EquipmentItem{
		{Type: "customweapon", WeaponSpec: "weapon_m4a1:m4a1:rifle"},
	})
	return shooter
}

func TestEngine_FireThenBroadcast(t *testing.T) {
	setupConfig(t)
	world := simhost.NewWorld()
	eng := newTestEngine(t, world)

	shooter := addShooter(world)
	observer := &simhost.Player{PlayerSlot: 2, Account: 200, Actor: 0x0201, Pawn: 0x0202}
	world.AddPlayer(observer)

	eng.OnPlayerConnect(shooter)
	eng.OnPlayerConnect(observer)
	eng.RunPending()

	eng.HandleWeaponFire(shooter.Actor, host.FireContext{
		WeaponName:    "weapon_m4a1",
		Silenced:      false,
		SilencedKnown: true,
	})

	msg := &simhost.Broadcast{
		Actor:     shooter.Actor,
		Code:      16,
		CodeKnown: true,
		Audience:  []host.Player{shooter, observer},
	}
	eng.HandleBroadcast(msg)

	require.Len(t, world.Emitted, 1)
	assert.Equal(t, "snd.rifle_us", world.Emitted[0].Event)
	assert.Len(t, world.Emitted[0].Recipients, 2)
	assert.True(t, msg.Cleared)
	assert.Equal(t, 0, eng.Router().Rederivations.Value(), "the fire-path cache entry must satisfy the broadcast")
}

func TestEngine_BroadcastWithoutFireRederives(t *testing.T) {
	setupConfig(t)
	world := simhost.NewWorld()
	eng := newTestEngine(t, world)

	shooter := addShooter(world)
	eng.OnPlayerConnect(shooter)
	eng.RunPending()

	// No discharge event arrived; the broadcast alone must still resolve.
	msg := &simhost.Broadcast{
		Actor:    shooter.Actor,
		Audience: []host.Player{shooter},
	}
	eng.HandleBroadcast(msg)

	assert.Equal(t, 1, eng.Router().Rederivations.Value())
	require.Len(t, world.Emitted, 1)
	// Weapon-instance inspection only: not silenced, so the unsilenced event.
	assert.Equal(t, "snd.rifle_us", world.Emitted[0].Event)
}

func TestEngine_TogglePreference(t *testing.T) {
	setupConfig(t)
	world := simhost.NewWorld()
	eng := newTestEngine(t, world)

	p := addShooter(world)
	eng.OnPlayerConnect(p)
	eng.RunPending()

	require.True(t, eng.Prefs().Enabled(100))

	eng.TogglePreference(p)
	assert.False(t, eng.Prefs().Enabled(100))
	assert.False(t, eng.Prefs().BySlot(1))

	eng.TogglePreference(p)
	assert.True(t, eng.Prefs().Enabled(100))
	assert.True(t, eng.Prefs().BySlot(1))

	require.Len(t, world.Printed, 2)
	assert.Equal(t, "Custom weapon sounds disabled.", world.Printed[0])
	assert.Equal(t, "Custom weapon sounds enabled.", world.Printed[1])
}

func TestEngine_DisconnectClearsSlotState(t *testing.T) {
	setupConfig(t)
	world := simhost.NewWorld()
	eng := newTestEngine(t, world)

	shooter := addShooter(world)
	eng.OnPlayerConnect(shooter)
	eng.RunPending()
	eng.HandleWeaponFire(shooter.Actor, host.FireContext{WeaponName: "weapon_m4a1"})

	eng.OnPlayerDisconnect(shooter)
	world.RemovePlayer(1)

	// Slot 1 is reassigned to a player with no custom equipment.
	next := &simhost.Player{
		PlayerSlot: 1,
		Account:    300,
		Actor:      0x0301,
		Pawn:       0x0302,
		Weapon: &simhost.Weapon{
			WeaponHandle: host.WeaponHandle{Index: 9, Generation: 1},
			Name:         "weapon_ak47",
			Code:         28,
		},
	}
	world.AddPlayer(next)
	eng.OnPlayerConnect(next)
	eng.RunPending()

	msg := &simhost.Broadcast{
		Actor:    next.Actor,
		Audience: []host.Player{next},
	}
	eng.HandleBroadcast(msg)

	assert.Empty(t, world.Emitted, "the previous occupant's decision must not leak to the new player")
	assert.False(t, msg.Cleared)
}

func TestEngine_MapStartClearsCorrelationState(t *testing.T) {
	setupConfig(t)
	world := simhost.NewWorld()
	eng := newTestEngine(t, world)

	shooter := addShooter(world)
	eng.OnPlayerConnect(shooter)
	eng.RunPending()
	eng.HandleWeaponFire(shooter.Actor, host.FireContext{WeaponName: "weapon_m4a1"})

	eng.OnMapStart()

	msg := &simhost.Broadcast{
		Actor:    shooter.Actor,
		Audience: []host.Player{shooter},
	}
	eng.HandleBroadcast(msg)

	// The cached entry is gone, so the broadcast re-derives from live state.
	assert.Equal(t, 1, eng.Router().Rederivations.Value())
	require.Len(t, world.Emitted, 1)
}

func TestEngine_EquipmentChangeTakesEffect(t *testing.T) {
	setupConfig(t)
	// No official fallback here; losing the subclass must mean no override.
	viper.Set("officialOverrides", []map[string]any{})
	world := simhost.NewWorld()
	eng := newTestEngine(t, world)

	shooter := addShooter(world)
	eng.OnPlayerConnect(shooter)
	eng.RunPending()

	// Fire once so the weapon handle gets bound.
	eng.HandleWeaponFire(shooter.Actor, host.FireContext{WeaponName: "weapon_m4a1"})

	// The player removes the custom weapon mid-session.
	eng.OnUnequip(shooter, host.EquipmentItem{
		Type:       "customweapon",
		WeaponSpec: "weapon_m4a1:m4a1:rifle",
	})
	eng.HandleWeaponFire(shooter.Actor, host.FireContext{WeaponName: "weapon_m4a1"})

	msg := &simhost.Broadcast{
		Actor:    shooter.Actor,
		Audience: []host.Player{shooter},
	}
	eng.HandleBroadcast(msg)

	assert.Empty(t, world.Emitted, "unequipped subclass must stop overriding")
}

func TestEngine_ReloadSwapsOverrides(t *testing.T) {
	setupConfig(t)
	world := simhost.NewWorld()
	eng := newTestEngine(t, world)

	shooter := addShooter(world)
	eng.OnPlayerConnect(shooter)
	eng.RunPending()

	viper.Set("overrides", []map[string]any{
		{
			"subclass":    "m4a1:rifle",
			"targetEvent": "snd.reloaded",
		},
	})
	eng.Reload()

	eng.HandleWeaponFire(shooter.Actor, host.FireContext{WeaponName: "weapon_m4a1"})
	msg := &simhost.Broadcast{
		Actor:    shooter.Actor,
		Audience: []host.Player{shooter},
	}
	eng.HandleBroadcast(msg)

	require.Len(t, world.Emitted, 1)
	assert.Equal(t, "snd.reloaded", world.Emitted[0].Event)
}
