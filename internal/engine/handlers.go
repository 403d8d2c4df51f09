package engine

import (
	"fmt"

	"github.com/emitsound/extension/internal/dispatcher"
	"github.com/emitsound/extension/internal/host"
	"github.com/emitsound/extension/internal/util"
)

// Command names the host dispatches lifecycle notifications under. The hot
// fire and broadcast paths bypass the dispatcher and call the engine directly.
const (
	CmdPlayerConnect    = ":PLAYER:CONNECT:"
	CmdPlayerSpawn      = ":PLAYER:SPAWN:"
	CmdPlayerDisconnect = ":PLAYER:DISCONNECT:"
	CmdMapStart         = ":MAP:START:"
	CmdEquip            = ":EQUIP:"
	CmdUnequip          = ":UNEQUIP:"
	CmdSoundToggle      = ":SOUND:TOGGLE:"
	CmdConfigReload     = ":CONFIG:RELOAD:"
	CmdTick             = ":TICK:"
)

// RegisterHandlers wires the engine's lifecycle and command handlers into the
// dispatcher.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(CmdPlayerConnect, func(e dispatcher.Event) (any, error) {
		p, err := s.playerFromArgs(e.Args)
		if err != nil {
			return nil, err
		}
		s.OnPlayerConnect(p)
		return "ok", nil
	}, dispatcher.Logged())

	d.Register(CmdPlayerSpawn, func(e dispatcher.Event) (any, error) {
		p, err := s.playerFromArgs(e.Args)
		if err != nil {
			return nil, err
		}
		s.OnPlayerSpawn(p)
		return "ok", nil
	})

	d.Register(CmdPlayerDisconnect, func(e dispatcher.Event) (any, error) {
		p, err := s.playerFromArgs(e.Args)
		if err != nil {
			return nil, err
		}
		s.OnPlayerDisconnect(p)
		return "ok", nil
	}, dispatcher.Logged())

	d.Register(CmdMapStart, func(e dispatcher.Event) (any, error) {
		s.OnMapStart()
		return "ok", nil
	}, dispatcher.Logged())

	d.Register(CmdEquip, func(e dispatcher.Event) (any, error) {
		p, item, err := s.equipmentFromArgs(e.Args)
		if err != nil {
			return nil, err
		}
		s.OnEquip(p, item)
		return "ok", nil
	})

	d.Register(CmdUnequip, func(e dispatcher.Event) (any, error) {
		p, item, err := s.equipmentFromArgs(e.Args)
		if err != nil {
			return nil, err
		}
		s.OnUnequip(p, item)
		return "ok", nil
	})

	d.Register(CmdSoundToggle, func(e dispatcher.Event) (any, error) {
		p, err := s.playerFromArgs(e.Args)
		if err != nil {
			return nil, err
		}
		s.TogglePreference(p)
		return "ok", nil
	}, dispatcher.Logged())

	d.Register(CmdConfigReload, func(e dispatcher.Event) (any, error) {
		s.Reload()
		return "ok", nil
	}, dispatcher.Logged())

	d.Register(CmdTick, func(e dispatcher.Event) (any, error) {
		s.RunPending()
		return "ok", nil
	})
}

// playerFromArgs resolves the slot number in the first argument to a
// connected player.
func (s *Service) playerFromArgs(args []string) (host.Player, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("missing slot argument")
	}
	slot, err := util.ParseSlot(args[0])
	if err != nil {
		return nil, fmt.Errorf("bad slot argument %q: %w", args[0], err)
	}

	p := s.playerBySlot(slot)
	if p == nil {
		return nil, fmt.Errorf("no connected player in slot %d", slot)
	}
	return p, nil
}

// equipmentFromArgs parses "<slot> <itemType> <weaponSpec>".
func (s *Service) equipmentFromArgs(args []string) (host.Player, host.EquipmentItem, error) {
	if len(args) < 3 {
		return nil, host.EquipmentItem{}, fmt.Errorf("expected slot, item type and weapon spec")
	}
	p, err := s.playerFromArgs(args)
	if err != nil {
		return nil, host.EquipmentItem{}, err
	}
	item := host.EquipmentItem{
		Type:       util.TrimQuotes(args[1]),
		WeaponSpec: util.FixEscapeQuotes(util.TrimQuotes(args[2])),
	}
	return p, item, nil
}

func (s *Service) playerBySlot(slot int) host.Player {
	if s.deps.Players == nil {
		return nil
	}
	for _, p := range s.deps.Players.Players() {
		if p != nil && p.Valid() && p.Slot() == slot {
			return p
		}
	}
	return nil
}
