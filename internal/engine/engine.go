// Package engine wires the sound-override pipeline together and exposes the
// handlers the host invokes: weapon fire, broadcast playback, lifecycle
// notifications, and the player toggle command. All handlers run on the
// host's main execution context; only durable-store traffic leaves it.
package engine

import (
	"log/slog"
	"time"

	"github.com/emitsound/extension/internal/cache"
	"github.com/emitsound/extension/internal/config"
	"github.com/emitsound/extension/internal/equipment"
	"github.com/emitsound/extension/internal/host"
	"github.com/emitsound/extension/internal/monitor"
	"github.com/emitsound/extension/internal/overrides"
	"github.com/emitsound/extension/internal/prefs"
	"github.com/emitsound/extension/internal/queue"
	"github.com/emitsound/extension/internal/resolver"
	"github.com/emitsound/extension/internal/router"
)

// Dependencies holds the host bindings and the durable backend.
type Dependencies struct {
	Players   host.PlayerProvider
	Inventory host.EquipmentProvider
	Emitter   host.SoundEmitter
	Messenger host.Messenger

	// Durable is nil when the preference store runs in-memory only.
	Durable prefs.Durable

	// ReopenDurable rebuilds the durable handle on config reload. Optional;
	// when nil a reload keeps the existing handle.
	ReopenDurable func() prefs.Durable

	Logger *slog.Logger
}

// Service is the engine instance. One per loaded extension; nothing here is
// a package-level singleton.
type Service struct {
	deps Dependencies

	index     *overrides.Index
	tracker   *cache.SubclassTracker
	equipment *equipment.Map
	fireCache *cache.FireSoundCache
	actors    *cache.ActorCache
	resolver  *resolver.Service
	router    *router.Service
	prefs     *prefs.Store

	// tasks carries closures posted from background goroutines back onto the
	// main context; the host drains it via RunPending every tick.
	tasks *queue.Queue[func()]

	cacheCfg  config.CacheConfig
	forceMute bool
	chatCfg   config.ChatConfig

	now func() int64

	Resolutions cache.SafeCounter
}

// NewService builds an engine from the loaded configuration.
func NewService(deps Dependencies) *Service {
	s := &Service{
		deps:      deps,
		index:     overrides.NewIndex(),
		tracker:   cache.NewSubclassTracker(),
		equipment: equipment.NewMap(),
		actors:    cache.NewActorCache(),
		tasks:     queue.New[func()](),
		cacheCfg:  config.GetCacheConfig(),
		forceMute: config.GetForceMuteAll(),
		chatCfg:   config.GetChatConfig(),
		now:       func() int64 { return time.Now().UnixMilli() },
	}

	s.index.Rebuild(config.GetSubclassOverrides(), config.GetClassificationOverrides())
	s.fireCache = cache.NewFireSoundCache(s.cacheCfg.MaxSlots)
	s.resolver = resolver.NewService(func() *overrides.Index { return s.index }, s.tracker, s.equipment)
	s.prefs = prefs.NewStore(
		config.GetDefaultPreference(),
		deps.Durable,
		s.Post,
		deps.Logger,
		s.cacheCfg.MaxSlots,
	)
	s.router = router.NewService(router.Dependencies{
		Actors:    s.actors,
		FireCache: s.fireCache,
		Prefs:     s.prefs,
		Players:   deps.Players,
		Emitter:   deps.Emitter,
		Rederive: func(p host.Player) resolver.Decision {
			return s.resolver.Resolve(p, p.ActiveWeapon(), nil)
		},
		ForceMute: func() bool { return s.forceMute },
		CacheCfg:  func() config.CacheConfig { return s.cacheCfg },
		Logger:    deps.Logger,
	})

	return s
}

// Prefs exposes the preference store.
func (s *Service) Prefs() *prefs.Store {
	return s.prefs
}

// Router exposes the playback router.
func (s *Service) Router() *router.Service {
	return s.router
}

// HandleWeaponFire resolves one discharge event and caches the decision for
// the broadcast message that follows.
func (s *Service) HandleWeaponFire(actorID int, fc host.FireContext) {
	p := s.actors.Find(actorID&s.cacheCfg.ActorIndexMask, s.deps.Players)
	if p == nil || !p.Valid() {
		return
	}

	decision := s.resolver.Resolve(p, p.ActiveWeapon(), &fc)
	s.Resolutions.Inc()

	if decision.Empty() {
		s.fireCache.Clear(p.Slot())
		return
	}
	s.fireCache.Set(p.Slot(), cache.FireSoundEntry{
		ClassificationCode: decision.ClassificationCode,
		CustomEvent:        decision.CustomEvent,
		OfficialEvent:      decision.OfficialEvent,
		ResolvedAtMs:       s.now(),
	})
}

// HandleBroadcast edits one outgoing playback message.
func (s *Service) HandleBroadcast(msg host.BroadcastMessage) {
	s.router.HandleBroadcast(msg)
}

// OnPlayerConnect seeds the player's preference and schedules the first
// equipment refresh. The refresh is deferred one pump cycle because the
// host's inventory is not yet queryable inside the connect callback.
func (s *Service) OnPlayerConnect(p host.Player) {
	if p == nil || !p.Valid() {
		return
	}
	s.actors.Update(p)
	s.fireCache.Clear(p.Slot())
	s.prefs.Seed(p.AccountID(), p.Slot())

	s.Post(func() {
		s.refreshEquipment(p)
	})
}

// OnPlayerSpawn re-records entity indices and refreshes equipment, since both
// change when a pawn is recreated.
func (s *Service) OnPlayerSpawn(p host.Player) {
	if p == nil || !p.Valid() {
		return
	}
	s.actors.Update(p)
	s.refreshEquipment(p)
}

// OnPlayerDisconnect drops all per-player state. The slot may be reassigned
// to the next connect.
func (s *Service) OnPlayerDisconnect(p host.Player) {
	if p == nil {
		return
	}
	s.fireCache.Clear(p.Slot())
	s.prefs.Remove(p.AccountID(), p.Slot())
	s.equipment.Remove(p.AccountID())
	s.actors.Remove(p)
}

// OnMapStart clears every cache keyed by recreated entities, then refreshes
// equipment for players carried across the transition.
func (s *Service) OnMapStart() {
	s.tracker.Reset()
	s.fireCache.ClearAll()
	s.actors.Clear()

	if s.deps.Players == nil {
		return
	}
	for _, p := range s.deps.Players.Players() {
		if p == nil || !p.Valid() {
			continue
		}
		s.actors.Update(p)
		s.refreshEquipment(p)
	}
}

// OnEquip records a live equipment change between refreshes.
func (s *Service) OnEquip(p host.Player, item host.EquipmentItem) {
	if p == nil || !p.Valid() {
		return
	}
	if _, _, ok := s.equipment.Equip(p.AccountID(), item); ok {
		s.unbindActiveWeapon(p)
	}
}

// OnUnequip removes a live equipment change.
func (s *Service) OnUnequip(p host.Player, item host.EquipmentItem) {
	if p == nil || !p.Valid() {
		return
	}
	if _, _, ok := s.equipment.Unequip(p.AccountID(), item); ok {
		s.unbindActiveWeapon(p)
	}
}

// TogglePreference flips the caller's preference, persists it in the
// background, and prints the confirmation line.
func (s *Service) TogglePreference(p host.Player) {
	if p == nil || !p.Valid() {
		return
	}

	enabled := !s.prefs.Enabled(p.AccountID())
	s.prefs.Set(p.AccountID(), p.Slot(), enabled)

	if s.deps.Messenger == nil {
		return
	}
	if enabled {
		s.deps.Messenger.Print(p, s.chatCfg.EnabledMessage)
	} else {
		s.deps.Messenger.Print(p, s.chatCfg.DisabledMessage)
	}
}

// Reload replaces the override index and re-reads the tunables after the
// configuration file changed. The fire cache is cleared because cached
// decisions may reference overrides that no longer exist.
func (s *Service) Reload() {
	s.index.Rebuild(config.GetSubclassOverrides(), config.GetClassificationOverrides())
	s.cacheCfg = config.GetCacheConfig()
	s.forceMute = config.GetForceMuteAll()
	s.chatCfg = config.GetChatConfig()
	s.fireCache.ClearAll()
	s.tracker.Reset()

	if s.deps.ReopenDurable != nil {
		s.prefs.SetDurable(s.deps.ReopenDurable())
	}

	s.deps.Logger.Info("Configuration reloaded",
		"subclassOverrides", s.index.SubclassCount(),
		"classificationOverrides", s.index.CodeCount(),
	)
}

// Post enqueues a closure for the main context. Safe from any goroutine.
func (s *Service) Post(fn func()) {
	if fn == nil {
		return
	}
	s.tasks.Push(fn)
}

// RunPending drains the task queue. The host calls this from its main
// context once per tick.
func (s *Service) RunPending() {
	for _, fn := range s.tasks.GetAndEmpty() {
		fn()
	}
}

// Snapshot collects current counters and cache sizes for the monitor.
func (s *Service) Snapshot() monitor.Status {
	return monitor.Status{
		Resolutions:     s.Resolutions.Value(),
		CacheHits:       s.router.CacheHits.Value(),
		CacheMisses:     s.router.CacheMisses.Value(),
		Rederivations:   s.router.Rederivations.Value(),
		Emissions:       s.router.Emissions.Value(),
		Muted:           s.router.Muted.Value(),
		TrackedWeapons:  s.tracker.Len(),
		TrackedActors:   s.actors.Len(),
		TrackedPlayers:  s.equipment.Len(),
		PendingTasks:    s.tasks.Len(),
		PreferenceCount: s.prefs.Len(),
	}
}

func (s *Service) refreshEquipment(p host.Player) {
	if !p.Valid() {
		return
	}
	if err := s.equipment.Refresh(p, s.deps.Inventory); err != nil {
		s.deps.Logger.Error("Failed to refresh equipment", "slot", p.Slot(), "error", err)
	}
}

// unbindActiveWeapon drops the held weapon's subclass binding so the next
// shot re-walks the equipment map. Rebinding to a stale subclass after an
// equipment change would outlive the change until the weapon itself died.
func (s *Service) unbindActiveWeapon(p host.Player) {
	w := p.ActiveWeapon()
	if w == nil || !w.Valid() {
		return
	}
	s.tracker.Unbind(w.Handle())
}
