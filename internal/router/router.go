// Package router applies resolved sound decisions to outgoing broadcast
// playback messages: it correlates the message back to the shooter, consults
// the fire-sound cache, splits recipients by preference, and emits the
// replacement cues while suppressing the default one.
package router

import (
	"log/slog"
	"time"

	"github.com/emitsound/extension/internal/cache"
	"github.com/emitsound/extension/internal/config"
	"github.com/emitsound/extension/internal/host"
	"github.com/emitsound/extension/internal/prefs"
	"github.com/emitsound/extension/internal/resolver"
)

// Dependencies holds everything the router needs.
type Dependencies struct {
	Actors    *cache.ActorCache
	FireCache *cache.FireSoundCache
	Prefs     *prefs.Store
	Players   host.PlayerProvider
	Emitter   host.SoundEmitter

	// Rederive re-runs resolution against the shooter's current active weapon
	// when the cache entry is missing or stale.
	Rederive func(host.Player) resolver.Decision

	// ForceMute and CacheCfg are getters because config reloads change them.
	ForceMute func() bool
	CacheCfg  func() config.CacheConfig

	Logger *slog.Logger
}

// Service routes broadcast playback messages.
type Service struct {
	deps Dependencies

	// now is replaceable for tests.
	now func() int64

	// Counters read by the monitor.
	CacheHits     cache.SafeCounter
	CacheMisses   cache.SafeCounter
	Rederivations cache.SafeCounter
	Emissions     cache.SafeCounter
	Muted         cache.SafeCounter
}

// NewService creates a playback router.
func NewService(deps Dependencies) *Service {
	return &Service{
		deps: deps,
		now:  func() int64 { return time.Now().UnixMilli() },
	}
}

// HandleBroadcast edits one outgoing playback message. It never returns an
// error; any inconsistency downgrades to leaving the message untouched.
func (s *Service) HandleBroadcast(msg host.BroadcastMessage) {
	if msg == nil {
		return
	}

	cfg := s.deps.CacheCfg()
	index := msg.ActorID() & cfg.ActorIndexMask
	shooter := s.deps.Actors.Find(index, s.deps.Players)
	if shooter == nil || !shooter.Valid() {
		return
	}
	slot := shooter.Slot()

	decision := s.decisionFor(shooter, slot, msg, cfg)

	if decision.Empty() {
		if s.deps.ForceMute() {
			msg.ClearRecipients()
			s.Muted.Inc()
		}
		return
	}

	custom, official := s.partition(shooter, slot, msg.Recipients(), decision)

	emitted := false
	if len(custom) > 0 {
		s.deps.Emitter.EmitSound(shooter, decision.CustomEvent, custom)
		s.Emissions.Inc()
		emitted = true
	}
	if len(official) > 0 && decision.OfficialEvent != "" {
		s.deps.Emitter.EmitSound(shooter, decision.OfficialEvent, official)
		s.Emissions.Inc()
		emitted = true
	}
	if emitted {
		msg.ClearRecipients()
	}
}

// decisionFor returns the cached decision when it is still trustworthy, else
// re-derives synchronously from current weapon state and refreshes the cache.
func (s *Service) decisionFor(shooter host.Player, slot int, msg host.BroadcastMessage, cfg config.CacheConfig) resolver.Decision {
	msgCode, msgCodeKnown := msg.ClassificationCode()
	nowMs := s.now()

	entry := s.deps.FireCache.Get(slot)
	if entry.Valid(nowMs, int64(cfg.FireSoundTTLMs), msgCode, msgCodeKnown) {
		s.CacheHits.Inc()
		return resolver.Decision{
			ClassificationCode: entry.ClassificationCode,
			CustomEvent:        entry.CustomEvent,
			OfficialEvent:      entry.OfficialEvent,
		}
	}
	s.CacheMisses.Inc()

	decision := s.deps.Rederive(shooter)
	s.Rederivations.Inc()

	if decision.Empty() {
		s.deps.FireCache.Clear(slot)
	} else {
		s.deps.FireCache.Set(slot, cache.FireSoundEntry{
			ClassificationCode: decision.ClassificationCode,
			CustomEvent:        decision.CustomEvent,
			OfficialEvent:      decision.OfficialEvent,
			ResolvedAtMs:       nowMs,
		})
	}
	return decision
}

// partition splits recipients into the custom-cue and official-cue groups by
// individual preference. The shooter joins their own group even when the host
// left them off the recipient list. A recipient preferring custom sound when
// no custom event resolved falls back into the official group.
func (s *Service) partition(shooter host.Player, shooterSlot int, recipients []host.Player, d resolver.Decision) (custom, official []host.Player) {
	shooterSeen := false

	place := func(p host.Player) {
		if s.deps.Prefs.BySlot(p.Slot()) && d.CustomEvent != "" {
			custom = append(custom, p)
		} else {
			official = append(official, p)
		}
	}

	for _, r := range recipients {
		if r == nil || !r.Valid() {
			continue
		}
		if r.Slot() == shooterSlot {
			shooterSeen = true
		}
		place(r)
	}
	if !shooterSeen {
		place(shooter)
	}
	return custom, official
}
