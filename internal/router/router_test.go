package router

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emitsound/extension/internal/cache"
	"github.com/emitsound/extension/internal/config"
	"github.com/emitsound/extension/internal/host"
	"github.com/emitsound/extension/internal/prefs"
	"github.com/emitsound/extension/internal/resolver"
	"github.com/emitsound/extension/internal/simhost"
)

type fixture struct {
	world     *simhost.World
	actors    *cache.ActorCache
	fireCache *cache.FireSoundCache
	prefs     *prefs.Store
	service   *Service

	rederiveCalls int
	rederiveWith  resolver.Decision
	forceMute     bool
}

func newFixture(defaultPref bool) *fixture {
	f := &fixture{
		world:     simhost.NewWorld(),
		actors:    cache.NewActorCache(),
		fireCache: cache.NewFireSoundCache(8),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.prefs = prefs.NewStore(defaultPref, nil, func(fn func()) { fn() }, logger, 8)

	f.service = NewService(Dependencies{
		Actors:    f.actors,
		FireCache: f.fireCache,
		Prefs:     f.prefs,
		Players:   f.world,
		Emitter:   f.world,
		Rederive: func(p host.Player) resolver.Decision {
			f.rederiveCalls++
			return f.rederiveWith
		},
		ForceMute: func() bool { return f.forceMute },
		CacheCfg: func() config.CacheConfig {
			return config.CacheConfig{FireSoundTTLMs: 1500, ActorIndexMask: 0x3FFF, MaxSlots: 8}
		},
		Logger: logger,
	})
	f.service.now = func() int64 { return 2000 }
	return f
}

func (f *fixture) addPlayer(slot int, account uint64) *simhost.Player {
	p := &simhost.Player{
		PlayerSlot: slot,
		Account:    account,
		Actor:      slot<<8 | 1,
		Pawn:       slot<<8 | 2,
	}
	f.world.AddPlayer(p)
	f.prefs.Seed(account, slot)
	return p
}

func TestHandleBroadcast_FreshCacheEntrySkipsRederivation(t *testing.T) {
	f := newFixture(true)
	shooter := f.addPlayer(1, 100)

	f.fireCache.Set(1, cache.FireSoundEntry{
		ClassificationCode: 16,
		CustomEvent:        "snd.custom",
		ResolvedAtMs:       1000,
	})

	msg := &simhost.Broadcast{
		Actor:     shooter.Actor,
		Code:      16,
		CodeKnown: true,
		Audience:  []host.Player{shooter},
	}
	f.service.HandleBroadcast(msg)

	assert.Equal(t, 0, f.rederiveCalls, "a valid cache entry must be used as-is")
	require.Len(t, f.world.Emitted, 1)
	assert.Equal(t, "snd.custom", f.world.Emitted[0].Event)
	assert.True(t, msg.Cleared)
}

func TestHandleBroadcast_ExpiredEntryRederivesOnce(t *testing.T) {
	f := newFixture(true)
	shooter := f.addPlayer(1, 100)

	f.fireCache.Set(1, cache.FireSoundEntry{
		ClassificationCode: 16,
		CustomEvent:        "snd.stale",
		ResolvedAtMs:       100,
	})
	f.rederiveWith = resolver.Decision{ClassificationCode: 16, CustomEvent: "snd.fresh"}

	msg := &simhost.Broadcast{
		Actor:     shooter.Actor,
		Code:      16,
		CodeKnown: true,
		Audience:  []host.Player{shooter},
	}
	f.service.HandleBroadcast(msg)

	assert.Equal(t, 1, f.rederiveCalls)
	require.Len(t, f.world.Emitted, 1)
	assert.Equal(t, "snd.fresh", f.world.Emitted[0].Event)

	// The re-derived decision replaced the stale entry.
	entry := f.fireCache.Get(1)
	require.NotNil(t, entry)
	assert.Equal(t, "snd.fresh", entry.CustomEvent)
	assert.Equal(t, int64(2000), entry.ResolvedAtMs)
}

func TestHandleBroadcast_CodeMismatchInvalidatesEntry(t *testing.T) {
	f := newFixture(true)
	shooter := f.addPlayer(1, 100)

	f.fireCache.Set(1, cache.FireSoundEntry{
		ClassificationCode: 16,
		CustomEvent:        "snd.rifle",
		ResolvedAtMs:       1900,
	})
	f.rederiveWith = resolver.Decision{ClassificationCode: 60, CustomEvent: "snd.suppressed"}

	msg := &simhost.Broadcast{
		Actor:     shooter.Actor,
		Code:      60,
		CodeKnown: true,
		Audience:  []host.Player{shooter},
	}
	f.service.HandleBroadcast(msg)

	assert.Equal(t, 1, f.rederiveCalls)
	require.Len(t, f.world.Emitted, 1)
	assert.Equal(t, "snd.suppressed", f.world.Emitted[0].Event)
}

func TestHandleBroadcast_PartitionByPreference(t *testing.T) {
	f := newFixture(true)
	shooter := f.addPlayer(1, 100)
	fan := f.addPlayer(2, 200)
	purist := f.addPlayer(3, 300)
	f.prefs.Set(300, 3, false)

	f.fireCache.Set(1, cache.FireSoundEntry{
		ClassificationCode: 16,
		CustomEvent:        "snd.custom",
		OfficialEvent:      "snd.official",
		ResolvedAtMs:       1500,
	})

	msg := &simhost.Broadcast{
		Actor:    shooter.Actor,
		Audience: []host.Player{shooter, fan, purist},
	}
	f.service.HandleBroadcast(msg)

	require.Len(t, f.world.Emitted, 2)
	byEvent := map[string][]host.Player{}
	for _, e := range f.world.Emitted {
		byEvent[e.Event] = e.Recipients
	}
	assert.Len(t, byEvent["snd.custom"], 2, "shooter and fan prefer custom")
	assert.Len(t, byEvent["snd.official"], 1)
	assert.True(t, msg.Cleared)
}

func TestHandleBroadcast_OfficialOnlyCode16(t *testing.T) {
	f := newFixture(true)
	shooter := f.addPlayer(1, 100)
	other := f.addPlayer(2, 200)
	f.prefs.Set(200, 2, false)

	f.fireCache.Set(1, cache.FireSoundEntry{
		ClassificationCode: 16,
		OfficialEvent:      "snd.official_16",
		ResolvedAtMs:       1500,
	})

	msg := &simhost.Broadcast{
		Actor:     shooter.Actor,
		Code:      16,
		CodeKnown: true,
		Audience:  []host.Player{shooter, other},
	}
	f.service.HandleBroadcast(msg)

	// No custom event resolved: both preferences collapse into the official
	// group and exactly one emission covers them.
	require.Len(t, f.world.Emitted, 1)
	assert.Equal(t, "snd.official_16", f.world.Emitted[0].Event)
	assert.Len(t, f.world.Emitted[0].Recipients, 2)
	assert.True(t, msg.Cleared)
	assert.Equal(t, 0, f.rederiveCalls)
}

func TestHandleBroadcast_ShooterJoinsOwnGroup(t *testing.T) {
	f := newFixture(true)
	shooter := f.addPlayer(1, 100)
	observer := f.addPlayer(2, 200)

	f.fireCache.Set(1, cache.FireSoundEntry{
		ClassificationCode: 16,
		CustomEvent:        "snd.custom",
		ResolvedAtMs:       1500,
	})

	// The host left the shooter off the recipient list.
	msg := &simhost.Broadcast{
		Actor:    shooter.Actor,
		Audience: []host.Player{observer},
	}
	f.service.HandleBroadcast(msg)

	require.Len(t, f.world.Emitted, 1)
	assert.Len(t, f.world.Emitted[0].Recipients, 2, "shooter is added to their preference group")
}

func TestHandleBroadcast_NothingResolved(t *testing.T) {
	f := newFixture(true)
	shooter := f.addPlayer(1, 100)
	observer := f.addPlayer(2, 200)

	msg := &simhost.Broadcast{
		Actor:    shooter.Actor,
		Audience: []host.Player{shooter, observer},
	}
	f.service.HandleBroadcast(msg)

	assert.Equal(t, 1, f.rederiveCalls)
	assert.Empty(t, f.world.Emitted)
	assert.False(t, msg.Cleared, "without force-mute the message stays untouched")
	assert.Len(t, msg.Recipients(), 2)
}

func TestHandleBroadcast_ForceMuteOnlyWhenUnresolved(t *testing.T) {
	f := newFixture(true)
	f.forceMute = true
	shooter := f.addPlayer(1, 100)
	observer := f.addPlayer(2, 200)

	msg := &simhost.Broadcast{
		Actor:    shooter.Actor,
		Audience: []host.Player{shooter, observer},
	}
	f.service.HandleBroadcast(msg)

	assert.Empty(t, f.world.Emitted)
	assert.True(t, msg.Cleared, "force-mute strips recipients when nothing resolved")

	// With a resolved decision, force-mute does not apply.
	f.fireCache.Set(1, cache.FireSoundEntry{
		ClassificationCode: 16,
		CustomEvent:        "snd.custom",
		ResolvedAtMs:       1500,
	})
	msg2 := &simhost.Broadcast{
		Actor:    shooter.Actor,
		Audience: []host.Player{shooter, observer},
	}
	f.service.HandleBroadcast(msg2)

	require.Len(t, f.world.Emitted, 1)
	assert.True(t, msg2.Cleared, "cleared because an emission replaced the cue, not because of force-mute")
}

func TestHandleBroadcast_UnknownActorIgnored(t *testing.T) {
	f := newFixture(true)

	msg := &simhost.Broadcast{Actor: 0x0F01}
	f.service.HandleBroadcast(msg)

	assert.Equal(t, 0, f.rederiveCalls)
	assert.False(t, msg.Cleared)
}
