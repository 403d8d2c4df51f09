// Package monitor periodically reports engine status: correlation counters,
// cache sizes, and preference table size, to the log and to InfluxDB.
package monitor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/emitsound/extension/internal/metrics"
)

// Status is one snapshot of the engine's counters and cache sizes.
type Status struct {
	Resolutions      int
	CacheHits        int
	CacheMisses      int
	Rederivations    int
	Emissions        int
	Muted            int
	TrackedWeapons   int
	TrackedActors    int
	TrackedPlayers   int
	PendingTasks     int
	PreferenceCount  int
}

// Dependencies holds all dependencies for the monitor service.
type Dependencies struct {
	Snapshot func() Status
	Logger   *slog.Logger
	Influx   *metrics.Manager
	Interval time.Duration
}

// Service manages status monitoring.
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service.
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = 10 * time.Second
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Start starts the status monitor goroutine.
func (s *Service) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		s.deps.Logger.Debug("Starting status monitor goroutine")
		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.report()
			}
		}
	}()
}

// Stop stops the status monitor.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}

func (s *Service) report() {
	status := s.deps.Snapshot()

	s.deps.Logger.Debug("Engine status",
		"resolutions", status.Resolutions,
		"cacheHits", status.CacheHits,
		"cacheMisses", status.CacheMisses,
		"rederivations", status.Rederivations,
		"emissions", status.Emissions,
		"muted", status.Muted,
		"trackedWeapons", status.TrackedWeapons,
		"trackedActors", status.TrackedActors,
		"trackedPlayers", status.TrackedPlayers,
		"pendingTasks", status.PendingTasks,
		"preferences", status.PreferenceCount,
	)

	if s.deps.Influx != nil {
		s.deps.Influx.WriteStatus(map[string]any{
			"resolutions":      status.Resolutions,
			"cache_hits":       status.CacheHits,
			"cache_misses":     status.CacheMisses,
			"rederivations":    status.Rederivations,
			"emissions":        status.Emissions,
			"muted":            status.Muted,
			"tracked_weapons":  status.TrackedWeapons,
			"tracked_actors":   status.TrackedActors,
			"tracked_players":  status.TrackedPlayers,
			"pending_tasks":    status.PendingTasks,
			"preference_count": status.PreferenceCount,
		})
	}
}
