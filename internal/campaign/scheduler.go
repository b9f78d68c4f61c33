package campaign

import (
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler decides when campaigns fire. Schedules are parsed once at
// construction; per-campaign running state keeps a long design run from
// being launched again while its previous run is still in flight.
type Scheduler struct {
	configs   map[string]CampaignConfig
	schedules map[string]cron.Schedule
	lastRun   map[string]time.Time
	running   map[string]bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewScheduler creates a campaign scheduler
func NewScheduler(configs []CampaignConfig) (*Scheduler, error) {
	s := &Scheduler{
		configs:   make(map[string]CampaignConfig),
		schedules: make(map[string]cron.Schedule),
		lastRun:   make(map[string]time.Time),
		running:   make(map[string]bool),
		stopChan:  make(chan struct{}),
	}

	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		sched, err := ParseCron(cfg.Cron)
		if err != nil {
			return nil, err
		}
		s.configs[cfg.Name] = cfg
		s.schedules[cfg.Name] = sched
	}

	return s, nil
}

// ParseCron parses a cron expression
func ParseCron(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return parser.Parse(expr)
}

// NextRun returns the next scheduled run time for a campaign
func (s *Scheduler) NextRun(name string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sched, ok := s.schedules[name]
	if !ok {
		return time.Time{}
	}
	return sched.Next(time.Now())
}

// Due reports whether a campaign's schedule has fired since its last
// completed run, regardless of whether a run is still in flight.
func (s *Scheduler) Due(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.due(name)
}

func (s *Scheduler) due(name string) bool {
	sched, ok := s.schedules[name]
	if !ok {
		return false
	}

	lastRun := s.lastRun[name]
	if lastRun.IsZero() {
		lastRun = time.Now().Add(-24 * time.Hour)
	}
	return time.Now().After(sched.Next(lastRun))
}

// IsRunning reports whether a campaign has a run in flight
func (s *Scheduler) IsRunning(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running[name]
}

// LastRun returns when a campaign last completed, zero if it never has
func (s *Scheduler) LastRun(name string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun[name]
}

// ShouldRun returns true if a campaign should be launched now
func (s *Scheduler) ShouldRun(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.due(name) && !s.running[name]
}

// MarkRunning marks a campaign as currently running
func (s *Scheduler) MarkRunning(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running[name] = true
}

// MarkComplete marks a campaign as complete
func (s *Scheduler) MarkComplete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running[name] = false
	s.lastRun[name] = time.Now()
}

// GetConfig returns the config for a campaign
func (s *Scheduler) GetConfig(name string) (CampaignConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[name]
	return cfg, ok
}

// ListCampaigns returns all campaign names
func (s *Scheduler) ListCampaigns() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.configs))
	for name := range s.configs {
		names = append(names, name)
	}
	return names
}

// Start begins the scheduler loop. A campaign whose schedule fires while
// its previous run is still going is held, not queued: the next tick after
// the run completes launches it.
func (s *Scheduler) Start(runFunc func(CampaignConfig) error) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			for name := range s.configs {
				if !s.Due(name) {
					continue
				}
				if s.IsRunning(name) {
					log.Printf("campaign %s is due but still running, holding", name)
					continue
				}
				cfg, _ := s.GetConfig(name)
				s.MarkRunning(name)
				go func(c CampaignConfig) {
					if err := runFunc(c); err != nil {
						log.Printf("campaign %s failed: %v", c.Name, err)
					}
					s.MarkComplete(c.Name)
				}(cfg)
			}
		}
	}
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	close(s.stopChan)
}
