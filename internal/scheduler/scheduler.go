// Package scheduler drives unattended session progression. Each tick walks
// the in_progress sessions, moves every due session one phase forward on the
// study, practice, test, review cycle, and invokes the orchestrator when a
// session enters its test phase.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/praxislabs/praxis/internal/agents"
	"github.com/praxislabs/praxis/internal/knowledge"
	"github.com/praxislabs/praxis/internal/metrics"
	"github.com/praxislabs/praxis/internal/store"
	"github.com/praxislabs/praxis/internal/training"
	"github.com/praxislabs/praxis/pkg/models"
)

// Clock abstracts wall time so tests drive the phase machine with a logical
// clock instead of sleeping.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RealClock returns a Clock backed by time.Now
func RealClock() Clock { return realClock{} }

// Advancer is the scheduler's view of the orchestrator
type Advancer interface {
	Advance(ctx context.Context, sessionID string) (*training.AdvanceResult, error)
}

var _ Advancer = (*training.Orchestrator)(nil)

// Config carries the scheduler's tunables
type Config struct {
	// Interval between ticks
	Interval time.Duration
	// PhaseDuration is how long a session stays in one phase before it is due
	PhaseDuration time.Duration
	// MaxConcurrent caps sessions processed in parallel within one tick
	MaxConcurrent int64
	// AllowAll disables the placeholder-name legitimacy filter
	AllowAll bool
}

// DefaultConfig returns production defaults
func DefaultConfig() Config {
	return Config{
		Interval:      30 * time.Second,
		PhaseDuration: 5 * time.Minute,
		MaxConcurrent: 4,
	}
}

// placeholderPatterns mark sessions created from demo or seed data. Advancing
// them would burn provider quota on content nobody reads.
var placeholderPatterns = []string{"test-", "demo-", "placeholder", "sample-", "lorem"}

// Scheduler periodically advances in_progress training sessions
type Scheduler struct {
	store     store.Store
	advancer  Advancer
	directory agents.Directory
	knowledge *knowledge.Store
	config    Config
	clock     Clock
	metrics   *metrics.Metrics

	// tickMu guarantees a new tick never overlaps a running one, which also
	// gives per-session serialization: each tick holds at most one task per
	// session.
	tickMu sync.Mutex
}

// New creates a scheduler. A nil clock defaults to wall time.
func New(st store.Store, advancer Advancer, directory agents.Directory, ks *knowledge.Store, config Config, clock Clock, m *metrics.Metrics) *Scheduler {
	if clock == nil {
		clock = RealClock()
	}
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	if config.PhaseDuration <= 0 {
		config.PhaseDuration = DefaultConfig().PhaseDuration
	}
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = DefaultConfig().MaxConcurrent
	}
	return &Scheduler{
		store:     st,
		advancer:  advancer,
		directory: directory,
		knowledge: ks,
		config:    config,
		clock:     clock,
		metrics:   m,
	}
}

// Run ticks until the context is cancelled
func (s *Scheduler) Run(ctx context.Context) {
	log.Printf("[Scheduler] running every %s, phase length %s", s.config.Interval, s.config.PhaseDuration)
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[Scheduler] stopping: %v", ctx.Err())
			return
		case <-ticker.C:
			s.RunTick(ctx)
		}
	}
}

// RunTick processes all due sessions once. If the previous tick is still
// running the call returns immediately.
func (s *Scheduler) RunTick(ctx context.Context) {
	if !s.tickMu.TryLock() {
		log.Printf("[Scheduler] previous tick still running, skipping")
		return
	}
	defer s.tickMu.Unlock()

	start := time.Now()
	sessions, err := s.store.ListSessionsByStatus(ctx, models.SessionStatusInProgress)
	if err != nil {
		log.Printf("[Scheduler] failed to list sessions: %v", err)
		return
	}

	sem := semaphore.NewWeighted(s.config.MaxConcurrent)
	var wg sync.WaitGroup
	for _, session := range sessions {
		if skip, reason := s.shouldSkip(ctx, session); skip {
			s.countSkip(reason)
			continue
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			defer sem.Release(1)
			s.processSession(ctx, id)
		}(session.ID)
	}
	wg.Wait()

	if s.metrics != nil {
		s.metrics.TickDuration.Observe(time.Since(start).Seconds())
	}
}

// shouldSkip applies the legitimacy filter. The filter is advisory: AllowAll
// disables the naming heuristic, structural checks always apply.
func (s *Scheduler) shouldSkip(ctx context.Context, session *models.TrainingSession) (bool, string) {
	if session.AgentID == "" || session.SpecialtyID == "" || session.TargetCompetencyLevel == "" {
		return true, "missing_fields"
	}
	if s.config.AllowAll {
		return false, ""
	}

	agent, err := s.directory.GetAgent(ctx, session.AgentID)
	if err != nil {
		return true, "unknown_agent"
	}
	name := strings.ToLower(agent.Name)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(name, pattern) {
			return true, "placeholder_agent"
		}
	}
	return false, ""
}

// processSession moves one session forward one phase if its window elapsed.
// The phase marker write goes through the store's version check, so a racing
// interactive call loses cleanly rather than double-advancing.
func (s *Scheduler) processSession(ctx context.Context, sessionID string) {
	// Re-fetch right before acting: a pause issued after the candidate list
	// was built must win.
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		log.Printf("[Scheduler] failed to load session %s: %v", sessionID, err)
		return
	}
	if session.Status != models.SessionStatusInProgress {
		s.countSkip("not_in_progress")
		return
	}

	now := s.clock.Now()
	if !s.due(session, now) {
		s.countSkip("not_due")
		return
	}

	phase := nextPhaseFor(session)
	if phase == models.PhaseStudy && s.knowledge != nil {
		// Surface prior study material at the top of each iteration.
		if entries, err := s.knowledge.RetrieveKnowledge(ctx, session.AgentID, ""); err == nil && len(entries) > 0 {
			log.Printf("[Scheduler] session %s entering study phase with %d knowledge entries", sessionID, len(entries))
		}
	}
	if phase == models.PhaseTest {
		result, err := s.advancer.Advance(ctx, sessionID)
		if err != nil {
			log.Printf("[Scheduler] failed to advance session %s: %v", sessionID, err)
			return
		}
		log.Printf("[Scheduler] session %s test phase: %s", sessionID, result.Outcome)

		// Advance bumped the session's version; re-read before marking the
		// phase. Terminal sessions need no marker, they drop out of the
		// in_progress list.
		session, err = s.store.GetSession(ctx, sessionID)
		if err != nil || session.Status != models.SessionStatusInProgress {
			s.countProcessed()
			return
		}
	}

	session.CurrentPhase = phase
	session.LastProcessedPhase = phase
	session.LastProcessedTime = now
	if err := s.store.UpdateSession(ctx, session); err != nil {
		if s.metrics != nil {
			s.metrics.VersionConflicts.Inc()
		}
		log.Printf("[Scheduler] failed to mark phase %s on session %s: %v", phase, sessionID, err)
		return
	}
	s.countProcessed()
}

// due reports whether the session's phase window has elapsed. A session never
// touched by the scheduler is due immediately.
func (s *Scheduler) due(session *models.TrainingSession, now time.Time) bool {
	if session.LastProcessedTime.IsZero() {
		return true
	}
	return now.Sub(session.LastProcessedTime) >= s.config.PhaseDuration
}

// nextPhaseFor derives the phase to enter from the last processed marker, not
// from CurrentPhase, so a repeated tick inside one window cannot re-run a
// phase.
func nextPhaseFor(session *models.TrainingSession) models.TrainingPhase {
	if session.LastProcessedPhase == "" {
		return models.PhaseStudy
	}
	return models.NextPhase(session.LastProcessedPhase)
}

func (s *Scheduler) countSkip(reason string) {
	if s.metrics != nil {
		s.metrics.SessionsSkipped.WithLabelValues(reason).Inc()
	}
}

func (s *Scheduler) countProcessed() {
	if s.metrics != nil {
		s.metrics.SessionsProcessed.Inc()
	}
}

// Describe returns a one-line summary for health endpoints
func (s *Scheduler) Describe() string {
	return fmt.Sprintf("interval=%s phase=%s max_concurrent=%d allow_all=%t",
		s.config.Interval, s.config.PhaseDuration, s.config.MaxConcurrent, s.config.AllowAll)
}
