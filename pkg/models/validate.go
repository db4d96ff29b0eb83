package models

import (
	"fmt"
	"strings"
)

// ValidationError indicates a request was rejected before any state write
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// Validate checks the specialty's required fields. An empty name, domain, or
// competency ladder is rejected.
func (s *Specialty) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if strings.TrimSpace(s.Domain) == "" {
		return &ValidationError{Field: "domain", Reason: "must not be empty"}
	}
	if len(s.CompetencyLevels) == 0 {
		return &ValidationError{Field: "competency_levels", Reason: "must contain at least one level"}
	}
	for i, level := range s.CompetencyLevels {
		if strings.TrimSpace(level) == "" {
			return &ValidationError{Field: "competency_levels", Reason: fmt.Sprintf("level %d must not be empty", i)}
		}
	}
	return nil
}

// Validate checks session invariants that must hold at every observed point:
// the current level is on the specialty's ladder and progress stays in range.
func (t *TrainingSession) Validate(specialty *Specialty) error {
	if t.AgentID == "" {
		return &ValidationError{Field: "agent_id", Reason: "must not be empty"}
	}
	if t.SpecialtyID == "" {
		return &ValidationError{Field: "specialty_id", Reason: "must not be empty"}
	}
	if specialty != nil {
		if specialty.LevelIndex(t.CurrentCompetencyLevel) < 0 {
			return &ValidationError{Field: "current_competency_level", Reason: fmt.Sprintf("%q is not on the specialty ladder", t.CurrentCompetencyLevel)}
		}
		if specialty.LevelIndex(t.TargetCompetencyLevel) < 0 {
			return &ValidationError{Field: "target_competency_level", Reason: fmt.Sprintf("%q is not on the specialty ladder", t.TargetCompetencyLevel)}
		}
	}
	if t.Progress < 0 || t.Progress > 100 {
		return &ValidationError{Field: "progress", Reason: "must be between 0 and 100"}
	}
	if t.CurrentIteration < 1 {
		return &ValidationError{Field: "current_iteration", Reason: "must be at least 1"}
	}
	if t.MaxIterations < 1 {
		return &ValidationError{Field: "max_iterations", Reason: "must be at least 1"}
	}
	return nil
}
