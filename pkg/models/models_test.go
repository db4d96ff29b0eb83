package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelIndexAndNextLevel(t *testing.T) {
	s := &Specialty{
		Name:             "databases",
		Domain:           "engineering",
		CompetencyLevels: []string{"novice", "intermediate", "expert"},
	}

	assert.Equal(t, 0, s.LevelIndex("novice"))
	assert.Equal(t, 2, s.LevelIndex("expert"))
	assert.Equal(t, -1, s.LevelIndex("grandmaster"))

	assert.Equal(t, "intermediate", s.NextLevel("novice"))
	assert.Equal(t, "", s.NextLevel("expert"), "top rung has no successor")
	assert.Equal(t, "", s.NextLevel("grandmaster"), "unknown level has no successor")
}

func TestSessionStatusTerminality(t *testing.T) {
	assert.True(t, SessionStatusCompleted.IsTerminal())
	assert.True(t, SessionStatusFailed.IsTerminal())
	assert.False(t, SessionStatusInProgress.IsTerminal())
	assert.False(t, SessionStatusPaused.IsTerminal())
	assert.False(t, SessionStatusReset.IsTerminal())
}

func TestPhaseCycle(t *testing.T) {
	phase := PhaseStudy
	cycle := []TrainingPhase{PhasePractice, PhaseTest, PhaseReview, PhaseStudy}
	for _, want := range cycle {
		phase = NextPhase(phase)
		assert.Equal(t, want, phase)
	}
}

func TestSpecialtyValidate(t *testing.T) {
	valid := &Specialty{
		Name:             "databases",
		Domain:           "engineering",
		CompetencyLevels: []string{"novice", "expert"},
	}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*Specialty)
	}{
		{"empty name", func(s *Specialty) { s.Name = "  " }},
		{"empty domain", func(s *Specialty) { s.Domain = "" }},
		{"empty ladder", func(s *Specialty) { s.CompetencyLevels = nil }},
		{"blank rung", func(s *Specialty) { s.CompetencyLevels = []string{"novice", " "} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := *valid
			s.CompetencyLevels = append([]string(nil), valid.CompetencyLevels...)
			tc.mutate(&s)

			err := s.Validate()
			require.Error(t, err)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestSessionValidate(t *testing.T) {
	spec := &Specialty{
		Name:             "databases",
		Domain:           "engineering",
		CompetencyLevels: []string{"novice", "expert"},
	}
	session := TrainingSession{
		AgentID:                "agent-1",
		SpecialtyID:            "spec-1",
		CurrentCompetencyLevel: "novice",
		TargetCompetencyLevel:  "expert",
		Progress:               50,
		CurrentIteration:       1,
		MaxIterations:          5,
	}
	require.NoError(t, session.Validate(spec))

	offLadder := session
	offLadder.CurrentCompetencyLevel = "grandmaster"
	assert.Error(t, offLadder.Validate(spec))

	badProgress := session
	badProgress.Progress = 101
	assert.Error(t, badProgress.Validate(spec))

	badIteration := session
	badIteration.CurrentIteration = 0
	assert.Error(t, badIteration.Validate(spec))
}
