package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/praxislabs/praxis/pkg/models"
)

// MemStore is the in-memory Store implementation used as the test double.
// All returned records are copies; mutations only land through the Store
// methods, mirroring the transactional behavior of the SQL store.
type MemStore struct {
	mu          sync.RWMutex
	specialties map[string]*models.Specialty
	sessions    map[string]*models.TrainingSession
	tests       map[string]*models.Test
	attempts    map[string]*models.TestAttempt
	knowledge   map[string]*models.KnowledgeEntry
}

// NewMemStore creates an empty in-memory store
func NewMemStore() *MemStore {
	return &MemStore{
		specialties: make(map[string]*models.Specialty),
		sessions:    make(map[string]*models.TrainingSession),
		tests:       make(map[string]*models.Test),
		attempts:    make(map[string]*models.TestAttempt),
		knowledge:   make(map[string]*models.KnowledgeEntry),
	}
}

var _ Store = (*MemStore)(nil)

func copySpecialty(s *models.Specialty) *models.Specialty {
	c := *s
	c.RequiredKnowledge = append([]string(nil), s.RequiredKnowledge...)
	c.CompetencyLevels = append([]string(nil), s.CompetencyLevels...)
	return &c
}

func copySession(s *models.TrainingSession) *models.TrainingSession {
	c := *s
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

func copyTest(t *models.Test) *models.Test {
	c := *t
	c.Questions = append([]models.Question(nil), t.Questions...)
	return &c
}

func copyAttempt(a *models.TestAttempt) *models.TestAttempt {
	c := *a
	c.Answers = append([]models.Answer(nil), a.Answers...)
	c.Feedback = append([]string(nil), a.Feedback...)
	return &c
}

func (m *MemStore) CreateSpecialty(ctx context.Context, s *models.Specialty) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.specialties[s.ID] = copySpecialty(s)
	return nil
}

func (m *MemStore) GetSpecialty(ctx context.Context, id string) (*models.Specialty, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.specialties[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copySpecialty(s), nil
}

func (m *MemStore) ListSpecialties(ctx context.Context) ([]*models.Specialty, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Specialty, 0, len(m.specialties))
	for _, s := range m.specialties {
		out = append(out, copySpecialty(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemStore) UpdateSpecialty(ctx context.Context, s *models.Specialty) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.specialties[s.ID]; !ok {
		return ErrNotFound
	}
	m.specialties[s.ID] = copySpecialty(s)
	return nil
}

func (m *MemStore) DeleteSpecialty(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.specialties[id]; !ok {
		return ErrNotFound
	}
	delete(m.specialties, id)
	return nil
}

func (m *MemStore) CreateSession(ctx context.Context, s *models.TrainingSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.Version == 0 {
		s.Version = 1
	}
	m.sessions[s.ID] = copySession(s)
	return nil
}

func (m *MemStore) GetSession(ctx context.Context, id string) (*models.TrainingSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copySession(s), nil
}

func (m *MemStore) ListSessions(ctx context.Context) ([]*models.TrainingSession, error) {
	return m.listSessions(func(*models.TrainingSession) bool { return true })
}

func (m *MemStore) ListSessionsByAgent(ctx context.Context, agentID string) ([]*models.TrainingSession, error) {
	return m.listSessions(func(s *models.TrainingSession) bool { return s.AgentID == agentID })
}

func (m *MemStore) ListSessionsByStatus(ctx context.Context, status models.SessionStatus) ([]*models.TrainingSession, error) {
	return m.listSessions(func(s *models.TrainingSession) bool { return s.Status == status })
}

func (m *MemStore) ListSessionsBySpecialty(ctx context.Context, specialtyID string) ([]*models.TrainingSession, error) {
	return m.listSessions(func(s *models.TrainingSession) bool { return s.SpecialtyID == specialtyID })
}

func (m *MemStore) listSessions(keep func(*models.TrainingSession) bool) ([]*models.TrainingSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.TrainingSession, 0)
	for _, s := range m.sessions {
		if keep(s) {
			out = append(out, copySession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

func (m *MemStore) UpdateSession(ctx context.Context, s *models.TrainingSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.sessions[s.ID]
	if !ok {
		return ErrNotFound
	}
	if existing.Version != s.Version {
		return ErrVersionConflict
	}
	s.Version++
	m.sessions[s.ID] = copySession(s)
	return nil
}

func (m *MemStore) CreateTest(ctx context.Context, t *models.Test) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	m.tests[t.ID] = copyTest(t)
	return nil
}

func (m *MemStore) GetTest(ctx context.Context, id string) (*models.Test, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyTest(t), nil
}

func (m *MemStore) LatestTestForSession(ctx context.Context, sessionID string) (*models.Test, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *models.Test
	for _, t := range m.tests {
		if t.SessionID != sessionID {
			continue
		}
		if latest == nil || t.CreatedAt.After(latest.CreatedAt) {
			latest = t
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return copyTest(latest), nil
}

func (m *MemStore) CreateAttempt(ctx context.Context, a *models.TestAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.CompletedAt.IsZero() {
		a.CompletedAt = time.Now()
	}
	m.attempts[a.ID] = copyAttempt(a)
	return nil
}

func (m *MemStore) LatestAttemptForSession(ctx context.Context, sessionID string) (*models.TestAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *models.TestAttempt
	for _, a := range m.attempts {
		if a.SessionID != sessionID {
			continue
		}
		if latest == nil || a.AttemptNumber > latest.AttemptNumber {
			latest = a
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return copyAttempt(latest), nil
}

func (m *MemStore) ListAttemptsForTest(ctx context.Context, testID string) ([]*models.TestAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.TestAttempt, 0)
	for _, a := range m.attempts {
		if a.TestID == testID {
			out = append(out, copyAttempt(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttemptNumber < out[j].AttemptNumber })
	return out, nil
}

func (m *MemStore) CreateKnowledgeEntry(ctx context.Context, e *models.KnowledgeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	c := *e
	c.Tags = append([]string(nil), e.Tags...)
	m.knowledge[e.ID] = &c
	return nil
}

func (m *MemStore) ListKnowledgeForAgent(ctx context.Context, agentID string, limit int) ([]*models.KnowledgeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.KnowledgeEntry, 0)
	for _, e := range m.knowledge {
		if e.AgentID == agentID {
			c := *e
			c.Tags = append([]string(nil), e.Tags...)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemStore) DeleteTrainingData(ctx context.Context, sessionIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make(map[string]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		ids[id] = true
	}
	for id, t := range m.tests {
		if ids[t.SessionID] {
			delete(m.tests, id)
		}
	}
	for id, a := range m.attempts {
		if ids[a.SessionID] {
			delete(m.attempts, id)
		}
	}
	for id, e := range m.knowledge {
		if ids[e.Source] {
			delete(m.knowledge, id)
		}
	}
	return nil
}
