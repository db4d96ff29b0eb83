// Package knowledge stores and retrieves study artifacts for agents.
// Retrieval ranks entries by confidence with time decay, so recent
// high-confidence material surfaces first.
package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/praxislabs/praxis/internal/store"
	"github.com/praxislabs/praxis/pkg/models"
)

// RankedEntry pairs a knowledge entry with its retrieval relevance
type RankedEntry struct {
	Entry     *models.KnowledgeEntry `json:"entry"`
	Relevance float64                `json:"relevance"`
}

// Store persists and retrieves knowledge entries for agents
type Store struct {
	backend store.Store
}

// NewStore creates a knowledge store over the given backend
func NewStore(backend store.Store) *Store {
	return &Store{backend: backend}
}

// StoreKnowledge records a study artifact for an agent. Confidence outside
// [0,100] is rejected before any write.
func (s *Store) StoreKnowledge(ctx context.Context, agentID string, entry *models.KnowledgeEntry) error {
	if strings.TrimSpace(entry.Content) == "" {
		return &models.ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if entry.Confidence < 0 || entry.Confidence > 100 {
		return &models.ValidationError{Field: "confidence", Reason: "must be between 0 and 100"}
	}

	entry.AgentID = agentID
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := s.backend.CreateKnowledgeEntry(ctx, entry); err != nil {
		return fmt.Errorf("failed to store knowledge: %w", err)
	}
	return nil
}

// RetrieveKnowledge returns entries relevant to the query, ranked by
// confidence with time decay. An empty query matches everything.
func (s *Store) RetrieveKnowledge(ctx context.Context, agentID, query string) ([]RankedEntry, error) {
	entries, err := s.backend.ListKnowledgeForAgent(ctx, agentID, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to list knowledge: %w", err)
	}

	terms := strings.Fields(strings.ToLower(query))
	now := time.Now()

	var ranked []RankedEntry
	for _, e := range entries {
		match := termMatch(e, terms)
		if match == 0 && len(terms) > 0 {
			continue
		}
		relevance := (float64(e.Confidence) / 100) * decay(now.Sub(e.CreatedAt))
		if len(terms) > 0 {
			relevance *= match
		}
		ranked = append(ranked, RankedEntry{Entry: e, Relevance: relevance})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Relevance > ranked[j].Relevance
	})
	return ranked, nil
}

// termMatch returns the fraction of query terms present in the entry's
// content or tags.
func termMatch(e *models.KnowledgeEntry, terms []string) float64 {
	if len(terms) == 0 {
		return 1
	}
	haystack := strings.ToLower(e.Content + " " + strings.Join(e.Tags, " "))
	matched := 0
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

// decay halves relevance roughly every 30 days of age
func decay(age time.Duration) float64 {
	days := age.Hours() / 24
	if days < 0 {
		days = 0
	}
	return 1 / (1 + days/30)
}
