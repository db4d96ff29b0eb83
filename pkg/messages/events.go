package messages

import "time"

// EventMessage represents a training event published to observers
type EventMessage struct {
	Type      string                 `json:"type"`   // "session.started", "test.generated", etc.
	Source    string                 `json:"source"` // component that generated the event
	SessionID string                 `json:"session_id,omitempty"`
	AgentID   string                 `json:"agent_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Event types emitted by the training engine
const (
	EventSessionStarted     = "session.started"
	EventSessionCompleted   = "session.completed"
	EventTestGenerated      = "test.generated"
	EventTestCompleted      = "test.completed"
	EventCompetencyAchieved = "competency.achieved"
)

// SessionStarted creates a session.started event
func SessionStarted(sessionID, agentID, source string, data map[string]interface{}) *EventMessage {
	return &EventMessage{
		Type:      EventSessionStarted,
		Source:    source,
		SessionID: sessionID,
		AgentID:   agentID,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// SessionCompleted creates a session.completed event
func SessionCompleted(sessionID, agentID, source string, data map[string]interface{}) *EventMessage {
	return &EventMessage{
		Type:      EventSessionCompleted,
		Source:    source,
		SessionID: sessionID,
		AgentID:   agentID,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// TestGenerated creates a test.generated event
func TestGenerated(sessionID, agentID, source string, data map[string]interface{}) *EventMessage {
	return &EventMessage{
		Type:      EventTestGenerated,
		Source:    source,
		SessionID: sessionID,
		AgentID:   agentID,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// TestCompleted creates a test.completed event
func TestCompleted(sessionID, agentID, source string, data map[string]interface{}) *EventMessage {
	return &EventMessage{
		Type:      EventTestCompleted,
		Source:    source,
		SessionID: sessionID,
		AgentID:   agentID,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// CompetencyAchieved creates a competency.achieved event
func CompetencyAchieved(sessionID, agentID, source string, data map[string]interface{}) *EventMessage {
	return &EventMessage{
		Type:      EventCompetencyAchieved,
		Source:    source,
		SessionID: sessionID,
		AgentID:   agentID,
		Data:      data,
		Timestamp: time.Now(),
	}
}
