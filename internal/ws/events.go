package ws

import (
	"time"
)

type EventType string

const (
	EventAnalysisCompleted EventType = "analysis.completed"
	EventHistoryDeleted    EventType = "history.deleted"
	EventHistoryCleared    EventType = "history.cleared"
)

type Event struct {
	SessionID string      `json:"session_id,omitempty"`
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}
