package events

import (
	"time"

	"nexus-backend/domain/core/valueobjects"
)

// SourceBackend identifies this service as the origin of published events.
const SourceBackend = "nexus.backend"

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Graph Events

// NodeAttached is raised when a fetched identity node joins a graph
type NodeAttached struct {
	BaseEvent
	GraphID     string               `json:"graph_id"`
	NodeKey     valueobjects.NodeKey `json:"node_key"`
	FetchStatus string               `json:"fetch_status"`
	CrossRefs   int                  `json:"cross_refs"`
	Activities  int                  `json:"activities"`
}

// NewNodeAttached creates a NodeAttached event
func NewNodeAttached(graphID string, key valueobjects.NodeKey, fetchStatus string, crossRefs, activities int, timestamp time.Time) NodeAttached {
	return NodeAttached{
		BaseEvent: BaseEvent{
			AggregateID: graphID,
			EventType:   "graph.node_attached",
			Timestamp:   timestamp,
			Version:     1,
		},
		GraphID:     graphID,
		NodeKey:     key,
		FetchStatus: fetchStatus,
		CrossRefs:   crossRefs,
		Activities:  activities,
	}
}

// ProfileSynthesized is raised when a unified profile is generated from a graph
type ProfileSynthesized struct {
	BaseEvent
	GraphID          string   `json:"graph_id"`
	PrimaryName      string   `json:"primary_name"`
	ConfidenceScore  float64  `json:"confidence_score"`
	Platforms        []string `json:"platforms"`
	InsufficientData bool     `json:"insufficient_data"`
}

// NewProfileSynthesized creates a ProfileSynthesized event
func NewProfileSynthesized(graphID, primaryName string, confidence float64, platforms []string, insufficient bool, timestamp time.Time) ProfileSynthesized {
	return ProfileSynthesized{
		BaseEvent: BaseEvent{
			AggregateID: graphID,
			EventType:   "graph.profile_synthesized",
			Timestamp:   timestamp,
			Version:     1,
		},
		GraphID:          graphID,
		PrimaryName:      primaryName,
		ConfidenceScore:  confidence,
		Platforms:        platforms,
		InsufficientData: insufficient,
	}
}

// Resolution Events

// ResolutionCompleted is raised when a full identity resolution run finishes
type ResolutionCompleted struct {
	BaseEvent
	GraphID       string        `json:"graph_id"`
	PersonName    string        `json:"person_name"`
	NodesFetched  int           `json:"nodes_fetched"`
	NodesFailed   int           `json:"nodes_failed"`
	Duration      time.Duration `json:"duration"`
	RequestedBy   string        `json:"requested_by"`
}

// NewResolutionCompleted creates a ResolutionCompleted event
func NewResolutionCompleted(graphID, personName string, fetched, failed int, duration time.Duration, requestedBy string, timestamp time.Time) ResolutionCompleted {
	return ResolutionCompleted{
		BaseEvent: BaseEvent{
			AggregateID: graphID,
			EventType:   "resolution.completed",
			Timestamp:   timestamp,
			Version:     1,
		},
		GraphID:      graphID,
		PersonName:   personName,
		NodesFetched: fetched,
		NodesFailed:  failed,
		Duration:     duration,
		RequestedBy:  requestedBy,
	}
}

// ResolutionFailed is raised when a resolution run could not produce a graph
type ResolutionFailed struct {
	BaseEvent
	GraphID    string `json:"graph_id"`
	PersonName string `json:"person_name"`
	Reason     string `json:"reason"`
}

// NewResolutionFailed creates a ResolutionFailed event
func NewResolutionFailed(graphID, personName, reason string, timestamp time.Time) ResolutionFailed {
	return ResolutionFailed{
		BaseEvent: BaseEvent{
			AggregateID: graphID,
			EventType:   "resolution.failed",
			Timestamp:   timestamp,
			Version:     1,
		},
		GraphID:    graphID,
		PersonName: personName,
		Reason:     reason,
	}
}

// Scoring Events

// ReadinessScored is raised when a readiness assessment completes
type ReadinessScored struct {
	BaseEvent
	GraphID        string  `json:"graph_id"`
	Total          float64 `json:"total"`
	ExecutionState string  `json:"execution_state"`
	OverrideRule   string  `json:"override_rule,omitempty"`
}

// NewReadinessScored creates a ReadinessScored event
func NewReadinessScored(graphID string, total float64, state, overrideRule string, timestamp time.Time) ReadinessScored {
	return ReadinessScored{
		BaseEvent: BaseEvent{
			AggregateID: graphID,
			EventType:   "scoring.readiness_scored",
			Timestamp:   timestamp,
			Version:     1,
		},
		GraphID:        graphID,
		Total:          total,
		ExecutionState: state,
		OverrideRule:   overrideRule,
	}
}
