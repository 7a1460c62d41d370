package entities

import (
	"strings"
	"time"

	"nexus-backend/domain/core/valueobjects"
	"nexus-backend/domain/events"
	pkgerrors "nexus-backend/pkg/errors"
)

// FetchStatus represents the outcome of fetching a platform profile
type FetchStatus string

const (
	FetchSuccess FetchStatus = "success"
	FetchPartial FetchStatus = "partial"
	FetchFailed  FetchStatus = "failed"
)

// IdentityNode is the main entity representing one person's presence on one
// platform. It is a rich domain model: raw fetched fields, extracted
// cross-references, and observed activity are all encapsulated behind
// accessors that soft-fail on missing data.
type IdentityNode struct {
	// Private fields ensure encapsulation
	key         valueobjects.NodeKey
	profile     valueobjects.ProfileData
	crossRefs   []valueobjects.CrossReference
	activities  []valueobjects.ActivityEvent
	fetchStatus FetchStatus
	fetchError  string
	fetchedAt   time.Time
	updatedAt   time.Time

	// Domain events that occurred during this entity's lifetime
	events []events.DomainEvent
}

// NewIdentityNode creates a node for a successfully fetched profile
func NewIdentityNode(key valueobjects.NodeKey, profile valueobjects.ProfileData) (*IdentityNode, error) {
	if key.IsZero() {
		return nil, pkgerrors.NewValidationError("identity node requires a node key")
	}

	status := FetchSuccess
	if profile.IsEmpty() {
		status = FetchPartial
	}

	now := time.Now().UTC()
	return &IdentityNode{
		key:         key,
		profile:     profile,
		crossRefs:   []valueobjects.CrossReference{},
		activities:  []valueobjects.ActivityEvent{},
		fetchStatus: status,
		fetchedAt:   now,
		updatedAt:   now,
		events:      []events.DomainEvent{},
	}, nil
}

// NewFailedIdentityNode creates a node recording a fetch failure. Failed
// nodes stay in the graph so callers can see which platforms were tried,
// but they contribute no resolution evidence.
func NewFailedIdentityNode(key valueobjects.NodeKey, reason string) (*IdentityNode, error) {
	if key.IsZero() {
		return nil, pkgerrors.NewValidationError("identity node requires a node key")
	}

	now := time.Now().UTC()
	return &IdentityNode{
		key:         key,
		crossRefs:   []valueobjects.CrossReference{},
		activities:  []valueobjects.ActivityEvent{},
		fetchStatus: FetchFailed,
		fetchError:  reason,
		fetchedAt:   now,
		updatedAt:   now,
		events:      []events.DomainEvent{},
	}, nil
}

// ReconstructIdentityNode rebuilds a node from repository data with
// preserved timestamps. No domain events are raised.
func ReconstructIdentityNode(
	key valueobjects.NodeKey,
	profile valueobjects.ProfileData,
	crossRefs []valueobjects.CrossReference,
	activities []valueobjects.ActivityEvent,
	status FetchStatus,
	fetchError string,
	fetchedAt, updatedAt time.Time,
) (*IdentityNode, error) {
	if key.IsZero() {
		return nil, pkgerrors.NewValidationError("identity node requires a node key")
	}

	return &IdentityNode{
		key:         key,
		profile:     profile,
		crossRefs:   append([]valueobjects.CrossReference{}, crossRefs...),
		activities:  append([]valueobjects.ActivityEvent{}, activities...),
		fetchStatus: status,
		fetchError:  fetchError,
		fetchedAt:   fetchedAt,
		updatedAt:   updatedAt,
		events:      []events.DomainEvent{},
	}, nil
}

// Key returns the node's platform-scoped identifier
func (n *IdentityNode) Key() valueobjects.NodeKey {
	return n.key
}

// Platform returns the platform this node was fetched from
func (n *IdentityNode) Platform() valueobjects.Platform {
	return n.key.Platform()
}

// FetchStatus returns the outcome of the profile fetch
func (n *IdentityNode) FetchStatus() FetchStatus {
	return n.fetchStatus
}

// FetchError returns the failure reason for failed nodes, otherwise ""
func (n *IdentityNode) FetchError() string {
	return n.fetchError
}

// IsUsable checks whether the node may contribute resolution evidence
func (n *IdentityNode) IsUsable() bool {
	return n.fetchStatus != FetchFailed
}

// Name returns the display name, soft-failing to "" when absent
func (n *IdentityNode) Name() string {
	return n.profile.Name()
}

// Bio returns the profile text, soft-failing to "" when absent
func (n *IdentityNode) Bio() string {
	return n.profile.Bio()
}

// Company returns the stated employer, soft-failing to "" when absent
func (n *IdentityNode) Company() string {
	return n.profile.Company()
}

// Location returns the stated location, soft-failing to "" when absent
func (n *IdentityNode) Location() string {
	return n.profile.Location()
}

// Profile returns the raw fetched profile data
func (n *IdentityNode) Profile() valueobjects.ProfileData {
	return n.profile
}

// AddCrossReference records an extracted cross-reference. Duplicates by
// (source, target platform, handle) are ignored; when the same link is seen
// again with higher confidence, the stored confidence is raised.
func (n *IdentityNode) AddCrossReference(ref valueobjects.CrossReference) error {
	if ref.SourcePlatform() != n.key.Platform() {
		return pkgerrors.NewValidationError("cross-reference source must match the node's platform")
	}

	for i, existing := range n.crossRefs {
		if existing.Equals(ref) {
			if ref.Confidence() > existing.Confidence() {
				n.crossRefs[i] = ref
				n.updatedAt = time.Now().UTC()
			}
			return nil
		}
	}

	n.crossRefs = append(n.crossRefs, ref)
	n.updatedAt = time.Now().UTC()
	return nil
}

// AddActivity records an observed activity event. The activity log is
// append-only and kept in insertion order; the same real-world event seen
// twice is dropped by dedup key. Chronological ordering happens at
// aggregation time in the graph, not here.
func (n *IdentityNode) AddActivity(activity valueobjects.ActivityEvent) error {
	if activity.Platform() != n.key.Platform() {
		return pkgerrors.NewValidationError("activity platform must match the node's platform")
	}

	key := activity.DedupKey()
	for _, existing := range n.activities {
		if existing.DedupKey() == key {
			return nil
		}
	}

	n.activities = append(n.activities, activity)
	n.updatedAt = time.Now().UTC()
	return nil
}

// CrossReferences returns all recorded cross-references
func (n *IdentityNode) CrossReferences() []valueobjects.CrossReference {
	// Return a copy to maintain encapsulation
	refs := make([]valueobjects.CrossReference, len(n.crossRefs))
	copy(refs, n.crossRefs)
	return refs
}

// Activities returns all recorded activity events in insertion order
func (n *IdentityNode) Activities() []valueobjects.ActivityEvent {
	// Return a copy to maintain encapsulation
	acts := make([]valueobjects.ActivityEvent, len(n.activities))
	copy(acts, n.activities)
	return acts
}

// ReferencesNode checks whether this node carries a cross-reference pointing
// at the given node key.
func (n *IdentityNode) ReferencesNode(key valueobjects.NodeKey) bool {
	for _, ref := range n.crossRefs {
		if ref.Matches(key) {
			return true
		}
	}
	return false
}

// BioTokens returns the lowercase word set of the bio for overlap scoring
func (n *IdentityNode) BioTokens() map[string]bool {
	tokens := map[string]bool{}
	for _, word := range strings.Fields(strings.ToLower(n.Bio())) {
		word = strings.Trim(word, ".,!?;:\"'()[]{}")
		if word != "" {
			tokens[word] = true
		}
	}
	return tokens
}

// FetchedAt returns when the profile fetch completed
func (n *IdentityNode) FetchedAt() time.Time {
	return n.fetchedAt
}

// UpdatedAt returns when the node last changed
func (n *IdentityNode) UpdatedAt() time.Time {
	return n.updatedAt
}

// GetUncommittedEvents returns all uncommitted domain events
func (n *IdentityNode) GetUncommittedEvents() []events.DomainEvent {
	return n.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (n *IdentityNode) MarkEventsAsCommitted() {
	n.events = []events.DomainEvent{}
}

// NodeSnapshot is an immutable point-in-time copy of a node's state for
// audit trails and logging. It carries plain values only, never references
// back into the live entity.
type NodeSnapshot struct {
	Platform    string    `json:"platform"`
	Identifier  string    `json:"identifier"`
	FetchStatus string    `json:"fetchStatus"`
	FetchError  string    `json:"fetchError,omitempty"`
	Name        string    `json:"name,omitempty"`
	CrossRefs   int       `json:"crossRefs"`
	Activities  int       `json:"activities"`
	FetchedAt   time.Time `json:"fetchedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Snapshot exports the node's current state. Later mutations of the node
// do not affect an already-taken snapshot.
func (n *IdentityNode) Snapshot() NodeSnapshot {
	return NodeSnapshot{
		Platform:    n.key.Platform().String(),
		Identifier:  n.key.Identifier(),
		FetchStatus: string(n.fetchStatus),
		FetchError:  n.fetchError,
		Name:        n.Name(),
		CrossRefs:   len(n.crossRefs),
		Activities:  len(n.activities),
		FetchedAt:   n.fetchedAt,
		UpdatedAt:   n.updatedAt,
	}
}
