package aggregates

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"nexus-backend/domain/config"
	"nexus-backend/domain/core/entities"
	"nexus-backend/domain/core/valueobjects"
	"nexus-backend/domain/events"
)

// GraphID represents a unique resolution graph identifier
type GraphID string

// NewGraphID creates a new random GraphID
func NewGraphID() GraphID {
	return GraphID(uuid.New().String())
}

// String returns the string representation
func (id GraphID) String() string {
	return string(id)
}

// IdentityGraph is the aggregate root for one identity resolution session.
// It owns the set of platform nodes collected for a single person, computes
// the cross-validation confidence over them, and synthesizes the unified
// profile. One session owns exactly one graph; graphs are never shared.
type IdentityGraph struct {
	id         GraphID
	personName string
	ownerID    string
	nodes      map[string]*entities.IdentityNode
	cfg        *config.DomainConfig
	createdAt  time.Time
	updatedAt  time.Time
	version    int
	events     []events.DomainEvent
}

// NewIdentityGraph creates a graph for one resolution session
func NewIdentityGraph(ownerID, personName string) (*IdentityGraph, error) {
	return NewIdentityGraphWithConfig(ownerID, personName, config.DefaultDomainConfig())
}

// NewIdentityGraphWithConfig creates a graph with explicit domain configuration
func NewIdentityGraphWithConfig(ownerID, personName string, cfg *config.DomainConfig) (*IdentityGraph, error) {
	if ownerID == "" {
		return nil, errors.New("ownerID required")
	}
	if strings.TrimSpace(personName) == "" {
		return nil, errors.New("person name required")
	}
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	now := time.Now().UTC()
	return &IdentityGraph{
		id:         NewGraphID(),
		personName: strings.TrimSpace(personName),
		ownerID:    ownerID,
		nodes:      make(map[string]*entities.IdentityNode),
		cfg:        cfg,
		createdAt:  now,
		updatedAt:  now,
		version:    1,
		events:     []events.DomainEvent{},
	}, nil
}

// ReconstructIdentityGraph recreates a graph from stored data
func ReconstructIdentityGraph(
	id string,
	ownerID string,
	personName string,
	nodes []*entities.IdentityNode,
	createdAt, updatedAt time.Time,
) (*IdentityGraph, error) {
	if id == "" || ownerID == "" || personName == "" {
		return nil, errors.New("required fields missing for graph reconstruction")
	}

	graph := &IdentityGraph{
		id:         GraphID(id),
		personName: personName,
		ownerID:    ownerID,
		nodes:      make(map[string]*entities.IdentityNode, len(nodes)),
		cfg:        config.DefaultDomainConfig(),
		createdAt:  createdAt,
		updatedAt:  updatedAt,
		version:    1,
		events:     []events.DomainEvent{},
	}
	for _, node := range nodes {
		graph.nodes[node.Key().String()] = node
	}
	return graph, nil
}

// ID returns the graph's unique identifier
func (g *IdentityGraph) ID() GraphID {
	return g.id
}

// OwnerID returns the requesting user's ID
func (g *IdentityGraph) OwnerID() string {
	return g.ownerID
}

// PersonName returns the name the resolution session was started for
func (g *IdentityGraph) PersonName() string {
	return g.personName
}

// CreatedAt returns when the graph was created
func (g *IdentityGraph) CreatedAt() time.Time {
	return g.createdAt
}

// UpdatedAt returns when the graph was last updated
func (g *IdentityGraph) UpdatedAt() time.Time {
	return g.updatedAt
}

// AttachNode adds a fetched identity node to the graph. Node keys are
// unique per graph; attaching the same key twice is a conflict. Failed
// nodes are attached too, so the audit trail covers every platform tried.
func (g *IdentityGraph) AttachNode(node *entities.IdentityNode) error {
	if node == nil {
		return errors.New("node cannot be nil")
	}

	key := node.Key().String()
	if _, exists := g.nodes[key]; exists {
		return errors.New("node already exists in graph: " + key)
	}

	if len(g.nodes) >= g.cfg.MaxNodesPerGraph {
		return errors.New("maximum nodes reached")
	}

	g.nodes[key] = node
	g.updatedAt = time.Now().UTC()
	g.version++

	snap := node.Snapshot()
	g.addEvent(events.NewNodeAttached(
		g.id.String(),
		node.Key(),
		snap.FetchStatus,
		snap.CrossRefs,
		snap.Activities,
		g.updatedAt,
	))

	return nil
}

// GetNode retrieves a node by key
func (g *IdentityGraph) GetNode(key valueobjects.NodeKey) (*entities.IdentityNode, error) {
	node, exists := g.nodes[key.String()]
	if !exists {
		return nil, errors.New("node not found: " + key.String())
	}
	return node, nil
}

// HasNode checks if a node exists in the graph without error
func (g *IdentityGraph) HasNode(key valueobjects.NodeKey) bool {
	_, exists := g.nodes[key.String()]
	return exists
}

// Nodes returns all nodes sorted by key for deterministic iteration
func (g *IdentityGraph) Nodes() []*entities.IdentityNode {
	keys := g.sortedKeys()
	nodes := make([]*entities.IdentityNode, 0, len(keys))
	for _, k := range keys {
		nodes = append(nodes, g.nodes[k])
	}
	return nodes
}

// UsableNodes returns nodes that may contribute resolution evidence.
// Failed fetches are kept in the graph but excluded here.
func (g *IdentityGraph) UsableNodes() []*entities.IdentityNode {
	usable := make([]*entities.IdentityNode, 0, len(g.nodes))
	for _, node := range g.Nodes() {
		if node.IsUsable() {
			usable = append(usable, node)
		}
	}
	return usable
}

// NodeCount returns the number of attached nodes, failed included
func (g *IdentityGraph) NodeCount() int {
	return len(g.nodes)
}

// CalculateCrossValidationScore computes the identity confidence in [0,1]
// as a weighted sum of four evidence categories. Failed nodes never
// contribute. With a single usable node there is no second source to
// corroborate, so the score is capped.
func (g *IdentityGraph) CalculateCrossValidationScore() float64 {
	usable := g.UsableNodes()
	if len(usable) == 0 {
		return 0.0
	}
	if len(usable) == 1 {
		return g.cfg.SingleNodeScoreCap
	}

	score := 0.0
	if g.hasNameAgreement(usable) {
		score += g.cfg.NameMatchWeight
	}
	score += g.cfg.CrossRefWeight * g.bidirectionalRatio(usable)
	if g.hasFieldAgreement(usable, func(n *entities.IdentityNode) string { return n.Location() }) {
		score += g.cfg.LocationMatchWeight
	}
	if g.hasFieldAgreement(usable, func(n *entities.IdentityNode) string { return n.Company() }) {
		score += g.cfg.CompanyMatchWeight
	}
	score += g.cfg.BioOverlapWeight * g.bestBioOverlap(usable)

	return clamp01(score)
}

// hasNameAgreement checks whether at least two usable nodes carry the same
// person name, exactly after normalization or by fuzzy similarity.
func (g *IdentityGraph) hasNameAgreement(nodes []*entities.IdentityNode) bool {
	for i, a := range nodes {
		nameA := normalizeText(a.Name())
		if nameA == "" {
			continue
		}
		for _, b := range nodes[i+1:] {
			nameB := normalizeText(b.Name())
			if nameB == "" {
				continue
			}
			if nameA == nameB {
				return true
			}
			if g.cfg.EnableFuzzyNameMatch && trigramSimilarity(nameA, nameB) >= g.cfg.FuzzyNameThreshold {
				return true
			}
		}
	}
	return false
}

// bidirectionalRatio returns confirmed pairs over pairs with any
// cross-reference attempt. Mutual confirmation (A claims B and B claims A)
// is the evidence; a one-directional claim only counts as an attempt.
// Zero attempts contribute zero, not a division by zero.
func (g *IdentityGraph) bidirectionalRatio(nodes []*entities.IdentityNode) float64 {
	attempted := 0
	confirmed := 0

	for i, a := range nodes {
		for _, b := range nodes[i+1:] {
			aClaimsB := a.ReferencesNode(b.Key())
			bClaimsA := b.ReferencesNode(a.Key())
			if aClaimsB || bClaimsA {
				attempted++
			}
			if aClaimsB && bClaimsA {
				confirmed++
			}
		}
	}

	if attempted == 0 {
		return 0.0
	}
	return float64(confirmed) / float64(attempted)
}

// hasFieldAgreement checks case-insensitive equality or containment of a
// profile field between any two usable nodes.
func (g *IdentityGraph) hasFieldAgreement(nodes []*entities.IdentityNode, field func(*entities.IdentityNode) string) bool {
	for i, a := range nodes {
		valA := strings.ToLower(strings.TrimSpace(field(a)))
		if valA == "" {
			continue
		}
		for _, b := range nodes[i+1:] {
			valB := strings.ToLower(strings.TrimSpace(field(b)))
			if valB == "" {
				continue
			}
			if valA == valB || strings.Contains(valA, valB) || strings.Contains(valB, valA) {
				return true
			}
		}
	}
	return false
}

// bestBioOverlap returns the highest pairwise token-set Jaccard similarity
// over stopword-stripped bios, in [0,1].
func (g *IdentityGraph) bestBioOverlap(nodes []*entities.IdentityNode) float64 {
	best := 0.0
	for i, a := range nodes {
		tokensA := contentTokens(a.BioTokens())
		if len(tokensA) == 0 {
			continue
		}
		for _, b := range nodes[i+1:] {
			tokensB := contentTokens(b.BioTokens())
			if len(tokensB) == 0 {
				continue
			}
			if j := jaccard(tokensA, tokensB); j > best {
				best = j
			}
		}
	}
	return best
}

// SynthesizeProfile merges all usable nodes into one unified profile.
// The operation is a pure derivation over current graph state: calling it
// twice on an unmutated graph yields identical output, including the
// generation timestamp, which is taken from the graph's last update rather
// than the wall clock.
func (g *IdentityGraph) SynthesizeProfile() *UnifiedProfile {
	usable := g.UsableNodes()
	confidence := g.CalculateCrossValidationScore()

	profile := &UnifiedProfile{
		Name:             g.personName,
		GeneratedAt:      g.updatedAt,
		InsufficientData: len(usable) == 0,
		Identity: IdentitySummary{
			ConfidenceScore:   confidence,
			VerifiedPlatforms: []string{},
			CrossReferences:   []CrossReferenceEntry{},
		},
		Platforms:        map[string]PlatformProfile{},
		ActivityTimeline: []TimelineEntry{},
		RecencyWeighting: RecencyWeighting{
			DecayFactor:   g.cfg.MomentumDecayFactor,
			ReferenceTime: g.updatedAt,
			HalfLifeDays:  halfLifeDays(g.cfg.MomentumDecayFactor),
		},
	}

	if len(usable) == 0 {
		return profile
	}

	profile.Identity.PrimaryName = primaryName(usable)

	// Bio fragments: distinct, in platform priority order
	seen := map[string]bool{}
	fragments := []string{}
	for _, node := range byMergePriority(usable) {
		bio := strings.TrimSpace(node.Bio())
		if bio == "" {
			continue
		}
		normalized := normalizeText(bio)
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		fragments = append(fragments, bio)
		if len(fragments) >= g.cfg.MaxBioFragments {
			break
		}
	}
	profile.Bio = strings.Join(fragments, " | ")

	for _, node := range usable {
		if profile.Location == "" {
			profile.Location = node.Location()
		}
		if profile.Company == "" {
			profile.Company = node.Company()
		}
	}

	for _, node := range g.Nodes() {
		entry := PlatformProfile{
			Identifier:  node.Key().Identifier(),
			FetchStatus: string(node.FetchStatus()),
			Fields:      node.Profile().Fields(),
		}
		if node.IsUsable() {
			profile.Identity.VerifiedPlatforms = append(profile.Identity.VerifiedPlatforms, node.Platform().String())
		}
		profile.Platforms[node.Platform().String()] = entry
	}
	sort.Strings(profile.Identity.VerifiedPlatforms)

	// Cross-reference union, sorted for determinism
	for _, node := range byMergePriority(usable) {
		for _, ref := range node.CrossReferences() {
			profile.Identity.CrossReferences = append(profile.Identity.CrossReferences, CrossReferenceEntry{
				SourcePlatform: ref.SourcePlatform().String(),
				TargetPlatform: ref.TargetPlatform().String(),
				TargetHandle:   ref.TargetHandle(),
				Confidence:     ref.Confidence(),
				Confirmed:      g.isConfirmed(ref),
			})
		}
	}
	sort.SliceStable(profile.Identity.CrossReferences, func(i, j int) bool {
		a, b := profile.Identity.CrossReferences[i], profile.Identity.CrossReferences[j]
		if a.SourcePlatform != b.SourcePlatform {
			return a.SourcePlatform < b.SourcePlatform
		}
		if a.TargetPlatform != b.TargetPlatform {
			return a.TargetPlatform < b.TargetPlatform
		}
		return a.TargetHandle < b.TargetHandle
	})

	profile.ActivityTimeline = g.mergedTimeline(usable)

	return profile
}

// mergedTimeline unions all usable nodes' activities, newest first,
// deduplicated and capped.
func (g *IdentityGraph) mergedTimeline(nodes []*entities.IdentityNode) []TimelineEntry {
	all := []valueobjects.ActivityEvent{}
	seen := map[string]bool{}
	for _, node := range nodes {
		for _, act := range node.Activities() {
			key := act.DedupKey()
			if seen[key] {
				continue
			}
			seen[key] = true
			all = append(all, act)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].OccurredAt().Equal(all[j].OccurredAt()) {
			return all[i].OccurredAt().After(all[j].OccurredAt())
		}
		return all[i].DedupKey() < all[j].DedupKey()
	})

	if len(all) > g.cfg.MaxTimelineEntries {
		all = all[:g.cfg.MaxTimelineEntries]
	}

	timeline := make([]TimelineEntry, 0, len(all))
	for _, act := range all {
		timeline = append(timeline, TimelineEntry{
			Platform:   act.Platform().String(),
			Kind:       act.Kind(),
			Content:    act.Content(),
			URL:        act.URL(),
			OccurredAt: act.OccurredAt(),
			Sentiment:  act.Sentiment(),
		})
	}
	return timeline
}

// isConfirmed checks whether a cross-reference has a matching claim in the
// opposite direction somewhere in the graph.
func (g *IdentityGraph) isConfirmed(ref valueobjects.CrossReference) bool {
	target, exists := g.nodes[ref.Target().String()]
	if !exists || !target.IsUsable() {
		return false
	}
	for _, node := range g.nodes {
		if node.Platform() == ref.SourcePlatform() && node.IsUsable() {
			if target.ReferencesNode(node.Key()) {
				return true
			}
		}
	}
	return false
}

// MergedActivities returns the deduplicated union of all usable nodes'
// activities, newest first, uncapped. Momentum scoring consumes this.
func (g *IdentityGraph) MergedActivities() []valueobjects.ActivityEvent {
	all := []valueobjects.ActivityEvent{}
	seen := map[string]bool{}
	for _, node := range g.UsableNodes() {
		for _, act := range node.Activities() {
			key := act.DedupKey()
			if seen[key] {
				continue
			}
			seen[key] = true
			all = append(all, act)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].OccurredAt().After(all[j].OccurredAt())
	})
	return all
}

// GetUncommittedEvents returns all uncommitted domain events
func (g *IdentityGraph) GetUncommittedEvents() []events.DomainEvent {
	allEvents := make([]events.DomainEvent, len(g.events))
	copy(allEvents, g.events)
	return allEvents
}

// MarkEventsAsCommitted clears all uncommitted events
func (g *IdentityGraph) MarkEventsAsCommitted() {
	g.events = []events.DomainEvent{}
}

// RecordSynthesis raises the ProfileSynthesized domain event for a
// generated profile. Kept separate from SynthesizeProfile so the
// derivation itself stays side-effect free.
func (g *IdentityGraph) RecordSynthesis(profile *UnifiedProfile) {
	if profile == nil {
		return
	}
	g.addEvent(events.NewProfileSynthesized(
		g.id.String(),
		profile.Identity.PrimaryName,
		profile.Identity.ConfidenceScore,
		profile.Identity.VerifiedPlatforms,
		profile.InsufficientData,
		time.Now().UTC(),
	))
}

// Private helper methods

func (g *IdentityGraph) addEvent(event events.DomainEvent) {
	g.events = append(g.events, event)
}

func (g *IdentityGraph) sortedKeys() []string {
	keys := make([]string, 0, len(g.nodes))
	for k := range g.nodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// primaryName picks the first non-empty name in platform merge priority
// order so ties resolve deterministically.
func primaryName(nodes []*entities.IdentityNode) string {
	for _, node := range byMergePriority(nodes) {
		if name := strings.TrimSpace(node.Name()); name != "" {
			return name
		}
	}
	return ""
}

func byMergePriority(nodes []*entities.IdentityNode) []*entities.IdentityNode {
	ordered := make([]*entities.IdentityNode, len(nodes))
	copy(ordered, nodes)
	sort.SliceStable(ordered, func(i, j int) bool {
		pi, pj := ordered[i].Platform().MergePriority(), ordered[j].Platform().MergePriority()
		if pi != pj {
			return pi < pj
		}
		return ordered[i].Key().String() < ordered[j].Key().String()
	})
	return ordered
}

// normalizeText lowercases and strips punctuation and extra whitespace
func normalizeText(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// trigramSimilarity computes Jaccard similarity over character trigrams of
// the already-normalized inputs. Short inputs fall back to equality.
func trigramSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) < 3 || len(b) < 3 {
		return 0.0
	}
	gramsA := trigrams(a)
	gramsB := trigrams(b)
	return jaccard(gramsA, gramsB)
}

func trigrams(s string) map[string]bool {
	grams := map[string]bool{}
	for i := 0; i+3 <= len(s); i++ {
		grams[s[i:i+3]] = true
	}
	return grams
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	intersection := 0
	for k := range a {
		if b[k] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

var bioStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true,
}

func contentTokens(tokens map[string]bool) map[string]bool {
	filtered := map[string]bool{}
	for t := range tokens {
		if !bioStopwords[t] {
			filtered[t] = true
		}
	}
	return filtered
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// halfLifeDays converts a per-day decay factor into the number of days
// until an event's weight halves.
func halfLifeDays(decay float64) float64 {
	if decay <= 0 || decay >= 1 {
		return 0
	}
	return math.Log(0.5) / math.Log(decay)
}
