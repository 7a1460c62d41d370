package scoring

import (
	"strings"

	"nexus-backend/domain/config"
)

// Role is the requesting user's professional role
type Role string

const (
	RoleStudent      Role = "student"
	RoleFounder      Role = "founder"
	RoleResearcher   Role = "researcher"
	RoleProfessional Role = "professional"
	RoleFreelancer   Role = "freelancer"
)

// Intent is the networking goal driving the outreach
type Intent string

const (
	IntentHiring        Intent = "hiring"
	IntentFunding       Intent = "funding"
	IntentCollaboration Intent = "collaboration"
	IntentMentorship    Intent = "mentorship"
	IntentSales         Intent = "sales"
)

// Signals carries the observable facts override predicates evaluate.
// Everything here comes from the resolved profile or the caller; predicates
// never reach outside this struct.
type Signals struct {
	TargetRole        string
	TargetBio         string
	RecentPosts       []string
	NegativeSentiment bool
	RecentCommits     int
	HasCommitData     bool
	StageMismatch     bool
	OnSabbatical      bool
}

// OverrideRule forces a fixed total when its predicate matches. Rules are
// evaluated in declaration order and the first match wins.
type OverrideRule struct {
	Name        string
	Matches     func(Signals) bool
	ForcedScore float64
}

// Mode is one role and intent combination with its weight table and
// ordered override rules.
type Mode struct {
	Role      Role
	Goal      Intent
	Weights   Weights
	Overrides []OverrideRule
}

// ModeRegistry holds all known role and intent combinations
type ModeRegistry struct {
	modes map[string]Mode
}

// Lookup finds the mode for a role and intent pair
func (r *ModeRegistry) Lookup(role Role, goal Intent) (Mode, bool) {
	mode, ok := r.modes[string(role)+"/"+string(goal)]
	return mode, ok
}

// Register adds or replaces a mode
func (r *ModeRegistry) Register(mode Mode) {
	r.modes[string(mode.Role)+"/"+string(mode.Goal)] = mode
}

// DefaultModeRegistry builds the five standard role and intent
// combinations with their weight tables and override rules.
func DefaultModeRegistry(cfg *config.DomainConfig) *ModeRegistry {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	registry := &ModeRegistry{modes: map[string]Mode{}}

	registry.Register(Mode{
		Role:    RoleStudent,
		Goal:    IntentHiring,
		Weights: Weights{Context: 0.4, Timing: 0.3, Intent: 0.3},
		Overrides: []OverrideRule{
			{
				Name: "recruiter_hiring_post",
				Matches: func(s Signals) bool {
					return containsFold(s.TargetRole, "recruiter") && anyPostContains(s.RecentPosts, "hiring")
				},
				ForcedScore: 98,
			},
			{
				Name: "engineer_no_portfolio",
				Matches: func(s Signals) bool {
					return containsFold(s.TargetRole, "engineer") && s.HasCommitData && s.RecentCommits == 0
				},
				ForcedScore: 5,
			},
		},
	})

	registry.Register(Mode{
		Role:    RoleFounder,
		Goal:    IntentFunding,
		Weights: Weights{Context: 0.5, Timing: 0.2, Intent: 0.3},
		Overrides: []OverrideRule{
			{
				Name: "negative_sentiment",
				Matches: func(s Signals) bool {
					return s.NegativeSentiment
				},
				ForcedScore: 0,
			},
			{
				Name: "request_for_startups",
				Matches: func(s Signals) bool {
					return anyPostContains(s.RecentPosts, "request for startups") || anyPostContains(s.RecentPosts, "rfs")
				},
				ForcedScore: 99,
			},
			{
				Name: "stage_mismatch",
				Matches: func(s Signals) bool {
					return s.StageMismatch
				},
				ForcedScore: 0,
			},
		},
	})

	registry.Register(Mode{
		Role:    RoleResearcher,
		Goal:    IntentCollaboration,
		Weights: Weights{Context: 0.6, Timing: 0.2, Intent: 0.2},
		Overrides: []OverrideRule{
			{
				Name: "target_on_sabbatical",
				Matches: func(s Signals) bool {
					return s.OnSabbatical || containsFold(s.TargetBio, "sabbatical") || containsFold(s.TargetBio, "out of office")
				},
				ForcedScore: 0,
			},
		},
	})

	registry.Register(Mode{
		Role:      RoleProfessional,
		Goal:      IntentMentorship,
		Weights:   Weights{Context: 0.3, Timing: 0.4, Intent: 0.3},
		Overrides: []OverrideRule{},
	})

	registry.Register(Mode{
		Role:    RoleFreelancer,
		Goal:    IntentSales,
		Weights: Weights{Context: 0.6, Timing: 0.3, Intent: 0.1},
		Overrides: []OverrideRule{
			{
				Name: "no_solicitors",
				Matches: func(s Signals) bool {
					return containsFold(s.TargetBio, "no solicitors")
				},
				ForcedScore: 0,
			},
		},
	})

	return registry
}

// ParseRole parses a role string, case-insensitively
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleStudent, RoleFounder, RoleResearcher, RoleProfessional, RoleFreelancer:
		return Role(strings.ToLower(strings.TrimSpace(s))), true
	default:
		return "", false
	}
}

// ParseIntent parses an intent string, case-insensitively
func ParseIntent(s string) (Intent, bool) {
	switch Intent(strings.ToLower(strings.TrimSpace(s))) {
	case IntentHiring, IntentFunding, IntentCollaboration, IntentMentorship, IntentSales:
		return Intent(strings.ToLower(strings.TrimSpace(s))), true
	default:
		return "", false
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

func anyPostContains(posts []string, needle string) bool {
	for _, post := range posts {
		if containsFold(post, needle) {
			return true
		}
	}
	return false
}
