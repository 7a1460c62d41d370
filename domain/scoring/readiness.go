package scoring

import (
	"math"
	"time"

	"go.uber.org/zap"

	"nexus-backend/domain/config"
)

// ExecutionState is the final outreach recommendation band
type ExecutionState string

const (
	StateStrongGo ExecutionState = "STRONG_GO"
	StateProceed  ExecutionState = "PROCEED"
	StateCaution  ExecutionState = "CAUTION"
	StateAbort    ExecutionState = "ABORT"
)

// Weights is the context/intent/timing weight triple. Weights are expected
// to sum to 1.0; mode tables supply their own.
type Weights struct {
	Context float64 `json:"context"`
	Intent  float64 `json:"intent"`
	Timing  float64 `json:"timing"`
}

// CITScore is the context-intent-timing readiness assessment. Total is
// always derived, never set independently.
type CITScore struct {
	Context        float64        `json:"context"`
	Intent         float64        `json:"intent"`
	Timing         float64        `json:"timing"`
	Total          float64        `json:"total"`
	ExecutionState ExecutionState `json:"executionState"`
	Weights        Weights        `json:"weights"`
	OverrideRule   string         `json:"overrideRule,omitempty"`
	WindowDeltas   []WindowDelta  `json:"windowDeltas,omitempty"`
	Clamped        bool           `json:"clamped,omitempty"`
}

// WindowDelta records one temporal adjustment that applied
type WindowDelta struct {
	Window string  `json:"window"`
	Delta  float64 `json:"delta"`
}

// ReadinessScorer combines context, intent, and timing signals into an
// execution-state recommendation. Scoring itself is a pure function of its
// inputs; the logger only reports clamped out-of-range components.
type ReadinessScorer struct {
	defaultWeights Weights
	modes          *ModeRegistry
	windows        []TemporalWindow
	logger         *zap.Logger
}

// NewReadinessScorer creates a scorer with the default mode registry and
// temporal windows.
func NewReadinessScorer(cfg *config.DomainConfig, logger *zap.Logger) *ReadinessScorer {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadinessScorer{
		defaultWeights: Weights{
			Context: cfg.ContextWeight,
			Intent:  cfg.IntentWeight,
			Timing:  cfg.TimingWeight,
		},
		modes:   DefaultModeRegistry(cfg),
		windows: DefaultTemporalWindows(),
		logger:  logger,
	}
}

// ScoreRequest carries all inputs for one readiness assessment
type ScoreRequest struct {
	Context float64
	Intent  float64
	Timing  float64
	Role    Role
	Goal    Intent
	Signals Signals
	Now     time.Time
}

// Score evaluates readiness. Components out of [0,100] are clamped and
// logged, never rejected: upstream signal producers cannot be trusted to
// stay in range. Unknown role/goal combinations fall back to the default
// weights with no override rules.
func (s *ReadinessScorer) Score(req ScoreRequest) CITScore {
	result := CITScore{
		Context: s.clampComponent("context", req.Context),
		Intent:  s.clampComponent("intent", req.Intent),
		Timing:  s.clampComponent("timing", req.Timing),
	}
	result.Clamped = result.Context != req.Context ||
		result.Intent != req.Intent ||
		result.Timing != req.Timing

	weights := s.defaultWeights
	var overrides []OverrideRule
	if mode, ok := s.modes.Lookup(req.Role, req.Goal); ok {
		weights = mode.Weights
		overrides = mode.Overrides
	}
	result.Weights = weights

	// First matching override forces the total outright. It replaces the
	// weighted sum and temporal adjustments, not blends with them.
	for _, rule := range overrides {
		if rule.Matches(req.Signals) {
			result.OverrideRule = rule.Name
			result.Total = clampScore(rule.ForcedScore)
			result.ExecutionState = ClassifyExecutionState(result.Total)
			return result
		}
	}

	total := weights.Context*result.Context +
		weights.Intent*result.Intent +
		weights.Timing*result.Timing

	// All matching windows apply additively. Overlap is intentional and
	// documented for whoever configures windows.
	for _, window := range s.windows {
		if window.Contains(req.Now) {
			total += window.Delta
			result.WindowDeltas = append(result.WindowDeltas, WindowDelta{
				Window: window.Name,
				Delta:  window.Delta,
			})
		}
	}

	result.Total = math.Round(clampScore(total)*100) / 100
	result.ExecutionState = ClassifyExecutionState(result.Total)
	return result
}

func (s *ReadinessScorer) clampComponent(name string, v float64) float64 {
	clamped := clampScore(v)
	if clamped != v {
		s.logger.Warn("readiness component out of range, clamping",
			zap.String("component", name),
			zap.Float64("value", v),
			zap.Float64("clamped", clamped))
	}
	return clamped
}

// ClassifyExecutionState maps a final total onto its execution state.
// Boundaries are exact: 90 is STRONG_GO, 89.999 is PROCEED.
func ClassifyExecutionState(total float64) ExecutionState {
	switch {
	case total >= 90:
		return StateStrongGo
	case total >= 75:
		return StateProceed
	case total >= 55:
		return StateCaution
	default:
		return StateAbort
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
