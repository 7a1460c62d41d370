package sagas

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Step is a single stage of a saga. Execute receives the previous step's
// output and returns its own; Compensate undoes the step when a later
// stage fails.
type Step struct {
	Name       string
	Execute    func(ctx context.Context, data interface{}) (interface{}, error)
	Compensate func(ctx context.Context, data interface{}) error
	MaxRetries int
	RetryDelay time.Duration
}

// State is the lifecycle state of a saga execution
type State string

const (
	StatePending      State = "PENDING"
	StateRunning      State = "RUNNING"
	StateCompleted    State = "COMPLETED"
	StateFailed       State = "FAILED"
	StateCompensating State = "COMPENSATING"
	StateCompensated  State = "COMPENSATED"
)

// Saga runs a series of steps and rolls back completed ones, in reverse
// order, when a later step fails. Compensation is best effort: a failing
// compensation is logged and the remaining ones still run.
type Saga struct {
	id     string
	name   string
	steps  []Step
	state  State
	logger *zap.Logger
}

// New creates a saga
func New(name string, logger *zap.Logger) *Saga {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Saga{
		id:     uuid.New().String(),
		name:   name,
		state:  StatePending,
		logger: logger,
	}
}

// AddStep appends a step to the saga
func (s *Saga) AddStep(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// State returns the saga's current lifecycle state
func (s *Saga) State() State {
	return s.state
}

// ID returns the saga's unique identifier
func (s *Saga) ID() string {
	return s.id
}

// Execute runs all steps in order, threading each step's output into the
// next. On failure, completed compensable steps are rolled back in
// reverse order and the original error is returned.
func (s *Saga) Execute(ctx context.Context, initial interface{}) (interface{}, error) {
	s.state = StateRunning
	s.logger.Debug("starting saga",
		zap.String("saga_id", s.id),
		zap.String("saga", s.name),
		zap.Int("steps", len(s.steps)))

	done := []completedStep{}

	data := initial
	for _, step := range s.steps {
		result, err := s.runStep(ctx, step, data)
		if err != nil {
			s.state = StateFailed
			s.logger.Error("saga step failed",
				zap.String("saga_id", s.id),
				zap.String("step", step.Name),
				zap.Error(err))
			s.compensate(ctx, done)
			return nil, fmt.Errorf("saga %s failed at step %s: %w", s.name, step.Name, err)
		}
		data = result
		done = append(done, completedStep{step: step, data: data})
	}

	s.state = StateCompleted
	return data, nil
}

func (s *Saga) runStep(ctx context.Context, step Step, data interface{}) (interface{}, error) {
	attempts := step.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	delay := step.RetryDelay
	if delay == 0 {
		delay = time.Second
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		result, err := step.Execute(ctx, data)
		if err == nil {
			return result, nil
		}
		lastErr = err
		s.logger.Warn("saga step attempt failed",
			zap.String("saga_id", s.id),
			zap.String("step", step.Name),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	return nil, fmt.Errorf("step %s failed after %d attempts: %w", step.Name, attempts, lastErr)
}

type completedStep struct {
	step Step
	data interface{}
}

func (s *Saga) compensate(ctx context.Context, done []completedStep) {
	s.state = StateCompensating
	for i := len(done) - 1; i >= 0; i-- {
		if done[i].step.Compensate == nil {
			continue
		}
		if err := done[i].step.Compensate(ctx, done[i].data); err != nil {
			s.logger.Error("saga compensation failed",
				zap.String("saga_id", s.id),
				zap.String("step", done[i].step.Name),
				zap.Error(err))
		}
	}
	s.state = StateCompensated
}
