package shared

import (
	"context"
	"fmt"
	"log/slog"
)

// SagaStep is one unit of a multi-step remote operation. Compensate undoes
// the step after a later step fails; it may be nil for irreversible steps.
type SagaStep struct {
	Name       string
	Run        func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// SagaResult enumerates what actually happened, so partial-failure states are
// inspectable instead of ad hoc.
type SagaResult struct {
	Completed   []string
	FailedStep  string
	Compensated []string
}

// Saga runs steps in order. On a step failure the compensations of every
// completed step run in reverse order. Compensation failures are logged and
// do not stop the remaining compensations.
type Saga struct {
	name   string
	logger *slog.Logger
	steps  []SagaStep
}

// NewSaga constructs a saga with a name used in logs.
func NewSaga(name string, logger *slog.Logger, steps ...SagaStep) *Saga {
	return &Saga{name: name, logger: logger, steps: steps}
}

// Execute runs the saga. The returned error is the failing step's error,
// wrapped with the step name; the result is valid in both outcomes.
func (s *Saga) Execute(ctx context.Context) (SagaResult, error) {
	result := SagaResult{}
	for i, step := range s.steps {
		if err := step.Run(ctx); err != nil {
			result.FailedStep = step.Name
			s.logger.Error("saga step failed",
				slog.String("saga", s.name),
				slog.String("step", step.Name),
				slog.Any("error", err))
			s.compensate(ctx, i, &result)
			return result, fmt.Errorf("%s: step %s: %w", s.name, step.Name, err)
		}
		result.Completed = append(result.Completed, step.Name)
	}
	return result, nil
}

func (s *Saga) compensate(ctx context.Context, failedIdx int, result *SagaResult) {
	for i := failedIdx - 1; i >= 0; i-- {
		step := s.steps[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			s.logger.Error("saga compensation failed",
				slog.String("saga", s.name),
				slog.String("step", step.Name),
				slog.Any("error", err))
			continue
		}
		result.Compensated = append(result.Compensated, step.Name)
	}
}
