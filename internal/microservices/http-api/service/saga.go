package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

type compensation struct {
	name string
	undo func(ctx context.Context) error
}

// saga records compensating actions for completed ingestion steps so a
// later failure can undo them in reverse order.
type saga struct {
	steps []compensation
}

func (s *saga) push(name string, undo func(ctx context.Context) error) {
	s.steps = append(s.steps, compensation{name: name, undo: undo})
}

// unwind runs every compensation, last pushed first. A failing compensation
// does not stop the ones after it.
func (s *saga) unwind(ctx context.Context, logger *slog.Logger) error {
	var errs []error
	for i := len(s.steps) - 1; i >= 0; i-- {
		step := s.steps[i]
		if err := step.undo(ctx); err != nil {
			logger.Error("rollback step failed", "step", step.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
			continue
		}
		logger.Debug("rollback step done", "step", step.name)
	}
	s.steps = nil
	return errors.Join(errs...)
}
