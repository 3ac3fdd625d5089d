package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Task is a named pipeline step.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

type funcTask struct {
	name string
	fn   func(ctx context.Context) error
}

func (t funcTask) Name() string                  { return t.name }
func (t funcTask) Run(ctx context.Context) error { return t.fn(ctx) }

// NewTask wraps fn as a task.
func NewTask(name string, fn func(ctx context.Context) error) Task {
	return funcTask{name: name, fn: fn}
}

// Series runs tasks one after the other and stops at the first failure.
func Series(name string, tasks ...Task) Task {
	return NewTask(name, func(ctx context.Context) error {
		for _, task := range tasks {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := task.Run(ctx); err != nil {
				return fmt.Errorf("%s: %w", task.Name(), err)
			}
		}
		return nil
	})
}

// Parallel runs tasks concurrently. The first failure cancels the others.
func Parallel(name string, tasks ...Task) Task {
	return NewTask(name, func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		for _, task := range tasks {
			g.Go(func() error {
				if err := task.Run(gctx); err != nil {
					return fmt.Errorf("%s: %w", task.Name(), err)
				}
				return nil
			})
		}
		return g.Wait()
	})
}
