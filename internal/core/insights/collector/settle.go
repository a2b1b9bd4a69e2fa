package collector

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/iter"
)

// Task is one unit of work for SettleAll.
type Task[T any] func(ctx context.Context) (T, error)

// Settled is the outcome of one task: either a value or an error.
type Settled[T any] struct {
	Value T
	Err   error
}

// SettleAll runs every task concurrently and waits for all of them. The result has
// exactly len(tasks) entries in task order. A failing or panicking task never
// prevents the others from completing.
func SettleAll[T any](ctx context.Context, tasks []Task[T]) []Settled[T] {
	if len(tasks) == 0 {
		return []Settled[T]{}
	}

	mapper := iter.Mapper[Task[T], Settled[T]]{MaxGoroutines: len(tasks)}
	return mapper.Map(tasks, func(task *Task[T]) (out Settled[T]) {
		defer func() {
			if r := recover(); r != nil {
				out = Settled[T]{Err: fmt.Errorf("task panicked: %v", r)}
			}
		}()
		if *task == nil {
			return Settled[T]{Err: fmt.Errorf("nil task")}
		}
		v, err := (*task)(ctx)
		return Settled[T]{Value: v, Err: err}
	})
}
