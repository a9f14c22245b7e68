// Package async runs independent startup tasks concurrently.
package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Task is a named unit of work.
type Task struct {
	Name string
	Func func(context.Context) error
}

// Run starts every task concurrently and waits for all of them. Errors are
// wrapped with the task name and joined in task order; nil means every task
// succeeded.
//
// Example:
//
//	err := async.Run(ctx,
//	    async.Task{Name: "directory", Func: dir.Refresh},
//	    async.Task{Name: "poller", Func: poller.Start},
//	)
func Run(ctx context.Context, tasks ...Task) error {
	if len(tasks) == 0 {
		return nil
	}

	errs := make([]error, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := task.Func(ctx); err != nil {
				errs[i] = fmt.Errorf("%s: %w", task.Name, err)
			}
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}
