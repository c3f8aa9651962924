package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrPanic wraps a value recovered from a panicking task.
var ErrPanic = errors.New("task panicked")

// supervisor runs named tasks in goroutines. A task that fails or panics is
// logged and its cleanup still runs; no other task is affected.
type supervisor struct {
	log  *zap.Logger
	wg   sync.WaitGroup
	mu   sync.Mutex
	errs map[string]error
}

func newSupervisor(log *zap.Logger) *supervisor {
	return &supervisor{log: log, errs: make(map[string]error)}
}

// Go starts run under name. cleanup functions run after run returns or
// panics, typically closing the task's output channels.
func (s *supervisor) Go(ctx context.Context, name string, run func(context.Context) error, cleanup ...func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			for _, fn := range cleanup {
				fn()
			}
		}()

		err := s.protect(ctx, name, run)
		s.mu.Lock()
		s.errs[name] = err
		s.mu.Unlock()

		if err != nil {
			s.log.Error("task failed", zap.String("task", name), zap.Error(err))
			return
		}
		s.log.Info("task finished", zap.String("task", name))
	}()
}

func (s *supervisor) protect(ctx context.Context, name string, run func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("task panicked", zap.String("task", name), zap.Any("panic", r), zap.Stack("stack"))
			err = fmt.Errorf("%w: %s: %v", ErrPanic, name, r)
		}
	}()
	return run(ctx)
}

// Err returns the error the named task finished with.
func (s *supervisor) Err(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs[name]
}

// Wait blocks until every task has returned or timeout elapses. It reports
// whether all tasks finished.
func (s *supervisor) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
