package services

import (
	"context"
	"sync"
	"time"

	"github.com/yukikurage/qa-tracker-api/internal/logger"
	"github.com/yukikurage/qa-tracker-api/internal/models"
)

// Effects runs best-effort work after a primary write has committed. Errors
// are logged and never reach the caller of the primary operation.
type Effects interface {
	Go(name string, fn func(ctx context.Context) error)
}

// AsyncEffects runs each effect on its own goroutine with a deadline.
type AsyncEffects struct {
	wg      sync.WaitGroup
	timeout time.Duration
}

func NewAsyncEffects(timeout time.Duration) *AsyncEffects {
	return &AsyncEffects{timeout: timeout}
}

func (e *AsyncEffects) Go(name string, fn func(ctx context.Context) error) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("%s panicked: %v", name, r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			logger.Warning("%s failed: %v", name, err)
		}
	}()
}

// Wait blocks until running effects finish or ctx is done.
func (e *AsyncEffects) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InlineEffects runs effects on the calling goroutine.
type InlineEffects struct{}

func (InlineEffects) Go(name string, fn func(ctx context.Context) error) {
	if err := fn(context.Background()); err != nil {
		logger.Warning("%s failed: %v", name, err)
	}
}

// TesterMirror receives testers to copy to the external spreadsheet.
type TesterMirror interface {
	SyncTesters(label string, testers ...models.Tester)
}
