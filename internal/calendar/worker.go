package calendar

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrWorkerClosed is returned for calls submitted after Close.
var ErrWorkerClosed = errors.New("calendar worker closed")

// Worker runs every submitted call on one dedicated goroutine.
type Worker struct {
	jobs chan func()
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

// NewWorker starts the worker goroutine.
func NewWorker() *Worker {
	w := &Worker{
		jobs: make(chan func()),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *Worker) loop() {
	defer close(w.done)
	for {
		select {
		case job := <-w.jobs:
			job()
		case <-w.quit:
			return
		}
	}
}

// Do runs fn on the worker and waits for its result. The caller stops
// waiting when ctx ends; fn itself keeps the worker until it returns.
func (w *Worker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	result := make(chan error, 1)
	job := func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("calendar call panicked: %v", r)
			}
		}()
		result <- fn(ctx)
	}

	select {
	case w.jobs <- job:
	case <-w.quit:
		return ErrWorkerClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting calls and waits for the current one to finish.
func (w *Worker) Close() {
	w.once.Do(func() { close(w.quit) })
	<-w.done
}
