package reconcile

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type WorkerPoolI interface {
	AddTask(ctx context.Context, task Task) error
	Close()
}

type Task func() error

type WorkerPool struct {
	pool chan Task
	once sync.Once
}

func NewWorkerPool(size int) *WorkerPool {
	wp := &WorkerPool{pool: make(chan Task, size)}

	for i := 0; i < size; i++ {
		go wp.worker()
	}
	return wp
}

func (wp *WorkerPool) worker() {
	for task := range wp.pool {
		if err := task(); err != nil {
			zap.L().Error("Payment sync task failed", zap.Error(err))
		}
	}
}

func (wp *WorkerPool) AddTask(ctx context.Context, task Task) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case wp.pool <- task:
		return nil
	}
}

// Close stops the workers once queued tasks drain. AddTask must not be called
// afterwards.
func (wp *WorkerPool) Close() {
	wp.once.Do(func() { close(wp.pool) })
}
