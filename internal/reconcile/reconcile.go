// Package reconcile settles payments whose gateway callback never arrived. It
// periodically picks up stale pending payments and re-verifies each one with
// its gateway.
package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/divinecia/Househelp-sub000/internal/domain"
)

const (
	maxRetries    = 3
	retryInterval = time.Second
	batchLimit    = 100
	staleAfter    = time.Minute
	workers       = 5
)

// Source is the payment side the reconciler drives.
type Source interface {
	Pending(ctx context.Context, olderThan time.Duration, limit int) ([]domain.Payment, error)
	Sync(ctx context.Context, pay *domain.Payment) error
}

type Service struct {
	source         Source
	workerPool     WorkerPoolI
	inflight       sync.Map
	limit          int
	olderThan      time.Duration
	updateInterval time.Duration
	retryInterval  time.Duration
}

func New(source Source, updateInterval time.Duration) *Service {
	return &Service{
		source:         source,
		workerPool:     NewWorkerPool(workers),
		limit:          batchLimit,
		olderThan:      staleAfter,
		updateInterval: updateInterval,
		retryInterval:  retryInterval,
	}
}

// Start runs the loop until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	zap.L().Info("Payment reconciler started", zap.Duration("interval", s.updateInterval))
	s.run(ctx)
}

func (s *Service) run(ctx context.Context) {
	ticker := time.NewTicker(s.updateInterval)
	defer ticker.Stop()
	defer s.workerPool.Close()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("Context canceled, stopping payment reconciler")
			return
		case <-ticker.C:
			s.processPayments(ctx)
		}
	}
}

func (s *Service) processPayments(ctx context.Context) {
	payments, err := s.source.Pending(ctx, s.olderThan, s.limit)
	if err != nil {
		zap.L().Error("Failed to fetch pending payments", zap.Error(err))
		return
	}

	var g errgroup.Group
	for _, pay := range payments {
		if _, loaded := s.inflight.LoadOrStore(pay.ID, struct{}{}); loaded {
			continue
		}

		g.Go(func() error {
			err := s.workerPool.AddTask(ctx, func() error {
				defer s.inflight.Delete(pay.ID)
				return s.handlePayment(ctx, pay)
			})
			if err != nil {
				s.inflight.Delete(pay.ID)
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		zap.L().Error("Error scheduling payment sync", zap.Error(err))
	}
}

func (s *Service) handlePayment(ctx context.Context, pay domain.Payment) error {
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err = s.source.Sync(ctx, &pay); err == nil {
			if pay.Status != domain.PaymentPending {
				zap.L().Info("Payment settled by reconciler",
					zap.String("paymentID", pay.ID.String()),
					zap.String("status", string(pay.Status)))
			}
			return nil
		}

		zap.L().Warn("Payment sync failed, retrying",
			zap.String("paymentID", pay.ID.String()),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt == maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.retryInterval * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("failed to sync payment %s after %d retries: %w", pay.ID, maxRetries, err)
}

// InFlight reports whether a payment is currently being synced.
func (s *Service) InFlight(id uuid.UUID) bool {
	_, ok := s.inflight.Load(id)
	return ok
}
