package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RuleHousekeeper снимает с активных правил те, чей период закончился
type RuleHousekeeper interface {
	DeactivateExpiredRules(ctx context.Context) (int64, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	rules    RuleHousekeeper
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	done     chan struct{}
}

// NewScheduler создаёт новый планировщик
func NewScheduler(rules RuleHousekeeper, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		rules:    rules,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	go s.runExpiryTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт их завершения
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
	<-s.done
}

// runExpiryTask периодически деактивирует истёкшие правила
func (s *Scheduler) runExpiryTask(ctx context.Context) {
	defer close(s.done)

	// Первый запуск сразу при старте
	s.deactivateExpired(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.deactivateExpired(ctx)
		case <-s.stopChan:
			s.logger.Info("Rule expiry task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Rule expiry task cancelled")
			return
		}
	}
}

func (s *Scheduler) deactivateExpired(ctx context.Context) {
	n, err := s.rules.DeactivateExpiredRules(ctx)
	if err != nil {
		s.logger.Error("Failed to deactivate expired rules", zap.Error(err))
		return
	}

	s.logger.Info("Expired rules deactivated", zap.Int64("count", n))
}
