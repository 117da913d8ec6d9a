package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/lesson_booking/internal/timeslot"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SlotPruner удаляет свободные слоты с датой раньше before
type SlotPruner interface {
	PruneExpired(ctx context.Context, before timeslot.Date) (int64, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	cron      *cron.Cron
	pruner    SlotPruner
	retention int
	location  *time.Location
	timeout   time.Duration
	logger    *zap.Logger
}

// NewScheduler создаёт планировщик очистки прошедших слотов.
// retention: сколько дней назад от сегодня слоты ещё хранятся.
func NewScheduler(pruner SlotPruner, retention int, location *time.Location, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(location),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		pruner:    pruner,
		retention: retention,
		location:  location,
		timeout:   5 * time.Minute,
		logger:    logger,
	}
}

// Schedule регистрирует задачу по cron-выражению (например "@daily")
func (s *Scheduler) Schedule(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.pruneExpired); err != nil {
		return fmt.Errorf("schedule prune job %q: %w", schedule, err)
	}
	s.logger.Info("Prune job scheduled",
		zap.String("schedule", schedule),
		zap.Int("retention_days", s.retention),
	)
	return nil
}

// Start запускает фоновые задачи
func (s *Scheduler) Start() {
	s.logger.Info("Starting background scheduler")
	s.cron.Start()
}

// Stop останавливает планировщик и ждёт завершения запущенной задачи
func (s *Scheduler) Stop(ctx context.Context) {
	s.logger.Info("Stopping background scheduler")

	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("Background scheduler did not stop in time")
	}
}

// Cutoff дата, раньше которой свободные слоты удаляются
func (s *Scheduler) Cutoff(now time.Time) timeslot.Date {
	return timeslot.DateOf(now.In(s.location)).AddDays(-s.retention)
}

func (s *Scheduler) pruneExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	before := s.Cutoff(time.Now())
	deleted, err := s.pruner.PruneExpired(ctx, before)
	if err != nil {
		s.logger.Error("Failed to prune expired slots",
			zap.Stringer("before", before),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Prune job completed",
		zap.Stringer("before", before),
		zap.Int64("deleted", deleted),
	)
}
