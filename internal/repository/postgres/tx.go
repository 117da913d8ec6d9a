package postgres

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_booking/internal/repository"
	"go.uber.org/zap"
)

// TxManager открывает транзакцию на каждую единицу работы
type TxManager struct {
	db     Beginner
	logger *zap.Logger
}

func NewTxManager(db Beginner, logger *zap.Logger) *TxManager {
	return &TxManager{db: db, logger: logger}
}

// InTx выполняет fn в транзакции READ COMMITTED. Инварианты держатся на
// блокировках строк (FOR UPDATE), которые берут репозитории.
func (m *TxManager) InTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) (err error) {
	pgTx, err := m.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	// откат не должен зависеть от отмены запроса
	rollbackCtx := context.WithoutCancel(ctx)

	defer func() {
		if p := recover(); p != nil {
			_ = pgTx.Rollback(rollbackCtx)
			panic(p)
		}
	}()

	if err := fn(ctx, &tx{db: pgTx}); err != nil {
		if rbErr := pgTx.Rollback(rollbackCtx); rbErr != nil {
			m.logger.Warn("Failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := pgTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

type tx struct {
	db DBTX
}

func (t *tx) Teachers() repository.TeacherRepository {
	return NewTeacherRepository(t.db)
}

func (t *tx) Slots() repository.SlotRepository {
	return NewSlotRepository(t.db)
}

func (t *tx) Reservations() repository.ReservationRepository {
	return NewReservationRepository(t.db)
}
