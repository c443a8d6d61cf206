package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/consultation_scheduler/internal/schedule"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxWindowDays ограничивает длину окна выдачи слотов
const MaxWindowDays = 92

// SlotService выдаёт слоты юриста с учётом занятых ключей
type SlotService struct {
	ruleRepo    RuleRepository
	bookingRepo BookingRepository
	cache       SlotCache
	today       TodayFunc
	logger      *zap.Logger
}

func NewSlotService(
	ruleRepo RuleRepository,
	bookingRepo BookingRepository,
	cache SlotCache,
	today TodayFunc,
	logger *zap.Logger,
) *SlotService {
	return &SlotService{
		ruleRepo:    ruleRepo,
		bookingRepo: bookingRepo,
		cache:       cache,
		today:       today,
		logger:      logger,
	}
}

// DefaultWindow возвращает окно от первого числа текущего месяца
// до последнего дня следующего
func (s *SlotService) DefaultWindow() (schedule.Date, schedule.Date) {
	today := s.today()
	return today.FirstOfMonth(0), today.FirstOfMonth(2).AddDays(-1)
}

// ListSlots возвращает слоты юриста в окне [from, to] с признаком занятости.
// Результат может устареть к моменту бронирования, Book проверяет слот заново.
func (s *SlotService) ListSlots(ctx context.Context, lawyerID uuid.UUID, from, to schedule.Date) ([]schedule.Slot, error) {
	if to < from {
		return nil, fmt.Errorf("%w: to is before from", ErrInvalidRange)
	}
	if int(to-from)+1 > MaxWindowDays {
		return nil, fmt.Errorf("%w: window exceeds %d days", ErrInvalidRange, MaxWindowDays)
	}

	today := s.today()

	candidates, err := s.candidates(ctx, lawyerID, from, to, today)
	if err != nil {
		return nil, err
	}

	booked, err := s.bookingRepo.ClaimedKeys(ctx, lawyerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get claimed keys: %w", err)
	}

	return schedule.Reconcile(candidates, booked), nil
}

func (s *SlotService) candidates(ctx context.Context, lawyerID uuid.UUID, from, to, today schedule.Date) ([]schedule.SlotCandidate, error) {
	cached, version, ok, cacheErr := s.cache.Get(ctx, lawyerID, from, to, today)
	if cacheErr != nil {
		s.logger.Warn("Slot cache read failed",
			zap.String("lawyer_id", lawyerID.String()),
			zap.Error(cacheErr))
	}
	if ok {
		return cached, nil
	}

	candidates, err := deriveCandidates(ctx, s.ruleRepo, lawyerID, from, to, today)
	if err != nil {
		return nil, fmt.Errorf("derive slots: %w", err)
	}

	// Без известной версии запись могла бы пережить Invalidate
	if cacheErr != nil {
		return candidates, nil
	}

	if err := s.cache.Set(ctx, lawyerID, version, from, to, today, candidates); err != nil {
		s.logger.Warn("Slot cache write failed",
			zap.String("lawyer_id", lawyerID.String()),
			zap.Error(err))
	}

	return candidates, nil
}
