package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
	"github.com/Freeeeeet/consultation_scheduler/internal/schedule"
	"github.com/google/uuid"
)

// RuleRepository хранит правила доступности. GetByID возвращает nil, nil,
// если правило не найдено. Create и Update вызывают guard атомарно с записью.
type RuleRepository interface {
	Create(ctx context.Context, rule *model.AvailabilityRule, guard repository.RuleGuard) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.AvailabilityRule, error)
	GetByLawyerID(ctx context.Context, lawyerID uuid.UUID) ([]*model.AvailabilityRule, error)
	GetActiveByLawyerID(ctx context.Context, lawyerID uuid.UUID) ([]*model.AvailabilityRule, error)
	Update(ctx context.Context, rule *model.AvailabilityRule, guard repository.RuleGuard) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeactivateExpired(ctx context.Context, today schedule.Date) (int64, error)
}

// BookingRepository хранит бронирования и занятые ключи слотов.
// Claim возвращает repository.ErrSlotClaimed, если ключ уже занят.
type BookingRepository interface {
	Claim(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	GetByClientID(ctx context.Context, clientID uuid.UUID) ([]*model.Booking, error)
	GetByLawyerID(ctx context.Context, lawyerID uuid.UUID) ([]*model.Booking, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	ClaimedKeys(ctx context.Context, lawyerID uuid.UUID, from, to schedule.Date) (schedule.BookedKeys, error)
}

// SlotCache кэширует кандидатов в слоты юриста на окно дат.
// Get возвращает версию кэша юриста, Set пишет только под этой версией.
type SlotCache interface {
	Get(ctx context.Context, lawyerID uuid.UUID, from, to, today schedule.Date) ([]schedule.SlotCandidate, int64, bool, error)
	Set(ctx context.Context, lawyerID uuid.UUID, version int64, from, to, today schedule.Date, candidates []schedule.SlotCandidate) error
	Invalidate(ctx context.Context, lawyerID uuid.UUID) error
}

// Notifier сообщает о событиях бронирования
type Notifier interface {
	BookingCreated(ctx context.Context, booking *model.Booking) error
	BookingCanceled(ctx context.Context, booking *model.Booking) error
}

// TodayFunc возвращает текущую дату в часовом поясе сервиса
type TodayFunc func() schedule.Date

// TodayIn возвращает TodayFunc для часового пояса loc
func TodayIn(loc *time.Location) TodayFunc {
	return func() schedule.Date {
		return schedule.DateOf(time.Now().In(loc))
	}
}

// deriveCandidates выводит отсортированных кандидатов из активных правил юриста
func deriveCandidates(ctx context.Context, rules RuleRepository, lawyerID uuid.UUID, from, to, today schedule.Date) ([]schedule.SlotCandidate, error) {
	active, err := rules.GetActiveByLawyerID(ctx, lawyerID)
	if err != nil {
		return nil, err
	}

	var candidates []schedule.SlotCandidate
	for _, rule := range active {
		valid := rule.Valid()
		for date := range schedule.Expand(valid, from, to, today) {
			candidates = append(candidates, schedule.Generate(lawyerID.String(), rule.ID.String(), valid, date)...)
		}
	}

	schedule.SortCandidates(candidates)
	return candidates, nil
}
