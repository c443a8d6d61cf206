package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
	"github.com/Freeeeeet/consultation_scheduler/internal/schedule"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ScheduleService управляет правилами доступности юристов
type ScheduleService struct {
	ruleRepo RuleRepository
	cache    SlotCache
	today    TodayFunc
	logger   *zap.Logger
}

func NewScheduleService(
	ruleRepo RuleRepository,
	cache SlotCache,
	today TodayFunc,
	logger *zap.Logger,
) *ScheduleService {
	return &ScheduleService{
		ruleRepo: ruleRepo,
		cache:    cache,
		today:    today,
		logger:   logger,
	}
}

// Create валидирует и сохраняет новое правило юриста.
// Без override пересечение с активным правилом возвращает ErrRuleOverlap.
func (s *ScheduleService) Create(ctx context.Context, lawyerID uuid.UUID, input schedule.RuleInput, override bool) (*model.AvailabilityRule, error) {
	valid, verrs := schedule.Validate(input, s.today())
	if len(verrs) > 0 {
		s.logger.Debug("Rule validation failed",
			zap.String("lawyer_id", lawyerID.String()),
			zap.Any("errors", verrs))
		return nil, verrs
	}

	rule := model.NewAvailabilityRule(lawyerID, valid)
	if err := s.ruleRepo.Create(ctx, rule, overlapGuard(rule, override)); err != nil {
		if errors.Is(err, ErrRuleOverlap) {
			return nil, err
		}
		s.logger.Error("Failed to create availability rule",
			zap.String("lawyer_id", lawyerID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("create rule: %w", err)
	}

	s.invalidate(ctx, lawyerID)

	s.logger.Info("Availability rule created",
		zap.String("rule_id", rule.ID.String()),
		zap.String("lawyer_id", lawyerID.String()),
		zap.Bool("override", override))

	return rule, nil
}

// Update применяет частичные изменения к правилу и заново валидирует результат
func (s *ScheduleService) Update(ctx context.Context, lawyerID, ruleID uuid.UUID, patch schedule.RulePatch, override bool) (*model.AvailabilityRule, error) {
	rule, err := s.ownedRule(ctx, lawyerID, ruleID)
	if err != nil {
		return nil, err
	}

	valid, verrs := schedule.Validate(patch.Apply(rule.Input()), s.today())
	if len(verrs) > 0 {
		return nil, verrs
	}

	rule.Apply(valid)
	rule.IsActive = true

	if err := s.ruleRepo.Update(ctx, rule, overlapGuard(rule, override)); err != nil {
		if errors.Is(err, repository.ErrRuleNotFound) {
			return nil, ErrRuleNotFound
		}
		if errors.Is(err, ErrRuleOverlap) {
			return nil, err
		}
		return nil, fmt.Errorf("update rule: %w", err)
	}

	s.invalidate(ctx, lawyerID)

	s.logger.Info("Availability rule updated",
		zap.String("rule_id", rule.ID.String()),
		zap.String("lawyer_id", lawyerID.String()))

	return rule, nil
}

// Delete удаляет правило. Уже созданные бронирования остаются в силе.
func (s *ScheduleService) Delete(ctx context.Context, lawyerID, ruleID uuid.UUID) error {
	if _, err := s.ownedRule(ctx, lawyerID, ruleID); err != nil {
		return err
	}

	if err := s.ruleRepo.Delete(ctx, ruleID); err != nil {
		if errors.Is(err, repository.ErrRuleNotFound) {
			return ErrRuleNotFound
		}
		return fmt.Errorf("delete rule: %w", err)
	}

	s.invalidate(ctx, lawyerID)

	s.logger.Info("Availability rule deleted",
		zap.String("rule_id", ruleID.String()),
		zap.String("lawyer_id", lawyerID.String()))

	return nil
}

// List возвращает все правила юриста, включая неактивные
func (s *ScheduleService) List(ctx context.Context, lawyerID uuid.UUID) ([]*model.AvailabilityRule, error) {
	rules, err := s.ruleRepo.GetByLawyerID(ctx, lawyerID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	return rules, nil
}

// ListActive возвращает активные правила юриста в порядке создания
func (s *ScheduleService) ListActive(ctx context.Context, lawyerID uuid.UUID) ([]*model.AvailabilityRule, error) {
	rules, err := s.ruleRepo.GetActiveByLawyerID(ctx, lawyerID)
	if err != nil {
		return nil, fmt.Errorf("list active rules: %w", err)
	}
	return rules, nil
}

// DeactivateExpiredRules снимает флаг активности с правил, чей период закончился
func (s *ScheduleService) DeactivateExpiredRules(ctx context.Context) (int64, error) {
	n, err := s.ruleRepo.DeactivateExpired(ctx, s.today())
	if err != nil {
		return 0, fmt.Errorf("deactivate expired rules: %w", err)
	}
	return n, nil
}

func (s *ScheduleService) ownedRule(ctx context.Context, lawyerID, ruleID uuid.UUID) (*model.AvailabilityRule, error) {
	rule, err := s.ruleRepo.GetByID(ctx, ruleID)
	if err != nil {
		return nil, fmt.Errorf("get rule: %w", err)
	}

	if rule == nil {
		return nil, ErrRuleNotFound
	}

	if rule.LawyerID != lawyerID {
		s.logger.Warn("Lawyer tried to modify foreign rule",
			zap.String("rule_id", ruleID.String()),
			zap.String("owner_id", rule.LawyerID.String()),
			zap.String("lawyer_id", lawyerID.String()))
		return nil, ErrForbidden
	}

	return rule, nil
}

// overlapGuard отклоняет запись rule, если она пересекается с другим активным
// правилом юриста. С override проверка не выполняется.
func overlapGuard(rule *model.AvailabilityRule, override bool) repository.RuleGuard {
	if override {
		return nil
	}
	valid := rule.Valid()
	return func(active []*model.AvailabilityRule) error {
		for _, other := range active {
			if other.ID == rule.ID {
				continue
			}
			if schedule.Overlaps(valid, other.Valid()) {
				return fmt.Errorf("%w: %s", ErrRuleOverlap, other.ID)
			}
		}
		return nil
	}
}

func (s *ScheduleService) invalidate(ctx context.Context, lawyerID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, lawyerID); err != nil {
		s.logger.Warn("Failed to invalidate slot cache",
			zap.String("lawyer_id", lawyerID.String()),
			zap.Error(err))
	}
}
