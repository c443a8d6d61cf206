package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository/base"
	"github.com/Freeeeeet/consultation_scheduler/internal/schedule"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const ruleColumns = `id, lawyer_id, title, start_minute, end_minute, start_date, end_date,
	available_days, buffer_minutes, slot_duration_minutes, max_bookings, session_type,
	consultation_fee::text, exception_days, is_active, created_at, updated_at`

// RuleGuard проверяет записываемое правило против активных правил юриста.
// Вызывается под блокировкой юриста, ошибка отменяет запись.
type RuleGuard func(active []*model.AvailabilityRule) error

// RuleRepository управляет правилами доступности в базе данных
type RuleRepository struct {
	pool   *pgxpool.Pool
	base   *base.Repository
	logger *zap.Logger
}

// NewRuleRepository создаёт новый репозиторий
func NewRuleRepository(pool *pgxpool.Pool, logger *zap.Logger) *RuleRepository {
	return &RuleRepository{
		pool:   pool,
		base:   base.NewRepository(pool),
		logger: logger,
	}
}

// Create сохраняет новое правило. Если guard задан, проверка и вставка
// выполняются в одной транзакции под advisory-блокировкой юриста.
func (r *RuleRepository) Create(ctx context.Context, rule *model.AvailabilityRule, guard RuleGuard) error {
	return r.base.WithTx(ctx, func(tx pgx.Tx) error {
		if err := r.lockAndCheck(ctx, tx, rule.LawyerID, guard); err != nil {
			return err
		}
		return r.insert(ctx, tx, rule)
	})
}

func (r *RuleRepository) insert(ctx context.Context, q base.Querier, rule *model.AvailabilityRule) error {
	query := `
		INSERT INTO availability_rules (
			id, lawyer_id, title, start_minute, end_minute, start_date, end_date,
			available_days, buffer_minutes, slot_duration_minutes, max_bookings,
			session_type, consultation_fee, exception_days, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13::numeric, $14::date[], $15)
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(
		ctx, query,
		rule.ID,
		rule.LawyerID,
		rule.Title,
		int(rule.StartTime),
		int(rule.EndTime),
		rule.StartDate.Time(),
		rule.EndDate.Time(),
		rule.AvailableDays,
		rule.BufferTime,
		rule.SlotDuration,
		rule.MaxBookings,
		rule.SessionType,
		rule.ConsultationFee.String(),
		datesToTimes(rule.ExceptionDays),
		rule.IsActive,
	).Scan(&rule.CreatedAt, &rule.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create availability rule: %w", err)
	}

	return nil
}

// GetByID получает правило по ID
func (r *RuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AvailabilityRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM availability_rules WHERE id = $1`

	rule, err := scanRule(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get availability rule by id: %w", err)
	}

	return rule, nil
}

// GetByLawyerID получает все правила юриста
func (r *RuleRepository) GetByLawyerID(ctx context.Context, lawyerID uuid.UUID) ([]*model.AvailabilityRule, error) {
	query := `SELECT ` + ruleColumns + `
		FROM availability_rules
		WHERE lawyer_id = $1
		ORDER BY created_at, id
	`
	return r.list(ctx, r.pool, "get availability rules by lawyer", query, lawyerID)
}

// GetActiveByLawyerID получает активные правила юриста в порядке создания
func (r *RuleRepository) GetActiveByLawyerID(ctx context.Context, lawyerID uuid.UUID) ([]*model.AvailabilityRule, error) {
	query := `SELECT ` + ruleColumns + `
		FROM availability_rules
		WHERE lawyer_id = $1 AND is_active = true
		ORDER BY created_at, id
	`
	return r.list(ctx, r.pool, "get active availability rules", query, lawyerID)
}

// lockAndCheck сериализует запись правил одного юриста до конца транзакции
func (r *RuleRepository) lockAndCheck(ctx context.Context, tx pgx.Tx, lawyerID uuid.UUID, guard RuleGuard) error {
	if guard == nil {
		return nil
	}

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lawyerID.String()); err != nil {
		return fmt.Errorf("lock lawyer rules: %w", err)
	}

	query := `SELECT ` + ruleColumns + `
		FROM availability_rules
		WHERE lawyer_id = $1 AND is_active = true
		ORDER BY created_at, id
	`
	active, err := r.list(ctx, tx, "get active availability rules", query, lawyerID)
	if err != nil {
		return err
	}

	return guard(active)
}

// Update сохраняет изменения правила, guard проверяется как в Create
func (r *RuleRepository) Update(ctx context.Context, rule *model.AvailabilityRule, guard RuleGuard) error {
	return r.base.WithTx(ctx, func(tx pgx.Tx) error {
		if err := r.lockAndCheck(ctx, tx, rule.LawyerID, guard); err != nil {
			return err
		}
		return r.update(ctx, tx, rule)
	})
}

func (r *RuleRepository) update(ctx context.Context, q base.Querier, rule *model.AvailabilityRule) error {
	query := `
		UPDATE availability_rules
		SET title = $2, start_minute = $3, end_minute = $4, start_date = $5, end_date = $6,
			available_days = $7, buffer_minutes = $8, slot_duration_minutes = $9,
			max_bookings = $10, session_type = $11, consultation_fee = $12::numeric,
			exception_days = $13::date[], is_active = $14, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := q.QueryRow(
		ctx, query,
		rule.ID,
		rule.Title,
		int(rule.StartTime),
		int(rule.EndTime),
		rule.StartDate.Time(),
		rule.EndDate.Time(),
		rule.AvailableDays,
		rule.BufferTime,
		rule.SlotDuration,
		rule.MaxBookings,
		rule.SessionType,
		rule.ConsultationFee.String(),
		datesToTimes(rule.ExceptionDays),
		rule.IsActive,
	).Scan(&rule.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return ErrRuleNotFound
		}
		return fmt.Errorf("update availability rule: %w", err)
	}

	return nil
}

// Delete удаляет правило. Бронирования хранят снимок слота и не затрагиваются.
func (r *RuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := base.ExecAffected(ctx, r.pool, `DELETE FROM availability_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete availability rule: %w", err)
	}

	if affected == 0 {
		return ErrRuleNotFound
	}

	return nil
}

// DeactivateExpired деактивирует правила, у которых end_date раньше указанной даты
func (r *RuleRepository) DeactivateExpired(ctx context.Context, today schedule.Date) (int64, error) {
	query := `
		UPDATE availability_rules
		SET is_active = false, updated_at = now()
		WHERE is_active = true AND end_date < $1
	`

	affected, err := base.ExecAffected(ctx, r.pool, query, today.Time())
	if err != nil {
		return 0, fmt.Errorf("deactivate expired availability rules: %w", err)
	}

	if affected > 0 {
		r.logger.Debug("Expired availability rules deactivated", zap.Int64("count", affected))
	}

	return affected, nil
}

func (r *RuleRepository) list(ctx context.Context, q base.Querier, op, query string, args ...any) ([]*model.AvailabilityRule, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var rules []*model.AvailabilityRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan availability rule: %w", err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return rules, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRule(row scanner) (*model.AvailabilityRule, error) {
	var (
		rule               model.AvailabilityRule
		startMin, endMin   int
		startDate, endDate time.Time
		fee                string
		exceptions         []time.Time
	)

	err := row.Scan(
		&rule.ID,
		&rule.LawyerID,
		&rule.Title,
		&startMin,
		&endMin,
		&startDate,
		&endDate,
		&rule.AvailableDays,
		&rule.BufferTime,
		&rule.SlotDuration,
		&rule.MaxBookings,
		&rule.SessionType,
		&fee,
		&exceptions,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.ConsultationFee, err = decimal.NewFromString(fee)
	if err != nil {
		return nil, fmt.Errorf("parse consultation fee %q: %w", fee, err)
	}

	rule.StartTime = schedule.Clock(startMin)
	rule.EndTime = schedule.Clock(endMin)
	rule.StartDate = schedule.DateOf(startDate)
	rule.EndDate = schedule.DateOf(endDate)
	rule.ExceptionDays = timesToDates(exceptions)

	return &rule, nil
}

func datesToTimes(dates []schedule.Date) []time.Time {
	out := make([]time.Time, len(dates))
	for i, d := range dates {
		out[i] = d.Time()
	}
	return out
}

func timesToDates(times []time.Time) []schedule.Date {
	out := make([]schedule.Date, len(times))
	for i, t := range times {
		out[i] = schedule.DateOf(t)
	}
	return out
}
