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
)

const bookingColumns = `id, client_id, lawyer_id, rule_id, slot_id, slot_date, start_minute,
	end_minute, consultation_fee::text, session_type, status, created_at, updated_at`

type BookingRepository struct {
	base *base.Repository
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{base: base.NewRepository(pool)}
}

// Claim атомарно занимает ключ слота и создаёт бронирование.
// Уникальный ключ (lawyer_id, slot_date, start_minute) в slot_claims гарантирует,
// что из двух конкурирующих транзакций закоммитится только одна.
func (r *BookingRepository) Claim(ctx context.Context, booking *model.Booking) error {
	return r.base.WithTx(ctx, func(tx pgx.Tx) error {
		insertBooking := `
			INSERT INTO bookings (
				id, client_id, lawyer_id, rule_id, slot_id, slot_date, start_minute,
				end_minute, consultation_fee, session_type, status
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::numeric, $10, $11)
			RETURNING created_at, updated_at
		`

		err := tx.QueryRow(
			ctx, insertBooking,
			booking.ID,
			booking.ClientID,
			booking.LawyerID,
			booking.RuleID,
			booking.SlotID,
			booking.Date.Time(),
			int(booking.StartTime),
			int(booking.EndTime),
			booking.ConsultationFee.String(),
			booking.SessionType,
			booking.Status,
		).Scan(&booking.CreatedAt, &booking.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create booking: %w", err)
		}

		claim := `
			INSERT INTO slot_claims (lawyer_id, slot_date, start_minute, booking_id)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (lawyer_id, slot_date, start_minute) DO NOTHING
		`

		affected, err := base.ExecAffected(ctx, tx, claim,
			booking.LawyerID, booking.Date.Time(), int(booking.StartTime), booking.ID)
		if err != nil {
			return fmt.Errorf("claim slot: %w", err)
		}

		if affected == 0 {
			return ErrSlotClaimed
		}

		return nil
	})
}

// GetByID получает бронирование по ID
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.base.Pool().QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return booking, nil
}

// GetByClientID получает все бронирования клиента
func (r *BookingRepository) GetByClientID(ctx context.Context, clientID uuid.UUID) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE client_id = $1
		ORDER BY slot_date DESC, start_minute DESC
	`
	return r.list(ctx, "get bookings by client", query, clientID)
}

// GetByLawyerID получает все бронирования юриста
func (r *BookingRepository) GetByLawyerID(ctx context.Context, lawyerID uuid.UUID) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE lawyer_id = $1
		ORDER BY slot_date DESC, start_minute DESC
	`
	return r.list(ctx, "get bookings by lawyer", query, lawyerID)
}

// Cancel отменяет бронирование и освобождает его слот.
// Повторная отмена возвращает ErrBookingNotActive.
func (r *BookingRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	return r.base.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE bookings
			SET status = $1, updated_at = now()
			WHERE id = $2 AND status <> $1
		`

		affected, err := base.ExecAffected(ctx, tx, query, model.BookingStatusCanceled, id)
		if err != nil {
			return fmt.Errorf("update booking status: %w", err)
		}

		if affected == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists); err != nil {
				return fmt.Errorf("check booking: %w", err)
			}
			if exists {
				return ErrBookingNotActive
			}
			return ErrBookingNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM slot_claims WHERE booking_id = $1`, id); err != nil {
			return fmt.Errorf("release slot claim: %w", err)
		}

		return nil
	})
}

// ClaimedKeys возвращает занятые ключи слотов юриста в диапазоне дат
func (r *BookingRepository) ClaimedKeys(ctx context.Context, lawyerID uuid.UUID, from, to schedule.Date) (schedule.BookedKeys, error) {
	query := `
		SELECT slot_date, start_minute, booking_id
		FROM slot_claims
		WHERE lawyer_id = $1 AND slot_date BETWEEN $2 AND $3
	`

	rows, err := r.base.Pool().Query(ctx, query, lawyerID, from.Time(), to.Time())
	if err != nil {
		return nil, fmt.Errorf("get claimed slot keys: %w", err)
	}
	defer rows.Close()

	keys := make(schedule.BookedKeys)
	for rows.Next() {
		var (
			date      time.Time
			start     int
			bookingID uuid.UUID
		)
		if err := rows.Scan(&date, &start, &bookingID); err != nil {
			return nil, fmt.Errorf("scan slot claim: %w", err)
		}
		keys[schedule.SlotKey{Date: schedule.DateOf(date), StartTime: schedule.Clock(start)}] = bookingID.String()
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get claimed slot keys: %w", err)
	}

	return keys, nil
}

func (r *BookingRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.Booking, error) {
	rows, err := r.base.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bookings, nil
}

func scanBooking(row scanner) (*model.Booking, error) {
	var (
		booking          model.Booking
		date             time.Time
		startMin, endMin int
		fee              string
	)

	err := row.Scan(
		&booking.ID,
		&booking.ClientID,
		&booking.LawyerID,
		&booking.RuleID,
		&booking.SlotID,
		&date,
		&startMin,
		&endMin,
		&fee,
		&booking.SessionType,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.ConsultationFee, err = decimal.NewFromString(fee)
	if err != nil {
		return nil, fmt.Errorf("parse consultation fee %q: %w", fee, err)
	}

	booking.Date = schedule.DateOf(date)
	booking.StartTime = schedule.Clock(startMin)
	booking.EndTime = schedule.Clock(endMin)

	return &booking, nil
}
