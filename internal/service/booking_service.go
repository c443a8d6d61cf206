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

type BookingService struct {
	ruleRepo    RuleRepository
	bookingRepo BookingRepository
	notifier    Notifier
	today       TodayFunc
	logger      *zap.Logger
}

func NewBookingService(
	ruleRepo RuleRepository,
	bookingRepo BookingRepository,
	notifier Notifier,
	today TodayFunc,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		ruleRepo:    ruleRepo,
		bookingRepo: bookingRepo,
		notifier:    notifier,
		today:       today,
		logger:      logger,
	}
}

// Book бронирует слот юриста для клиента.
// Слот заново выводится из активных правил в момент бронирования, кэш не используется.
func (s *BookingService) Book(ctx context.Context, clientID, lawyerID uuid.UUID, date schedule.Date, start schedule.Clock) (*model.Booking, error) {
	if clientID == lawyerID {
		s.logger.Warn("Lawyer tried to book own slot",
			zap.String("lawyer_id", lawyerID.String()))
		return nil, ErrForbidden
	}

	today := s.today()
	if date < today {
		return nil, ErrSlotNotFound
	}

	candidates, err := deriveCandidates(ctx, s.ruleRepo, lawyerID, date, date, today)
	if err != nil {
		return nil, fmt.Errorf("derive slots: %w", err)
	}

	// Кандидаты отсортированы стабильно, первый совпавший принадлежит самому раннему правилу
	idx := -1
	for i, c := range candidates {
		if c.StartTime == start {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrSlotNotFound
	}

	booking, err := model.NewBooking(clientID, candidates[idx])
	if err != nil {
		return nil, fmt.Errorf("new booking: %w", err)
	}

	if err := s.bookingRepo.Claim(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrSlotClaimed) {
			s.logger.Info("Slot already booked",
				zap.String("lawyer_id", lawyerID.String()),
				zap.String("slot", booking.Key().String()))
			return nil, ErrSlotAlreadyBooked
		}
		s.logger.Error("Failed to claim slot",
			zap.String("lawyer_id", lawyerID.String()),
			zap.String("slot", booking.Key().String()),
			zap.Error(err))
		return nil, fmt.Errorf("claim slot: %w", err)
	}

	s.logger.Info("Slot booked",
		zap.String("booking_id", booking.ID.String()),
		zap.String("client_id", clientID.String()),
		zap.String("lawyer_id", lawyerID.String()),
		zap.String("slot", booking.Key().String()))

	s.notify(ctx, booking, s.notifier.BookingCreated)

	return booking, nil
}

// Cancel отменяет бронирование и освобождает слот. Отменить может клиент или юрист.
func (s *BookingService) Cancel(ctx context.Context, userID, bookingID uuid.UUID) (*model.Booking, error) {
	booking, err := s.Get(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}

	if !booking.IsActive() {
		return nil, ErrBookingNotActive
	}

	if err := s.bookingRepo.Cancel(ctx, bookingID); err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			return nil, ErrBookingNotFound
		case errors.Is(err, repository.ErrBookingNotActive):
			return nil, ErrBookingNotActive
		}
		return nil, fmt.Errorf("cancel booking: %w", err)
	}

	booking.Status = model.BookingStatusCanceled

	s.logger.Info("Booking canceled",
		zap.String("booking_id", bookingID.String()),
		zap.String("user_id", userID.String()))

	s.notify(ctx, booking, s.notifier.BookingCanceled)

	return booking, nil
}

// Get возвращает бронирование участнику (клиенту или юристу)
func (s *BookingService) Get(ctx context.Context, userID, bookingID uuid.UUID) (*model.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}

	if booking == nil {
		return nil, ErrBookingNotFound
	}

	if !booking.IsParticipant(userID) {
		s.logger.Warn("User tried to access foreign booking",
			zap.String("booking_id", bookingID.String()),
			zap.String("user_id", userID.String()))
		return nil, ErrForbidden
	}

	return booking, nil
}

func (s *BookingService) ListForClient(ctx context.Context, clientID uuid.UUID) ([]*model.Booking, error) {
	bookings, err := s.bookingRepo.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("list client bookings: %w", err)
	}
	return bookings, nil
}

func (s *BookingService) ListForLawyer(ctx context.Context, lawyerID uuid.UUID) ([]*model.Booking, error) {
	bookings, err := s.bookingRepo.GetByLawyerID(ctx, lawyerID)
	if err != nil {
		return nil, fmt.Errorf("list lawyer bookings: %w", err)
	}
	return bookings, nil
}

func (s *BookingService) notify(ctx context.Context, booking *model.Booking, send func(context.Context, *model.Booking) error) {
	if err := send(ctx, booking); err != nil {
		s.logger.Warn("Failed to send booking notification",
			zap.String("booking_id", booking.ID.String()),
			zap.Error(err))
	}
}
