package model

import (
	"time"

	"github.com/Freeeeeet/consultation_scheduler/internal/schedule"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"   // Ожидает оплаты
	BookingStatusConfirmed BookingStatus = "confirmed" // Подтверждено
	BookingStatusCompleted BookingStatus = "completed" // Консультация состоялась
	BookingStatusCanceled  BookingStatus = "canceled"  // Отменено, слот освобождён
)

// Booking хранит снимок слота на момент бронирования, поэтому
// не зависит от дальнейших изменений или удаления правила
type Booking struct {
	ID              uuid.UUID       `json:"id"`
	ClientID        uuid.UUID       `json:"clientId"`
	LawyerID        uuid.UUID       `json:"lawyerId"`
	RuleID          uuid.UUID       `json:"ruleId"`
	SlotID          string          `json:"slotId"`
	Date            schedule.Date   `json:"date"`
	StartTime       schedule.Clock  `json:"startTime"`
	EndTime         schedule.Clock  `json:"endTime"`
	ConsultationFee decimal.Decimal `json:"consultationFee"`
	SessionType     string          `json:"sessionType"`
	Status          BookingStatus   `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// NewBooking создаёт подтверждённое бронирование для слота
func NewBooking(clientID uuid.UUID, slot schedule.SlotCandidate) (*Booking, error) {
	lawyerID, err := uuid.Parse(slot.LawyerID)
	if err != nil {
		return nil, err
	}
	ruleID, err := uuid.Parse(slot.RuleID)
	if err != nil {
		return nil, err
	}

	return &Booking{
		ID:              uuid.New(),
		ClientID:        clientID,
		LawyerID:        lawyerID,
		RuleID:          ruleID,
		SlotID:          slot.ID,
		Date:            slot.Date,
		StartTime:       slot.StartTime,
		EndTime:         slot.EndTime,
		ConsultationFee: slot.ConsultationFee,
		SessionType:     schedule.SessionTypeVideoCall,
		Status:          BookingStatusConfirmed,
	}, nil
}

// IsActive проверяет, удерживает ли бронирование свой слот
func (b *Booking) IsActive() bool {
	return b.Status != BookingStatusCanceled
}

// Key возвращает ключ слота в календаре юриста
func (b *Booking) Key() schedule.SlotKey {
	return schedule.SlotKey{Date: b.Date, StartTime: b.StartTime}
}

// IsParticipant проверяет, является ли пользователь клиентом или юристом бронирования
func (b *Booking) IsParticipant(userID uuid.UUID) bool {
	return b.ClientID == userID || b.LawyerID == userID
}

// SlotView восстанавливает слот из снимка бронирования
func (b *Booking) SlotView() schedule.Slot {
	slot := schedule.Slot{
		SlotCandidate: schedule.SlotCandidate{
			ID:              b.SlotID,
			LawyerID:        b.LawyerID.String(),
			RuleID:          b.RuleID.String(),
			Date:            b.Date,
			StartTime:       b.StartTime,
			EndTime:         b.EndTime,
			ConsultationFee: b.ConsultationFee,
		},
	}
	if b.IsActive() {
		slot.IsBooked = true
		slot.BookingID = b.ID.String()
	}
	return slot
}
