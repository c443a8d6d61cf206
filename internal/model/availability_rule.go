package model

import (
	"slices"
	"time"

	"github.com/Freeeeeet/consultation_scheduler/internal/schedule"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AvailabilityRule описывает регулярное правило доступности юриста, из которого выводятся слоты
type AvailabilityRule struct {
	ID              uuid.UUID       `json:"id"`
	LawyerID        uuid.UUID       `json:"lawyerId"`
	Title           string          `json:"title"`
	StartTime       schedule.Clock  `json:"startTime"`
	EndTime         schedule.Clock  `json:"endTime"`
	StartDate       schedule.Date   `json:"startDate"`
	EndDate         schedule.Date   `json:"endDate"`
	AvailableDays   []string        `json:"availableDays"` // Mon..Sun
	BufferTime      int             `json:"bufferTime"`    // в минутах
	SlotDuration    int             `json:"slotDuration"`  // в минутах
	MaxBookings     int             `json:"maxBookings"`
	SessionType     string          `json:"sessionType"`
	ConsultationFee decimal.Decimal `json:"consultationFee"`
	ExceptionDays   []schedule.Date `json:"exceptionDays"`
	IsActive        bool            `json:"isActive"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// NewAvailabilityRule создаёт правило из провалидированных данных
func NewAvailabilityRule(lawyerID uuid.UUID, valid schedule.ValidRule) *AvailabilityRule {
	rule := &AvailabilityRule{
		ID:       uuid.New(),
		LawyerID: lawyerID,
		IsActive: true,
	}
	rule.Apply(valid)
	return rule
}

// Apply переносит провалидированные значения в правило
func (r *AvailabilityRule) Apply(valid schedule.ValidRule) {
	days := make([]string, len(valid.AvailableDays))
	for i, w := range valid.AvailableDays {
		days[i] = schedule.WeekdayCode(w)
	}

	r.Title = valid.Title
	r.StartTime = valid.StartTime
	r.EndTime = valid.EndTime
	r.StartDate = valid.StartDate
	r.EndDate = valid.EndDate
	r.AvailableDays = days
	r.BufferTime = valid.BufferTime
	r.SlotDuration = valid.SlotDuration
	r.MaxBookings = valid.MaxBookings
	r.SessionType = valid.SessionType
	r.ConsultationFee = valid.ConsultationFee
	r.ExceptionDays = slices.Clone(valid.ExceptionDays)
}

// Valid возвращает правило в форме, с которой работает генератор слотов.
// Сохранённые правила уже прошли валидацию, поэтому повторная проверка не нужна.
func (r *AvailabilityRule) Valid() schedule.ValidRule {
	days := make([]time.Weekday, 0, len(r.AvailableDays))
	for _, code := range r.AvailableDays {
		if w, ok := schedule.ParseWeekday(code); ok {
			days = append(days, w)
		}
	}

	return schedule.ValidRule{
		Title:           r.Title,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		AvailableDays:   days,
		BufferTime:      r.BufferTime,
		SlotDuration:    r.SlotDuration,
		MaxBookings:     r.MaxBookings,
		SessionType:     r.SessionType,
		ConsultationFee: r.ConsultationFee,
		ExceptionDays:   r.ExceptionDays,
	}
}

// Input возвращает правило в исходной форме для применения частичных изменений
func (r *AvailabilityRule) Input() schedule.RuleInput {
	return r.Valid().Input()
}

// Slots генерирует слоты правила на указанную дату
func (r *AvailabilityRule) Slots(date schedule.Date) []schedule.SlotCandidate {
	return schedule.Generate(r.LawyerID.String(), r.ID.String(), r.Valid(), date)
}
