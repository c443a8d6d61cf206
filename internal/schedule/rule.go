package schedule

import (
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// SessionTypeVideoCall единственный доступный формат консультации
	SessionTypeVideoCall = "Online Video Call"
	// DefaultMaxBookings один клиент на слот
	DefaultMaxBookings = 1

	MinBufferTime   = 5
	MaxBufferTime   = 60
	MinSlotDuration = 30
	MaxSlotDuration = 120
	MinTitleLength  = 4

	// FeeDecimalPlaces совпадает с масштабом колонки consultation_fee NUMERIC(12,2)
	FeeDecimalPlaces = 2
)

// MaxConsultationFee наибольшая стоимость, которую вмещает NUMERIC(12,2)
var MaxConsultationFee = decimal.RequireFromString("9999999999.99")

// RuleInput правило доступности в том виде, в каком его прислал юрист.
// Числовые поля указатели, чтобы отличать отсутствие значения от нуля.
type RuleInput struct {
	Title           string           `json:"title"`
	StartTime       string           `json:"startTime"`
	EndTime         string           `json:"endTime"`
	StartDate       string           `json:"startDate"`
	EndDate         string           `json:"endDate"`
	AvailableDays   []string         `json:"availableDays"`
	BufferTime      *int             `json:"bufferTime"`
	SlotDuration    *int             `json:"slotDuration"`
	MaxBookings     *int             `json:"maxBookings"`
	SessionType     string           `json:"sessionType"`
	ConsultationFee *decimal.Decimal `json:"consultationFee"`
	ExceptionDays   []string         `json:"exceptionDays"`

	decodeErrs ValidationErrors
}

// RulePatch частичное изменение RuleInput, nil-поля сохраняют текущее значение
type RulePatch struct {
	Title           *string          `json:"title"`
	StartTime       *string          `json:"startTime"`
	EndTime         *string          `json:"endTime"`
	StartDate       *string          `json:"startDate"`
	EndDate         *string          `json:"endDate"`
	AvailableDays   []string         `json:"availableDays"`
	BufferTime      *int             `json:"bufferTime"`
	SlotDuration    *int             `json:"slotDuration"`
	MaxBookings     *int             `json:"maxBookings"`
	SessionType     *string          `json:"sessionType"`
	ConsultationFee *decimal.Decimal `json:"consultationFee"`
	ExceptionDays   []string         `json:"exceptionDays"`

	decodeErrs ValidationErrors
}

// Apply накладывает изменения на base и возвращает результат
func (p RulePatch) Apply(base RuleInput) RuleInput {
	out := base
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.StartTime != nil {
		out.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		out.EndTime = *p.EndTime
	}
	if p.StartDate != nil {
		out.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		out.EndDate = *p.EndDate
	}
	if p.AvailableDays != nil {
		out.AvailableDays = p.AvailableDays
	}
	if p.BufferTime != nil {
		out.BufferTime = p.BufferTime
	}
	if p.SlotDuration != nil {
		out.SlotDuration = p.SlotDuration
	}
	if p.MaxBookings != nil {
		out.MaxBookings = p.MaxBookings
	}
	if p.SessionType != nil {
		out.SessionType = *p.SessionType
	}
	if p.ConsultationFee != nil {
		out.ConsultationFee = p.ConsultationFee
	}
	if p.ExceptionDays != nil {
		out.ExceptionDays = p.ExceptionDays
	}
	if len(p.decodeErrs) > 0 {
		out.decodeErrs = ValidationErrors{}
		maps.Copy(out.decodeErrs, base.decodeErrs)
		maps.Copy(out.decodeErrs, p.decodeErrs)
	}
	return out
}

// ValidRule правило, прошедшее Validate. Дни и исключения отсортированы и уникальны.
type ValidRule struct {
	Title           string
	StartTime       Clock
	EndTime         Clock
	StartDate       Date
	EndDate         Date
	AvailableDays   []time.Weekday
	BufferTime      int
	SlotDuration    int
	MaxBookings     int
	SessionType     string
	ConsultationFee decimal.Decimal
	ExceptionDays   []Date
}

// Input возвращает правило в исходную форму
func (r ValidRule) Input() RuleInput {
	days := make([]string, len(r.AvailableDays))
	for i, w := range r.AvailableDays {
		days[i] = WeekdayCode(w)
	}
	exceptions := make([]string, len(r.ExceptionDays))
	for i, d := range r.ExceptionDays {
		exceptions[i] = d.String()
	}
	buffer, duration, maxBookings := r.BufferTime, r.SlotDuration, r.MaxBookings
	fee := r.ConsultationFee
	return RuleInput{
		Title:           r.Title,
		StartTime:       r.StartTime.String(),
		EndTime:         r.EndTime.String(),
		StartDate:       r.StartDate.String(),
		EndDate:         r.EndDate.String(),
		AvailableDays:   days,
		BufferTime:      &buffer,
		SlotDuration:    &duration,
		MaxBookings:     &maxBookings,
		SessionType:     r.SessionType,
		ConsultationFee: &fee,
		ExceptionDays:   exceptions,
	}
}

func (r ValidRule) hasDay(w time.Weekday) bool {
	return slices.Contains(r.AvailableDays, w)
}

func (r ValidRule) isException(d Date) bool {
	_, found := slices.BinarySearch(r.ExceptionDays, d)
	return found
}

// Overlaps сообщает, могут ли два правила дать слоты в одно и то же время:
// окна времени пересекаются и в общем диапазоне дат есть день недели,
// доступный в обоих. Исключения не учитываются.
func Overlaps(a, b ValidRule) bool {
	if a.EndTime <= b.StartTime || b.EndTime <= a.StartTime {
		return false
	}
	from, to := max(a.StartDate, b.StartDate), min(a.EndDate, b.EndDate)
	for d := from; d <= to && d < from+7; d++ {
		if w := d.Weekday(); a.hasDay(w) && b.hasDay(w) {
			return true
		}
	}
	return false
}
