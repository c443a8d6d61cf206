package schedule

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// Имена полей в ValidationErrors, совпадают с JSON-именами RuleInput
const (
	FieldTitle           = "title"
	FieldStartTime       = "startTime"
	FieldEndTime         = "endTime"
	FieldStartDate       = "startDate"
	FieldEndDate         = "endDate"
	FieldAvailableDays   = "availableDays"
	FieldBufferTime      = "bufferTime"
	FieldSlotDuration    = "slotDuration"
	FieldMaxBookings     = "maxBookings"
	FieldSessionType     = "sessionType"
	FieldConsultationFee = "consultationFee"
	FieldExceptionDays   = "exceptionDays"
)

// MsgUnsatisfiable ставится на endTime, если в окно не помещается слот с перерывом
const MsgUnsatisfiable = "Time window must fit at least one slot plus buffer time"

// ValidationErrors сопоставляет полю сообщение об ошибке.
// Пустая map означает корректный ввод.
type ValidationErrors map[string]string

func (e ValidationErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + e[f]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unsatisfiable сообщает, отклонено ли правило из-за того, что в окно не помещается ни один слот
func (e ValidationErrors) Unsatisfiable() bool {
	return e[FieldEndTime] == MsgUnsatisfiable
}

// Validate проверяет все ограничения правила и возвращает все нарушения сразу.
// today текущая дата в поясе юриста.
func Validate(in RuleInput, today Date) (ValidRule, ValidationErrors) {
	errs := ValidationErrors{}
	var out ValidRule

	out.Title = strings.TrimSpace(in.Title)
	switch {
	case out.Title == "":
		errs[FieldTitle] = "Title is required"
	case utf8.RuneCountInString(out.Title) < MinTitleLength:
		errs[FieldTitle] = fmt.Sprintf("Title must be at least %d characters", MinTitleLength)
	}

	startTimeOK := parseClockField(in.StartTime, FieldStartTime, "Start time", &out.StartTime, errs)
	endTimeOK := parseClockField(in.EndTime, FieldEndTime, "End time", &out.EndTime, errs)
	if startTimeOK && endTimeOK && out.StartTime >= out.EndTime {
		errs[FieldEndTime] = "End time must be after start time"
		endTimeOK = false
	}

	startDateOK := parseDateField(in.StartDate, FieldStartDate, "Start date", &out.StartDate, errs)
	if startDateOK && out.StartDate < today {
		errs[FieldStartDate] = "Start date cannot be in the past"
	}
	endDateOK := parseDateField(in.EndDate, FieldEndDate, "End date", &out.EndDate, errs)
	if startDateOK && endDateOK && out.EndDate < out.StartDate {
		errs[FieldEndDate] = "End date cannot be before start date"
		endDateOK = false
	}

	out.AvailableDays = validateDays(in.AvailableDays, errs)

	bufferOK := validateRange(in.BufferTime, FieldBufferTime, "Buffer time", MinBufferTime, MaxBufferTime, &out.BufferTime, errs)
	durationOK := validateRange(in.SlotDuration, FieldSlotDuration, "Slot duration", MinSlotDuration, MaxSlotDuration, &out.SlotDuration, errs)

	out.MaxBookings = DefaultMaxBookings
	if in.MaxBookings != nil && *in.MaxBookings != DefaultMaxBookings {
		errs[FieldMaxBookings] = fmt.Sprintf("Max bookings must be %d", DefaultMaxBookings)
	}

	out.SessionType = SessionTypeVideoCall
	if in.SessionType != "" && in.SessionType != SessionTypeVideoCall {
		errs[FieldSessionType] = fmt.Sprintf("Session type must be %q", SessionTypeVideoCall)
	}

	switch {
	case in.ConsultationFee == nil:
		errs[FieldConsultationFee] = "Consultation fee is required"
	case !in.ConsultationFee.IsPositive():
		errs[FieldConsultationFee] = "Consultation fee must be greater than 0"
	case !in.ConsultationFee.Equal(in.ConsultationFee.Truncate(FeeDecimalPlaces)):
		errs[FieldConsultationFee] = fmt.Sprintf("Consultation fee must have at most %d decimal places", FeeDecimalPlaces)
	case in.ConsultationFee.GreaterThan(MaxConsultationFee):
		errs[FieldConsultationFee] = "Consultation fee must not exceed " + MaxConsultationFee.StringFixed(FeeDecimalPlaces)
	default:
		out.ConsultationFee = *in.ConsultationFee
	}

	out.ExceptionDays = validateExceptions(in.ExceptionDays, out.StartDate, out.EndDate, startDateOK && endDateOK, errs)

	if startTimeOK && endTimeOK && bufferOK && durationOK &&
		int(out.EndTime-out.StartTime) < out.SlotDuration+out.BufferTime {
		errs[FieldEndTime] = MsgUnsatisfiable
	}

	// Ошибки типов из JSON заменяют производные сообщения о пустом поле
	maps.Copy(errs, in.decodeErrs)

	if len(errs) > 0 {
		return ValidRule{}, errs
	}
	return out, nil
}

func parseClockField(raw, field, label string, dst *Clock, errs ValidationErrors) bool {
	if raw == "" {
		errs[field] = label + " is required"
		return false
	}
	c, err := ParseClock(raw)
	if err != nil {
		errs[field] = label + " must be in HH:MM format"
		return false
	}
	*dst = c
	return true
}

func parseDateField(raw, field, label string, dst *Date, errs ValidationErrors) bool {
	if raw == "" {
		errs[field] = label + " is required"
		return false
	}
	d, err := ParseDate(raw)
	if err != nil {
		errs[field] = label + " must be in YYYY-MM-DD format"
		return false
	}
	*dst = d
	return true
}

func validateRange(v *int, field, label string, lo, hi int, dst *int, errs ValidationErrors) bool {
	if v == nil {
		errs[field] = label + " is required"
		return false
	}
	if *v < lo || *v > hi {
		errs[field] = fmt.Sprintf("%s must be between %d and %d minutes", label, lo, hi)
		return false
	}
	*dst = *v
	return true
}

func validateDays(codes []string, errs ValidationErrors) []time.Weekday {
	if len(codes) == 0 {
		errs[FieldAvailableDays] = "Select at least one available day"
		return nil
	}
	days := make([]time.Weekday, 0, len(codes))
	for _, code := range codes {
		w, ok := ParseWeekday(code)
		if !ok {
			errs[FieldAvailableDays] = fmt.Sprintf("Unknown day %q", code)
			return nil
		}
		if slices.Contains(days, w) {
			errs[FieldAvailableDays] = fmt.Sprintf("Day %q is listed more than once", code)
			return nil
		}
		days = append(days, w)
	}
	slices.Sort(days)
	return days
}

func validateExceptions(raw []string, from, to Date, rangeOK bool, errs ValidationErrors) []Date {
	dates := make([]Date, 0, len(raw))
	for _, s := range raw {
		d, err := ParseDate(s)
		if err != nil {
			errs[FieldExceptionDays] = fmt.Sprintf("Exception day %q is not a valid date", s)
			return nil
		}
		if rangeOK && (d < from || d > to) {
			errs[FieldExceptionDays] = fmt.Sprintf("Exception day %s is outside the rule's date range", s)
			return nil
		}
		dates = append(dates, d)
	}
	slices.Sort(dates)
	return slices.Compact(dates)
}
