package schedule

import (
	"encoding/json"
	"fmt"
)

// jsonField декодирует одно поле объекта и хранит сообщение для значения неверного типа
type jsonField struct {
	decode func(json.RawMessage) error
	msg    string
}

func field[T any](dst *T, msg string) jsonField {
	return jsonField{
		decode: func(raw json.RawMessage) error {
			var v T
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
			*dst = v
			return nil
		},
		msg: msg,
	}
}

func mustBeString(label string) string  { return label + " must be a string" }
func mustBeInteger(label string) string { return label + " must be an integer" }
func mustBeList(label string) string    { return label + " must be a list of strings" }

const msgFeeNotNumber = "Consultation fee must be a number"

// decodeFields разбирает JSON-объект по полям. Значение неверного типа не
// прерывает разбор, а попадает в ошибки своего поля. Ошибка возвращается,
// только если b не является объектом.
func decodeFields(b []byte, fields map[string]jsonField) (ValidationErrors, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("rule must be a JSON object: %w", err)
	}

	var errs ValidationErrors
	for name, value := range raw {
		f, ok := fields[name]
		if !ok {
			continue
		}
		if err := f.decode(value); err != nil {
			if errs == nil {
				errs = ValidationErrors{}
			}
			errs[name] = f.msg
		}
	}
	return errs, nil
}

// UnmarshalJSON разбирает правило так, что ошибки типов полей
// сообщаются вместе с остальными ошибками Validate.
func (in *RuleInput) UnmarshalJSON(b []byte) error {
	*in = RuleInput{}
	errs, err := decodeFields(b, map[string]jsonField{
		FieldTitle:           field(&in.Title, mustBeString("Title")),
		FieldStartTime:       field(&in.StartTime, mustBeString("Start time")),
		FieldEndTime:         field(&in.EndTime, mustBeString("End time")),
		FieldStartDate:       field(&in.StartDate, mustBeString("Start date")),
		FieldEndDate:         field(&in.EndDate, mustBeString("End date")),
		FieldAvailableDays:   field(&in.AvailableDays, mustBeList("Available days")),
		FieldBufferTime:      field(&in.BufferTime, mustBeInteger("Buffer time")),
		FieldSlotDuration:    field(&in.SlotDuration, mustBeInteger("Slot duration")),
		FieldMaxBookings:     field(&in.MaxBookings, mustBeInteger("Max bookings")),
		FieldSessionType:     field(&in.SessionType, mustBeString("Session type")),
		FieldConsultationFee: field(&in.ConsultationFee, msgFeeNotNumber),
		FieldExceptionDays:   field(&in.ExceptionDays, mustBeList("Exception days")),
	})
	if err != nil {
		return err
	}
	in.decodeErrs = errs
	return nil
}

func (p *RulePatch) UnmarshalJSON(b []byte) error {
	*p = RulePatch{}
	errs, err := decodeFields(b, map[string]jsonField{
		FieldTitle:           field(&p.Title, mustBeString("Title")),
		FieldStartTime:       field(&p.StartTime, mustBeString("Start time")),
		FieldEndTime:         field(&p.EndTime, mustBeString("End time")),
		FieldStartDate:       field(&p.StartDate, mustBeString("Start date")),
		FieldEndDate:         field(&p.EndDate, mustBeString("End date")),
		FieldAvailableDays:   field(&p.AvailableDays, mustBeList("Available days")),
		FieldBufferTime:      field(&p.BufferTime, mustBeInteger("Buffer time")),
		FieldSlotDuration:    field(&p.SlotDuration, mustBeInteger("Slot duration")),
		FieldMaxBookings:     field(&p.MaxBookings, mustBeInteger("Max bookings")),
		FieldSessionType:     field(&p.SessionType, mustBeString("Session type")),
		FieldConsultationFee: field(&p.ConsultationFee, msgFeeNotNumber),
		FieldExceptionDays:   field(&p.ExceptionDays, mustBeList("Exception days")),
	})
	if err != nil {
		return err
	}
	p.decodeErrs = errs
	return nil
}
