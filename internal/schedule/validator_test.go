package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func feePtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func validInput() RuleInput {
	return RuleInput{
		Title:           "Weekday mornings",
		StartTime:       "09:00",
		EndTime:         "12:00",
		StartDate:       "2024-01-01",
		EndDate:         "2024-01-31",
		AvailableDays:   []string{"Wed", "Mon"},
		BufferTime:      intPtr(15),
		SlotDuration:    intPtr(60),
		MaxBookings:     intPtr(1),
		SessionType:     SessionTypeVideoCall,
		ConsultationFee: feePtr("1500.50"),
		ExceptionDays:   []string{"2024-01-08"},
	}
}

var testToday = NewDate(2024, time.January, 1)

func TestValidate_ValidInput(t *testing.T) {
	rule, errs := Validate(validInput(), testToday)
	require.Empty(t, errs)

	assert.Equal(t, "Weekday mornings", rule.Title)
	assert.Equal(t, Clock(9*60), rule.StartTime)
	assert.Equal(t, Clock(12*60), rule.EndTime)
	assert.Equal(t, NewDate(2024, time.January, 1), rule.StartDate)
	assert.Equal(t, NewDate(2024, time.January, 31), rule.EndDate)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, rule.AvailableDays)
	assert.Equal(t, 15, rule.BufferTime)
	assert.Equal(t, 60, rule.SlotDuration)
	assert.Equal(t, 1, rule.MaxBookings)
	assert.Equal(t, SessionTypeVideoCall, rule.SessionType)
	assert.True(t, decimal.RequireFromString("1500.5").Equal(rule.ConsultationFee))
	assert.Equal(t, []Date{NewDate(2024, time.January, 8)}, rule.ExceptionDays)
}

func TestValidate_PolicyDefaults(t *testing.T) {
	in := validInput()
	in.MaxBookings = nil
	in.SessionType = ""

	rule, errs := Validate(in, testToday)
	require.Empty(t, errs)
	assert.Equal(t, DefaultMaxBookings, rule.MaxBookings)
	assert.Equal(t, SessionTypeVideoCall, rule.SessionType)
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	in := RuleInput{
		Title:           "  ab ",
		StartTime:       "12:00",
		EndTime:         "09:00",
		StartDate:       "2023-12-31",
		EndDate:         "2023-12-01",
		AvailableDays:   nil,
		BufferTime:      intPtr(4),
		SlotDuration:    intPtr(121),
		MaxBookings:     intPtr(2),
		SessionType:     "Phone",
		ConsultationFee: feePtr("0"),
		ExceptionDays:   []string{"not-a-date"},
	}

	_, errs := Validate(in, testToday)

	for _, field := range []string{
		FieldTitle, FieldEndTime, FieldStartDate, FieldEndDate, FieldAvailableDays,
		FieldBufferTime, FieldSlotDuration, FieldMaxBookings, FieldSessionType,
		FieldConsultationFee, FieldExceptionDays,
	} {
		assert.Contains(t, errs, field)
	}
}

func TestValidate_FieldRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RuleInput)
		field  string
	}{
		{"missing title", func(in *RuleInput) { in.Title = "   " }, FieldTitle},
		{"missing start time", func(in *RuleInput) { in.StartTime = "" }, FieldStartTime},
		{"malformed end time", func(in *RuleInput) { in.EndTime = "25:00" }, FieldEndTime},
		{"equal times", func(in *RuleInput) { in.EndTime = "09:00" }, FieldEndTime},
		{"start date in past", func(in *RuleInput) { in.StartDate = "2023-12-31" }, FieldStartDate},
		{"missing end date", func(in *RuleInput) { in.EndDate = "" }, FieldEndDate},
		{"unknown day", func(in *RuleInput) { in.AvailableDays = []string{"Funday"} }, FieldAvailableDays},
		{"duplicate day", func(in *RuleInput) { in.AvailableDays = []string{"Mon", "Mon"} }, FieldAvailableDays},
		{"missing buffer", func(in *RuleInput) { in.BufferTime = nil }, FieldBufferTime},
		{"buffer too long", func(in *RuleInput) { in.BufferTime = intPtr(61) }, FieldBufferTime},
		{"slot too short", func(in *RuleInput) { in.SlotDuration = intPtr(29) }, FieldSlotDuration},
		{"missing fee", func(in *RuleInput) { in.ConsultationFee = nil }, FieldConsultationFee},
		{"negative fee", func(in *RuleInput) { in.ConsultationFee = feePtr("-5") }, FieldConsultationFee},
		{"fee below a cent", func(in *RuleInput) { in.ConsultationFee = feePtr("1500.555") }, FieldConsultationFee},
		{"fee over column limit", func(in *RuleInput) { in.ConsultationFee = feePtr("10000000000") }, FieldConsultationFee},
		{"exception outside range", func(in *RuleInput) { in.ExceptionDays = []string{"2024-02-01"} }, FieldExceptionDays},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			_, errs := Validate(in, testToday)
			require.Len(t, errs, 1, "errors: %v", errs)
			assert.Contains(t, errs, tt.field)
		})
	}
}

func TestValidate_StartDateTodayIsAllowed(t *testing.T) {
	in := validInput()
	in.StartDate = "2024-01-01"
	in.EndDate = "2024-01-01"
	in.ExceptionDays = nil

	_, errs := Validate(in, testToday)
	assert.Empty(t, errs)
}

func TestValidate_Unsatisfiable(t *testing.T) {
	in := validInput()
	in.StartTime = "09:00"
	in.EndTime = "10:00"

	_, errs := Validate(in, testToday)
	require.Len(t, errs, 1)
	assert.True(t, errs.Unsatisfiable())
}

func TestValidate_Idempotent(t *testing.T) {
	for _, in := range []RuleInput{validInput(), {Title: "x"}} {
		r1, e1 := Validate(in, testToday)
		r2, e2 := Validate(in, testToday)
		assert.Equal(t, r1, r2)
		assert.Equal(t, e1, e2)
	}
}

func TestValidRule_InputRoundTrip(t *testing.T) {
	rule, errs := Validate(validInput(), testToday)
	require.Empty(t, errs)

	again, errs := Validate(rule.Input(), testToday)
	require.Empty(t, errs)
	assert.Equal(t, rule, again)
}

func TestRulePatch_Apply(t *testing.T) {
	base := validInput()
	title := "Evening sessions"
	patch := RulePatch{Title: &title, SlotDuration: intPtr(45)}

	out := patch.Apply(base)
	assert.Equal(t, "Evening sessions", out.Title)
	assert.Equal(t, 45, *out.SlotDuration)
	assert.Equal(t, base.StartTime, out.StartTime)
	assert.Equal(t, base.AvailableDays, out.AvailableDays)
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{FieldTitle: "Title is required", FieldBufferTime: "Buffer time is required"}
	assert.Equal(t, "validation failed: bufferTime: Buffer time is required; title: Title is required", errs.Error())
}

func TestValidate_FeeAtColumnLimit(t *testing.T) {
	in := validInput()
	in.ConsultationFee = feePtr("9999999999.99")

	rule, errs := Validate(in, testToday)
	require.Empty(t, errs)
	assert.True(t, MaxConsultationFee.Equal(rule.ConsultationFee))

	in.ConsultationFee = feePtr("100.500")
	_, errs = Validate(in, testToday)
	assert.Empty(t, errs, "trailing zeros are not extra precision")
}

func TestRuleInput_UnmarshalReportsTypeErrors(t *testing.T) {
	body := `{
		"title": "ab",
		"startTime": "09:00",
		"endTime": "12:00",
		"startDate": "2024-01-01",
		"endDate": "2024-01-31",
		"availableDays": ["Mon"],
		"bufferTime": "15",
		"slotDuration": 15.5,
		"consultationFee": "abc"
	}`

	var in RuleInput
	require.NoError(t, json.Unmarshal([]byte(body), &in))
	assert.Equal(t, "09:00", in.StartTime)
	assert.Nil(t, in.BufferTime)

	_, errs := Validate(in, testToday)
	assert.Equal(t, ValidationErrors{
		FieldTitle:           "Title must be at least 4 characters",
		FieldBufferTime:      "Buffer time must be an integer",
		FieldSlotDuration:    "Slot duration must be an integer",
		FieldConsultationFee: "Consultation fee must be a number",
	}, errs)

	assert.Error(t, json.Unmarshal([]byte(`["not", "an", "object"]`), &in))
}

func TestRulePatch_UnmarshalKeepsTypeErrors(t *testing.T) {
	var patch RulePatch
	require.NoError(t, json.Unmarshal([]byte(`{"title": "Evenings", "bufferTime": "15"}`), &patch))
	require.NotNil(t, patch.Title)
	assert.Nil(t, patch.BufferTime)

	_, errs := Validate(patch.Apply(validInput()), testToday)
	assert.Equal(t, ValidationErrors{FieldBufferTime: "Buffer time must be an integer"}, errs)
}
