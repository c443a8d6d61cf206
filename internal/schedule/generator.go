package schedule

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// slotNamespace пространство имён для UUIDv5 идентификаторов слотов
var slotNamespace = uuid.MustParse("6f1c1d2e-3b7a-5c4e-9a0d-8e2f4b6c1a37")

// SlotKey идентифицирует слот в календаре одного юриста
type SlotKey struct {
	Date      Date
	StartTime Clock
}

func (k SlotKey) String() string {
	return k.Date.String() + " " + k.StartTime.String()
}

// SlotCandidate слот, выведенный из правила, без состояния бронирования
type SlotCandidate struct {
	ID              string          `json:"id"`
	LawyerID        string          `json:"lawyerId"`
	RuleID          string          `json:"ruleId"`
	Date            Date            `json:"date"`
	StartTime       Clock           `json:"startTime"`
	EndTime         Clock           `json:"endTime"`
	ConsultationFee decimal.Decimal `json:"consultationFee"`
}

func (c SlotCandidate) Key() SlotKey {
	return SlotKey{Date: c.Date, StartTime: c.StartTime}
}

// SlotID возвращает стабильный идентификатор слота (lawyerID, date, startTime)
func SlotID(lawyerID string, date Date, start Clock) string {
	name := fmt.Sprintf("%s|%s|%s", lawyerID, date, start)
	return uuid.NewSHA1(slotNamespace, []byte(name)).String()
}

// Generate нарезает дневное окно правила на слоты по SlotDuration минут
// с перерывом BufferTime. Слот выдаётся, только если заканчивается не позже EndTime.
// Окно короче слота с перерывом не даёт ни одного слота.
func Generate(lawyerID, ruleID string, rule ValidRule, date Date) []SlotCandidate {
	period := rule.SlotDuration + rule.BufferTime
	if rule.SlotDuration <= 0 || int(rule.EndTime-rule.StartTime) < period {
		return nil
	}

	slots := make([]SlotCandidate, 0, int(rule.EndTime-rule.StartTime)/period+1)
	for cursor := rule.StartTime; cursor+Clock(rule.SlotDuration) <= rule.EndTime; cursor += Clock(period) {
		slots = append(slots, SlotCandidate{
			ID:              SlotID(lawyerID, date, cursor),
			LawyerID:        lawyerID,
			RuleID:          ruleID,
			Date:            date,
			StartTime:       cursor,
			EndTime:         cursor + Clock(rule.SlotDuration),
			ConsultationFee: rule.ConsultationFee,
		})
	}
	return slots
}
