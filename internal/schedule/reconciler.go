package schedule

import (
	"cmp"
	"slices"
)

// BookedKeys сопоставляет занятому ключу слота id бронирования
type BookedKeys map[SlotKey]string

// Slot кандидат с известным состоянием бронирования
type Slot struct {
	SlotCandidate
	IsBooked  bool   `json:"isBooked"`
	BookingID string `json:"bookingId,omitempty"`
}

// SortCandidates сортирует кандидатов по дате и времени начала. Сортировка
// стабильная: при равном ключе кандидат более раннего правила остаётся первым.
func SortCandidates(candidates []SlotCandidate) {
	slices.SortStableFunc(candidates, func(a, b SlotCandidate) int {
		if c := cmp.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.StartTime, b.StartTime)
	})
}

// Reconcile помечает кандидата занятым, если его ключ занят.
// Из кандидатов с одинаковым ключом остаётся только первый.
func Reconcile(candidates []SlotCandidate, booked BookedKeys) []Slot {
	seen := make(map[SlotKey]struct{}, len(candidates))
	slots := make([]Slot, 0, len(candidates))

	for _, c := range candidates {
		key := c.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		slot := Slot{SlotCandidate: c}
		if bookingID, ok := booked[key]; ok {
			slot.IsBooked = true
			slot.BookingID = bookingID
		}
		slots = append(slots, slot)
	}
	return slots
}
